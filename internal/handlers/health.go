package handlers

import (
	"net/http"
	"runtime"
	"time"

	"video-converter/internal/startup"
)

const (
	statusHealthy  = "healthy"
	statusDegraded = "degraded"
)

// HealthResponse contains the health check response
type HealthResponse struct {
	Status  string `json:"status"`
	Ready   bool   `json:"ready"`
	Version string `json:"version"`
	Uptime  string `json:"uptime"`

	EncoderAvailable  bool   `json:"encoderAvailable"`
	StagingWritable   bool   `json:"stagingWritable"`
	StagingError      string `json:"stagingError,omitempty"`
	ActiveConversions int    `json:"activeConversions"`
	EncoderSlots      int    `json:"encoderSlots"`
	EncoderSlotsInUse int    `json:"encoderSlotsInUse"`
	StagingFiles      int    `json:"stagingFiles"`
	StagingBytes      int64  `json:"stagingBytes"`

	// System info
	GoVersion    string `json:"goVersion"`
	NumCPU       int    `json:"numCpu"`
	NumGoroutine int    `json:"numGoroutine"`
}

// HealthCheck returns the health status of the service
func (h *Handlers) HealthCheck(w http.ResponseWriter, _ *http.Request) {
	response := HealthResponse{
		Version:           startup.Version,
		Uptime:            time.Since(h.startTime).Round(time.Second).String(),
		EncoderAvailable:  h.encoderAvailable.Load(),
		ActiveConversions: h.transcoder.Active(),
		GoVersion:         runtime.Version(),
		NumCPU:            runtime.NumCPU(),
		NumGoroutine:      runtime.NumGoroutine(),
	}
	response.EncoderSlots = h.limiter.Capacity()
	response.EncoderSlotsInUse = h.limiter.InUse()

	files, bytes, err := h.staging.Usage()
	if err != nil {
		response.StagingError = err.Error()
	} else {
		response.StagingWritable = true
		response.StagingFiles = files
		response.StagingBytes = bytes
	}

	response.Ready = h.ready(err)
	if response.Ready {
		response.Status = statusHealthy
	} else {
		response.Status = statusDegraded
	}

	w.Header().Set("Content-Type", "application/json")
	if !response.Ready {
		w.WriteHeader(http.StatusServiceUnavailable)
	}
	writeJSON(w, response)
}

// LivenessCheck is a simple liveness probe (always returns 200 if server is running)
func (h *Handlers) LivenessCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)

	if r.Method != http.MethodHead {
		writeJSONStatus(w, "alive")
	}
}

// ReadinessCheck returns 200 only when conversions can succeed: the staging
// directory is reachable and the encoder was found at startup.
func (h *Handlers) ReadinessCheck(w http.ResponseWriter, _ *http.Request) {
	_, _, err := h.staging.Usage()

	w.Header().Set("Content-Type", "application/json")
	if h.ready(err) {
		w.WriteHeader(http.StatusOK)
		writeJSONStatus(w, "ready")
		return
	}
	w.WriteHeader(http.StatusServiceUnavailable)
	writeJSONStatus(w, "not_ready")
}

func (h *Handlers) ready(stagingErr error) bool {
	return stagingErr == nil && h.encoderAvailable.Load()
}
