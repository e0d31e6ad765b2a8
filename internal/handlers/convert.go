package handlers

import (
	"context"
	"errors"
	"net/http"

	"video-converter/internal/encoder"
	"video-converter/internal/logging"
	"video-converter/internal/metrics"
	"video-converter/internal/staging"
	"video-converter/internal/streaming"
	"video-converter/internal/transcoder"
)

// Convert accepts a multipart upload, converts it to MP4 and streams the
// result back as an attachment.
// POST /convert
//
// Every file this request puts on disk is removed before the handler
// returns, whatever the outcome.
func (h *Handlers) Convert(w http.ResponseWriter, r *http.Request) {
	if !h.limiter.TryAcquire() {
		metrics.UploadsRejectedTotal.WithLabelValues("busy").Inc()
		logging.Warn("Rejecting conversion: all %d encoder slots busy", h.limiter.Capacity())
		w.Header().Set("Retry-After", "30")
		http.Error(w, "Too many conversions in progress, try again later", http.StatusServiceUnavailable)
		return
	}
	defer h.limiter.Release()

	upload, err := h.staging.Stage(w, r, h.uploads)
	if err != nil {
		h.rejectUpload(w, err)
		return
	}

	log := logging.Job(upload.ID)
	tracker := staging.NewTracker(upload.ID)
	defer tracker.Release()
	tracker.Track(upload.SourcePath, staging.KindInput)

	log.Info("Received %q (%d bytes), audio bitrate %dk", logging.Sanitize(upload.OriginalName), upload.Size, upload.BitrateKbps)

	job := h.transcoder.NewJob(transcoder.Request{
		JobID:       upload.ID,
		InputPath:   upload.SourcePath,
		BitrateKbps: upload.BitrateKbps,
	})
	// Tracked before the run so a partial artifact is removed on failure too.
	tracker.Track(job.OutputPath, staging.KindOutput)

	// The client going away does not stop the encoder; shutdown and the
	// configured timeout do.
	outcome := h.transcoder.Run(context.WithoutCancel(r.Context()), job)
	if !outcome.Succeeded() {
		http.Error(w, outcome.Diagnostic(), http.StatusInternalServerError)
		return
	}

	name := encoder.DownloadName(upload.OriginalName)
	n, err := streaming.ServeArtifact(r.Context(), w, outcome.OutputPath, name, h.stream)
	if errors.Is(err, streaming.ErrArtifactUnavailable) {
		log.Error("Artifact vanished before streaming: %v", err)
		http.Error(w, "Conversion output could not be read", http.StatusInternalServerError)
		return
	}
	if err == nil {
		log.Info("Delivered %s (%d bytes)", logging.Sanitize(name), n)
	}
}

func (h *Handlers) rejectUpload(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, staging.ErrUploadMissing):
		http.Error(w, "No file uploaded", http.StatusBadRequest)
	case errors.Is(err, staging.ErrUploadTooLarge):
		http.Error(w, "Upload exceeds the maximum allowed size", http.StatusRequestEntityTooLarge)
	case errors.Is(err, staging.ErrBadForm):
		logging.Debug("Rejected malformed upload: %v", err)
		http.Error(w, "Malformed multipart upload", http.StatusBadRequest)
	default:
		logging.Error("Failed to stage upload: %v", err)
		http.Error(w, "Failed to store upload", http.StatusInternalServerError)
	}
}
