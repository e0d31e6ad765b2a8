package handlers

import (
	"sync/atomic"
	"time"

	"video-converter/internal/staging"
	"video-converter/internal/startup"
	"video-converter/internal/streaming"
	"video-converter/internal/transcoder"
	"video-converter/internal/workers"
)

// Handlers holds the dependencies shared by all HTTP handlers.
type Handlers struct {
	staging    *staging.Dir
	transcoder *transcoder.Transcoder
	uploads    staging.UploadOptions
	stream     streaming.Config
	startTime  time.Time
	// limiter caps concurrent conversions; nil when unlimited.
	limiter *workers.Limiter

	encoderAvailable atomic.Bool
}

// New creates the handler set. encoderAvailable is the result of the
// startup encoder check and drives the readiness probe.
func New(dir *staging.Dir, trans *transcoder.Transcoder, config *startup.Config, encoderAvailable bool) *Handlers {
	h := &Handlers{
		staging:    dir,
		transcoder: trans,
		uploads: staging.UploadOptions{
			MaxBytes:       config.MaxUploadBytes,
			DefaultBitrate: config.DefaultBitrateKbps,
		},
		stream:    streaming.DefaultConfig(),
		startTime: time.Now(),
		limiter:   workers.NewLimiter(config.MaxConcurrentEncodes),
	}
	h.encoderAvailable.Store(encoderAvailable)
	return h
}
