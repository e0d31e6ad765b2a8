package staging

import (
	"errors"
	"os"
	"sync"
	"syscall"
	"time"

	"video-converter/internal/logging"
	"video-converter/internal/metrics"
)

// Kind labels a tracked file for logs and metrics.
type Kind string

const (
	// KindInput is the staged upload.
	KindInput Kind = "input"
	// KindOutput is the encoder artifact.
	KindOutput Kind = "output"
)

// RetryConfig configures retry behavior for removals on network filesystems
type RetryConfig struct {
	MaxRetries     int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
}

// DefaultRetryConfig returns sensible defaults for NFS retry behavior
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:     3,
		InitialBackoff: 50 * time.Millisecond,
		MaxBackoff:     500 * time.Millisecond,
	}
}

// isNFSStaleError checks if an error is an NFS stale file handle error
func isNFSStaleError(err error) bool {
	if err == nil {
		return false
	}

	var errno syscall.Errno
	if errors.As(err, &errno) {
		return errno == syscall.ESTALE
	}

	return false
}

// Remove deletes path. A path that no longer exists counts as removed, so
// calling Remove twice is harmless. Stale NFS handles are retried.
func Remove(path string, config RetryConfig) error {
	var lastErr error
	backoff := config.InitialBackoff

	for attempt := 0; attempt <= config.MaxRetries; attempt++ {
		err := os.Remove(path)
		if err == nil || errors.Is(err, os.ErrNotExist) {
			if attempt > 0 {
				logging.Info("Remove succeeded on retry %d for %s", attempt, path)
			}
			return nil
		}

		lastErr = err

		if !isNFSStaleError(err) {
			return err
		}

		if attempt < config.MaxRetries {
			logging.Debug("Remove stale file handle for %s, retrying in %v (attempt %d/%d)",
				path, backoff, attempt+1, config.MaxRetries)
			time.Sleep(backoff)

			backoff *= 2
			if backoff > config.MaxBackoff {
				backoff = config.MaxBackoff
			}
		}
	}

	return lastErr
}

type trackedFile struct {
	path    string
	kind    Kind
	removed bool
}

// Tracker collects the files belonging to one request and removes each of
// them exactly once. It is safe for concurrent use.
type Tracker struct {
	log   logging.JobLogger
	retry RetryConfig

	mu    sync.Mutex
	files []*trackedFile
}

// NewTracker creates a tracker whose log lines carry the job ID.
func NewTracker(jobID string) *Tracker {
	return &Tracker{
		log:   logging.Job(jobID),
		retry: DefaultRetryConfig(),
	}
}

// Track registers path for removal. Tracking the same path twice is a no-op.
func (t *Tracker) Track(path string, kind Kind) {
	if path == "" {
		return
	}

	t.mu.Lock()
	defer t.mu.Unlock()

	for _, f := range t.files {
		if f.path == path {
			return
		}
	}
	t.files = append(t.files, &trackedFile{path: path, kind: kind})
}

// Release removes every tracked file that has not been removed yet.
// Failures are logged and counted, never returned: by the time Release
// runs the client already has its response.
func (t *Tracker) Release() int {
	t.mu.Lock()
	pending := make([]*trackedFile, 0, len(t.files))
	for _, f := range t.files {
		if !f.removed {
			f.removed = true
			pending = append(pending, f)
		}
	}
	t.mu.Unlock()

	failed := 0
	for _, f := range pending {
		if err := Remove(f.path, t.retry); err != nil {
			failed++
			metrics.CleanupErrorsTotal.WithLabelValues(string(f.kind)).Inc()
			t.log.Warn("Failed to remove %s file %s: %v", f.kind, f.path, err)
			continue
		}
		t.log.Debug("Removed %s file %s", f.kind, f.path)
	}
	return failed
}
