package streaming

import (
	"context"
	"errors"
	"net/http"
	"sync"
	"time"

	"video-converter/internal/logging"
)

var (
	// ErrWriteTimeout means a single write, or the gap between writes,
	// exceeded its limit. The client is reading too slowly or has stalled.
	ErrWriteTimeout = errors.New("write timeout exceeded")

	// ErrClientGone means the request context ended before the body was sent.
	ErrClientGone = errors.New("client disconnected")

	// ErrStreamClosed means the writer was closed by its owner.
	ErrStreamClosed = errors.New("stream closed")
)

// Config bounds how long a response body may take to drain.
type Config struct {
	// WriteTimeout is the maximum time a single write may block.
	WriteTimeout time.Duration
	// IdleTimeout is the maximum time between successful writes (0 = off).
	IdleTimeout time.Duration
	// ChunkSize splits large writes and flushes between them (0 = as given).
	ChunkSize int
}

// DefaultConfig returns the limits used for converted artifacts.
func DefaultConfig() Config {
	return Config{
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
		ChunkSize:    64 * 1024,
	}
}

// TimeoutWriter wraps an http.ResponseWriter so a stalled client cannot pin
// the handler goroutine (and the artifact it holds open) forever.
type TimeoutWriter struct {
	w       http.ResponseWriter
	flusher http.Flusher
	config  Config

	ctx    context.Context
	cancel context.CancelCauseFunc

	mu        sync.Mutex
	start     time.Time
	lastWrite time.Time
	written   int64
	closed    bool
}

// NewTimeoutWriter creates a writer bound to ctx, normally the request context.
func NewTimeoutWriter(ctx context.Context, w http.ResponseWriter, config Config) *TimeoutWriter {
	wctx, cancel := context.WithCancelCause(ctx)
	now := time.Now()

	tw := &TimeoutWriter{
		w:         w,
		config:    config,
		ctx:       wctx,
		cancel:    cancel,
		start:     now,
		lastWrite: now,
	}
	if f, ok := w.(http.Flusher); ok {
		tw.flusher = f
	}

	if config.IdleTimeout > 0 {
		go tw.watchIdle()
	}
	return tw
}

// Write implements io.Writer.
func (tw *TimeoutWriter) Write(p []byte) (int, error) {
	if err := tw.err(); err != nil {
		return 0, err
	}

	size := tw.config.ChunkSize
	if size <= 0 || len(p) <= size {
		return tw.writeOnce(p)
	}

	total := 0
	for len(p) > 0 {
		n := min(size, len(p))
		written, err := tw.writeOnce(p[:n])
		total += written
		if err != nil {
			return total, err
		}
		p = p[n:]

		if tw.flusher != nil {
			tw.flusher.Flush()
		}
	}
	return total, nil
}

type writeResult struct {
	n   int
	err error
}

func (tw *TimeoutWriter) writeOnce(p []byte) (int, error) {
	if err := tw.err(); err != nil {
		return 0, err
	}

	done := make(chan writeResult, 1)
	go func() {
		n, err := tw.w.Write(p)
		done <- writeResult{n, err}
	}()

	var timeout <-chan time.Time
	if tw.config.WriteTimeout > 0 {
		timer := time.NewTimer(tw.config.WriteTimeout)
		defer timer.Stop()
		timeout = timer.C
	}

	select {
	case res := <-done:
		if res.err == nil {
			tw.mu.Lock()
			tw.lastWrite = time.Now()
			tw.written += int64(res.n)
			tw.mu.Unlock()
		}
		return res.n, res.err
	case <-timeout:
		tw.cancel(ErrWriteTimeout)
		return 0, ErrWriteTimeout
	case <-tw.ctx.Done():
		return 0, tw.err()
	}
}

func (tw *TimeoutWriter) watchIdle() {
	ticker := time.NewTicker(tw.config.IdleTimeout / 4)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			tw.mu.Lock()
			idle := time.Since(tw.lastWrite)
			tw.mu.Unlock()

			if idle > tw.config.IdleTimeout {
				logging.Warn("Stream idle for %v, abandoning response", idle.Round(time.Millisecond))
				tw.cancel(ErrWriteTimeout)
				return
			}
		case <-tw.ctx.Done():
			return
		}
	}
}

// err maps the writer context state onto the package sentinels.
func (tw *TimeoutWriter) err() error {
	if tw.ctx.Err() == nil {
		return nil
	}
	switch cause := context.Cause(tw.ctx); {
	case errors.Is(cause, ErrWriteTimeout):
		return ErrWriteTimeout
	case errors.Is(cause, ErrStreamClosed):
		return ErrStreamClosed
	default:
		return ErrClientGone
	}
}

// Close stops the writer. It is safe to call more than once.
func (tw *TimeoutWriter) Close() error {
	tw.mu.Lock()
	defer tw.mu.Unlock()

	if !tw.closed {
		tw.closed = true
		tw.cancel(ErrStreamClosed)
	}
	return nil
}

// Stats returns the bytes written so far and the time since creation.
func (tw *TimeoutWriter) Stats() (int64, time.Duration) {
	tw.mu.Lock()
	defer tw.mu.Unlock()
	return tw.written, time.Since(tw.start)
}
