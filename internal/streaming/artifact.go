package streaming

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"video-converter/internal/encoder"
	"video-converter/internal/logging"
	"video-converter/internal/metrics"
)

// ErrArtifactUnavailable is returned when the artifact cannot be opened.
// No response has been written in that case.
var ErrArtifactUnavailable = errors.New("artifact unavailable")

// ContentDisposition renders an attachment header for name. Names outside
// printable ASCII also get an RFC 5987 filename* parameter.
func ContentDisposition(name string) string {
	v := `attachment; filename="` + name + `"`
	for i := 0; i < len(name); i++ {
		if name[i] < 0x20 || name[i] > 0x7e {
			return v + "; filename*=UTF-8''" + url.PathEscape(name)
		}
	}
	return v
}

// ServeArtifact streams the file at path as an MP4 attachment called
// downloadName. It returns the number of body bytes sent.
//
// An ErrArtifactUnavailable error means nothing was written and the caller
// may still send an error response. Any other error happened after the
// status line went out; it is logged and counted here and the caller should
// only stop.
func ServeArtifact(ctx context.Context, w http.ResponseWriter, path, downloadName string, config Config) (int64, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return 0, fmt.Errorf("%w: %v", ErrArtifactUnavailable, err)
	}

	h := w.Header()
	h.Set("Content-Type", encoder.MediaType)
	h.Set("Content-Disposition", ContentDisposition(downloadName))
	h.Set("Content-Length", strconv.FormatInt(info.Size(), 10))
	h.Set("X-Content-Type-Options", "nosniff")
	h.Set("Cache-Control", "no-store")
	w.WriteHeader(http.StatusOK)

	tw := NewTimeoutWriter(ctx, w, config)
	defer tw.Close()

	n, err := io.Copy(tw, f)
	metrics.StreamedBytesTotal.Add(float64(n))

	_, took := tw.Stats()
	if err != nil {
		reason := Reason(err)
		metrics.StreamErrorsTotal.WithLabelValues(reason).Inc()
		if reason == reasonClientGone {
			logging.Debug("Client went away after %d of %d bytes of %s", n, info.Size(), path)
		} else {
			logging.Warn("Streaming %s failed after %d bytes: %v", path, n, err)
		}
		return n, err
	}

	logging.Debug("Streamed %d bytes in %v", n, took.Round(time.Millisecond))
	return n, nil
}

const (
	reasonClientGone   = "client_gone"
	reasonWriteTimeout = "write_timeout"
	reasonIO           = "io_error"
)

// Reason classifies a streaming error for the stream error metric.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrClientGone), errors.Is(err, context.Canceled):
		return reasonClientGone
	case errors.Is(err, ErrWriteTimeout):
		return reasonWriteTimeout
	default:
		return reasonIO
	}
}
