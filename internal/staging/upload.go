package staging

import (
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"video-converter/internal/encoder"
	"video-converter/internal/mediatypes"
	"video-converter/internal/metrics"

	"github.com/google/uuid"
)

// Sentinel errors for upload staging.
var (
	// ErrUploadMissing indicates the request carried no file under any
	// accepted field name.
	ErrUploadMissing = errors.New("no file uploaded")

	// ErrUploadTooLarge indicates the request body exceeded the configured cap.
	ErrUploadTooLarge = errors.New("upload exceeds size limit")

	// ErrBadForm indicates a multipart body that could not be parsed.
	ErrBadForm = errors.New("malformed multipart form")
)

// FileFields are the multipart field names accepted for the upload, in
// order of preference.
var FileFields = []string{"video", "videoFile"}

// BitrateField is the optional multipart field carrying the audio bitrate.
const BitrateField = "bitrate"

// maxFieldBytes caps how much of a non-file field is read.
const maxFieldBytes = 1024

// UploadOptions bound a single staging operation.
type UploadOptions struct {
	// MaxBytes caps the whole request body (0 = unlimited).
	MaxBytes int64
	// DefaultBitrate replaces a missing or unparsable bitrate field.
	DefaultBitrate int
}

// Request is a staged upload, ready for conversion.
type Request struct {
	ID           string
	SourcePath   string
	OriginalName string
	BitrateKbps  int
	Size         int64
}

// Stage streams the multipart body of r into the staging directory.
//
// The first part whose field name is in FileFields and which carries a file
// name is written to disk; further file parts are drained. The bitrate field
// may appear before or after the file. On any error nothing is left on disk.
func (d *Dir) Stage(w http.ResponseWriter, r *http.Request, opts UploadOptions) (*Request, error) {
	if opts.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, opts.MaxBytes)
	}

	mr, err := r.MultipartReader()
	if err != nil {
		// Not multipart at all: there is no file to speak of.
		metrics.UploadsRejectedTotal.WithLabelValues("missing_file").Inc()
		return nil, ErrUploadMissing
	}

	req := &Request{ID: uuid.NewString()}
	bitrateRaw := ""

	for {
		part, err := mr.NextPart()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			d.discard(req)
			return nil, classifyReadError(err)
		}

		switch {
		case isFileField(part.FormName()) && part.FileName() != "" && req.SourcePath == "":
			if err := d.writePart(req, part); err != nil {
				_ = part.Close()
				d.discard(req)
				return nil, err
			}
		case part.FormName() == BitrateField && part.FileName() == "":
			raw, err := io.ReadAll(io.LimitReader(part, maxFieldBytes))
			if err != nil {
				_ = part.Close()
				d.discard(req)
				return nil, classifyReadError(err)
			}
			bitrateRaw = string(raw)
		default:
			if _, err := io.Copy(io.Discard, part); err != nil {
				_ = part.Close()
				d.discard(req)
				return nil, classifyReadError(err)
			}
		}
		_ = part.Close()
	}

	if req.SourcePath == "" {
		metrics.UploadsRejectedTotal.WithLabelValues("missing_file").Inc()
		return nil, ErrUploadMissing
	}

	req.BitrateKbps = encoder.ResolveBitrate(bitrateRaw, opts.DefaultBitrate)
	metrics.UploadBytes.Observe(float64(req.Size))
	return req, nil
}

// writePart copies one file part to a freshly named staging file.
func (d *Dir) writePart(req *Request, part *multipart.Part) error {
	req.OriginalName = part.FileName()
	req.SourcePath = d.newPath(req.ID, stagedExt(req.OriginalName))

	f, err := os.OpenFile(req.SourcePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		req.SourcePath = ""
		metrics.UploadsRejectedTotal.WithLabelValues("stage_error").Inc()
		return fmt.Errorf("failed to create staging file: %w", err)
	}

	n, copyErr := io.Copy(f, part)
	closeErr := f.Close()
	req.Size = n

	if copyErr != nil {
		return classifyReadError(copyErr)
	}
	if closeErr != nil {
		metrics.UploadsRejectedTotal.WithLabelValues("stage_error").Inc()
		return fmt.Errorf("failed to finish staging file: %w", closeErr)
	}
	return nil
}

// discard removes a partially staged file after a failed upload.
func (d *Dir) discard(req *Request) {
	if req.SourcePath == "" {
		return
	}
	if err := Remove(req.SourcePath, d.retry); err != nil {
		metrics.CleanupErrorsTotal.WithLabelValues(string(KindInput)).Inc()
	}
	req.SourcePath = ""
}

func classifyReadError(err error) error {
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		metrics.UploadsRejectedTotal.WithLabelValues("too_large").Inc()
		return ErrUploadTooLarge
	}
	metrics.UploadsRejectedTotal.WithLabelValues("bad_form").Inc()
	return fmt.Errorf("%w: %v", ErrBadForm, err)
}

func isFileField(name string) bool {
	for _, f := range FileFields {
		if name == f {
			return true
		}
	}
	return false
}

// stagedExt keeps the upload's extension only when it is a known video
// extension; the client-supplied name never reaches the filesystem.
func stagedExt(name string) string {
	ext := strings.ToLower(filepath.Ext(name))
	if mediatypes.IsVideoExtension(ext) {
		return ext
	}
	return ".upload"
}

// StageReader copies src into the staging directory under a fresh name.
// It serves callers that already hold the bytes (the command-line
// converter reading a local file or stdin) instead of a multipart body.
func (d *Dir) StageReader(name string, src io.Reader, bitrateKbps int) (*Request, error) {
	req := &Request{
		ID:           uuid.NewString(),
		OriginalName: name,
		BitrateKbps:  bitrateKbps,
	}
	req.SourcePath = d.newPath(req.ID, stagedExt(name))

	f, err := os.OpenFile(req.SourcePath, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o640)
	if err != nil {
		return nil, fmt.Errorf("failed to create staging file: %w", err)
	}

	n, copyErr := io.Copy(f, src)
	closeErr := f.Close()
	req.Size = n

	if err := errors.Join(copyErr, closeErr); err != nil {
		d.discard(req)
		return nil, fmt.Errorf("failed to stage %s: %w", name, err)
	}
	if n == 0 {
		d.discard(req)
		return nil, ErrUploadMissing
	}
	return req, nil
}
