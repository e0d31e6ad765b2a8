package handlers

import (
	"bytes"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"video-converter/internal/encoder"
	"video-converter/internal/staging"
	"video-converter/internal/startup"
	"video-converter/internal/streaming"
	"video-converter/internal/transcoder"
)

// Stub encoders. Script mode receives input, output and bitrate; the stubs
// record their arguments next to themselves and touch "invoked".
const (
	stubScriptSuccess = `dir=$(dirname "$0")
touch "$dir/invoked"
printf '%s\n' "$@" > "$dir/args"
{ printf '\000\000\000\040ftypisom'; cat "$1"; } > "$2"`

	stubFFmpegSuccess = `dir=$(dirname "$0")
touch "$dir/invoked"
printf '%s\n' "$@" > "$dir/args"
for last; do :; done
printf '\000\000\000\040ftypisom' > "$last"`

	stubNoOutput = `touch "$(dirname "$0")/invoked"
exit 0`

	stubFailure = `touch "$(dirname "$0")/invoked"
echo "moov atom not found" >&2
exit 1`

	// Leaves a partial artifact behind before failing.
	stubPartialFailure = `touch "$(dirname "$0")/invoked"
printf 'partial' > "$2"
exit 1`
)

type testEnv struct {
	h       *Handlers
	staging string
	stubDir string
}

func newTestEnv(t *testing.T, mode encoder.Mode, stub string) *testEnv {
	t.Helper()

	stubDir := t.TempDir()
	stubPath := filepath.Join(stubDir, "encoder.sh")
	if err := os.WriteFile(stubPath, []byte("#!/bin/sh\n"+stub+"\n"), 0o755); err != nil {
		t.Fatalf("failed to write stub encoder: %v", err)
	}

	dir, err := staging.Prepare(filepath.Join(t.TempDir(), "uploads"))
	if err != nil {
		t.Fatalf("staging.Prepare() error = %v", err)
	}

	trans := transcoder.New(transcoder.Config{ExecutablePath: stubPath, Mode: mode})
	t.Cleanup(trans.Shutdown)

	config := &startup.Config{
		MaxUploadBytes:     1 << 20,
		DefaultBitrateKbps: encoder.DefaultBitrateKbps,
	}

	return &testEnv{
		h:       New(dir, trans, config, true),
		staging: dir.Path(),
		stubDir: stubDir,
	}
}

func (e *testEnv) invoked() bool {
	_, err := os.Stat(filepath.Join(e.stubDir, "invoked"))
	return err == nil
}

func (e *testEnv) args(t *testing.T) []byte {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(e.stubDir, "args"))
	if err != nil {
		t.Fatalf("stub encoder did not record arguments: %v", err)
	}
	return data
}

// assertStagingEmpty checks that no request left files behind.
func (e *testEnv) assertStagingEmpty(t *testing.T) {
	t.Helper()
	entries, err := os.ReadDir(e.staging)
	if err != nil {
		t.Fatalf("failed to read staging dir: %v", err)
	}
	for _, entry := range entries {
		t.Errorf("leftover staging file: %s", entry.Name())
	}
}

type formField struct {
	name     string
	filename string
	content  string
}

func newUploadRequest(t *testing.T, fields ...formField) *http.Request {
	t.Helper()

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	for _, f := range fields {
		var (
			w   io.Writer
			err error
		)
		if f.filename != "" {
			w, err = mw.CreateFormFile(f.name, f.filename)
		} else {
			w, err = mw.CreateFormField(f.name)
		}
		if err != nil {
			t.Fatalf("failed to create form part: %v", err)
		}
		if _, err := w.Write([]byte(f.content)); err != nil {
			t.Fatalf("failed to write form part: %v", err)
		}
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("failed to close multipart writer: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, "/convert", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	return req
}

func TestNew(t *testing.T) {
	env := newTestEnv(t, encoder.ModeScript, stubScriptSuccess)

	if env.h.uploads.MaxBytes != 1<<20 || env.h.uploads.DefaultBitrate != 30 {
		t.Errorf("upload options = %+v", env.h.uploads)
	}
	if !env.h.encoderAvailable.Load() {
		t.Error("encoderAvailable should be true")
	}
	if env.h.stream != streaming.DefaultConfig() {
		t.Errorf("stream config = %+v", env.h.stream)
	}
}
