package transcoder

import (
	"context"
	"fmt"
	"os/exec"
	"strings"
	"time"

	"video-converter/internal/encoder"
)

// CheckEncoder resolves the encoder executable and, in ffmpeg mode, asks it
// for its version. The returned string is the first line of that output
// (or the resolved path in script mode).
func CheckEncoder(ctx context.Context, path string, mode encoder.Mode) (string, error) {
	resolved, err := exec.LookPath(path)
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrEncoderNotFound, path, err)
	}

	if mode == encoder.ModeScript {
		return resolved, nil
	}

	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	out, err := exec.CommandContext(ctx, resolved, "-hide_banner", "-version").Output()
	if err != nil {
		return "", fmt.Errorf("running %s -version: %w", resolved, err)
	}

	first, _, _ := strings.Cut(string(out), "\n")
	return strings.TrimSpace(first), nil
}
