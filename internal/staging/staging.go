package staging

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"video-converter/internal/logging"

	"github.com/gofrs/flock"
	"github.com/google/uuid"
)

// ownerLockName is the lock file that marks the process allowed to sweep.
const ownerLockName = ".owner.lock"

// ErrInUse is returned by Sweep when another process owns the directory.
var ErrInUse = errors.New("staging directory is owned by another process")

// Dir is a staging directory prepared at startup.
type Dir struct {
	path  string
	retry RetryConfig
	lock  *flock.Flock
}

// Prepare resolves path, creates it when missing and checks that it is
// writable. Any error here is meant to stop the service from starting.
func Prepare(path string) (*Dir, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve staging directory path: %w", err)
	}

	if err := os.MkdirAll(abs, 0o750); err != nil {
		return nil, fmt.Errorf("failed to create staging directory: %w", err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("failed to stat staging directory: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("staging path %s exists but is not a directory", abs)
	}

	probe, err := os.CreateTemp(abs, ".write-test-*")
	if err != nil {
		return nil, fmt.Errorf("staging directory is not writable: %w", err)
	}
	probeName := probe.Name()
	if err := probe.Close(); err != nil {
		logging.Warn("failed to close write test file %s: %v", probeName, err)
	}
	if err := os.Remove(probeName); err != nil {
		logging.Warn("failed to remove write test file %s: %v", probeName, err)
	}

	return &Dir{
		path:  abs,
		retry: DefaultRetryConfig(),
		lock:  flock.New(filepath.Join(abs, ownerLockName)),
	}, nil
}

// Claim takes the directory's owner lock without blocking. It reports false
// when another process holds it. The lock is kept until Close.
func (d *Dir) Claim() (bool, error) {
	if d.lock.Locked() {
		return true, nil
	}
	ok, err := d.lock.TryLock()
	if err != nil {
		return false, fmt.Errorf("acquire staging lock: %w", err)
	}
	return ok, nil
}

// Close releases the owner lock if this process holds it.
func (d *Dir) Close() error {
	if err := d.lock.Unlock(); err != nil {
		return fmt.Errorf("release staging lock: %w", err)
	}
	return nil
}

// Path returns the absolute staging directory.
func (d *Dir) Path() string {
	return d.path
}

// newPath returns a fresh, unique path inside the directory.
func (d *Dir) newPath(id, ext string) string {
	return filepath.Join(d.path, id+ext)
}

// isStagedName reports whether name was produced by this package.
func isStagedName(name string) bool {
	if len(name) < 36 {
		return false
	}
	_, err := uuid.Parse(name[:36])
	return err == nil
}

// Usage counts staged files and their total size. Unrelated files that
// happen to share the directory are ignored.
func (d *Dir) Usage() (int, int64, error) {
	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, 0, fmt.Errorf("failed to read staging directory: %w", err)
	}

	var files int
	var size int64
	for _, entry := range entries {
		if entry.IsDir() || !isStagedName(entry.Name()) {
			continue
		}
		info, err := entry.Info()
		if err != nil {
			// Removed between ReadDir and Info by a finishing request.
			continue
		}
		files++
		size += info.Size()
	}
	return files, size, nil
}

// Sweep removes staged files left behind by a previous process that died
// before its cleanup ran. It must only be called before serving requests.
// Sweep claims the directory first; if another live process owns it, nothing
// is removed and ErrInUse is returned.
func (d *Dir) Sweep() (int, error) {
	ok, err := d.Claim()
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrInUse
	}

	entries, err := os.ReadDir(d.path)
	if err != nil {
		return 0, fmt.Errorf("failed to read staging directory: %w", err)
	}

	removed := 0
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || strings.HasPrefix(name, ".") || !isStagedName(name) {
			continue
		}
		if err := Remove(filepath.Join(d.path, name), d.retry); err != nil {
			logging.Warn("failed to remove orphaned staging file %s: %v", name, err)
			continue
		}
		removed++
	}
	return removed, nil
}
