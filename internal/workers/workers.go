package workers

import (
	"fmt"
	"runtime"
	"strconv"
	"strings"
	"sync/atomic"

	"golang.org/x/sync/semaphore"
)

// Count returns a worker count scaled to the CPUs this container may use.
// It respects container CPU limits via GOMAXPROCS (Go 1.19+).
//
// The multiplier scales the CPU count; the limit caps the result (0 means
// no cap). The result is never below one.
func Count(multiplier float64, limit int) int {
	available := runtime.GOMAXPROCS(0)
	n := int(float64(available) * multiplier)

	if n < 1 {
		n = 1
	}
	if limit > 0 && n > limit {
		n = limit
	}
	return n
}

// ForEncoder returns a slot count for encoder processes. An x264 run is
// itself multi-threaded, so half a run per CPU keeps a burst of uploads
// from oversubscribing the machine.
func ForEncoder(limit int) int {
	return Count(0.5, limit)
}

// ParseLimit interprets a MAX_CONCURRENT_ENCODES value: empty or "0" means
// unlimited (0), "auto" sizes from the CPU count, and any other value must
// be a positive integer.
func ParseLimit(raw string) (int, error) {
	raw = strings.TrimSpace(raw)
	switch strings.ToLower(raw) {
	case "", "0":
		return 0, nil
	case "auto":
		return ForEncoder(0), nil
	}

	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid concurrency limit %q (want a positive number, 0 or auto)", raw)
	}
	return n, nil
}

// Limiter admits at most a fixed number of concurrent holders and turns
// the rest away immediately; nothing ever waits on it. A nil *Limiter
// admits everyone.
type Limiter struct {
	sem      *semaphore.Weighted
	capacity int
	inUse    atomic.Int64
}

// NewLimiter returns a limiter with n slots; n <= 0 yields nil (unbounded).
func NewLimiter(n int) *Limiter {
	if n <= 0 {
		return nil
	}
	return &Limiter{sem: semaphore.NewWeighted(int64(n)), capacity: n}
}

// TryAcquire takes a slot if one is free. Every successful TryAcquire must
// be paired with Release.
func (l *Limiter) TryAcquire() bool {
	if l == nil {
		return true
	}
	if !l.sem.TryAcquire(1) {
		return false
	}
	l.inUse.Add(1)
	return true
}

// Release frees a slot taken by TryAcquire. Releasing a slot that was never
// acquired panics.
func (l *Limiter) Release() {
	if l == nil {
		return
	}
	l.inUse.Add(-1)
	l.sem.Release(1)
}

// Capacity returns the number of slots (0 for an unbounded limiter).
func (l *Limiter) Capacity() int {
	if l == nil {
		return 0
	}
	return l.capacity
}

// InUse returns the number of slots currently held.
func (l *Limiter) InUse() int {
	if l == nil {
		return 0
	}
	return int(l.inUse.Load())
}
