/*
Package workers sizes and enforces an optional cap on concurrent
conversions.

By default every conversion request gets its own encoder process and
nothing is limited. Operators that need to protect a small machine set
MAX_CONCURRENT_ENCODES; requests beyond the cap are turned away with 503
rather than queued.

When running in a container the CPUs available to the process may be
limited by cgroup constraints. Go 1.19+ sets GOMAXPROCS from that limit,
while runtime.NumCPU() still reports the host's CPUs, so "auto" derives the
cap from GOMAXPROCS:

	n, err := workers.ParseLimit(os.Getenv("MAX_CONCURRENT_ENCODES"))
	lim := workers.NewLimiter(n) // nil when n == 0: admits everyone

	if !lim.TryAcquire() {
		// reply 503
	}
	defer lim.Release()

All functions and Limiter methods are safe for concurrent use.
*/
package workers
