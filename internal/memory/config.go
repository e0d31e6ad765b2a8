package memory

import (
	"math"
	"os"
	"runtime/debug"
	"strconv"
	"strings"

	"video-converter/internal/logging"
)

// DefaultMemoryRatio is the share of container memory given to the Go heap.
// The encoder processes run in the same cgroup and need the rest.
const DefaultMemoryRatio = 0.5

const (
	sourceGOMEMLIMIT  = "GOMEMLIMIT"
	sourceMEMORYLIMIT = "MEMORY_LIMIT"
	sourceCgroup      = "cgroup"
	sourceNone        = "none"
)

// cgroupMemoryMax is the cgroup v2 limit file; a variable so tests can
// point it elsewhere.
var cgroupMemoryMax = "/sys/fs/cgroup/memory.max"

// ConfigResult holds the result of memory configuration
type ConfigResult struct {
	// Configured indicates whether a Go memory limit is in effect
	Configured bool

	// Source is GOMEMLIMIT, MEMORY_LIMIT, cgroup or none
	Source string

	// ContainerLimit is the container memory limit in bytes (0 if unknown)
	ContainerLimit int64

	// GoMemLimit is the configured limit in bytes (0 if not set)
	GoMemLimit int64

	// Ratio is the share of ContainerLimit used (0 if not applicable)
	Ratio float64
}

// ConfigureFromEnv sets the Go memory limit from the container limit.
// Call it early in main, before significant allocations.
//
// Environment variables:
//   - GOMEMLIMIT: if set, the runtime already applied it; it is only reported
//   - MEMORY_LIMIT: container limit in bytes (Kubernetes Downward API)
//   - MEMORY_RATIO: share of the limit for the Go heap (default 0.5)
//
// Without MEMORY_LIMIT the cgroup v2 memory.max file is consulted.
func ConfigureFromEnv() ConfigResult {
	result := ConfigResult{Source: sourceNone}

	if goMemLimitEnv := os.Getenv("GOMEMLIMIT"); goMemLimitEnv != "" {
		if limit := debug.SetMemoryLimit(-1); limit > 0 && limit < math.MaxInt64 {
			result.Configured = true
			result.Source = sourceGOMEMLIMIT
			result.GoMemLimit = limit
		}
		logging.Info("GOMEMLIMIT set via environment: %s", goMemLimitEnv)
		return result
	}

	memLimit, source := containerLimit()
	if memLimit <= 0 {
		logging.Debug("No container memory limit found, GOMEMLIMIT not configured")
		return result
	}

	ratio := ratioFromEnv()
	goMemLimit := int64(float64(memLimit) * ratio)
	debug.SetMemoryLimit(goMemLimit)

	result = ConfigResult{
		Configured:     true,
		Source:         source,
		ContainerLimit: memLimit,
		GoMemLimit:     goMemLimit,
		Ratio:          ratio,
	}

	logging.Info("Configured GOMEMLIMIT: %s (%.1f%% of %s limit from %s)",
		formatBytes(goMemLimit), ratio*100, formatBytes(memLimit), source)
	return result
}

// containerLimit returns the limit from MEMORY_LIMIT or, failing that, the
// cgroup. An invalid MEMORY_LIMIT disables configuration rather than
// falling through to the cgroup value.
func containerLimit() (int64, string) {
	if raw := os.Getenv("MEMORY_LIMIT"); raw != "" {
		limit, err := strconv.ParseInt(raw, 10, 64)
		if err != nil || limit <= 0 {
			logging.Warn("Ignoring invalid MEMORY_LIMIT %q", raw)
			return 0, sourceNone
		}
		return limit, sourceMEMORYLIMIT
	}

	data, err := os.ReadFile(cgroupMemoryMax)
	if err != nil {
		return 0, sourceNone
	}
	raw := strings.TrimSpace(string(data))
	if raw == "max" {
		return 0, sourceNone
	}
	limit, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || limit <= 0 {
		logging.Debug("Unreadable cgroup memory limit %q", raw)
		return 0, sourceNone
	}
	return limit, sourceCgroup
}

func ratioFromEnv() float64 {
	ratioStr := os.Getenv("MEMORY_RATIO")
	if ratioStr == "" {
		return DefaultMemoryRatio
	}
	ratio, err := strconv.ParseFloat(ratioStr, 64)
	if err != nil {
		logging.Warn("Failed to parse MEMORY_RATIO %q: %v, using default %.2f", ratioStr, err, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	if ratio <= 0 || ratio > 1.0 {
		logging.Warn("MEMORY_RATIO %q out of range (0.0-1.0), using default %.2f", ratioStr, DefaultMemoryRatio)
		return DefaultMemoryRatio
	}
	return ratio
}

// formatBytes formats bytes into human-readable string
func formatBytes(b int64) string {
	const unit = 1024
	if b < unit {
		return strconv.FormatInt(b, 10) + " B"
	}
	div, exp := int64(unit), 0
	for n := b / unit; n >= unit; n /= unit {
		div *= unit
		exp++
	}
	return strconv.FormatFloat(float64(b)/float64(div), 'f', 1, 64) + " " + string("KMGTPE"[exp]) + "iB"
}
