// Package memory sets the Go runtime memory limit from the container's
// memory limit.
//
// Unlike GOMAXPROCS, which Go derives from cgroup CPU limits, GOMEMLIMIT
// has to be configured explicitly. The converter's heap is small: uploads
// are streamed to disk and artifacts streamed back from it. The expensive
// allocations happen in the encoder processes, which share the container's
// cgroup, so by default only half of the limit is given to Go.
//
// Call [ConfigureFromEnv] first thing in main:
//
//	func main() {
//	    memory.ConfigureFromEnv()
//	    // ...
//	}
//
// # Environment Variables
//
//   - GOMEMLIMIT: standard Go variable; when set it wins and is only reported.
//   - MEMORY_LIMIT: container limit in bytes, usually from the Downward API:
//
//	env:
//	- name: MEMORY_LIMIT
//	  valueFrom:
//	    resourceFieldRef:
//	      resource: limits.memory
//
//   - MEMORY_RATIO: share of the limit for the Go heap, 0.0-1.0 (default 0.5).
//
// Without MEMORY_LIMIT the cgroup v2 file /sys/fs/cgroup/memory.max is read;
// "max" means unlimited and leaves the runtime untouched.
package memory
