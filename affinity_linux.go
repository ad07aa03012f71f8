//go:build linux

package bfs

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// BindOSThread pins the calling goroutine's OS thread to the given CPU set
// using sched_setaffinity, so that a simulated CPU (spec.md §1's "N kernel
// threads of control, one per physical CPU") actually only runs on the
// CPUs its [Affinity] allows. The caller must have already called
// [runtime.LockOSThread]; BindOSThread does not call it itself so callers
// control the lifetime of the lock.
func BindOSThread(mask Affinity, numCPUs int) error {
	var set unix.CPUSet
	set.Zero()
	any := false
	for cpu := 0; cpu < numCPUs; cpu++ {
		if mask.Allows(cpu) {
			set.Set(cpu)
			any = true
		}
	}
	if !any {
		return fmt.Errorf("bfs: BindOSThread: empty affinity mask")
	}
	if err := unix.SchedSetaffinity(0, &set); err != nil {
		return fmt.Errorf("bfs: sched_setaffinity: %w", err)
	}
	return nil
}

// CurrentOSAffinity reports the calling OS thread's current affinity mask,
// restricted to the first numCPUs bits.
func CurrentOSAffinity(numCPUs int) (Affinity, error) {
	var set unix.CPUSet
	if err := unix.SchedGetaffinity(0, &set); err != nil {
		return 0, fmt.Errorf("bfs: sched_getaffinity: %w", err)
	}
	var a Affinity
	for cpu := 0; cpu < numCPUs; cpu++ {
		if set.IsSet(cpu) {
			a |= Affinity(1) << uint(cpu)
		}
	}
	return a, nil
}
