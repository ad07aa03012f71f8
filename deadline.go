package bfs

import "golang.org/x/exp/constraints"

// PrioRange is the number of distinct nice levels, [-20, 19].
const PrioRange = 40

// prioRatios is a geometric series driving how much faster a lower-nice
// task's virtual deadline advances relative to a higher-nice one. ratio[0]
// (nice -20) is 128; each subsequent nice level multiplies by 11/10. Index
// i corresponds to nice (i - 20).
var prioRatios = func() [PrioRange]int {
	var r [PrioRange]int
	r[0] = 128
	for i := 1; i < PrioRange; i++ {
		r[i] = r[i-1] * 11 / 10
	}
	return r
}()

// PrioRatio returns the deadline ratio for a user priority index in
// [0, PrioRange).
func PrioRatio(userPrio int) int {
	if userPrio < 0 {
		userPrio = 0
	}
	if userPrio >= PrioRange {
		userPrio = PrioRange - 1
	}
	return prioRatios[userPrio]
}

// PrioDeadlineDiff returns the nanosecond offset added to niffies to
// compute a fresh deadline for a task at the given user priority, under
// the given rr_interval (milliseconds).
func PrioDeadlineDiff(userPrio int, rrIntervalMS int) int64 {
	return int64(PrioRatio(userPrio)) * int64(rrIntervalMS) * (1_000_000 / 128)
}

// ScaleRRInterval scales a base rr_interval (ms) by online CPU count, per
// BFS's "more CPUs need a slightly longer interval to amortize scheduling
// overhead" rule: base * (4*n+4) / (n+6).
func ScaleRRInterval(baseMS, numCPUs int) int {
	if numCPUs < 1 {
		numCPUs = 1
	}
	return baseMS * (4*numCPUs + 4) / (numCPUs + 6)
}

// deadlineBefore reports whether a is strictly before b on the wraparound-
// safe signed niffies scale, matching the original kernel's
// deadline_before/deadline_after helpers (a-b compared as a signed delta,
// so a doesn't need to be numerically smaller than b across a wrap).
func deadlineBefore[T constraints.Integer](a, b T) bool {
	return int64(a-b) < 0
}

// deadlineAfter reports whether a is strictly after b, wraparound-safe.
func deadlineAfter[T constraints.Integer](a, b T) bool {
	return int64(a-b) > 0
}

// RESCHEDUS is the remaining-timeslice threshold (microseconds) below
// which the outgoing task is considered to need a refill / reschedule.
const RESCHEDUS int64 = 100

// taskTimeslice returns the nominal quantum (microseconds) for a task at
// the given user priority under rrIntervalMS, matching the original
// kernel's task_timeslice(p) = rr_interval * task_prio_ratio(p) / 128
// (sched_bfs.c:698-705). Unlike the task's live, decaying
// [Task.TimeSliceUS], this is a constant function of nice level and the
// current rr_interval — the correct input for cache_distance's locality
// penalty (spec.md §4.4), which must not shrink toward zero just because
// the task is about to be rescheduled anyway.
func taskTimeslice(userPrio int, rrIntervalMS int) int64 {
	return int64(rrIntervalMS) * 1000 * int64(PrioRatio(userPrio)) / 128
}
