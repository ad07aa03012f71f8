package bfs

import "fmt"

// CheckInvariants sweeps spec.md §8's quantified invariants 1-3 and 5 (4,
// niffies monotonicity, is a property of a clock-update sequence rather
// than a snapshot, and is exercised by clock_test.go instead). Every
// violation found is logged via the configured [Logger] and collected into
// the returned slice; none of them panic unless the Scheduler was built
// with [WithPanicOnInvariantViolation], in which case the first violation
// panics with its [SchedulerBugError] after logging (spec.md §7: "surfaced
// as a diagnostic but does not abort" is the default, not the only mode).
func (s *Scheduler) CheckInvariants() []error {
	s.GRQ.Lock.Lock()
	defer s.GRQ.Lock.Unlock()

	var violations []error
	report := func(invariant, format string, args ...any) {
		err := &SchedulerBugError{Invariant: invariant, Detail: fmt.Sprintf(format, args...)}
		violations = append(violations, err)
		if s.logger != nil {
			s.logger.Err().Str(`invariant`, invariant).Log(err.Error())
		}
	}

	s.checkExclusiveState(report)
	s.checkBitmapBandSync(report)
	s.checkNrRunning(report)
	s.checkIdleMapSync(report)

	if s.panicOnInvariantViolation && len(violations) > 0 {
		panic(violations[0])
	}
	return violations
}

// checkExclusiveState is invariant 1: every task is queued, running, or
// blocked, never more than one of those at once.
func (s *Scheduler) checkExclusiveState(report func(invariant, format string, args ...any)) {
	for id, t := range s.GRQ.tasks {
		if t.State == StateDead {
			continue
		}
		running := t.OnCPU()
		if t.queued && running {
			report("task-exclusive-state", "task %d is both queued and running on cpu %d", id, t.CPU)
		}
	}
}

// checkBitmapBandSync is invariant 2: bitmap[b] == 1 iff band b is
// non-empty.
func (s *Scheduler) checkBitmapBandSync(report func(invariant, format string, args ...any)) {
	for b := 0; b < numBands; b++ {
		set := s.GRQ.BitmapSet(b)
		nonEmpty := s.GRQ.BandLen(b) > 0
		if set != nonEmpty {
			report("bitmap-band-desync", "band %d: bitmap=%v non-empty=%v", b, set, nonEmpty)
		}
	}
}

// checkNrRunning is invariant 3: nr_running == queued + (CPUs whose curr
// isn't idle).
func (s *Scheduler) checkNrRunning(report func(invariant, format string, args ...any)) {
	var queued int64
	for _, t := range s.GRQ.tasks {
		if t.queued {
			queued++
		}
	}
	var runningOnCPU int64
	for _, rq := range s.RQs {
		if !rq.RunningIdle() {
			runningOnCPU++
		}
	}
	want := queued + runningOnCPU
	if s.GRQ.NrRunning != want {
		report("nr-running-mismatch", "nr_running=%d want=%d (queued=%d running=%d)", s.GRQ.NrRunning, want, queued, runningOnCPU)
	}
}

// checkIdleMapSync is invariant 5: cpu_idle_map[c] == 1 iff curr(c) ==
// idle(c).
func (s *Scheduler) checkIdleMapSync(report func(invariant, format string, args ...any)) {
	for _, rq := range s.RQs {
		tracked := s.GRQ.Idle.IsIdle(rq.CPU)
		actual := rq.RunningIdle()
		if tracked != actual {
			report("idle-map-desync", "cpu %d: idle_map=%v running_idle=%v", rq.CPU, tracked, actual)
		}
	}
}
