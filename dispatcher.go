package bfs

// Schedule runs the dispatcher state machine (spec.md §4.6) for cpu,
// transitioning away from prev (the task currently on that CPU) toward
// whatever the selector picks next. Unlike the original's context_switch,
// which transfers control flow itself, this implementation returns the
// chosen next task so the caller (a goroutine standing in for one kernel
// thread of control) can perform its own switch — e.g. resuming a parked
// goroutine.
//
// Schedule may return prev itself on the documented fast path (prev keeps
// running because nothing else is queued and it hasn't lost its right to
// the CPU), or it may loop internally if TIF_NEED_RESCHED is found set
// again immediately after selecting next (RERUN_PREV in the spec).
func (s *Scheduler) Schedule(cpu int, prev *Task) (next *Task, switched bool) {
	rq := s.RQs[cpu]

	for {
		s.GRQ.Lock.Lock()

		s.GRQ.UpdateClocks(rq, SchedClock())
		clockNow := s.GRQ.Clock.Niffies()
		rq.Dither = clockNow-rq.lastNiffy <= HalfJiffyNS

		prev.NeedResched.Store(false)

		deactivate := false
		if prev.State != StateRunning {
			deactivate = true
		}

		idleTask, _ := s.GRQ.Task(rq.Idle)
		if prev != idleTask {
			rq.FlushTo(prev)
			if prev.TimeSliceUS < RESCHEDUS || prev.Policy == PolicyBatch {
				s.expireTimeslice(prev)
			}
			if !prev.CPUsAllowed.Allows(cpu) {
				s.Preemptor.reschedSuitableIdle(prev)
			} else if !deactivate && !s.GRQ.QueuedNotRunning() {
				// Fast path: nothing else is runnable, keep prev on CPU.
				s.GRQ.Lock.Unlock()
				return prev, false
			}
			s.GRQ.Return(prev, deactivate, s.ISO.Refractory())
		}

		nextID := rq.Idle
		found := false
		if s.GRQ.QueuedNotRunning() {
			nextID, found = s.GRQ.EarliestDeadlineTask(cpu, s.Locality, rq.Idle, s.rrIntervalMS)
		}
		nextTask, _ := s.GRQ.Task(nextID)
		if found {
			s.GRQ.Take(rq, nextTask)
			s.GRQ.Idle.ClearIdle(cpu)
		} else {
			s.GRQ.Idle.SetIdle(cpu)
		}

		if nextTask != prev {
			rq.SetTask(nextTask)
			s.GRQ.SwitchCount++
			prev.onCPU.Store(false)
			nextTask.onCPU.Store(true)
			rq.Curr = nextTask.ID
			switched = true
		}
		s.GRQ.Lock.Unlock()

		if s.metrics != nil {
			s.metrics.RecordSwitch(s.GRQ.SwitchCount, clockNow)
		}

		if !nextTask.NeedResched.Load() {
			return nextTask, switched
		}
		prev = nextTask
	}
}

// reschedSuitableIdle handles the "task's affinity no longer includes this
// CPU" branch of Schedule: find it a legal idle CPU instead of leaving it
// parked somewhere it can never run. The caller must hold the GRQ lock.
func (p *Preemptor) reschedSuitableIdle(t *Task) {
	if idle := p.GRQ.Idle.IdleIntersecting(t.CPUsAllowed); len(idle) > 0 {
		p.reschedBestIdle(t, idle)
	}
}

// Tick runs the per-CPU tick handler (spec.md §4.7). It does not take the
// GRQ lock except for the brief ISO-refractory-flip bookkeeping, matching
// the original's "without taking the GRQ lock" contract for the bulk of
// the work.
func (s *Scheduler) Tick(cpu int, elapsedUS int64) {
	rq := s.RQs[cpu]
	curr, ok := s.GRQ.Task(rq.Curr)
	if !ok || rq.RunningIdle() {
		return
	}

	s.GRQ.Lock.Lock()
	rtOrISO := curr.Policy.IsRT() || (curr.Policy == PolicyISO && !s.ISO.Refractory())
	wasRefractory := s.ISO.Refractory()
	nowRefractory := s.ISO.Tick(rtOrISO)
	if nowRefractory != wasRefractory && nowRefractory && curr.Policy == PolicyISO {
		// The ISO controller just engaged while an ISO task is running
		// pseudo-RT: zero its timeslice to force it to reschedule at
		// NORMAL_PRIO instead.
		rq.TimeSliceUS = 0
		curr.NeedResched.Store(true)
	}
	s.GRQ.Lock.Unlock()

	if curr.Policy != PolicyFIFO {
		rq.TimeSliceUS -= elapsedUS
		if rq.Dither && rq.TimeSliceUS > HalfJiffyNS/1000 {
			return
		}
		if rq.TimeSliceUS < RESCHEDUS {
			curr.NeedResched.Store(true)
		}
	}
}
