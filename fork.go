package bfs

// timesliceUS computes a fresh rr_interval-scaled timeslice in
// microseconds, the Go equivalent of timeslice() in the original: each
// refill uses the scheduler's scaled rr_interval directly.
func (s *Scheduler) timesliceUS() int64 {
	return int64(s.rrIntervalMS) * 1000
}

// expireTimeslice refills a task's timeslice and pushes its deadline out
// from the current niffies, mirroring time_slice_expired.
func (s *Scheduler) expireTimeslice(t *Task) {
	t.TimeSliceUS = s.timesliceUS()
	t.Deadline = s.GRQ.Clock.Niffies() + PrioDeadlineDiff(t.UserPrio(), s.rrIntervalMS)
}

// Fork creates a new [Task] representing the child of parent, implementing
// spec.md's supplemented sched_fork semantics: RESET_ON_FORK policy/nice
// reversion, PI-boost-leak prevention (the child inherits the parent's
// normal_prio, never a transient boosted prio), and timeslice halving so
// total pending timeslice in the system is conserved across the fork
// rather than invented from nothing.
//
// The child is created in StateRunning but not yet enqueued; callers must
// call [Scheduler.WakeNewTask] once it's ready to run.
func (s *Scheduler) Fork(parent *Task, resetOnFork bool) *Task {
	child := s.GRQ.NewTask()
	child.Policy = parent.Policy
	child.Nice = parent.Nice
	child.StaticPrio = parent.StaticPrio
	child.RTPriority = parent.RTPriority
	child.CPUsAllowed = parent.CPUsAllowed
	child.ResetOnFork = resetOnFork
	child.State = StateRunning

	if child.ResetOnFork {
		if child.Policy == PolicyFIFO || child.Policy == PolicyRR {
			child.Policy = PolicyNormal
		}
		if child.Nice < 0 {
			child.Nice = 0
			child.StaticPrio = NormalPrio
		}
		child.ResetOnFork = false
	}
	child.NormalPrio = normalPrio(child)
	// Never leak a PI-boosted priority to the child: it inherits the
	// parent's steady-state (unboosted) priority, not whatever prio the
	// parent happens to be running at.
	child.Prio = parent.NormalPrio

	s.GRQ.Lock.Lock()
	defer s.GRQ.Lock.Unlock()

	const minSplitTimesliceUS = int64(2) * RESCHEDUS
	if parent.TimeSliceUS >= minSplitTimesliceUS {
		parent.TimeSliceUS /= 2
		child.TimeSliceUS = parent.TimeSliceUS
		child.Deadline = parent.Deadline
	} else {
		parent.TimeSliceUS = 0
		parent.NeedResched.Store(true)
		s.expireTimeslice(child)
	}
	child.LastRan = parent.LastRan

	return child
}

// normalPrio mirrors the original's normal_prio(): RT policies derive
// priority from rt_priority, SCHED_ISO/IDLEPRIO get their fixed band, and
// SCHED_NORMAL/BATCH derive from nice.
func normalPrio(t *Task) int {
	switch t.Policy {
	case PolicyFIFO, PolicyRR:
		return MaxUserRTPrio - 1 - t.RTPriority
	case PolicyISO:
		return ISOPrio
	case PolicyIdle:
		return IdlePrio
	default:
		return t.StaticPrio
	}
}

// WakeNewTask activates a freshly forked child for the first time
// (wake_up_new_task): it's placed on the CPU its parent last ran on and
// enqueued via the normal activation path, picking up ISO-refractory
// state from the controller like any other activation.
func (s *Scheduler) WakeNewTask(child *Task, parentCPU int) {
	child.CPU = parentCPU
	rq := s.runqueue(parentCPU)
	s.GRQ.Lock.Lock()
	s.GRQ.Activate(child, rq, s.ISO.Refractory())
	s.Preemptor.TryPreempt(child, parentCPU)
	s.GRQ.Lock.Unlock()
}

// Exit removes a task from scheduling entirely (the BFS side of
// do_exit/sched_exit): deactivates it if still queued or running, then
// forgets it so its TaskID can never be looked up again.
func (s *Scheduler) Exit(t *Task) {
	s.GRQ.Lock.Lock()
	if t.Queued() {
		s.GRQ.dequeue(t)
		s.GRQ.qnr--
		s.GRQ.Deactivate(t)
	} else if t.OnCPU() {
		s.GRQ.Deactivate(t)
	}
	t.State = StateDead
	s.GRQ.Lock.Unlock()
	s.GRQ.Forget(t.ID)
}
