package bfs

// syscalls.go implements the mutator half of spec.md §6's "Exposed to the
// OS kernel" operations that task.go/fork.go/dispatcher.go don't already
// cover: set_user_nice, sched_setscheduler/sched_getscheduler,
// set_cpus_allowed_ptr, rt_mutex_setprio (as BoostPriority/UnboostPriority,
// per SPEC_FULL.md's supplemented-feature note), above_background_load,
// and the hotplug affinity-widening path.

// SetNice implements set_user_nice: validates nice is in [-20,19] (-EINVAL
// otherwise) and, per spec.md §7, requires privileged=true to lower nice
// (make it more negative / more favorable) below the task's current value
// (-EPERM otherwise, mirroring CAP_SYS_NICE). Nice is stored unconditionally
// of policy — an RT task's nice only affects scheduling once/if it returns
// to a non-RT policy — so the round-trip law task_nice(t) == n (spec.md
// §8) holds regardless of policy.
func (s *Scheduler) SetNice(t *Task, nice int, privileged bool) error {
	if nice < -20 || nice > 19 {
		return NewInvalidArgumentError("SetNice: nice %d outside [-20,19]", nice)
	}
	s.GRQ.Lock.Lock()
	defer s.GRQ.Lock.Unlock()
	if nice < t.Nice && !privileged {
		return NewPermissionError("SetNice: lowering nice from %d to %d requires privilege", t.Nice, nice)
	}
	t.Nice = nice
	return nil
}

// SetNiceByID resolves id and calls [Scheduler.SetNice], returning
// [ErrNoSuchTask] (-ESRCH) if id names no live task.
func (s *Scheduler) SetNiceByID(id TaskID, nice int, privileged bool) error {
	t, err := s.lookupTask(id)
	if err != nil {
		return err
	}
	return s.SetNice(t, nice, privileged)
}

// Nice implements task_nice: the nice value last set via [Scheduler.SetNice]
// or task creation, independent of policy.
func Nice(t *Task) int {
	return t.Nice
}

// SetScheduler implements sched_setscheduler: validates policy and
// sched_priority (-EINVAL on a bad combination), requires privileged=true
// to take an RT policy (-EPERM otherwise, mirroring the original's
// capable(CAP_SYS_NICE) check), and recomputes normal_prio/prio, relinking
// the task into its new band if it's currently queued.
func (s *Scheduler) SetScheduler(t *Task, policy Policy, rtPriority int, resetOnFork bool, privileged bool) error {
	switch policy {
	case PolicyFIFO, PolicyRR:
		if rtPriority < 1 || rtPriority > MaxUserRTPrio-1 {
			return NewInvalidArgumentError("SetScheduler: rt priority %d outside [1,%d]", rtPriority, MaxUserRTPrio-1)
		}
		if !privileged {
			return NewPermissionError("SetScheduler: policy %s requires privilege", policy)
		}
	case PolicyNormal, PolicyBatch, PolicyISO, PolicyIdle:
		if rtPriority != 0 {
			return NewInvalidArgumentError("SetScheduler: sched_priority must be 0 for policy %s, got %d", policy, rtPriority)
		}
	default:
		return NewInvalidArgumentError("SetScheduler: unknown policy %d", int(policy))
	}

	s.GRQ.Lock.Lock()
	defer s.GRQ.Lock.Unlock()

	wasQueued := t.queued
	if wasQueued {
		s.GRQ.dequeue(t)
	}

	t.Policy = policy
	t.RTPriority = rtPriority
	t.ResetOnFork = resetOnFork
	switch policy {
	case PolicyFIFO, PolicyRR, PolicyISO:
		// StaticPrio plays no role for RT/ISO tasks; normalPrio derives
		// their priority from RTPriority/the fixed ISO band instead.
	case PolicyIdle:
		t.StaticPrio = IdlePrio
	default:
		t.StaticPrio = NormalPrio
	}
	t.NormalPrio = normalPrio(t)
	if !t.boosted {
		t.Prio = t.NormalPrio
	}

	if wasQueued {
		s.GRQ.enqueue(t, s.ISO.Refractory())
	}
	return nil
}

// SetSchedulerByID resolves id and calls [Scheduler.SetScheduler],
// returning [ErrNoSuchTask] (-ESRCH) if id names no live task.
func (s *Scheduler) SetSchedulerByID(id TaskID, policy Policy, rtPriority int, resetOnFork bool, privileged bool) error {
	t, err := s.lookupTask(id)
	if err != nil {
		return err
	}
	return s.SetScheduler(t, policy, rtPriority, resetOnFork, privileged)
}

// GetScheduler implements sched_getscheduler: returns t's policy, masking
// RESET_ON_FORK since that's tracked as a separate field ([Task.ResetOnFork])
// rather than OR'd into the policy value itself.
func GetScheduler(t *Task) Policy {
	return t.Policy
}

// SetAffinity implements set_cpus_allowed_ptr: rejects a mask that shares
// no CPU with the scheduler's online set (-EINVAL, spec.md §7). If t is
// currently running on a CPU the new mask excludes, flags that CPU for
// reschedule so the next [Scheduler.Schedule] call moves t off it (spec.md
// §8 scenario 6). A queued task is not relinked: the selector reads
// CPUsAllowed on every scan, so the new mask applies from the next one.
func (s *Scheduler) SetAffinity(t *Task, mask Affinity) error {
	s.GRQ.Lock.Lock()
	defer s.GRQ.Lock.Unlock()
	if !mask.Intersects(s.onlineMask) {
		return NewInvalidArgumentError("SetAffinity: mask shares no online CPU")
	}
	t.CPUsAllowed = mask
	if t.OnCPU() && !mask.Allows(t.CPU) {
		t.NeedResched.Store(true)
		if s.Preemptor != nil && s.Preemptor.Resched != nil {
			s.Preemptor.Resched(t.CPU, t)
		}
	}
	return nil
}

// SetAffinityByID resolves id and calls [Scheduler.SetAffinity], returning
// [ErrNoSuchTask] (-ESRCH) if id names no live task.
func (s *Scheduler) SetAffinityByID(id TaskID, mask Affinity) error {
	t, err := s.lookupTask(id)
	if err != nil {
		return err
	}
	return s.SetAffinity(t, mask)
}

// BoostPriority implements the rt_mutex_setprio boost path (as a bracketing
// pair rather than a callback, per spec.md §9 and SPEC_FULL.md's
// supplemented feature 2): raises t's effective priority to prio for the
// duration of a critical section. Pair with [Scheduler.UnboostPriority].
func (s *Scheduler) BoostPriority(t *Task, prio int) {
	s.GRQ.Lock.Lock()
	defer s.GRQ.Lock.Unlock()
	s.GRQ.boostPriority(t, prio)
}

// UnboostPriority ends a [Scheduler.BoostPriority] critical section,
// restoring t's effective priority to whatever its policy/nice/ISO state
// computes to now.
func (s *Scheduler) UnboostPriority(t *Task) {
	s.GRQ.Lock.Lock()
	defer s.GRQ.Lock.Unlock()
	s.GRQ.unboostPriority(t, s.ISO.Refractory())
}

// AboveBackgroundLoad implements above_background_load (SPEC_FULL.md
// supplemented feature 3): reports whether any CPU is currently running
// something other than IDLEPRIO or the idle task, for callers such as a
// power governor deciding whether the system is "busy".
func (s *Scheduler) AboveBackgroundLoad() bool {
	s.GRQ.Lock.Lock()
	defer s.GRQ.Lock.Unlock()
	for _, rq := range s.RQs {
		if rq.RunningIdle() {
			continue
		}
		if rq.Policy == PolicyIdle {
			continue
		}
		return true
	}
	return false
}

// OfflineCPU implements the scheduling side of a CPU hotplug-out (the
// original's sched_idle_next + break_sole_affinity, sched_bfs.c
// lines ~4703-4758): removes cpu from the online set, boosts its idle task
// to the highest RT priority so it keeps making forward progress while
// everything else is migrated off it ([GRQ.activateIdleTask]), and widens
// the affinity of any task left with no online CPU ([Scheduler.WidenAffinityForHotplug]).
func (s *Scheduler) OfflineCPU(cpu int) {
	s.GRQ.Lock.Lock()
	s.onlineMask &^= NewAffinity(cpu)
	rq := s.RQs[cpu]
	if idle, ok := s.GRQ.Task(rq.Idle); ok {
		s.GRQ.activateIdleTask(idle)
	}
	if curr, ok := s.GRQ.Task(rq.Curr); ok {
		curr.NeedResched.Store(true)
	}
	s.GRQ.Lock.Unlock()

	s.WidenAffinityForHotplug(cpu)
}

// WidenAffinityForHotplug implements break_sole_affinity (SPEC_FULL.md
// supplemented feature 6): any live task whose CPUsAllowed no longer
// intersects the online set has its affinity widened to every CPU the
// scheduler possibly knows about, instead of being left unrunnable. Logged
// at most once per window via the same rate-limited-log pattern the ISO
// controller uses catrate for (mirroring printk_ratelimit in the original).
func (s *Scheduler) WidenAffinityForHotplug(offlineCPU int) {
	s.GRQ.Lock.Lock()
	defer s.GRQ.Lock.Unlock()
	for _, t := range s.GRQ.tasks {
		if t.State == StateDead {
			continue
		}
		if t.CPUsAllowed.Intersects(s.onlineMask) {
			continue
		}
		t.CPUsAllowed = s.possibleMask
		if s.logger != nil {
			if _, ok := s.hotplugLog.Allow(hotplugLogCategory{}); ok {
				s.logger.Warning().
					Int64(`task_id`, int64(t.ID)).
					Int(`offline_cpu`, offlineCPU).
					Log(`affinity widened after cpu offline`)
			}
		}
	}
}

// hotplugLogCategory is the sole rate-limiter category for the hotplug
// affinity-widening log line, mirroring isoCategory in iso.go.
type hotplugLogCategory struct{}

// lookupTask resolves id under the GRQ lock, returning [ErrNoSuchTask]
// (-ESRCH) if it names no live task — the boundary every ID-based syscall
// wrapper in this file shares.
func (s *Scheduler) lookupTask(id TaskID) (*Task, error) {
	s.GRQ.Lock.Lock()
	t, ok := s.GRQ.Task(id)
	s.GRQ.Lock.Unlock()
	if !ok {
		return nil, NewNoSuchTaskError(id)
	}
	return t, nil
}
