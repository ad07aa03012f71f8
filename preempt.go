package bfs

// canPreempt implements the original's can_preempt: the waker p outranks
// the busiest candidate CPU's running task strictly by RT priority, or by
// equal priority and a strictly earlier deadline. Per spec.md §9, only
// numerically-higher prio counts as "worse"; ties defer to deadline.
func canPreempt(waker *Task, rivalPrio int, rivalDeadline int64, rivalPolicy Policy) bool {
	if rivalPolicy == PolicyIdle {
		return true
	}
	if waker.Prio < rivalPrio {
		return true
	}
	if waker.Prio == rivalPrio && deadlineBefore(waker.Deadline, rivalDeadline) {
		return true
	}
	return false
}

// RescheduleFunc is invoked by the preemptor when it decides a CPU's
// current task should yield at the next opportunity, with the CPU and the
// task running on it; it stands in for smp_send_reschedule to that CPU.
type RescheduleFunc func(cpu int, task *Task)

// Preemptor implements spec.md §4.5: on wake-up, either wake an idle CPU
// (ranked by locality) or preempt the worst-ranked busy CPU if the waker
// outranks it.
type Preemptor struct {
	GRQ          *GRQ
	Locality     *LocalityMatrix
	RQs          []*Runqueue
	Resched      RescheduleFunc
	RRIntervalMS int
}

// TryPreempt runs try_preempt for a task that has just become runnable.
// The caller must hold the GRQ lock. wakerCPU is the CPU the waker is
// running on; it is used only as the source CPU of the cache-distance
// offset when ranking busy CPUs (idle-CPU selection ranks by t.CPU).
func (p *Preemptor) TryPreempt(t *Task, wakerCPU int) {
	if idle := p.GRQ.Idle.IdleIntersecting(t.CPUsAllowed); len(idle) > 0 {
		p.reschedBestIdle(t, idle)
		return
	}

	if t.Policy == PolicyIdle {
		return
	}

	highestPrio := -1
	var latestDeadline int64
	var worstCPU = -1
	for cpu, rq := range p.RQs {
		if !t.CPUsAllowed.Allows(cpu) {
			continue
		}
		rqPrio := rq.Prio
		if rqPrio < highestPrio {
			continue
		}
		offsetDeadline := rq.Deadline - p.Locality.CacheDistance(wakerCPU, cpu, taskTimeslice(t.UserPrio(), p.RRIntervalMS))
		if rqPrio > highestPrio || (rqPrio == highestPrio && deadlineAfter(offsetDeadline, latestDeadline)) {
			latestDeadline = offsetDeadline
			highestPrio = rqPrio
			worstCPU = cpu
		}
	}
	if worstCPU < 0 {
		return
	}
	rq := p.RQs[worstCPU]
	rival, ok := p.GRQ.Task(rq.Curr)
	if !ok {
		return
	}
	if !canPreempt(t, highestPrio, rq.Deadline, rq.Policy) {
		return
	}
	rival.NeedResched.Store(true)
	if p.Resched != nil {
		p.Resched(worstCPU, rival)
	}
}

// Locality composite-rank bits for idle CPU selection, per spec.md §4.5.
const (
	cpuidleDiffThread = 1
	cpuidleDiffCore   = 2
	cpuidleCacheBusy  = 4
	cpuidleDiffCPU    = 8
	cpuidleThreadBusy = 16
	cpuidleDiffNode   = 32
)

// reschedBestIdle ranks the idle CPUs in candidates by locality to t's
// last CPU and wakes the best one. Iteration ascends starting from t.CPU
// itself and wraps (spec.md §9's noted wraparound quirk: we implement
// wraparound explicitly, rather than relying on signed/unsigned iterator
// semantics), mirroring the original's next_cpu(best_cpu-1, mask) which
// visits best_cpu == t.CPU first — so a locality-rank tie favors the same
// CPU the task last ran on, per DESIGN.md's Open Question decision #2.
func (p *Preemptor) reschedBestIdle(t *Task, candidates []int) {
	n := p.Locality.n
	start := t.CPU
	if start < 0 || start >= n {
		start = 0
	}

	bestRank := -1
	bestCPU := -1
	for i := 0; i < n; i++ {
		cpu := (start + i) % n
		if !contains(candidates, cpu) {
			continue
		}
		rank := p.idleRank(t, cpu)
		if bestCPU < 0 || rank < bestRank {
			bestRank = rank
			bestCPU = cpu
			if rank == 0 {
				break
			}
		}
	}
	if bestCPU < 0 {
		return
	}
	idleTask, ok := p.GRQ.Task(p.RQs[bestCPU].Idle)
	if !ok {
		return
	}
	idleTask.NeedResched.Store(true)
	if p.Resched != nil {
		p.Resched(bestCPU, idleTask)
	}
}

// idleRank composes the locality bits used to rank a candidate idle CPU:
// lower is better. This is a simplified model of the original's SMT/LLC/
// node busy-ness composite, expressed purely in terms of the
// LocalityMatrix distance since this package has no sibling-thread
// occupancy data of its own.
func (p *Preemptor) idleRank(t *Task, cpu int) int {
	switch p.Locality.Distance(t.CPU, cpu) {
	case LocalitySame:
		return 0
	case LocalitySMTSibling:
		return cpuidleDiffThread
	case LocalitySameLLC:
		return cpuidleDiffCore
	case LocalitySameNode:
		return cpuidleDiffCPU
	default:
		return cpuidleDiffNode
	}
}

func contains(xs []int, v int) bool {
	for _, x := range xs {
		if x == v {
			return true
		}
	}
	return false
}
