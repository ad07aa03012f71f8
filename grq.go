package bfs

import "sync"

// GRQ is the global runqueue: one shared, priority-banded collection of
// every runnable-but-not-running task, protected by a single lock (see
// spec.md §2, §4.2). All mutating methods require the caller to hold Lock
// for the duration of the call; this mirrors the original kernel's
// "enter with grq locked" convention rather than hiding the lock inside
// each method, since callers frequently need to group several operations
// (e.g. dequeue + take) under one critical section.
type GRQ struct {
	Lock sync.Mutex

	Clock Clock

	bands  [numBands]runList
	bitmap prioBitmap
	tasks  map[TaskID]*Task
	nextID TaskID

	NrRunning        int64 // queued + (CPUs whose curr isn't idle)
	NrUninterruptible int64
	qnr              int64 // queued-not-running
	SwitchCount      int64

	Idle IdleMap
}

// NewGRQ constructs an empty global runqueue sized for numCPUs CPUs.
func NewGRQ(numCPUs int) *GRQ {
	g := &GRQ{
		tasks: make(map[TaskID]*Task),
	}
	g.Idle.init(numCPUs)
	return g
}

// NewTask allocates a task in the arena and returns it. The caller must
// hold Lock.
func (g *GRQ) NewTask() *Task {
	g.nextID++
	t := &Task{ID: g.nextID}
	g.tasks[t.ID] = t
	return t
}

// Task looks up a task by id. The caller must hold Lock (or otherwise know
// the id cannot be concurrently freed).
func (g *GRQ) Task(id TaskID) (*Task, bool) {
	t, ok := g.tasks[id]
	return t, ok
}

// Forget drops a DEAD task from the arena once the dispatcher has
// performed its final context switch away from it.
func (g *GRQ) Forget(id TaskID) {
	delete(g.tasks, id)
}

// UpdateClocks advances niffies using rq's own sched-clock delta, per
// spec.md §4.1. The caller must hold Lock.
func (g *GRQ) UpdateClocks(rq *Runqueue, cpuClock int64) {
	ndiff := cpuClock - rq.oldClock - (g.Clock.niffies - rq.lastNiffy)
	jiffDiff := (cpuClock - rq.oldClock) / JiffyNS
	ndiff = clampNiffyDiff(ndiff, jiffDiff)
	rq.oldClock = cpuClock
	rq.lastNiffy = g.Clock.advance(ndiff)
}

// effectivePrio implements spec.md §4.2's effective_prio rule. isoRefractory
// reflects the ISO controller's current state.
func effectivePrio(t *Task, isoRefractory bool) int {
	if t.boosted {
		return t.Prio
	}
	switch {
	case t.Policy.IsRT():
		return MaxRTPrio - 1 - t.RTPriority
	case t.Policy == PolicyIdle && idleprioSuitable(t):
		return IdlePrio
	case t.Policy == PolicyISO && !isoRefractory:
		return ISOPrio
	default:
		return NormalPrio
	}
}

// idleprioSuitable reports whether t may run at IDLEPRIO right now: not
// dead/exiting, not contributing to load. (Freezing and pending-signal
// predicates are external-kernel concerns per spec.md §6 and are modeled
// as always-false here, since this package owns no freezer/signal state.)
func idleprioSuitable(t *Task) bool {
	return t.State != StateDead && !t.ContributesToLoad()
}

// enqueue links t into its effective-priority band at the back. The
// caller must hold Lock.
func (g *GRQ) enqueue(t *Task, isoRefractory bool) {
	t.Prio = effectivePrio(t, isoRefractory)
	g.linkBack(t)
}

// enqueueHead links t at the front of its band; used only to (re)arm a
// CPU's idle task (spec.md §4.2, §9 "Idle-task activation").
func (g *GRQ) enqueueHead(t *Task) {
	band := &g.bands[t.Prio]
	band.pushFront(t.ID)
	g.reindex(t.Prio)
	g.bitmap.set(t.Prio)
	t.queued = true
	t.band = t.Prio
}

func (g *GRQ) linkBack(t *Task) {
	band := &g.bands[t.Prio]
	t.posInBand = band.len()
	band.pushBack(t.ID)
	g.bitmap.set(t.Prio)
	t.queued = true
	t.band = t.Prio
}

// reindex fixes up posInBand for every task remaining in band after a
// pushFront/remove shifted indices.
func (g *GRQ) reindex(band int) {
	for i, id := range g.bands[band].ids {
		if tk, ok := g.tasks[id]; ok {
			tk.posInBand = i
		}
	}
}

// dequeue unlinks t from its current band. The caller must hold Lock.
func (g *GRQ) dequeue(t *Task) {
	if !t.queued {
		return
	}
	band := &g.bands[t.band]
	band.remove(t.posInBand)
	if band.empty() {
		g.bitmap.clear(t.band)
	} else {
		g.reindex(t.band)
	}
	t.queued = false
}

// requeue performs no structural change; it exists as a named bookkeeping
// hook per spec.md §4.2 for callers that touch accounting without moving
// the task (currently a no-op, kept for symmetry with the original API).
func (g *GRQ) requeue(t *Task) {}

// Activate makes t runnable: updates clocks, clears its uninterruptible
// contribution, computes its effective priority, links it into the GRQ,
// and bumps nr_running/qnr. The caller must hold Lock.
func (g *GRQ) Activate(t *Task, rq *Runqueue, isoRefractory bool) {
	g.UpdateClocks(rq, SchedClock())
	if t.ContributesToLoad() {
		g.NrUninterruptible--
	}
	g.enqueue(t, isoRefractory)
	g.NrRunning++
	g.qnr++
}

// Deactivate removes t's contribution to nr_running without touching the
// GRQ's structure; the caller guarantees t is not (or is no longer)
// queued. The caller must hold Lock.
func (g *GRQ) Deactivate(t *Task) {
	if t.ContributesToLoad() {
		g.NrUninterruptible++
	}
	g.NrRunning--
}

// Take moves t off the GRQ onto rq, which is about to run it. The caller
// must hold Lock.
func (g *GRQ) Take(rq *Runqueue, t *Task) {
	t.CPU = rq.CPU
	g.dequeue(t)
	g.qnr--
}

// Return puts a descheduling task back, unless it is being deactivated.
// The caller must hold Lock.
func (g *GRQ) Return(t *Task, deactivate bool, isoRefractory bool) {
	if deactivate {
		g.Deactivate(t)
		return
	}
	g.qnr++
	g.enqueue(t, isoRefractory)
}

// QueuedNotRunning reports whether any task is queued in the GRQ.
func (g *GRQ) QueuedNotRunning() bool {
	return g.qnr > 0
}

// QNR returns the queued-not-running counter directly (spec.md §3
// invariant 5 test hook).
func (g *GRQ) QNR() int64 {
	return g.qnr
}

// BandLen returns the number of tasks linked in band b, for tests and
// invariant checks.
func (g *GRQ) BandLen(b int) int {
	return g.bands[b].len()
}

// BitmapSet reports whether band b's bitmap bit is set, for tests and
// invariant checks.
func (g *GRQ) BitmapSet(b int) bool {
	return g.bitmap.isSet(b)
}

// boostPriority implements rt_mutex_setprio's non-RT-boost path (spec.md
// §9, SPEC_FULL.md supplemented feature 2): raises t's effective priority
// above normal_prio directly, bracketing a critical section, rather than
// through a callback graph. If t is currently queued it is relinked into
// the new band so the bitmap/band invariants stay consistent. The caller
// must hold Lock.
func (g *GRQ) boostPriority(t *Task, prio int) {
	wasQueued := t.queued
	if wasQueued {
		g.dequeue(t)
	}
	if !t.boosted {
		t.preBoostPrio = t.Prio
	}
	t.boosted = true
	t.Prio = prio
	if wasQueued {
		g.linkBack(t)
	}
}

// unboostPriority ends a boostPriority critical section, recomputing t's
// effective priority the normal way (policy/nice/ISO-refractory driven)
// rather than restoring the raw preBoostPrio snapshot, since a policy or
// nice change may have happened while boosted. The caller must hold Lock.
func (g *GRQ) unboostPriority(t *Task, isoRefractory bool) {
	if !t.boosted {
		return
	}
	wasQueued := t.queued
	if wasQueued {
		g.dequeue(t)
	}
	t.boosted = false
	t.preBoostPrio = 0
	if wasQueued {
		g.enqueue(t, isoRefractory)
	} else {
		t.Prio = effectivePrio(t, isoRefractory)
	}
}

// activateIdleTask implements sched_bfs.c's activate_idle_task: used only
// by [Scheduler.OfflineCPU] (sched_idle_next in the original) to guarantee
// an idle task keeps running while every other task is migrated off a CPU
// going offline. Unlike the normal dispatcher path — which never actually
// links the idle task into a band, special-casing it via [IdleMap] — this
// boosts it to the highest RT priority and pushes it to the front of that
// band via [enqueueHead]. The caller must hold Lock.
func (g *GRQ) activateIdleTask(t *Task) {
	t.Policy = PolicyFIFO
	t.RTPriority = MaxUserRTPrio - 1
	t.NormalPrio = MaxRTPrio - 1 - t.RTPriority
	t.Prio = t.NormalPrio
	g.enqueueHead(t)
	g.NrRunning++
	g.qnr++
}
