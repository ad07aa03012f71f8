package bfs

import (
	"sync/atomic"

	"golang.org/x/sys/cpu"
)

// Runqueue is the lightweight per-CPU projection of spec.md §2: a
// description of the currently running task plus per-CPU bookkeeping.
// Mutated only by its owning CPU; read by others only under the GRQ lock
// (spec.md §5). cpu.CacheLinePad brackets the hot fields to prevent false
// sharing between adjacent entries of a Runqueue slice, the idiomatic
// replacement for a hand-rolled padding array.
type Runqueue struct {
	_ cpu.CacheLinePad

	CPU int

	// Curr is the TaskID of the task this CPU is currently running
	// (Curr == Idle when the CPU is idle).
	Curr TaskID
	Idle TaskID

	// Projection of the running task, flushed back to the Task record at
	// the top of Schedule (spec.md §4.6).
	Prio     int
	Policy   Policy
	Deadline int64
	TimeSliceUS int64
	LastRan  int64

	// Single-writer per-CPU clock state, used by UpdateClocks.
	oldClock  int64
	lastNiffy int64

	running atomic.Bool

	// Dither: true when this CPU's tick is "early" relative to the last
	// hardware tick, used by the tick handler to avoid over-eager
	// rescheduling (spec.md §4.6, §4.7).
	Dither bool

	_ cpu.CacheLinePad
}

// RunningIdle reports whether this CPU's current task is its idle task.
func (rq *Runqueue) RunningIdle() bool {
	return rq.Curr == rq.Idle
}

// SetTask updates the per-CPU projection to reflect t becoming Curr. The
// caller must hold the GRQ lock.
func (rq *Runqueue) SetTask(t *Task) {
	rq.Curr = t.ID
	rq.Prio = t.Prio
	rq.Policy = t.Policy
	rq.Deadline = t.Deadline
	rq.TimeSliceUS = t.TimeSliceUS
	rq.LastRan = t.LastRan
}

// FlushTo writes the per-CPU projection's mutable fields back onto t, the
// task that is about to leave this CPU (spec.md §4.6 "flush rq projection
// back to prev").
func (rq *Runqueue) FlushTo(t *Task) {
	t.TimeSliceUS = rq.TimeSliceUS
	t.Deadline = rq.Deadline
	t.LastRan = rq.LastRan
}
