package bfs

import "time"

// JiffyNS is the tick period used for clock-pathology clamping. BFS derives
// this from HZ; we fix it at 4ms (HZ=250), a common Linux tickless-adjacent
// default, since this package has no real timer interrupt source.
const JiffyNS int64 = 4_000_000

// HalfJiffyNS is half of JiffyNS, used by the tick handler's dither check.
const HalfJiffyNS int64 = JiffyNS / 2

// SchedClock returns a monotonic nanosecond reading. It is a package
// variable so tests can substitute a deterministic fake; production code
// leaves it as the default, backed by [time.Now].
var SchedClock = func() int64 {
	return int64(time.Since(schedClockBase))
}

// schedClockBase is the origin of the default SchedClock; time.Since reads
// its monotonic component.
var schedClockBase = time.Now()

// Clock maintains niffies, the single monotonic nanosecond counter shared
// by every CPU for deadline comparisons. It must only be advanced while
// the owning [GRQ]'s lock is held; see [GRQ.UpdateClocks].
type Clock struct {
	niffies int64
}

// Niffies returns the current global clock reading. Callers must hold the
// GRQ lock.
func (c *Clock) Niffies() int64 {
	return c.niffies
}

// advance folds ndiff (already clamped) into niffies and returns the new
// value. Callers must hold the GRQ lock.
func (c *Clock) advance(ndiff int64) int64 {
	c.niffies += ndiff
	return c.niffies
}

// clampNiffyDiff sanity-clamps a candidate clock delta. Per-CPU sched
// clocks can drift or jump on some platforms; rather than propagate
// nonsense (or negative) deltas into niffies, any delta below 1ns or above
// one jiffy beyond what jiffDiff jiffies would represent is replaced by a
// 1 microsecond tick.
func clampNiffyDiff(ndiff int64, jiffDiff int64) int64 {
	max := JiffiesToNS(jiffDiff + 1)
	if ndiff < 1 || ndiff > max {
		return 1000 // force to 1 microsecond, in nanoseconds
	}
	return ndiff
}

// JiffiesToNS converts a jiffy count to nanoseconds at the fixed JiffyNS
// tick rate.
func JiffiesToNS(jiffies int64) int64 {
	return jiffies * JiffyNS
}
