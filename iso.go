package bfs

import (
	"time"

	"github.com/joeycumines/go-catrate"
)

// ISOPeriod computes the aggregation window length in ticks, per spec.md
// §4.8: 5*HZ*numOnlineCPUs + 1, where HZ is derived from JiffyNS.
func ISOPeriod(numOnlineCPUs int) int64 {
	hz := int64(1_000_000_000 / JiffyNS)
	return 5*hz*int64(numOnlineCPUs) + 1
}

// isoCategory is the single rate-limiter category key used by both
// windows below; there is only ever one aggregate ISO/RT share to track
// per scheduler instance.
type isoCategory struct{}

// ISOController guards the aggregate SCHED_ISO (and RT, which counts
// toward the same budget) CPU share, per spec.md §4.8. Rather than the
// original kernel's raw EMA-decayed tick counter, the sliding window is
// implemented with [catrate.Limiter] — the same sliding-window, discrete-
// event technique catrate uses for multi-category rate limiting, here
// applied to a single synthetic "ISO share" category. Two limiters, at the
// engage and (lower) clear thresholds, give the spec's 10% hysteresis band
// without hand-rolled decay arithmetic.
type ISOController struct {
	engage *catrate.Limiter
	clear  *catrate.Limiter

	refractory bool
}

// NewISOController builds a controller for the given period (ticks) and
// sched_iso_cpu percentage.
func NewISOController(periodTicks int64, schedISOCPU int) *ISOController {
	window := time.Duration(periodTicks * JiffyNS)
	engageLimit := int(periodTicks * int64(schedISOCPU) / 100)
	clearLimit := int(periodTicks * int64(schedISOCPU) * 115 / 128 / 100)
	if engageLimit < 1 {
		engageLimit = 1
	}
	if clearLimit < 1 {
		clearLimit = 1
	}
	return &ISOController{
		engage: catrate.NewLimiter(map[time.Duration]int{window: engageLimit}),
		clear:  catrate.NewLimiter(map[time.Duration]int{window: clearLimit}),
	}
}

// Refractory reports whether ISO tasks are currently being enqueued at
// NORMAL_PRIO instead of ISO_PRIO.
func (c *ISOController) Refractory() bool {
	return c.refractory
}

// Tick records one scheduler tick's worth of ISO/RT (or not) consumption,
// per spec.md §4.7/§4.8, and returns the (possibly updated) refractory
// state. rtOrISORunning is true when the CPU's current task is RT, or ISO
// while not already refractory.
func (c *ISOController) Tick(rtOrISORunning bool) bool {
	if !rtOrISORunning {
		// A tick where the budget wasn't spent: nothing to register: the
		// sliding windows age the contribution out on their own.
		return c.refractory
	}

	if !c.refractory {
		if _, ok := c.engage.Allow(isoCategory{}); !ok {
			c.refractory = true
		}
	} else {
		if _, ok := c.clear.Allow(isoCategory{}); ok {
			c.refractory = false
		}
	}
	return c.refractory
}
