package bfs

import (
	"sync/atomic"
	"time"

	"github.com/joeycumines/go-catrate"
)

// Scheduler is the top-level handle wiring a [GRQ], one [Runqueue]
// projection per CPU, a [LocalityMatrix], a [Preemptor], and an
// [ISOController] into a running BFS instance, analogous in role to
// eventloop.Loop: everything a caller needs is reached through this one
// value.
type Scheduler struct {
	GRQ       *GRQ
	RQs       []*Runqueue
	Locality  *LocalityMatrix
	Preemptor *Preemptor
	ISO       *ISOController

	logger  *Logger
	metrics *Metrics

	rrIntervalMS  int
	numCPUs       int
	bindOSThreads bool
	panicOnInvariantViolation bool

	// onlineMask/possibleMask back [Scheduler.SetAffinity] and
	// [Scheduler.WidenAffinityForHotplug]: possibleMask never shrinks,
	// onlineMask does when a CPU is taken offline (spec.md §6/§7,
	// sched_bfs.c's cpu_online_mask/cpu_possible_mask).
	onlineMask   Affinity
	possibleMask Affinity
	// hotplugLog rate-limits the "affinity widened after cpu offline" log
	// line, matching break_sole_affinity's printk_ratelimit() guard.
	hotplugLog *catrate.Limiter

	shuttingDown atomic.Bool
}

// New constructs a Scheduler from the given options. [WithNumCPUs] is
// required.
func New(opts ...Option) (*Scheduler, error) {
	cfg, err := resolveOptions(opts)
	if err != nil {
		return nil, err
	}

	grq := NewGRQ(cfg.numCPUs)
	rrIntervalMS := ScaleRRInterval(cfg.rrIntervalMS, cfg.numCPUs)

	rqs := make([]*Runqueue, cfg.numCPUs)
	for i := range rqs {
		rqs[i] = &Runqueue{CPU: i}
	}

	online := NewAffinity(allCPUs(cfg.numCPUs)...)
	s := &Scheduler{
		GRQ:          grq,
		RQs:          rqs,
		Locality:     cfg.locality,
		ISO:          NewISOController(ISOPeriod(cfg.numCPUs), cfg.schedISOCPU),
		logger:       cfg.logger,
		metrics:      cfg.metrics,
		rrIntervalMS: rrIntervalMS,
		numCPUs:      cfg.numCPUs,
		bindOSThreads: cfg.bindOSThreads,
		panicOnInvariantViolation: cfg.panicOnInvariantViolation,
		onlineMask:   online,
		possibleMask: online,
		hotplugLog:   catrate.NewLimiter(map[time.Duration]int{5 * time.Second: 1}),
	}
	s.Preemptor = &Preemptor{
		GRQ:          grq,
		Locality:     cfg.locality,
		RQs:          rqs,
		Resched:      s.resched,
		RRIntervalMS: rrIntervalMS,
	}

	for i, rq := range rqs {
		idle := grq.NewTask()
		idle.Policy = PolicyIdle
		idle.StaticPrio = IdlePrio
		idle.NormalPrio = IdlePrio
		idle.Prio = IdlePrio
		idle.CPUsAllowed = NewAffinity(i)
		idle.CPU = i
		rq.Idle = idle.ID
		rq.Curr = idle.ID
		s.GRQ.Idle.SetIdle(i)
	}

	return s, nil
}

// NumCPUs returns the number of simulated CPUs this Scheduler was built
// for.
func (s *Scheduler) NumCPUs() int {
	return s.numCPUs
}

// Metrics returns the Scheduler's metrics collector, or nil if
// [WithMetrics] was never enabled.
func (s *Scheduler) Metrics() *Metrics {
	return s.metrics
}

func (s *Scheduler) runqueue(cpu int) *Runqueue {
	return s.RQs[cpu]
}

func allCPUs(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

// resched is the default [RescheduleFunc]: it only sets NeedResched, since
// this package models cooperative simulated CPUs rather than real SMP IPIs.
// The flag is consumed when [Scheduler.Schedule] runs on that CPU;
// cmd/bfssim calls Schedule on every iteration of its per-CPU loop.
func (s *Scheduler) resched(cpu int, task *Task) {
	task.NeedResched.Store(true)
}

// Shutdown marks the scheduler as draining; [Scheduler.Schedule] callers
// should stop requesting new work once this returns true from
// [Scheduler.ShuttingDown], though in-flight tasks still get to run out
// their timeslice.
func (s *Scheduler) Shutdown() {
	s.shuttingDown.Store(true)
}

// ShuttingDown reports whether [Scheduler.Shutdown] has been called.
func (s *Scheduler) ShuttingDown() bool {
	return s.shuttingDown.Load()
}
