package bfs

import (
	"sync"
	"time"
)

// Metrics tracks runtime statistics for a [Scheduler]. All metrics are
// optional: a Scheduler built without [WithMetrics] pays no instrumentation
// cost. Mirrors eventloop/metrics.go's shape (latency percentiles + queue
// depth + a rolling rate counter), retargeted at scheduling decisions
// instead of task execution.
type Metrics struct {
	// Dispatch tracks the latency of each call to [Scheduler.Schedule]
	// (clock update through context-switch selection).
	Dispatch LatencyMetrics

	// Runqueue tracks GRQ depth over time.
	Runqueue QueueMetrics

	mu sync.Mutex

	// SwitchesPerSecond is a rolling estimate of context-switch rate.
	SwitchesPerSecond float64
	lastSwitchCount   int64
	lastSwitchSample  int64
}

// LatencyMetrics tracks a latency distribution via the P-Square streaming
// quantile algorithm (psquare.go), falling back to exact sorting below 5
// samples so small runs still report real percentiles instead of zeroes.
type LatencyMetrics struct {
	mu      sync.RWMutex
	psquare *multiQuantileEstimator

	P50  time.Duration
	P90  time.Duration
	P99  time.Duration
	Max  time.Duration
	Mean time.Duration
}

// Record adds a single latency sample.
func (l *LatencyMetrics) Record(d time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.psquare == nil {
		l.psquare = newMultiQuantileEstimator(0.50, 0.90, 0.99)
	}
	l.psquare.Update(float64(d))
}

// Sample refreshes the cached percentile fields from the current estimator
// state and returns the number of samples seen so far.
func (l *LatencyMetrics) Sample() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.psquare == nil {
		return 0
	}
	l.P50 = time.Duration(l.psquare.Quantile(0))
	l.P90 = time.Duration(l.psquare.Quantile(1))
	l.P99 = time.Duration(l.psquare.Quantile(2))
	l.Max = time.Duration(l.psquare.Max())
	l.Mean = time.Duration(l.psquare.Mean())
	return l.psquare.Count()
}

// QueueMetrics tracks GRQ depth with an exponential moving average, the
// same alpha=0.1 warm-started EMA eventloop's QueueMetrics uses.
type QueueMetrics struct {
	mu sync.RWMutex

	Current int
	Max     int
	Avg     float64

	initialized bool
}

// Update records a new observed queue depth.
func (q *QueueMetrics) Update(depth int) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.Current = depth
	if depth > q.Max {
		q.Max = depth
	}
	if !q.initialized {
		q.Avg = float64(depth)
		q.initialized = true
	} else {
		q.Avg = 0.9*q.Avg + 0.1*float64(depth)
	}
}

// NewMetrics constructs an empty, ready-to-use Metrics.
func NewMetrics() *Metrics {
	return &Metrics{}
}

// RecordSwitch folds a fresh cumulative switch count (from [GRQ].SwitchCount)
// and the niffies at which it was observed into the rolling
// SwitchesPerSecond estimate.
func (m *Metrics) RecordSwitch(switchCount, niffies int64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.lastSwitchSample != 0 {
		dt := niffies - m.lastSwitchSample
		if dt > 0 {
			rate := float64(switchCount-m.lastSwitchCount) * float64(time.Second) / float64(dt)
			m.SwitchesPerSecond = rate
		}
	}
	m.lastSwitchCount = switchCount
	m.lastSwitchSample = niffies
}
