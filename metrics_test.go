package bfs

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLatencyMetrics_SampleComputesPercentiles(t *testing.T) {
	var l LatencyMetrics
	for i := 1; i <= 100; i++ {
		l.Record(time.Duration(i) * time.Millisecond)
	}
	n := l.Sample()
	assert.Equal(t, 100, n)
	assert.Greater(t, l.P50, time.Duration(0))
	assert.GreaterOrEqual(t, l.P99, l.P50)
	assert.Equal(t, 100*time.Millisecond, l.Max)
}

func TestQueueMetrics_TracksMaxAndEMA(t *testing.T) {
	var q QueueMetrics
	q.Update(5)
	q.Update(10)
	q.Update(2)
	assert.Equal(t, 2, q.Current)
	assert.Equal(t, 10, q.Max)
	assert.Greater(t, q.Avg, 0.0)
}

func TestMetrics_RecordSwitchComputesRate(t *testing.T) {
	m := NewMetrics()
	m.RecordSwitch(100, int64(time.Second))
	m.RecordSwitch(200, int64(2*time.Second))
	assert.InDelta(t, 100.0, m.SwitchesPerSecond, 0.001)
}
