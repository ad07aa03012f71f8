package bfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEarliestDeadlineTask_PicksEarlierDeadlineWithinBand(t *testing.T) {
	g := NewGRQ(1)
	g.Lock.Lock()
	defer g.Lock.Unlock()

	locality := NewLocalityMatrix(1)

	early := g.NewTask()
	early.Policy = PolicyNormal
	early.StaticPrio = NormalPrio
	early.CPUsAllowed = NewAffinity(0)
	g.Activate(early, &Runqueue{CPU: 0}, false)
	early.Deadline = 100

	late := g.NewTask()
	late.Policy = PolicyNormal
	late.StaticPrio = NormalPrio
	late.CPUsAllowed = NewAffinity(0)
	g.Activate(late, &Runqueue{CPU: 0}, false)
	late.Deadline = 200

	idle := g.NewTask()
	idle.Policy = PolicyIdle

	next, ok := g.EarliestDeadlineTask(0, locality, idle.ID, 6)
	require.True(t, ok)
	assert.Equal(t, early.ID, next)
}

func TestEarliestDeadlineTask_SkipsAffinityMismatch(t *testing.T) {
	g := NewGRQ(2)
	g.Lock.Lock()
	defer g.Lock.Unlock()

	locality := NewLocalityMatrix(2)

	wrongCPU := g.NewTask()
	wrongCPU.Policy = PolicyNormal
	wrongCPU.StaticPrio = NormalPrio
	wrongCPU.CPUsAllowed = NewAffinity(1)
	g.Activate(wrongCPU, &Runqueue{CPU: 1}, false)

	right := g.NewTask()
	right.Policy = PolicyNormal
	right.StaticPrio = NormalPrio
	right.CPUsAllowed = NewAffinity(0)
	g.Activate(right, &Runqueue{CPU: 0}, false)

	idle := g.NewTask()
	idle.Policy = PolicyIdle

	next, ok := g.EarliestDeadlineTask(0, locality, idle.ID, 6)
	require.True(t, ok)
	assert.Equal(t, right.ID, next)
}

func TestEarliestDeadlineTask_NoneRunnableReturnsIdle(t *testing.T) {
	g := NewGRQ(1)
	g.Lock.Lock()
	defer g.Lock.Unlock()

	idle := g.NewTask()
	idle.Policy = PolicyIdle

	next, ok := g.EarliestDeadlineTask(0, NewLocalityMatrix(1), idle.ID, 6)
	assert.False(t, ok)
	assert.Equal(t, idle.ID, next)
}

func TestEarliestDeadlineTask_RTBandIsFIFONotDeadlineOrdered(t *testing.T) {
	g := NewGRQ(1)
	g.Lock.Lock()
	defer g.Lock.Unlock()

	first := g.NewTask()
	first.Policy = PolicyFIFO
	first.RTPriority = 5
	first.CPUsAllowed = NewAffinity(0)
	g.Activate(first, &Runqueue{CPU: 0}, false)
	// Give the later-enqueued task an earlier deadline; RT bands must still
	// pick FIFO arrival order, not deadline.
	first.Deadline = 1000

	second := g.NewTask()
	second.Policy = PolicyFIFO
	second.RTPriority = 5
	second.CPUsAllowed = NewAffinity(0)
	g.Activate(second, &Runqueue{CPU: 0}, false)
	second.Deadline = 1

	idle := g.NewTask()
	idle.Policy = PolicyIdle

	next, ok := g.EarliestDeadlineTask(0, NewLocalityMatrix(1), idle.ID, 6)
	require.True(t, ok)
	assert.Equal(t, first.ID, next)
}
