package bfs

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGRQ_ActivateEnqueuesAtEffectivePriority(t *testing.T) {
	g := NewGRQ(2)
	g.Lock.Lock()
	defer g.Lock.Unlock()

	t1 := g.NewTask()
	t1.Policy = PolicyNormal
	t1.StaticPrio = NormalPrio
	t1.CPUsAllowed = NewAffinity(0, 1)

	rq := &Runqueue{CPU: 0}
	g.Activate(t1, rq, false)

	require.True(t, t1.Queued())
	assert.Equal(t, NormalPrio, t1.band)
	assert.Equal(t, int64(1), g.QNR())
	assert.True(t, g.BitmapSet(NormalPrio))
}

func TestGRQ_RTTaskSelectedOverNormal(t *testing.T) {
	g := NewGRQ(1)
	g.Lock.Lock()
	defer g.Lock.Unlock()

	normal := g.NewTask()
	normal.Policy = PolicyNormal
	normal.StaticPrio = NormalPrio
	normal.CPUsAllowed = NewAffinity(0)
	g.Activate(normal, &Runqueue{CPU: 0}, false)

	rt := g.NewTask()
	rt.Policy = PolicyFIFO
	rt.RTPriority = 10
	rt.CPUsAllowed = NewAffinity(0)
	g.Activate(rt, &Runqueue{CPU: 0}, false)

	idle := g.NewTask()
	idle.Policy = PolicyIdle

	next, ok := g.EarliestDeadlineTask(0, NewLocalityMatrix(1), idle.ID, 6)
	require.True(t, ok)
	assert.Equal(t, rt.ID, next, "RT task must be selected over a queued SCHED_NORMAL task")
}

func TestGRQ_ISORefractoryDowngradesToNormalPrio(t *testing.T) {
	g := NewGRQ(1)
	g.Lock.Lock()
	defer g.Lock.Unlock()

	iso := g.NewTask()
	iso.Policy = PolicyISO
	iso.CPUsAllowed = NewAffinity(0)

	g.Activate(iso, &Runqueue{CPU: 0}, true)
	assert.Equal(t, NormalPrio, iso.Prio, "refractory ISO controller must enqueue at NORMAL_PRIO, not ISO_PRIO")

	g.Deactivate(iso)
	g.dequeue(iso)

	g.Activate(iso, &Runqueue{CPU: 0}, false)
	assert.Equal(t, ISOPrio, iso.Prio)
}

func TestGRQ_TakeAndReturnRoundTrip(t *testing.T) {
	g := NewGRQ(1)
	g.Lock.Lock()
	defer g.Lock.Unlock()

	rq := &Runqueue{CPU: 0}
	tk := g.NewTask()
	tk.Policy = PolicyNormal
	tk.StaticPrio = NormalPrio
	tk.CPUsAllowed = NewAffinity(0)
	g.Activate(tk, rq, false)

	before := g.QNR()
	g.Take(rq, tk)
	assert.False(t, tk.Queued())
	assert.Equal(t, before-1, g.QNR())

	g.Return(tk, false, false)
	assert.True(t, tk.Queued())
	assert.Equal(t, before, g.QNR())
}

func TestGRQ_BandBookkeepingSurvivesMultipleRemovals(t *testing.T) {
	g := NewGRQ(1)
	g.Lock.Lock()
	defer g.Lock.Unlock()

	var ids []TaskID
	for i := 0; i < 4; i++ {
		tk := g.NewTask()
		tk.Policy = PolicyNormal
		tk.StaticPrio = NormalPrio
		tk.CPUsAllowed = NewAffinity(0)
		g.Activate(tk, &Runqueue{CPU: 0}, false)
		ids = append(ids, tk.ID)
	}

	// Remove the second task and confirm every remaining task's posInBand
	// still matches its actual index (reindex correctness).
	second, _ := g.Task(ids[1])
	g.dequeue(second)

	got := append([]TaskID(nil), g.bands[NormalPrio].ids...)
	want := []TaskID{ids[0], ids[2], ids[3]}
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("band contents mismatch (-want +got):\n%s", diff)
	}
	for i, id := range got {
		tk, _ := g.Task(id)
		assert.Equal(t, i, tk.posInBand)
	}
}
