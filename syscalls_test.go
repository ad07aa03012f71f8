package bfs

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSetNice_RoundTripsAndRejectsOutOfRange(t *testing.T) {
	s := newTestScheduler(t, 1)
	tk := s.GRQ.NewTask()
	tk.Policy = PolicyNormal
	tk.Nice = 5

	require.NoError(t, s.SetNice(tk, 10, false))
	assert.Equal(t, 10, Nice(tk))

	err := s.SetNice(tk, 40, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSetNice_LoweringRequiresPrivilege(t *testing.T) {
	s := newTestScheduler(t, 1)
	tk := s.GRQ.NewTask()
	tk.Nice = 0

	err := s.SetNice(tk, -5, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermission)
	assert.Equal(t, 0, Nice(tk))

	require.NoError(t, s.SetNice(tk, -5, true))
	assert.Equal(t, -5, Nice(tk))
}

func TestSetScheduler_RoundTripsAndRequiresPrivilegeForRT(t *testing.T) {
	s := newTestScheduler(t, 1)
	tk := s.GRQ.NewTask()
	tk.Policy = PolicyNormal
	tk.StaticPrio = NormalPrio

	err := s.SetScheduler(tk, PolicyFIFO, 50, false, false)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPermission)

	require.NoError(t, s.SetScheduler(tk, PolicyFIFO, 50, false, true))
	assert.Equal(t, PolicyFIFO, GetScheduler(tk))
	assert.Equal(t, MaxUserRTPrio-1-50, tk.NormalPrio)
}

func TestSetScheduler_RejectsBadRTPriority(t *testing.T) {
	s := newTestScheduler(t, 1)
	tk := s.GRQ.NewTask()
	err := s.SetScheduler(tk, PolicyFIFO, 0, false, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSetAffinity_RejectsMaskWithNoOnlineCPU(t *testing.T) {
	s := newTestScheduler(t, 2)
	tk := s.GRQ.NewTask()
	tk.CPUsAllowed = NewAffinity(0, 1)

	err := s.SetAffinity(tk, NewAffinity())
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrInvalid)
}

func TestSetAffinity_RunningTaskLosingItsCPUIsFlaggedForResched(t *testing.T) {
	s := newTestScheduler(t, 4)
	tk := s.GRQ.NewTask()
	tk.Policy = PolicyNormal
	tk.StaticPrio = NormalPrio
	tk.CPUsAllowed = NewAffinity(0, 1, 2, 3)
	tk.CPU = 0
	tk.onCPU.Store(true)
	s.RQs[0].Curr = tk.ID

	require.NoError(t, s.SetAffinity(tk, NewAffinity(3)))
	assert.True(t, tk.NeedResched.Load())
}

func TestByIDWrappers_ReturnNoSuchTaskOnMiss(t *testing.T) {
	s := newTestScheduler(t, 1)
	err := s.SetNiceByID(TaskID(999999), 0, true)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrNoSuchTask)
	var nste *NoSuchTaskError
	require.True(t, errors.As(err, &nste))
	assert.Equal(t, TaskID(999999), nste.ID)
}

func TestBoostPriorityUnboostPriority_RestoresNormalPrio(t *testing.T) {
	s := newTestScheduler(t, 1)
	tk := s.GRQ.NewTask()
	tk.Policy = PolicyNormal
	tk.StaticPrio = NormalPrio
	tk.NormalPrio = NormalPrio
	tk.Prio = NormalPrio

	s.BoostPriority(tk, NormalPrio-50)
	assert.True(t, tk.Prio < NormalPrio)

	s.UnboostPriority(tk)
	assert.False(t, tk.boosted)
	assert.Equal(t, NormalPrio, tk.Prio)
}

func TestAboveBackgroundLoad_TrueOnlyWhenNonIdleRunning(t *testing.T) {
	s := newTestScheduler(t, 2)
	assert.False(t, s.AboveBackgroundLoad(), "every CPU starts idle")

	busy := s.GRQ.NewTask()
	busy.Policy = PolicyNormal
	s.RQs[0].Curr = busy.ID
	s.RQs[0].Policy = PolicyNormal

	assert.True(t, s.AboveBackgroundLoad())
}

func TestOfflineCPU_BoostsIdleTaskAndWidensOrphanedAffinity(t *testing.T) {
	s := newTestScheduler(t, 2)
	tk := s.GRQ.NewTask()
	tk.Policy = PolicyNormal
	tk.CPUsAllowed = NewAffinity(1)
	tk.State = StateRunning

	s.OfflineCPU(1)

	idle, ok := s.GRQ.Task(s.RQs[1].Idle)
	require.True(t, ok)
	assert.Equal(t, PolicyFIFO, idle.Policy)
	assert.Equal(t, MaxUserRTPrio-1, idle.RTPriority)
	assert.True(t, idle.Queued())

	assert.Equal(t, s.possibleMask, tk.CPUsAllowed, "orphaned task's affinity must widen to every possible CPU")
}

func TestWidenAffinityForHotplug_LeavesStillOnlineTasksAlone(t *testing.T) {
	s := newTestScheduler(t, 2)
	tk := s.GRQ.NewTask()
	tk.CPUsAllowed = NewAffinity(0, 1)
	tk.State = StateRunning

	s.onlineMask &^= NewAffinity(1)
	s.WidenAffinityForHotplug(1)

	assert.Equal(t, NewAffinity(0, 1), tk.CPUsAllowed, "task still intersecting online mask must be untouched")
}
