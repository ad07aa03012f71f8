package bfs

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestWaitQueue_WakeUpRespectsExclusiveBudget(t *testing.T) {
	var q WaitQueue
	var woken []int
	for i := 0; i < 4; i++ {
		i := i
		q.Add(&Waiter{
			Exclusive: true,
			Callback: func(flags WakeFlags) bool {
				woken = append(woken, i)
				return true
			},
		})
	}

	q.WakeUp(0, 2)
	assert.Len(t, woken, 2, "only nrExclusive waiters should be woken")
}

func TestWaitQueue_WakeUpUnlimitedWakesEveryone(t *testing.T) {
	var q WaitQueue
	count := 0
	for i := 0; i < 3; i++ {
		q.Add(&Waiter{
			Exclusive: true,
			Callback: func(flags WakeFlags) bool {
				count++
				return true
			},
		})
	}

	q.WakeUp(0, 0)
	assert.Equal(t, 3, count)
}

func TestWaitQueue_RemoveExcludesWaiterFromFutureWakes(t *testing.T) {
	var q WaitQueue
	called := false
	w := &Waiter{Callback: func(flags WakeFlags) bool { called = true; return true }}
	q.Add(w)
	q.Remove(w)

	q.WakeUp(0, 0)
	assert.False(t, called)
}

func TestWaitQueue_NonExclusiveWakeDoesNotConsumeBudget(t *testing.T) {
	var q WaitQueue
	count := 0
	q.Add(&Waiter{Exclusive: false, Callback: func(flags WakeFlags) bool { count++; return true }})
	q.Add(&Waiter{Exclusive: true, Callback: func(flags WakeFlags) bool { count++; return true }})

	q.WakeUp(0, 1)
	assert.Equal(t, 2, count, "a non-exclusive waiter must wake without spending the exclusive budget")
}
