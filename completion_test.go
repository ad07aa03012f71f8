package bfs

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCompletion_CompleteWakesOneWaiter(t *testing.T) {
	c := NewCompletion()
	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()

	time.Sleep(10 * time.Millisecond)
	c.Complete()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("waiter was never woken")
	}
}

func TestCompletion_CompleteAllWakesEveryWaiter(t *testing.T) {
	c := NewCompletion()
	const n = 5
	doneCh := make(chan struct{}, n)
	for i := 0; i < n; i++ {
		go func() {
			c.Wait()
			doneCh <- struct{}{}
		}()
	}

	time.Sleep(10 * time.Millisecond)
	c.CompleteAll()

	for i := 0; i < n; i++ {
		select {
		case <-doneCh:
		case <-time.After(time.Second):
			t.Fatalf("waiter %d was never woken by CompleteAll", i)
		}
	}
}

func TestCompletion_TryWaitNonBlocking(t *testing.T) {
	c := NewCompletion()
	assert.False(t, c.TryWait())
	c.Complete()
	assert.True(t, c.TryWait())
	assert.False(t, c.TryWait())
}

func TestCompletion_WaitContextCancellation(t *testing.T) {
	c := NewCompletion()
	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	err := c.WaitContext(ctx)
	require.ErrorIs(t, err, context.DeadlineExceeded)
}
