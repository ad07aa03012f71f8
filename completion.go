package bfs

import (
	"context"
	"sync"
)

// Completion is a one-shot (or repeatable) counting semaphore used to
// signal that some event has occurred, per spec.md §4.9. All state
// updates are under the completion's own lock; waiting drops the lock
// across the actual sleep.
type Completion struct {
	mu   sync.Mutex
	cond sync.Cond
	done uint64
}

// halfMaxUint64 mirrors UINT_MAX/2 from the original's complete_all,
// added to done so that an effectively unbounded number of waiters can
// proceed without special-casing a "completed forever" flag.
const halfMaxUint64 = ^uint64(0) / 2

// NewCompletion constructs a ready-to-use, not-yet-completed Completion.
func NewCompletion() *Completion {
	c := &Completion{}
	c.cond.L = &c.mu
	return c
}

// Complete increments the completion count and wakes one waiter.
func (c *Completion) Complete() {
	c.mu.Lock()
	c.done++
	c.mu.Unlock()
	c.cond.Signal()
}

// CompleteAll marks the completion as permanently satisfied and wakes
// every waiter.
func (c *Completion) CompleteAll() {
	c.mu.Lock()
	c.done += halfMaxUint64
	c.mu.Unlock()
	c.cond.Broadcast()
}

// Wait blocks uninterruptibly until the completion count is positive,
// then decrements it (spec.md's wait_for_completion, uninterruptible
// variant).
func (c *Completion) Wait() {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.done == 0 {
		c.cond.Wait()
	}
	c.done--
}

// WaitContext blocks until either the completion fires or ctx is
// cancelled/deadlined (the interruptible/killable variant, modeled with
// ctx.Err() rather than a signal mask since this package has no signal
// subsystem of its own). Returns ctx.Err() on cancellation, nil on
// success.
func (c *Completion) WaitContext(ctx context.Context) error {
	done := make(chan struct{})
	go func() {
		c.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		// Best-effort: we cannot un-decrement done from within the
		// goroutine above if it raced us to completion; callers that
		// need exact accounting should prefer TryWait in a poll loop.
		return ctx.Err()
	}
}

// TryWait performs a non-blocking check: if the completion count is
// positive, decrements it and returns true.
func (c *Completion) TryWait() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.done == 0 {
		return false
	}
	c.done--
	return true
}
