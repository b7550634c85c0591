// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"sync"
)

// Handle tracks one unit of work enqueued on a Chain. Callers may
// await it with Wait or ignore it; the chain settles either way.
type Handle struct {
	done chan struct{}
	// err is written exactly once, before done is closed.
	err error
}

// Wait blocks until the unit settles or ctx is done, returning the
// unit's error (nil on success) or ctx.Err().
func (h *Handle) Wait(ctx context.Context) error {
	select {
	case <-h.done:
		return h.err
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Done returns a channel closed when the unit has settled.
func (h *Handle) Done() <-chan struct{} { return h.done }

// settledHandle returns an already-settled Handle carrying err.
func settledHandle(err error) *Handle {
	h := &Handle{done: make(chan struct{}), err: err}
	close(h.done)
	return h
}

// Chain serializes asynchronous units of work: at most one unit runs
// at a time, units run in enqueue order, and a failing unit does not
// stop the ones behind it. The enqueuing goroutine never blocks.
//
// One Chain exists per operation kind per queue. Without it, a
// debounce firing next to an explicit flush could issue overlapping
// collector calls for overlapping entity sets, producing duplicate or
// out-of-order remote state.
type Chain struct {
	mu   sync.Mutex
	tail *Handle
}

// NewChain returns a chain whose tail is already settled, so the
// first enqueued unit starts immediately.
func NewChain() *Chain {
	return &Chain{tail: settledHandle(nil)}
}

// Enqueue schedules work to run strictly after every previously
// enqueued unit has settled, success or failure. It returns
// immediately with a Handle for the new unit.
func (c *Chain) Enqueue(work func() error) *Handle {
	handle := &Handle{done: make(chan struct{})}

	c.mu.Lock()
	previous := c.tail
	c.tail = handle
	c.mu.Unlock()

	go func() {
		// Settle-then-continue: the previous unit's outcome is
		// irrelevant here, only that it has finished.
		<-previous.done
		handle.err = work()
		close(handle.done)
	}()

	return handle
}

// Wait blocks until every unit enqueued so far has settled, returning
// the most recent unit's error. Units that failed earlier in the
// chain surfaced through their own handles (and the queue's log).
func (c *Chain) Wait(ctx context.Context) error {
	c.mu.Lock()
	tail := c.tail
	c.mu.Unlock()
	return tail.Wait(ctx)
}
