// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import (
	"sort"
	"sync"
	"time"
)

// Fake returns a FakeClock pinned to the given instant. Time moves
// only when Advance is called; timers and sleeps registered against
// the clock fire when Advance crosses their deadline.
//
// FakeClock is safe for concurrent use.
func Fake(initial time.Time) *FakeClock {
	c := &FakeClock{current: initial}
	c.registered = sync.NewCond(&c.mu)
	return c
}

// FakeClock is a deterministic Clock for tests. AfterFunc callbacks
// run synchronously inside Advance, in deadline order. Do not call
// Advance or Sleep from inside a callback; that deadlocks.
type FakeClock struct {
	mu         sync.Mutex
	current    time.Time
	timers     []*fakeTimer
	registered *sync.Cond
}

// fakeTimer is one pending After, AfterFunc, or Sleep registration.
type fakeTimer struct {
	deadline time.Time

	// Exactly one of channel and callback is set: channel for After
	// and Sleep, callback for AfterFunc.
	channel  chan time.Time
	callback func()

	stopped bool
	fired   bool
}

// Now returns the current fake time.
func (c *FakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// After returns a channel that receives once the clock is advanced
// past the deadline. A non-positive d delivers immediately.
func (c *FakeClock) After(d time.Duration) <-chan time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()

	channel := make(chan time.Time, 1)
	if d <= 0 {
		channel <- c.current
		return channel
	}
	c.timers = append(c.timers, &fakeTimer{
		deadline: c.current.Add(d),
		channel:  channel,
	})
	c.registered.Broadcast()
	return channel
}

// AfterFunc schedules f to run when the clock is advanced past the
// deadline. A non-positive d runs f synchronously before returning.
func (c *FakeClock) AfterFunc(d time.Duration, f func()) *Timer {
	if d <= 0 {
		f()
		return &Timer{
			stopFunc:  func() bool { return false },
			resetFunc: func(time.Duration) bool { return false },
		}
	}

	c.mu.Lock()
	timer := &fakeTimer{
		deadline: c.current.Add(d),
		callback: f,
	}
	c.timers = append(c.timers, timer)
	c.registered.Broadcast()
	c.mu.Unlock()

	return &Timer{
		stopFunc: func() bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			if timer.stopped || timer.fired {
				return false
			}
			timer.stopped = true
			return true
		},
		resetFunc: func(d time.Duration) bool {
			c.mu.Lock()
			defer c.mu.Unlock()
			active := !timer.stopped && !timer.fired
			timer.deadline = c.current.Add(d)
			timer.stopped = false
			timer.fired = false
			// Firing (or a post-Stop sweep) removes the timer from the
			// pending list; re-register it without duplicating.
			if !c.registeredLocked(timer) {
				c.timers = append(c.timers, timer)
				c.registered.Broadcast()
			}
			return active
		},
	}
}

// Sleep blocks until the clock advances past the deadline.
func (c *FakeClock) Sleep(d time.Duration) {
	if d <= 0 {
		return
	}
	<-c.After(d)
}

// Advance moves the clock forward by d and fires every pending timer
// whose deadline falls within the new time, in deadline order.
// Callback timers run synchronously in the calling goroutine; channel
// timers deliver without blocking.
func (c *FakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.current = c.current.Add(d)
	target := c.current
	c.mu.Unlock()

	for {
		due := c.takeDue(target)
		if len(due) == 0 {
			return
		}
		sort.Slice(due, func(i, j int) bool {
			return due[i].deadline.Before(due[j].deadline)
		})
		for _, timer := range due {
			if timer.callback != nil {
				timer.callback()
				continue
			}
			select {
			case timer.channel <- target:
			default:
			}
		}
	}
}

// takeDue removes and returns the timers due at or before target.
// Callbacks may register new timers, so Advance loops until a pass
// collects nothing.
func (c *FakeClock) takeDue(target time.Time) []*fakeTimer {
	c.mu.Lock()
	defer c.mu.Unlock()

	var due, keep []*fakeTimer
	for _, timer := range c.timers {
		switch {
		case timer.stopped:
			// drop
		case !timer.deadline.After(target):
			timer.fired = true
			due = append(due, timer)
		default:
			keep = append(keep, timer)
		}
	}
	c.timers = keep
	return due
}

// WaitForTimers blocks until at least n timers are pending. Use this
// to eliminate the race between a goroutine arming a timer and the
// test advancing the clock.
func (c *FakeClock) WaitForTimers(n int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.pendingLocked() < n {
		c.registered.Wait()
	}
}

// PendingCount returns the number of armed, unfired timers.
func (c *FakeClock) PendingCount() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pendingLocked()
}

// registeredLocked reports whether timer is present in the pending
// list. Must be called with c.mu held.
func (c *FakeClock) registeredLocked(timer *fakeTimer) bool {
	for _, pending := range c.timers {
		if pending == timer {
			return true
		}
	}
	return false
}

func (c *FakeClock) pendingLocked() int {
	count := 0
	for _, timer := range c.timers {
		if !timer.stopped {
			count++
		}
	}
	return count
}
