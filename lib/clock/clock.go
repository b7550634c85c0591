// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package clock

import "time"

// Clock abstracts the time operations the SDK schedules against.
// Production code injects Real(); tests inject Fake() and advance it
// deterministically. No production code in this module calls time.Now,
// time.After, time.AfterFunc, or time.Sleep directly.
type Clock interface {
	// Now returns the current time.
	Now() time.Time

	// After returns a channel that receives the current time once d
	// has elapsed. If d <= 0, the channel receives immediately.
	After(d time.Duration) <-chan time.Time

	// AfterFunc waits for d, then calls f. The returned Timer cancels
	// the pending call via Stop and reschedules via Reset. If d <= 0,
	// f runs immediately: in a new goroutine for the real clock,
	// synchronously for the fake.
	AfterFunc(d time.Duration, f func()) *Timer

	// Sleep pauses the calling goroutine for at least d.
	Sleep(d time.Duration)
}

// Timer is a scheduled single-shot event created by AfterFunc.
type Timer struct {
	stopFunc  func() bool
	resetFunc func(time.Duration) bool
}

// Stop prevents the timer from firing. Returns true if the call
// stopped the timer, false if it already fired or was stopped.
func (t *Timer) Stop() bool { return t.stopFunc() }

// Reset reschedules the timer to fire after d. Returns true if the
// timer was still active before the reset.
func (t *Timer) Reset(d time.Duration) bool { return t.resetFunc(d) }
