// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

// Package clock provides an injectable time source so that the SDK's
// debounce timers can be driven deterministically in tests.
//
// The batching layer arms and resets a timer on every enqueue; testing
// that against the real clock means sleeping through debounce windows
// and flaking under load. Instead, every component that schedules work
// takes a Clock. Production wiring passes Real(); tests pass Fake()
// and call Advance to fire timers at exact instants.
package clock
