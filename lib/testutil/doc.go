// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

// Package testutil provides small helpers shared by the SDK's tests:
// channel receives with timeout safety valves and polling waits for
// asynchronous dispatch to settle. Tests never wait on bare channel
// reads; a hung dispatch should fail the test, not the CI job.
package testutil
