// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

// Package client is the public entry point of the SDK: a facade over
// one batching queue per entity kind (traces, spans, feedback scores
// for each, datasets, prompt versions), all dispatching to one shared
// collector client.
//
// Instrumentation calls (StartTrace, EndSpan, LogTraceScore, ...) are
// non-blocking: they enqueue and return. Work reaches the collector
// when a queue's debounce window closes or when Flush is called. Call
// Flush before process exit; until it returns, buffered telemetry may
// exist only in memory.
package client
