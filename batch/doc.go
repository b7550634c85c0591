// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

// Package batch implements the SDK's batched dispatch engine: the
// machinery that lets instrumented application code emit telemetry
// without ever blocking on network I/O.
//
// Three pieces compose into the generic Queue:
//
//   - Store: an in-memory coalescing map from entity identity to the
//     latest pending payload, plus a pending-deletion set. Pure data
//     structure; deleting a still-pending create cancels it locally
//     instead of ever touching the network.
//   - the debounce timer: every enqueue re-arms a single timer per
//     operation kind; dispatch happens after a quiet period, or
//     immediately on Flush.
//   - Chain: a serialized dispatch lane guaranteeing at most one
//     in-flight collector call per operation kind, in enqueue order,
//     continuing past failures.
//
// Queue composes them behind Create, Get, Update, Delete, and Flush.
// Create and Delete are fire-and-forget; their failures surface when
// Flush is awaited and are always logged even when nobody awaits.
// Update returns a Handle the caller may optionally await.
//
// Per-entity dispatch policy (whether deletes batch, how a create
// batch is partitioned, which collector errors are expected) is
// injected through Config rather than subclassed.
package batch
