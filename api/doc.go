// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

// Package api implements the REST transport to the Sightline
// collector. It is the collaborator the batching layer dispatches to:
// each entity kind gets a service value implementing the
// batch.Backend operations (batch create, fetch, partial update,
// batch delete) over the collector's private JSON API.
//
// The transport deliberately does not retry; failed dispatches
// surface to the batching layer, which logs them and carries them to
// the caller's Flush.
package api
