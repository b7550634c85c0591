// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

// Package telemetry defines the entity types the SDK ships to the
// Sightline collector: traces, spans, feedback scores, datasets, and
// prompt versions.
//
// Each mutable entity has a companion patch type whose fields are
// pointers (or nil-able collections). A nil patch field leaves the
// entity field untouched; a set field replaces it. The Apply and
// Coalesce functions in this package are the only merge paths in the
// SDK — the batching layer never reflects over entity fields.
package telemetry
