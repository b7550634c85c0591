// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "github.com/google/uuid"

// NewID returns a new UUIDv7 entity identifier. Version 7 IDs are
// time-ordered, which keeps collector-side index inserts append-mostly
// for high-volume trace and span creation.
func NewID() string {
	id, err := uuid.NewV7()
	if err != nil {
		// NewV7 fails only if the system entropy source does; fall
		// back to the non-ordered variant rather than propagating an
		// error through every Start* call site.
		return uuid.NewString()
	}
	return id.String()
}
