// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"

	"github.com/google/uuid"
)

func TestNewIDIsValidUUID(t *testing.T) {
	id := NewID()
	parsed, err := uuid.Parse(id)
	if err != nil {
		t.Fatalf("NewID() = %q, not a UUID: %v", id, err)
	}
	if parsed.Version() != 7 {
		t.Fatalf("NewID() version = %d, want 7", parsed.Version())
	}
}

func TestNewIDIsUnique(t *testing.T) {
	seen := make(map[string]struct{}, 1000)
	for i := 0; i < 1000; i++ {
		id := NewID()
		if _, dup := seen[id]; dup {
			t.Fatalf("duplicate ID %q after %d generations", id, i)
		}
		seen[id] = struct{}{}
	}
}
