// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"testing"

	"github.com/sightline-ai/sightline-go/telemetry"
)

func TestGroupSpansByParentRootsFirst(t *testing.T) {
	spans := []telemetry.Span{
		{ID: "c1", ParentSpanID: "p1"},
		{ID: "r1"},
		{ID: "c2", ParentSpanID: "p2"},
		{ID: "c3", ParentSpanID: "p1"},
		{ID: "r2"},
	}

	groups := groupSpansByParent(spans)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want 3", len(groups))
	}
	// Roots lead even when a child arrived first.
	if groups[0][0].ID != "r1" || groups[0][1].ID != "r2" {
		t.Fatalf("first group = %+v, want the root spans", groups[0])
	}
	// Child groups follow in first-seen parent order.
	if groups[1][0].ParentSpanID != "p1" || len(groups[1]) != 2 {
		t.Fatalf("second group = %+v, want both p1 children", groups[1])
	}
	if groups[2][0].ParentSpanID != "p2" || len(groups[2]) != 1 {
		t.Fatalf("third group = %+v, want the p2 child", groups[2])
	}
}

func TestGroupSpansByParentNoRoots(t *testing.T) {
	spans := []telemetry.Span{
		{ID: "c1", ParentSpanID: "p1"},
		{ID: "c2", ParentSpanID: "p1"},
	}
	groups := groupSpansByParent(spans)
	if len(groups) != 1 || len(groups[0]) != 2 {
		t.Fatalf("groups = %+v, want one group of two", groups)
	}
}

func TestGroupSpansByParentPreservesOrderWithinGroup(t *testing.T) {
	spans := []telemetry.Span{
		{ID: "a", ParentSpanID: "p"},
		{ID: "b", ParentSpanID: "p"},
		{ID: "c", ParentSpanID: "p"},
	}
	groups := groupSpansByParent(spans)
	if groups[0][0].ID != "a" || groups[0][1].ID != "b" || groups[0][2].ID != "c" {
		t.Fatalf("group order = %+v, want enqueue order preserved", groups[0])
	}
}

func TestPromptSingletons(t *testing.T) {
	versions := []telemetry.PromptVersion{
		{PromptName: "a", Commit: "c1"},
		{PromptName: "a", Commit: "c2"},
		{PromptName: "b", Commit: "c3"},
	}
	groups := promptSingletons(versions)
	if len(groups) != 3 {
		t.Fatalf("got %d groups, want one per version", len(groups))
	}
	for i, group := range groups {
		if len(group) != 1 || group[0].Commit != versions[i].Commit {
			t.Fatalf("group %d = %+v, want singleton %+v", i, group, versions[i])
		}
	}
}
