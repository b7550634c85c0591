// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"testing"
	"time"
)

func TestApplyTracePatchReplacesOnlySetFields(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	trace := Trace{
		ID:        "t1",
		Name:      "checkout",
		StartTime: start,
		Input:     map[string]any{"prompt": "hi"},
		Tags:      []string{"prod"},
	}

	name := "checkout-v2"
	end := start.Add(2 * time.Second)
	patched := ApplyTracePatch(trace, TracePatch{
		Name:    &name,
		EndTime: &end,
		Output:  map[string]any{"completion": "hello"},
	})

	if patched.Name != "checkout-v2" {
		t.Fatalf("Name = %q, want checkout-v2", patched.Name)
	}
	if patched.EndTime == nil || !patched.EndTime.Equal(end) {
		t.Fatalf("EndTime = %v, want %v", patched.EndTime, end)
	}
	if patched.Output["completion"] != "hello" {
		t.Fatalf("Output = %v", patched.Output)
	}
	// Untouched fields survive.
	if patched.Input["prompt"] != "hi" || len(patched.Tags) != 1 {
		t.Fatalf("unset patch fields mutated the entity: %+v", patched)
	}
}

func TestApplyTracePatchEmptyIsIdentity(t *testing.T) {
	trace := Trace{ID: "t1", Name: "n", ThreadID: "th"}
	patched := ApplyTracePatch(trace, TracePatch{})
	if patched.Name != "n" || patched.ThreadID != "th" {
		t.Fatalf("empty patch changed the entity: %+v", patched)
	}
}

func TestCoalesceTraceNewerWinsZeroPreserves(t *testing.T) {
	start := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	old := Trace{ID: "t1", Name: "first", StartTime: start, ThreadID: "th", Tags: []string{"a"}}
	newer := Trace{ID: "t1", Name: "second"}

	merged := CoalesceTrace(old, newer)
	if merged.Name != "second" {
		t.Fatalf("Name = %q, want newer value", merged.Name)
	}
	if !merged.StartTime.Equal(start) || merged.ThreadID != "th" || len(merged.Tags) != 1 {
		t.Fatalf("zero fields in newer create did not preserve older values: %+v", merged)
	}
}

func TestApplySpanPatch(t *testing.T) {
	span := Span{ID: "s1", TraceID: "t1", Name: "llm-call", Type: SpanTypeLLM}

	model := "gpt-5"
	cost := 0.0042
	patched := ApplySpanPatch(span, SpanPatch{
		Model:     &model,
		TotalCost: &cost,
		Usage:     map[string]int64{"total_tokens": 128},
	})

	if patched.Model != "gpt-5" || patched.TotalCost == nil || *patched.TotalCost != 0.0042 {
		t.Fatalf("patched span = %+v", patched)
	}
	if patched.Usage["total_tokens"] != 128 {
		t.Fatalf("Usage = %v", patched.Usage)
	}
	if patched.TraceID != "t1" || patched.Type != SpanTypeLLM {
		t.Fatal("unset fields mutated")
	}
}

func TestCoalesceSpanPreservesParentage(t *testing.T) {
	old := Span{ID: "s1", TraceID: "t1", ParentSpanID: "s0", Provider: "openai"}
	newer := Span{ID: "s1", Name: "retry"}

	merged := CoalesceSpan(old, newer)
	if merged.TraceID != "t1" || merged.ParentSpanID != "s0" {
		t.Fatalf("parentage lost in coalesce: %+v", merged)
	}
	if merged.Name != "retry" || merged.Provider != "openai" {
		t.Fatalf("merged = %+v", merged)
	}
}

func TestScoreKeyIsComposite(t *testing.T) {
	a := FeedbackScore{EntityID: "t1", Name: "relevance"}
	b := FeedbackScore{EntityID: "t1", Name: "accuracy"}
	c := FeedbackScore{EntityID: "t2", Name: "relevance"}

	if a.Key() == b.Key() || a.Key() == c.Key() {
		t.Fatal("distinct scores share a key")
	}
	if a.Key() != (ScoreKey{EntityID: "t1", Name: "relevance"}) {
		t.Fatalf("Key() = %+v", a.Key())
	}
}

func TestCoalesceScoreRelogReplaces(t *testing.T) {
	old := FeedbackScore{EntityID: "t1", Name: "relevance", Value: 0.2, Reason: "weak", Source: ScoreSourceSDK}
	newer := FeedbackScore{EntityID: "t1", Name: "relevance", Value: 0.9}

	merged := CoalesceScore(old, newer)
	if merged.Value != 0.9 {
		t.Fatalf("Value = %v, want newer value 0.9", merged.Value)
	}
	if merged.Reason != "" {
		t.Fatalf("Reason = %q; a re-log replaces, not amends", merged.Reason)
	}
	if merged.Source != ScoreSourceSDK {
		t.Fatalf("Source = %q, want preserved %q", merged.Source, ScoreSourceSDK)
	}
}

func TestApplyDatasetPatch(t *testing.T) {
	dataset := Dataset{ID: "d1", Name: "evals", Description: "old"}
	description := "regression set"
	patched := ApplyDatasetPatch(dataset, DatasetPatch{Description: &description})
	if patched.Description != "regression set" || patched.Name != "evals" {
		t.Fatalf("patched = %+v", patched)
	}
}

func TestPromptPatchNeverTouchesTemplate(t *testing.T) {
	version := PromptVersion{
		PromptName: "greeting",
		Commit:     TemplateCommit("Hello {{name}}"),
		Template:   "Hello {{name}}",
	}
	description := "friendlier tone"
	patched := ApplyPromptPatch(version, PromptPatch{Description: &description})
	if patched.Template != version.Template || patched.Commit != version.Commit {
		t.Fatal("descriptive patch mutated template or commit")
	}
	if patched.ChangeDescription != "friendlier tone" {
		t.Fatalf("ChangeDescription = %q", patched.ChangeDescription)
	}
}
