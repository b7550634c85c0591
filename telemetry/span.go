// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "time"

// SpanType categorizes a span for collector-side cost and latency
// rollups.
type SpanType string

const (
	SpanTypeGeneral   SpanType = "general"
	SpanTypeLLM       SpanType = "llm"
	SpanTypeTool      SpanType = "tool"
	SpanTypeGuardrail SpanType = "guardrail"
)

// Span is one operation inside a trace. Spans nest via ParentSpanID;
// a span with an empty ParentSpanID is a root span of its trace.
type Span struct {
	ID           string         `json:"id"`
	TraceID      string         `json:"trace_id"`
	ParentSpanID string         `json:"parent_span_id,omitempty"`
	ProjectName  string         `json:"project_name,omitempty"`
	Name         string         `json:"name,omitempty"`
	Type         SpanType       `json:"type,omitempty"`
	StartTime    time.Time      `json:"start_time"`
	EndTime      *time.Time     `json:"end_time,omitempty"`
	Input        map[string]any `json:"input,omitempty"`
	Output       map[string]any `json:"output,omitempty"`
	Metadata     map[string]any `json:"metadata,omitempty"`
	Tags         []string       `json:"tags,omitempty"`
	// Model and Provider identify the LLM behind an llm-typed span.
	Model    string `json:"model,omitempty"`
	Provider string `json:"provider,omitempty"`
	// Usage holds token counts (prompt_tokens, completion_tokens,
	// total_tokens) as reported by the provider.
	Usage     map[string]int64 `json:"usage,omitempty"`
	TotalCost *float64         `json:"total_estimated_cost,omitempty"`
	ErrorInfo *ErrorInfo       `json:"error_info,omitempty"`
}

// SpanPatch is a partial update to a span.
type SpanPatch struct {
	Name      *string          `json:"name,omitempty"`
	Type      *SpanType        `json:"type,omitempty"`
	EndTime   *time.Time       `json:"end_time,omitempty"`
	Input     map[string]any   `json:"input,omitempty"`
	Output    map[string]any   `json:"output,omitempty"`
	Metadata  map[string]any   `json:"metadata,omitempty"`
	Tags      []string         `json:"tags,omitempty"`
	Model     *string          `json:"model,omitempty"`
	Provider  *string          `json:"provider,omitempty"`
	Usage     map[string]int64 `json:"usage,omitempty"`
	TotalCost *float64         `json:"total_estimated_cost,omitempty"`
	ErrorInfo *ErrorInfo       `json:"error_info,omitempty"`
}

// ApplySpanPatch merges patch into span, field by field.
func ApplySpanPatch(span Span, patch SpanPatch) Span {
	if patch.Name != nil {
		span.Name = *patch.Name
	}
	if patch.Type != nil {
		span.Type = *patch.Type
	}
	if patch.EndTime != nil {
		span.EndTime = patch.EndTime
	}
	if patch.Input != nil {
		span.Input = patch.Input
	}
	if patch.Output != nil {
		span.Output = patch.Output
	}
	if patch.Metadata != nil {
		span.Metadata = patch.Metadata
	}
	if patch.Tags != nil {
		span.Tags = patch.Tags
	}
	if patch.Model != nil {
		span.Model = *patch.Model
	}
	if patch.Provider != nil {
		span.Provider = *patch.Provider
	}
	if patch.Usage != nil {
		span.Usage = patch.Usage
	}
	if patch.TotalCost != nil {
		span.TotalCost = patch.TotalCost
	}
	if patch.ErrorInfo != nil {
		span.ErrorInfo = patch.ErrorInfo
	}
	return span
}

// CoalesceSpan merges a second pending create over an earlier one,
// mirroring CoalesceTrace.
func CoalesceSpan(old, newer Span) Span {
	merged := newer
	if merged.TraceID == "" {
		merged.TraceID = old.TraceID
	}
	if merged.ParentSpanID == "" {
		merged.ParentSpanID = old.ParentSpanID
	}
	if merged.ProjectName == "" {
		merged.ProjectName = old.ProjectName
	}
	if merged.Name == "" {
		merged.Name = old.Name
	}
	if merged.Type == "" {
		merged.Type = old.Type
	}
	if merged.StartTime.IsZero() {
		merged.StartTime = old.StartTime
	}
	if merged.EndTime == nil {
		merged.EndTime = old.EndTime
	}
	if merged.Input == nil {
		merged.Input = old.Input
	}
	if merged.Output == nil {
		merged.Output = old.Output
	}
	if merged.Metadata == nil {
		merged.Metadata = old.Metadata
	}
	if merged.Tags == nil {
		merged.Tags = old.Tags
	}
	if merged.Model == "" {
		merged.Model = old.Model
	}
	if merged.Provider == "" {
		merged.Provider = old.Provider
	}
	if merged.Usage == nil {
		merged.Usage = old.Usage
	}
	if merged.TotalCost == nil {
		merged.TotalCost = old.TotalCost
	}
	if merged.ErrorInfo == nil {
		merged.ErrorInfo = old.ErrorInfo
	}
	return merged
}
