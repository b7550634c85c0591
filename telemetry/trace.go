// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import "time"

// Trace is one end-to-end unit of instrumented work (an agent run, a
// chat completion request, a pipeline invocation). Spans attach to a
// trace by ID.
type Trace struct {
	ID          string         `json:"id"`
	ProjectName string         `json:"project_name,omitempty"`
	Name        string         `json:"name,omitempty"`
	StartTime   time.Time      `json:"start_time"`
	EndTime     *time.Time     `json:"end_time,omitempty"`
	Input       map[string]any `json:"input,omitempty"`
	Output      map[string]any `json:"output,omitempty"`
	Metadata    map[string]any `json:"metadata,omitempty"`
	Tags        []string       `json:"tags,omitempty"`
	// ThreadID groups traces belonging to one conversation thread.
	ThreadID  string     `json:"thread_id,omitempty"`
	ErrorInfo *ErrorInfo `json:"error_info,omitempty"`
}

// ErrorInfo captures a failure observed during a trace or span.
type ErrorInfo struct {
	ExceptionType string `json:"exception_type,omitempty"`
	Message       string `json:"message,omitempty"`
	Traceback     string `json:"traceback,omitempty"`
}

// TracePatch is a partial update to a trace. Nil fields are left
// untouched; set fields replace the entity field wholesale.
type TracePatch struct {
	Name      *string        `json:"name,omitempty"`
	EndTime   *time.Time     `json:"end_time,omitempty"`
	Input     map[string]any `json:"input,omitempty"`
	Output    map[string]any `json:"output,omitempty"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	Tags      []string       `json:"tags,omitempty"`
	ThreadID  *string        `json:"thread_id,omitempty"`
	ErrorInfo *ErrorInfo     `json:"error_info,omitempty"`
}

// ApplyTracePatch merges patch into trace, field by field.
func ApplyTracePatch(trace Trace, patch TracePatch) Trace {
	if patch.Name != nil {
		trace.Name = *patch.Name
	}
	if patch.EndTime != nil {
		trace.EndTime = patch.EndTime
	}
	if patch.Input != nil {
		trace.Input = patch.Input
	}
	if patch.Output != nil {
		trace.Output = patch.Output
	}
	if patch.Metadata != nil {
		trace.Metadata = patch.Metadata
	}
	if patch.Tags != nil {
		trace.Tags = patch.Tags
	}
	if patch.ThreadID != nil {
		trace.ThreadID = *patch.ThreadID
	}
	if patch.ErrorInfo != nil {
		trace.ErrorInfo = patch.ErrorInfo
	}
	return trace
}

// CoalesceTrace merges a second pending create over an earlier one:
// last write wins per field, zero-valued fields in the newer create
// preserve the older values.
func CoalesceTrace(old, newer Trace) Trace {
	merged := newer
	if merged.ProjectName == "" {
		merged.ProjectName = old.ProjectName
	}
	if merged.Name == "" {
		merged.Name = old.Name
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
	if merged.ThreadID == "" {
		merged.ThreadID = old.ThreadID
	}
	if merged.ErrorInfo == nil {
		merged.ErrorInfo = old.ErrorInfo
	}
	return merged
}
