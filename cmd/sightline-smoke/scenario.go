// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/tidwall/jsonc"

	"github.com/sightline-ai/sightline-go/client"
	"github.com/sightline-ai/sightline-go/lib/clock"
	"github.com/sightline-ai/sightline-go/telemetry"
)

// scenario is a scripted sequence of SDK calls. Scenario files are
// JSONC: JSON plus comments and trailing commas, so fixtures can be
// annotated in place.
type scenario struct {
	Name  string `json:"name"`
	Steps []step `json:"steps"`
}

// step is one scripted SDK call. Op selects the call; the remaining
// fields parameterize it. Entity references use aliases assigned by
// earlier start/create steps, never raw IDs — the SDK generates IDs
// at run time.
type step struct {
	Op     string `json:"op"`
	Alias  string `json:"alias,omitempty"`
	Trace  string `json:"trace,omitempty"`
	Parent string `json:"parent,omitempty"`
	Entity string `json:"entity,omitempty"`

	Name  string         `json:"name,omitempty"`
	Type  string         `json:"type,omitempty"`
	Input map[string]any `json:"input,omitempty"`

	ScoreName string  `json:"score_name,omitempty"`
	Value     float64 `json:"value,omitempty"`

	Prompt      string `json:"prompt,omitempty"`
	Template    string `json:"template,omitempty"`
	Description string `json:"description,omitempty"`
}

var knownOps = map[string]bool{
	"start_trace":        true,
	"end_trace":          true,
	"delete_trace":       true,
	"start_span":         true,
	"end_span":           true,
	"delete_span":        true,
	"log_trace_score":    true,
	"log_span_score":     true,
	"delete_trace_score": true,
	"delete_span_score":  true,
	"create_dataset":     true,
	"delete_dataset":     true,
	"create_prompt":      true,
	"delete_prompt":      true,
	"flush":              true,
}

// parseScenario decodes and validates a JSONC scenario file.
func parseScenario(raw []byte) (scenario, error) {
	var s scenario
	if err := json.Unmarshal(jsonc.ToJSON(raw), &s); err != nil {
		return scenario{}, fmt.Errorf("decoding scenario: %w", err)
	}
	if s.Name == "" {
		return scenario{}, fmt.Errorf("scenario has no name")
	}
	if len(s.Steps) == 0 {
		return scenario{}, fmt.Errorf("scenario %q has no steps", s.Name)
	}
	for i, step := range s.Steps {
		if !knownOps[step.Op] {
			return scenario{}, fmt.Errorf("step %d: unknown op %q", i+1, step.Op)
		}
	}
	return s, nil
}

// runner replays a scenario through the SDK, mapping scenario aliases
// to the IDs the SDK assigns.
type runner struct {
	sdk      *client.Client
	clock    clock.Clock
	recorder *recorder // nil when not recording
	logger   *slog.Logger
	aliases  map[string]string
}

func newRunner(sdk *client.Client, rec *recorder, logger *slog.Logger) *runner {
	return &runner{
		sdk:      sdk,
		clock:    clock.Real(),
		recorder: rec,
		logger:   logger,
		aliases:  make(map[string]string),
	}
}

func (r *runner) execute(ctx context.Context, s scenario) error {
	r.logger.Info("replaying scenario", "name", s.Name, "steps", len(s.Steps))
	for i, step := range s.Steps {
		if err := r.apply(ctx, step); err != nil {
			return fmt.Errorf("step %d (%s): %w", i+1, step.Op, err)
		}
	}
	return nil
}

func (r *runner) apply(ctx context.Context, s step) error {
	switch s.Op {
	case "start_trace":
		id := r.sdk.StartTrace(telemetry.Trace{Name: s.Name, Input: s.Input})
		return r.bind(s, id)

	case "end_trace":
		id, err := r.resolve(s.Alias)
		if err != nil {
			return err
		}
		r.sdk.EndTrace(id)
		return r.note(s, id)

	case "delete_trace":
		id, err := r.resolve(s.Alias)
		if err != nil {
			return err
		}
		r.sdk.DeleteTrace(id)
		return r.note(s, id)

	case "start_span":
		traceID, err := r.resolve(s.Trace)
		if err != nil {
			return err
		}
		var parentID string
		if s.Parent != "" {
			if parentID, err = r.resolve(s.Parent); err != nil {
				return err
			}
		}
		id := r.sdk.StartSpan(telemetry.Span{
			TraceID:      traceID,
			ParentSpanID: parentID,
			Name:         s.Name,
			Type:         telemetry.SpanType(s.Type),
			Input:        s.Input,
		})
		return r.bind(s, id)

	case "end_span":
		id, err := r.resolve(s.Alias)
		if err != nil {
			return err
		}
		r.sdk.EndSpan(id)
		return r.note(s, id)

	case "delete_span":
		id, err := r.resolve(s.Alias)
		if err != nil {
			return err
		}
		r.sdk.DeleteSpan(id)
		return r.note(s, id)

	case "log_trace_score", "log_span_score":
		id, err := r.resolve(s.Entity)
		if err != nil {
			return err
		}
		score := telemetry.FeedbackScore{EntityID: id, Name: s.ScoreName, Value: s.Value}
		if s.Op == "log_trace_score" {
			r.sdk.LogTraceScore(score)
		} else {
			r.sdk.LogSpanScore(score)
		}
		return r.note(s, id)

	case "delete_trace_score":
		id, err := r.resolve(s.Entity)
		if err != nil {
			return err
		}
		r.sdk.DeleteTraceScore(id, s.ScoreName)
		return r.note(s, id)

	case "delete_span_score":
		id, err := r.resolve(s.Entity)
		if err != nil {
			return err
		}
		r.sdk.DeleteSpanScore(id, s.ScoreName)
		return r.note(s, id)

	case "create_dataset":
		id := r.sdk.CreateDataset(telemetry.Dataset{Name: s.Name, Description: s.Description})
		return r.bind(s, id)

	case "delete_dataset":
		id, err := r.resolve(s.Alias)
		if err != nil {
			return err
		}
		r.sdk.DeleteDataset(id)
		return r.note(s, id)

	case "create_prompt":
		version := r.sdk.CreatePromptVersion(telemetry.PromptVersion{
			PromptName:        s.Prompt,
			Template:          s.Template,
			ChangeDescription: s.Description,
		})
		return r.note(s, version.PromptName+"@"+version.Commit)

	case "delete_prompt":
		commit := telemetry.TemplateCommit(s.Template)
		r.sdk.DeletePromptVersion(s.Prompt, commit)
		return r.note(s, s.Prompt+"@"+commit)

	case "flush":
		if err := r.sdk.Flush(ctx); err != nil {
			return err
		}
		return r.note(s, "")

	default:
		return fmt.Errorf("unknown op %q", s.Op)
	}
}

// bind registers the ID a start/create step produced under its alias
// and records the step.
func (r *runner) bind(s step, id string) error {
	if s.Alias == "" {
		return fmt.Errorf("op %q requires an alias", s.Op)
	}
	if _, taken := r.aliases[s.Alias]; taken {
		return fmt.Errorf("alias %q already bound", s.Alias)
	}
	r.aliases[s.Alias] = id
	return r.note(s, id)
}

// resolve maps an alias to the SDK-assigned ID.
func (r *runner) resolve(alias string) (string, error) {
	if alias == "" {
		return "", fmt.Errorf("missing alias reference")
	}
	id, found := r.aliases[alias]
	if !found {
		return "", fmt.Errorf("unknown alias %q", alias)
	}
	return id, nil
}

// note appends the executed step to the recording, if one is active.
func (r *runner) note(s step, entityID string) error {
	if r.recorder == nil {
		return nil
	}
	return r.recorder.record(event{
		At:       r.clock.Now(),
		Op:       s.Op,
		Alias:    s.Alias,
		EntityID: entityID,
	})
}
