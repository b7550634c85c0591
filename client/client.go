// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	"github.com/sightline-ai/sightline-go/api"
	"github.com/sightline-ai/sightline-go/batch"
	"github.com/sightline-ai/sightline-go/lib/clock"
	"github.com/sightline-ai/sightline-go/telemetry"
)

// Client is the SDK facade. All methods are safe for concurrent use.
// Instrumentation methods never block on collector I/O; Flush is the
// durability checkpoint.
type Client struct {
	projectName string
	clock       clock.Clock
	logger      *slog.Logger
	queues      *queues
}

// New validates config, builds the collector client, and assembles
// the per-entity queues.
func New(config Config) (*Client, error) {
	collector, err := api.NewClient(api.Config{
		BaseURL:    config.Endpoint,
		APIKey:     config.APIKey,
		Workspace:  config.Workspace,
		HTTPClient: config.HTTPClient,
		Logger:     config.Logger,
	})
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	return newClient(config, backends{
		traces:      collector.Traces(),
		spans:       collector.Spans(),
		traceScores: collector.TraceScores(),
		spanScores:  collector.SpanScores(),
		datasets:    collector.Datasets(),
		prompts:     collector.Prompts(),
	})
}

// newClient assembles a Client over explicit backends. Tests use this
// to substitute in-memory fakes for the collector transport.
func newClient(config Config, b backends) (*Client, error) {
	projectName := config.ProjectName
	if projectName == "" {
		projectName = DefaultProjectName
	}
	clk := config.Clock
	if clk == nil {
		clk = clock.Real()
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	queues, err := newQueues(b, config.FlushDelay, clk, logger)
	if err != nil {
		return nil, fmt.Errorf("client: %w", err)
	}
	return &Client{
		projectName: projectName,
		clock:       clk,
		logger:      logger,
		queues:      queues,
	}, nil
}

// StartTrace enqueues a trace for creation and returns its ID. A
// missing ID, project name, or start time is filled in. Non-blocking.
func (c *Client) StartTrace(trace telemetry.Trace) string {
	if trace.ID == "" {
		trace.ID = telemetry.NewID()
	}
	if trace.ProjectName == "" {
		trace.ProjectName = c.projectName
	}
	if trace.StartTime.IsZero() {
		trace.StartTime = c.clock.Now()
	}
	c.queues.traces.Create(trace)
	return trace.ID
}

// UpdateTrace applies a partial update to a trace. If the trace is
// still buffered, the patch folds into its pending create. Awaiting
// the returned Handle is optional.
func (c *Client) UpdateTrace(id string, patch telemetry.TracePatch) *batch.Handle {
	return c.queues.traces.Update(id, patch)
}

// EndTrace stamps the trace's end time with the current clock.
func (c *Client) EndTrace(id string) *batch.Handle {
	now := c.clock.Now()
	return c.queues.traces.Update(id, telemetry.TracePatch{EndTime: &now})
}

// GetTrace returns the trace with the given ID, reading a still-
// buffered trace from memory without a collector call.
func (c *Client) GetTrace(ctx context.Context, id string) (telemetry.Trace, bool, error) {
	return c.queues.traces.Get(ctx, id)
}

// DeleteTrace enqueues the trace for deletion. Deleting a trace still
// buffered for creation cancels it locally. Non-blocking.
func (c *Client) DeleteTrace(id string) {
	c.queues.traces.Delete(id)
}

// StartSpan enqueues a span for creation and returns its ID. A
// missing ID, project name, or start time is filled in; a span with
// no trace ID is enqueued as-is and will be rejected by the
// collector, so it is logged here where the call site is still known.
func (c *Client) StartSpan(span telemetry.Span) string {
	if span.ID == "" {
		span.ID = telemetry.NewID()
	}
	if span.ProjectName == "" {
		span.ProjectName = c.projectName
	}
	if span.StartTime.IsZero() {
		span.StartTime = c.clock.Now()
	}
	if span.TraceID == "" {
		c.logger.Warn("span enqueued without a trace ID",
			"span_id", span.ID,
			"name", span.Name,
		)
	}
	c.queues.spans.Create(span)
	return span.ID
}

// UpdateSpan applies a partial update to a span.
func (c *Client) UpdateSpan(id string, patch telemetry.SpanPatch) *batch.Handle {
	return c.queues.spans.Update(id, patch)
}

// EndSpan stamps the span's end time with the current clock.
func (c *Client) EndSpan(id string) *batch.Handle {
	now := c.clock.Now()
	return c.queues.spans.Update(id, telemetry.SpanPatch{EndTime: &now})
}

// GetSpan returns the span with the given ID.
func (c *Client) GetSpan(ctx context.Context, id string) (telemetry.Span, bool, error) {
	return c.queues.spans.Get(ctx, id)
}

// DeleteSpan enqueues the span for deletion.
func (c *Client) DeleteSpan(id string) {
	c.queues.spans.Delete(id)
}

// LogTraceScore attaches a feedback score to a trace. Logging the
// same score name twice for one trace before a flush overwrites the
// earlier value. Non-blocking.
func (c *Client) LogTraceScore(score telemetry.FeedbackScore) {
	c.queues.traceScores.Create(c.fillScore(score))
}

// LogSpanScore attaches a feedback score to a span.
func (c *Client) LogSpanScore(score telemetry.FeedbackScore) {
	c.queues.spanScores.Create(c.fillScore(score))
}

func (c *Client) fillScore(score telemetry.FeedbackScore) telemetry.FeedbackScore {
	if score.ProjectName == "" {
		score.ProjectName = c.projectName
	}
	if score.Source == "" {
		score.Source = telemetry.ScoreSourceSDK
	}
	return score
}

// DeleteTraceScore removes the named score from a trace.
func (c *Client) DeleteTraceScore(traceID, name string) {
	c.queues.traceScores.Delete(telemetry.ScoreKey{EntityID: traceID, Name: name})
}

// DeleteSpanScore removes the named score from a span.
func (c *Client) DeleteSpanScore(spanID, name string) {
	c.queues.spanScores.Delete(telemetry.ScoreKey{EntityID: spanID, Name: name})
}

// CreateDataset enqueues a dataset for creation and returns its ID.
func (c *Client) CreateDataset(dataset telemetry.Dataset) string {
	if dataset.ID == "" {
		dataset.ID = telemetry.NewID()
	}
	c.queues.datasets.Create(dataset)
	return dataset.ID
}

// UpdateDataset applies a partial update to a dataset.
func (c *Client) UpdateDataset(id string, patch telemetry.DatasetPatch) *batch.Handle {
	return c.queues.datasets.Update(id, patch)
}

// GetDataset returns the dataset with the given ID.
func (c *Client) GetDataset(ctx context.Context, id string) (telemetry.Dataset, bool, error) {
	return c.queues.datasets.Get(ctx, id)
}

// DeleteDataset enqueues the dataset for deletion.
func (c *Client) DeleteDataset(id string) {
	c.queues.datasets.Delete(id)
}

// CreatePromptVersion enqueues a prompt version for creation and
// returns the version with its commit filled in. An empty Commit is
// derived from the template content, so committing identical template
// text twice produces the same version; the collector's duplicate
// conflict is treated as success.
func (c *Client) CreatePromptVersion(version telemetry.PromptVersion) telemetry.PromptVersion {
	if version.Commit == "" {
		version.Commit = telemetry.TemplateCommit(version.Template)
	}
	if version.Type == "" {
		version.Type = telemetry.PromptTypeMustache
	}
	c.queues.prompts.Create(version)
	return version
}

// GetPromptVersion returns the version with the given (name, commit).
func (c *Client) GetPromptVersion(ctx context.Context, name, commit string) (telemetry.PromptVersion, bool, error) {
	return c.queues.prompts.Get(ctx, telemetry.PromptVersionKey{Name: name, Commit: commit})
}

// UpdatePrompt patches a prompt's descriptive metadata by name.
// Template content of committed versions is immutable.
func (c *Client) UpdatePrompt(name string, patch telemetry.PromptPatch) *batch.Handle {
	return c.queues.prompts.Update(telemetry.PromptVersionKey{Name: name}, patch)
}

// DeletePromptVersion enqueues a prompt version for deletion.
func (c *Client) DeletePromptVersion(name, commit string) {
	c.queues.prompts.Delete(telemetry.PromptVersionKey{Name: name, Commit: commit})
}

// Flush drains every queue and waits for all dispatched work to
// settle. Queues flush in dependency order — traces before the spans
// that reference them, entities before their scores — and a failure
// in one queue does not stop the rest from flushing. When Flush
// returns nil, everything enqueued before the call has reached the
// collector.
func (c *Client) Flush(ctx context.Context) error {
	stages := []struct {
		name  string
		flush func(context.Context) error
	}{
		{"traces", c.queues.traces.Flush},
		{"spans", c.queues.spans.Flush},
		{"trace_scores", c.queues.traceScores.Flush},
		{"span_scores", c.queues.spanScores.Flush},
		{"datasets", c.queues.datasets.Flush},
		{"prompts", c.queues.prompts.Flush},
	}

	var failures []error
	for _, stage := range stages {
		if err := stage.flush(ctx); err != nil {
			c.logger.Error("queue flush failed",
				"queue", stage.name,
				"error", err,
			)
			failures = append(failures, fmt.Errorf("%s: %w", stage.name, err))
		}
	}
	return errors.Join(failures...)
}
