// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"log/slog"
	"time"

	"github.com/sightline-ai/sightline-go/api"
	"github.com/sightline-ai/sightline-go/batch"
	"github.com/sightline-ai/sightline-go/lib/clock"
	"github.com/sightline-ai/sightline-go/telemetry"
)

// backends collects the six collector transports the facade's queues
// dispatch to. New wires these to the api services; tests substitute
// fakes.
type backends struct {
	traces      batch.Backend[string, telemetry.Trace, telemetry.TracePatch]
	spans       batch.Backend[string, telemetry.Span, telemetry.SpanPatch]
	traceScores batch.Backend[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch]
	spanScores  batch.Backend[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch]
	datasets    batch.Backend[string, telemetry.Dataset, telemetry.DatasetPatch]
	prompts     batch.Backend[telemetry.PromptVersionKey, telemetry.PromptVersion, telemetry.PromptPatch]
}

// queues holds the per-entity batching queues in facade flush order.
type queues struct {
	traces      *batch.Queue[string, telemetry.Trace, telemetry.TracePatch]
	spans       *batch.Queue[string, telemetry.Span, telemetry.SpanPatch]
	traceScores *batch.Queue[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch]
	spanScores  *batch.Queue[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch]
	datasets    *batch.Queue[string, telemetry.Dataset, telemetry.DatasetPatch]
	prompts     *batch.Queue[telemetry.PromptVersionKey, telemetry.PromptVersion, telemetry.PromptPatch]
}

// newQueues builds the six queues with their per-entity policy:
// spans dispatch grouped by parent, prompt versions dispatch one at a
// time with duplicate-version conflicts swallowed, and score deletes
// go out unbatched because the collector has no bulk endpoint for
// them.
func newQueues(b backends, delay time.Duration, clk clock.Clock, logger *slog.Logger) (*queues, error) {
	traces, err := batch.NewQueue(batch.Config[string, telemetry.Trace, telemetry.TracePatch]{
		Name:     "traces",
		Backend:  b.traces,
		Key:      func(t telemetry.Trace) string { return t.ID },
		Apply:    telemetry.ApplyTracePatch,
		Coalesce: telemetry.CoalesceTrace,
		Delay:    delay,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	spans, err := batch.NewQueue(batch.Config[string, telemetry.Span, telemetry.SpanPatch]{
		Name:     "spans",
		Backend:  b.spans,
		Key:      func(s telemetry.Span) string { return s.ID },
		Apply:    telemetry.ApplySpanPatch,
		Coalesce: telemetry.CoalesceSpan,
		Group:    groupSpansByParent,
		Delay:    delay,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	traceScores, err := newScoreQueue("trace_scores", b.traceScores, delay, clk, logger)
	if err != nil {
		return nil, err
	}
	spanScores, err := newScoreQueue("span_scores", b.spanScores, delay, clk, logger)
	if err != nil {
		return nil, err
	}

	datasets, err := batch.NewQueue(batch.Config[string, telemetry.Dataset, telemetry.DatasetPatch]{
		Name:     "datasets",
		Backend:  b.datasets,
		Key:      func(d telemetry.Dataset) string { return d.ID },
		Apply:    telemetry.ApplyDatasetPatch,
		Coalesce: telemetry.CoalesceDataset,
		Delay:    delay,
		Clock:    clk,
		Logger:   logger,
	})
	if err != nil {
		return nil, err
	}

	prompts, err := batch.NewQueue(batch.Config[telemetry.PromptVersionKey, telemetry.PromptVersion, telemetry.PromptPatch]{
		Name:        "prompts",
		Backend:     b.prompts,
		Key:         telemetry.PromptVersion.Key,
		Apply:       telemetry.ApplyPromptPatch,
		Coalesce:    telemetry.CoalescePromptVersion,
		Group:       promptSingletons,
		IgnoreError: api.IsConflict,
		Delay:       delay,
		Clock:       clk,
		Logger:      logger,
	})
	if err != nil {
		return nil, err
	}

	return &queues{
		traces:      traces,
		spans:       spans,
		traceScores: traceScores,
		spanScores:  spanScores,
		datasets:    datasets,
		prompts:     prompts,
	}, nil
}

// newScoreQueue builds one of the two feedback-score queues. Delete
// batching is off: score deletes address a (entity, name) pair, one
// collector call each.
func newScoreQueue(
	name string,
	backend batch.Backend[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch],
	delay time.Duration,
	clk clock.Clock,
	logger *slog.Logger,
) (*batch.Queue[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch], error) {
	return batch.NewQueue(batch.Config[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch]{
		Name:                  name,
		Backend:               backend,
		Key:                   telemetry.FeedbackScore.Key,
		Apply:                 telemetry.ApplyScorePatch,
		Coalesce:              telemetry.CoalesceScore,
		DisableDeleteBatching: true,
		Delay:                 delay,
		Clock:                 clk,
		Logger:                logger,
	})
}

// groupSpansByParent partitions a drained span batch into one
// collector call per parent. Root spans (empty ParentSpanID) form the
// first group; child groups follow in first-seen parent order. The
// collector ingests each group atomically, so siblings land together
// and a parent is never visibly younger than its children within one
// flush.
func groupSpansByParent(spans []telemetry.Span) [][]telemetry.Span {
	byParent := make(map[string][]telemetry.Span)
	var parents []string
	for _, span := range spans {
		parent := span.ParentSpanID
		if _, seen := byParent[parent]; !seen && parent != "" {
			parents = append(parents, parent)
		}
		byParent[parent] = append(byParent[parent], span)
	}

	groups := make([][]telemetry.Span, 0, len(parents)+1)
	if roots := byParent[""]; len(roots) > 0 {
		groups = append(groups, roots)
	}
	for _, parent := range parents {
		groups = append(groups, byParent[parent])
	}
	return groups
}

// promptSingletons dispatches each prompt version as its own collector
// call. Versions commit sequentially per prompt name, and a duplicate
// conflict on one version must not poison the rest of the batch.
func promptSingletons(versions []telemetry.PromptVersion) [][]telemetry.PromptVersion {
	groups := make([][]telemetry.PromptVersion, 0, len(versions))
	for _, version := range versions {
		groups = append(groups, []telemetry.PromptVersion{version})
	}
	return groups
}
