// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"context"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/sightline-ai/sightline-go/api"
	"github.com/sightline-ai/sightline-go/batch"
	"github.com/sightline-ai/sightline-go/lib/clock"
	"github.com/sightline-ai/sightline-go/telemetry"
)

// fakeBackend is an in-memory collector transport shared by all six
// queues in tests.
type fakeBackend[K comparable, E, P any] struct {
	mu            sync.Mutex
	createBatches [][]E
	updates       []P
	deleteBatches [][]K
	remote        map[K]E

	createErr error
	onCreate  func()
}

func (b *fakeBackend[K, E, P]) CreateBatch(ctx context.Context, entities []E) error {
	b.mu.Lock()
	b.createBatches = append(b.createBatches, append([]E(nil), entities...))
	onCreate := b.onCreate
	err := b.createErr
	b.mu.Unlock()
	if onCreate != nil {
		onCreate()
	}
	return err
}

func (b *fakeBackend[K, E, P]) Fetch(ctx context.Context, id K) (E, bool, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	entity, found := b.remote[id]
	return entity, found, nil
}

func (b *fakeBackend[K, E, P]) Update(ctx context.Context, id K, patch P) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.updates = append(b.updates, patch)
	return nil
}

func (b *fakeBackend[K, E, P]) DeleteBatch(ctx context.Context, ids []K) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deleteBatches = append(b.deleteBatches, append([]K(nil), ids...))
	return nil
}

func (b *fakeBackend[K, E, P]) created() [][]E {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]E(nil), b.createBatches...)
}

func (b *fakeBackend[K, E, P]) deleted() [][]K {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([][]K(nil), b.deleteBatches...)
}

// testFixture is a Client wired to fake backends and a fake clock.
type testFixture struct {
	client      *Client
	clk         *clock.FakeClock
	traces      *fakeBackend[string, telemetry.Trace, telemetry.TracePatch]
	spans       *fakeBackend[string, telemetry.Span, telemetry.SpanPatch]
	traceScores *fakeBackend[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch]
	spanScores  *fakeBackend[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch]
	datasets    *fakeBackend[string, telemetry.Dataset, telemetry.DatasetPatch]
	prompts     *fakeBackend[telemetry.PromptVersionKey, telemetry.PromptVersion, telemetry.PromptPatch]
}

func newTestFixture(t *testing.T) *testFixture {
	t.Helper()
	f := &testFixture{
		clk:         clock.Fake(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)),
		traces:      &fakeBackend[string, telemetry.Trace, telemetry.TracePatch]{},
		spans:       &fakeBackend[string, telemetry.Span, telemetry.SpanPatch]{},
		traceScores: &fakeBackend[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch]{},
		spanScores:  &fakeBackend[telemetry.ScoreKey, telemetry.FeedbackScore, telemetry.ScorePatch]{},
		datasets:    &fakeBackend[string, telemetry.Dataset, telemetry.DatasetPatch]{},
		prompts:     &fakeBackend[telemetry.PromptVersionKey, telemetry.PromptVersion, telemetry.PromptPatch]{},
	}
	client, err := newClient(Config{ProjectName: "test-project", Clock: f.clk}, backends{
		traces:      f.traces,
		spans:       f.spans,
		traceScores: f.traceScores,
		spanScores:  f.spanScores,
		datasets:    f.datasets,
		prompts:     f.prompts,
	})
	if err != nil {
		t.Fatalf("newClient: %v", err)
	}
	f.client = client
	return f
}

func TestStartTraceFillsIdentity(t *testing.T) {
	f := newTestFixture(t)

	id := f.client.StartTrace(telemetry.Trace{Name: "checkout"})
	if id == "" {
		t.Fatal("StartTrace returned an empty ID")
	}
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	batches := f.traces.created()
	if len(batches) != 1 || len(batches[0]) != 1 {
		t.Fatalf("created = %v, want one batch of one trace", batches)
	}
	trace := batches[0][0]
	if trace.ID != id {
		t.Fatalf("dispatched ID %q, StartTrace returned %q", trace.ID, id)
	}
	if trace.ProjectName != "test-project" {
		t.Fatalf("ProjectName = %q, want test-project", trace.ProjectName)
	}
	if !trace.StartTime.Equal(f.clk.Now()) {
		t.Fatalf("StartTime = %v, want clock time %v", trace.StartTime, f.clk.Now())
	}
}

func TestStartTraceKeepsCallerFields(t *testing.T) {
	f := newTestFixture(t)

	start := time.Date(2026, 2, 28, 9, 0, 0, 0, time.UTC)
	id := f.client.StartTrace(telemetry.Trace{ID: "t-fixed", ProjectName: "other", StartTime: start})
	if id != "t-fixed" {
		t.Fatalf("StartTrace returned %q, want caller's ID", id)
	}
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	trace := f.traces.created()[0][0]
	if trace.ProjectName != "other" || !trace.StartTime.Equal(start) {
		t.Fatalf("caller fields overwritten: %+v", trace)
	}
}

func TestEndTraceFoldsIntoBufferedCreate(t *testing.T) {
	f := newTestFixture(t)

	id := f.client.StartTrace(telemetry.Trace{Name: "checkout"})
	f.clk.Advance(100 * time.Millisecond)
	handle := f.client.EndTrace(id)
	if err := handle.Wait(context.Background()); err != nil {
		t.Fatalf("EndTrace handle: %v", err)
	}
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	trace := f.traces.created()[0][0]
	if trace.EndTime == nil || !trace.EndTime.Equal(f.clk.Now()) {
		t.Fatalf("EndTime = %v, want folded into the create at %v", trace.EndTime, f.clk.Now())
	}
	f.traces.mu.Lock()
	updateCalls := len(f.traces.updates)
	f.traces.mu.Unlock()
	if updateCalls != 0 {
		t.Fatalf("backend saw %d update calls, want the patch folded into the create", updateCalls)
	}
}

func TestDeleteBufferedTraceNeverReachesCollector(t *testing.T) {
	f := newTestFixture(t)

	id := f.client.StartTrace(telemetry.Trace{Name: "abandoned"})
	f.client.DeleteTrace(id)
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	if got := len(f.traces.created()); got != 0 {
		t.Fatalf("backend saw %d create batches, want 0", got)
	}
	if got := len(f.traces.deleted()); got != 0 {
		t.Fatalf("backend saw %d delete batches, want 0", got)
	}
}

func TestSpanDispatchGroupsByParent(t *testing.T) {
	f := newTestFixture(t)

	traceID := f.client.StartTrace(telemetry.Trace{Name: "run"})
	root := f.client.StartSpan(telemetry.Span{TraceID: traceID, Name: "root"})
	f.client.StartSpan(telemetry.Span{TraceID: traceID, ParentSpanID: root, Name: "child-a"})
	f.client.StartSpan(telemetry.Span{TraceID: traceID, Name: "root-2"})
	f.client.StartSpan(telemetry.Span{TraceID: traceID, ParentSpanID: root, Name: "child-b"})
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	batches := f.spans.created()
	if len(batches) != 2 {
		t.Fatalf("spans dispatched in %d calls, want 2 (roots, then children of %s)", len(batches), root)
	}
	if len(batches[0]) != 2 || batches[0][0].Name != "root" || batches[0][1].Name != "root-2" {
		t.Fatalf("first group = %+v, want the two root spans", batches[0])
	}
	if len(batches[1]) != 2 || batches[1][0].Name != "child-a" || batches[1][1].Name != "child-b" {
		t.Fatalf("second group = %+v, want both children", batches[1])
	}
}

func TestScoreDeleteDispatchesPerKey(t *testing.T) {
	f := newTestFixture(t)

	f.client.LogTraceScore(telemetry.FeedbackScore{EntityID: "t1", Name: "relevance", Value: 0.9})
	f.client.LogTraceScore(telemetry.FeedbackScore{EntityID: "t1", Name: "accuracy", Value: 0.7})
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	f.client.DeleteTraceScore("t1", "relevance")
	f.client.DeleteTraceScore("t1", "accuracy")
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	deletes := f.traceScores.deleted()
	if len(deletes) != 2 || len(deletes[0]) != 1 || len(deletes[1]) != 1 {
		t.Fatalf("score deletes = %v, want two singleton calls", deletes)
	}
}

func TestScoreCarriesProjectAndSource(t *testing.T) {
	f := newTestFixture(t)

	f.client.LogSpanScore(telemetry.FeedbackScore{EntityID: "s1", Name: "toxicity", Value: 0.1})
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	score := f.spanScores.created()[0][0]
	if score.ProjectName != "test-project" || score.Source != telemetry.ScoreSourceSDK {
		t.Fatalf("score = %+v, want project and SDK source filled", score)
	}
}

func TestPromptVersionDerivesCommit(t *testing.T) {
	f := newTestFixture(t)

	version := f.client.CreatePromptVersion(telemetry.PromptVersion{
		PromptName: "greeting",
		Template:   "Hello {{name}}",
	})
	if version.Commit != telemetry.TemplateCommit("Hello {{name}}") {
		t.Fatalf("Commit = %q, want derived from the template", version.Commit)
	}
	if version.Type != telemetry.PromptTypeMustache {
		t.Fatalf("Type = %q, want mustache default", version.Type)
	}
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	batches := f.prompts.created()
	if len(batches) != 1 || batches[0][0].Commit != version.Commit {
		t.Fatalf("dispatched = %v", batches)
	}
}

func TestPromptConflictTreatedAsSuccess(t *testing.T) {
	f := newTestFixture(t)
	f.prompts.createErr = &api.Error{
		StatusCode: http.StatusConflict,
		Code:       api.CodeVersionExists,
		Message:    "version already exists",
	}

	f.client.CreatePromptVersion(telemetry.PromptVersion{PromptName: "greeting", Template: "Hello"})
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush returned %v, want conflict swallowed", err)
	}
}

func TestFlushOrder(t *testing.T) {
	f := newTestFixture(t)

	var mu sync.Mutex
	var order []string
	record := func(name string) func() {
		return func() {
			mu.Lock()
			order = append(order, name)
			mu.Unlock()
		}
	}
	f.traces.onCreate = record("traces")
	f.spans.onCreate = record("spans")
	f.traceScores.onCreate = record("trace_scores")
	f.spanScores.onCreate = record("span_scores")
	f.datasets.onCreate = record("datasets")
	f.prompts.onCreate = record("prompts")

	traceID := f.client.StartTrace(telemetry.Trace{Name: "run"})
	spanID := f.client.StartSpan(telemetry.Span{TraceID: traceID, Name: "step"})
	f.client.LogTraceScore(telemetry.FeedbackScore{EntityID: traceID, Name: "quality", Value: 1})
	f.client.LogSpanScore(telemetry.FeedbackScore{EntityID: spanID, Name: "latency", Value: 0.5})
	f.client.CreateDataset(telemetry.Dataset{Name: "evals"})
	f.client.CreatePromptVersion(telemetry.PromptVersion{PromptName: "p", Template: "t"})

	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}

	want := []string{"traces", "spans", "trace_scores", "span_scores", "datasets", "prompts"}
	mu.Lock()
	defer mu.Unlock()
	if len(order) != len(want) {
		t.Fatalf("dispatch order = %v, want %v", order, want)
	}
	for i := range want {
		if order[i] != want[i] {
			t.Fatalf("dispatch order = %v, want %v", order, want)
		}
	}
}

func TestFlushCollectsFailuresAcrossQueues(t *testing.T) {
	f := newTestFixture(t)
	f.traces.createErr = &api.Error{StatusCode: http.StatusInternalServerError, Message: "traces down"}
	f.datasets.createErr = &api.Error{StatusCode: http.StatusInternalServerError, Message: "datasets down"}

	traceID := f.client.StartTrace(telemetry.Trace{Name: "run"})
	f.client.StartSpan(telemetry.Span{TraceID: traceID, Name: "step"})
	f.client.CreateDataset(telemetry.Dataset{Name: "evals"})

	err := f.client.Flush(context.Background())
	if err == nil {
		t.Fatal("Flush returned nil despite two failing queues")
	}
	message := err.Error()
	if !strings.Contains(message, "traces") || !strings.Contains(message, "datasets") {
		t.Fatalf("Flush error %q does not name both failing queues", message)
	}
	// A failing trace queue must not stop the span queue from flushing.
	if got := len(f.spans.created()); got != 1 {
		t.Fatalf("spans dispatched %d batches, want 1", got)
	}
}

func TestGetTracePrefersBufferedPayload(t *testing.T) {
	f := newTestFixture(t)
	f.traces.remote = map[string]telemetry.Trace{"t1": {ID: "t1", Name: "stale"}}

	id := f.client.StartTrace(telemetry.Trace{ID: "t1", Name: "fresh"})
	trace, found, err := f.client.GetTrace(context.Background(), id)
	if err != nil || !found {
		t.Fatalf("GetTrace = %v, %v", found, err)
	}
	if trace.Name != "fresh" {
		t.Fatalf("GetTrace returned %q, want the buffered payload", trace.Name)
	}
}

func TestDebounceDispatchesWithoutFlush(t *testing.T) {
	f := newTestFixture(t)

	f.client.StartTrace(telemetry.Trace{Name: "a"})
	f.client.StartTrace(telemetry.Trace{Name: "b"})
	f.clk.Advance(batch.DefaultDelay)

	// The timer callback hands off to the dispatch chain; Flush is the
	// deterministic settle point.
	if err := f.client.Flush(context.Background()); err != nil {
		t.Fatalf("Flush: %v", err)
	}
	batches := f.traces.created()
	if len(batches) != 1 || len(batches[0]) != 2 {
		t.Fatalf("created = %v, want both traces in one debounced batch", batches)
	}
}
