// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/sightline-ai/sightline-go/client"
)

const sampleScenario = `
{
  // A minimal agent run: one trace, one LLM span, a quality score.
  "name": "agent-run",
  "steps": [
    {"op": "start_trace", "alias": "run", "name": "agent-run"},
    {"op": "start_span", "alias": "llm", "trace": "run", "name": "completion", "type": "llm"},
    {"op": "end_span", "alias": "llm"},
    {"op": "log_trace_score", "entity": "run", "score_name": "quality", "value": 0.9},
    {"op": "end_trace", "alias": "run"},
    {"op": "flush"}, // trailing commas are fine in JSONC
  ],
}
`

func TestParseScenarioJSONC(t *testing.T) {
	scenario, err := parseScenario([]byte(sampleScenario))
	if err != nil {
		t.Fatalf("parseScenario: %v", err)
	}
	if scenario.Name != "agent-run" || len(scenario.Steps) != 6 {
		t.Fatalf("scenario = %+v", scenario)
	}
	if scenario.Steps[1].Trace != "run" || scenario.Steps[1].Type != "llm" {
		t.Fatalf("span step = %+v", scenario.Steps[1])
	}
}

func TestParseScenarioRejectsUnknownOp(t *testing.T) {
	_, err := parseScenario([]byte(`{"name": "x", "steps": [{"op": "explode"}]}`))
	if err == nil {
		t.Fatal("unknown op accepted")
	}
}

func TestParseScenarioRejectsEmpty(t *testing.T) {
	if _, err := parseScenario([]byte(`{"name": "x", "steps": []}`)); err == nil {
		t.Fatal("empty scenario accepted")
	}
	if _, err := parseScenario([]byte(`{"steps": [{"op": "flush"}]}`)); err == nil {
		t.Fatal("nameless scenario accepted")
	}
}

// newScenarioSDK wires a real SDK client to a collector stub that
// accepts everything and counts requests per path.
func newScenarioSDK(t *testing.T) (*client.Client, func() map[string]int) {
	t.Helper()
	var mu sync.Mutex
	counts := make(map[string]int)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		counts[r.Method+" "+r.URL.Path]++
		mu.Unlock()
		w.WriteHeader(http.StatusNoContent)
	}))
	t.Cleanup(server.Close)

	sdk, err := client.New(client.Config{Endpoint: server.URL, APIKey: "k"})
	if err != nil {
		t.Fatalf("client.New: %v", err)
	}
	snapshot := func() map[string]int {
		mu.Lock()
		defer mu.Unlock()
		copied := make(map[string]int, len(counts))
		for k, v := range counts {
			copied[k] = v
		}
		return copied
	}
	return sdk, snapshot
}

func TestRunnerExecutesScenario(t *testing.T) {
	sdk, requests := newScenarioSDK(t)
	scenario, err := parseScenario([]byte(sampleScenario))
	if err != nil {
		t.Fatalf("parseScenario: %v", err)
	}

	runner := newRunner(sdk, nil, slog.Default())
	if err := runner.execute(context.Background(), scenario); err != nil {
		t.Fatalf("execute: %v", err)
	}

	counts := requests()
	if counts["POST /v1/private/traces/batch"] != 1 {
		t.Fatalf("trace batches = %d, want 1 (requests: %v)", counts["POST /v1/private/traces/batch"], counts)
	}
	if counts["POST /v1/private/spans/batch"] != 1 {
		t.Fatalf("span batches = %d, want 1", counts["POST /v1/private/spans/batch"])
	}
	if counts["PUT /v1/private/traces/feedback-scores"] != 1 {
		t.Fatalf("score puts = %d, want 1", counts["PUT /v1/private/traces/feedback-scores"])
	}
}

func TestRunnerRejectsUnknownAlias(t *testing.T) {
	sdk, _ := newScenarioSDK(t)
	bad := scenario{
		Name:  "bad",
		Steps: []step{{Op: "end_trace", Alias: "never-started"}},
	}

	err := newRunner(sdk, nil, slog.Default()).execute(context.Background(), bad)
	if err == nil {
		t.Fatal("unknown alias accepted")
	}
}

func TestRunnerRejectsDuplicateAlias(t *testing.T) {
	sdk, _ := newScenarioSDK(t)
	bad := scenario{
		Name: "bad",
		Steps: []step{
			{Op: "start_trace", Alias: "t", Name: "one"},
			{Op: "start_trace", Alias: "t", Name: "two"},
		},
	}

	err := newRunner(sdk, nil, slog.Default()).execute(context.Background(), bad)
	if err == nil {
		t.Fatal("duplicate alias accepted")
	}
}
