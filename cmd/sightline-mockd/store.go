// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"fmt"
	"sync"

	"github.com/sightline-ai/sightline-go/telemetry"
)

// errConflict marks a duplicate prompt version commit. The handler
// maps it to 409 with the code the SDK's conflict detection expects.
var errConflict = fmt.Errorf("version already exists")

// memoryStore holds everything the mock collector has ingested. All
// methods are safe for concurrent use.
type memoryStore struct {
	mu     sync.Mutex
	traces map[string]telemetry.Trace
	spans  map[string]telemetry.Span
	// scores nests scope ("traces" or "spans") -> entity ID -> score
	// name, mirroring the collector's parallel score APIs.
	scores   map[string]map[string]map[string]telemetry.FeedbackScore
	datasets map[string]telemetry.Dataset
	// prompts maps prompt name to its versions in commit order.
	prompts map[string][]telemetry.PromptVersion
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		traces:   make(map[string]telemetry.Trace),
		spans:    make(map[string]telemetry.Span),
		scores:   map[string]map[string]map[string]telemetry.FeedbackScore{"traces": {}, "spans": {}},
		datasets: make(map[string]telemetry.Dataset),
		prompts:  make(map[string][]telemetry.PromptVersion),
	}
}

func (s *memoryStore) putTraces(traces []telemetry.Trace) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, trace := range traces {
		s.traces[trace.ID] = trace
	}
}

func (s *memoryStore) getTrace(id string) (telemetry.Trace, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	trace, found := s.traces[id]
	return trace, found
}

func (s *memoryStore) patchTrace(id string, patch telemetry.TracePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	trace, found := s.traces[id]
	if !found {
		return false
	}
	s.traces[id] = telemetry.ApplyTracePatch(trace, patch)
	return true
}

// deleteTraces removes traces and cascades to their feedback scores.
func (s *memoryStore) deleteTraces(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.traces, id)
		delete(s.scores["traces"], id)
	}
}

func (s *memoryStore) putSpans(spans []telemetry.Span) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, span := range spans {
		s.spans[span.ID] = span
	}
}

func (s *memoryStore) getSpan(id string) (telemetry.Span, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	span, found := s.spans[id]
	return span, found
}

func (s *memoryStore) patchSpan(id string, patch telemetry.SpanPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	span, found := s.spans[id]
	if !found {
		return false
	}
	s.spans[id] = telemetry.ApplySpanPatch(span, patch)
	return true
}

func (s *memoryStore) deleteSpans(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.spans, id)
		delete(s.scores["spans"], id)
	}
}

// putScores upserts scores under the given scope. Re-logging a score
// name for an entity overwrites, matching the collector.
func (s *memoryStore) putScores(scope string, scores []telemetry.FeedbackScore) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, score := range scores {
		byName := s.scores[scope][score.EntityID]
		if byName == nil {
			byName = make(map[string]telemetry.FeedbackScore)
			s.scores[scope][score.EntityID] = byName
		}
		byName[score.Name] = score
	}
}

// listScores returns the scores attached to one entity, or found=false
// when the entity has none.
func (s *memoryStore) listScores(scope, entityID string) ([]telemetry.FeedbackScore, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName, found := s.scores[scope][entityID]
	if !found {
		return nil, false
	}
	scores := make([]telemetry.FeedbackScore, 0, len(byName))
	for _, score := range byName {
		scores = append(scores, score)
	}
	return scores, true
}

func (s *memoryStore) patchScore(scope, entityID, name string, patch telemetry.ScorePatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	byName := s.scores[scope][entityID]
	score, found := byName[name]
	if !found {
		return false
	}
	byName[name] = telemetry.ApplyScorePatch(score, patch)
	return true
}

func (s *memoryStore) deleteScore(scope, entityID, name string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scores[scope][entityID], name)
}

func (s *memoryStore) putDatasets(datasets []telemetry.Dataset) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, dataset := range datasets {
		s.datasets[dataset.ID] = dataset
	}
}

func (s *memoryStore) getDataset(id string) (telemetry.Dataset, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	dataset, found := s.datasets[id]
	return dataset, found
}

func (s *memoryStore) patchDataset(id string, patch telemetry.DatasetPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	dataset, found := s.datasets[id]
	if !found {
		return false
	}
	s.datasets[id] = telemetry.ApplyDatasetPatch(dataset, patch)
	return true
}

func (s *memoryStore) deleteDatasets(ids []string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, id := range ids {
		delete(s.datasets, id)
	}
}

// createPromptVersion commits one version. A duplicate (name, commit)
// returns errConflict, which is what lets the SDK's conflict-swallowing
// path be exercised against the mock.
func (s *memoryStore) createPromptVersion(version telemetry.PromptVersion) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.prompts[version.PromptName] {
		if existing.Commit == version.Commit {
			return errConflict
		}
	}
	s.prompts[version.PromptName] = append(s.prompts[version.PromptName], version)
	return nil
}

func (s *memoryStore) getPromptVersion(name, commit string) (telemetry.PromptVersion, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, version := range s.prompts[name] {
		if version.Commit == commit {
			return version, true
		}
	}
	return telemetry.PromptVersion{}, false
}

// patchPrompt applies descriptive metadata to the latest version of
// the named prompt.
func (s *memoryStore) patchPrompt(name string, patch telemetry.PromptPatch) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	versions := s.prompts[name]
	if len(versions) == 0 {
		return false
	}
	versions[len(versions)-1] = telemetry.ApplyPromptPatch(versions[len(versions)-1], patch)
	return true
}

func (s *memoryStore) deletePromptVersions(keys []telemetry.PromptVersionKey) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, key := range keys {
		versions := s.prompts[key.Name]
		kept := versions[:0]
		for _, version := range versions {
			if version.Commit != key.Commit {
				kept = append(kept, version)
			}
		}
		if len(kept) == 0 {
			delete(s.prompts, key.Name)
			continue
		}
		s.prompts[key.Name] = kept
	}
}

// snapshot is the CBOR dump shape written on shutdown.
type snapshot struct {
	Traces      []telemetry.Trace                    `cbor:"traces"`
	Spans       []telemetry.Span                     `cbor:"spans"`
	TraceScores []telemetry.FeedbackScore            `cbor:"trace_scores"`
	SpanScores  []telemetry.FeedbackScore            `cbor:"span_scores"`
	Datasets    []telemetry.Dataset                  `cbor:"datasets"`
	Prompts     map[string][]telemetry.PromptVersion `cbor:"prompts"`
}

func (s *memoryStore) snapshot() snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	snap := snapshot{Prompts: make(map[string][]telemetry.PromptVersion, len(s.prompts))}
	for _, trace := range s.traces {
		snap.Traces = append(snap.Traces, trace)
	}
	for _, span := range s.spans {
		snap.Spans = append(snap.Spans, span)
	}
	for _, byName := range s.scores["traces"] {
		for _, score := range byName {
			snap.TraceScores = append(snap.TraceScores, score)
		}
	}
	for _, byName := range s.scores["spans"] {
		for _, score := range byName {
			snap.SpanScores = append(snap.SpanScores, score)
		}
	}
	for _, dataset := range s.datasets {
		snap.Datasets = append(snap.Datasets, dataset)
	}
	for name, versions := range s.prompts {
		snap.Prompts[name] = append([]telemetry.PromptVersion(nil), versions...)
	}
	return snap
}
