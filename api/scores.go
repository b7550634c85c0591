// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"errors"
	"net/http"
	"net/url"

	"github.com/sightline-ai/sightline-go/telemetry"
)

// ScoreService implements the batch backend operations for feedback
// scores attached to one entity kind. entityPath is "traces" or
// "spans"; the collector exposes a parallel score API for each.
//
// Scores are keyed by the (entity, name) pair rather than a single
// ID, so the collector has no bulk-delete endpoint for them: deletes
// go out one call per key, and the score queues run with delete
// batching disabled.
type ScoreService struct {
	client     *Client
	entityPath string
}

// CreateBatch logs scores in one collector call.
func (s *ScoreService) CreateBatch(ctx context.Context, scores []telemetry.FeedbackScore) error {
	body := struct {
		Scores []telemetry.FeedbackScore `json:"scores"`
	}{Scores: scores}
	return s.client.do(ctx, http.MethodPut, "/v1/private/"+s.entityPath+"/feedback-scores", body, nil)
}

// Fetch returns the score with the given composite key, or
// found=false when the entity has no score under that name.
func (s *ScoreService) Fetch(ctx context.Context, key telemetry.ScoreKey) (telemetry.FeedbackScore, bool, error) {
	var scores []telemetry.FeedbackScore
	path := "/v1/private/" + s.entityPath + "/" + url.PathEscape(key.EntityID) + "/feedback-scores"
	err := s.client.do(ctx, http.MethodGet, path, nil, &scores)
	if IsNotFound(err) {
		return telemetry.FeedbackScore{}, false, nil
	}
	if err != nil {
		return telemetry.FeedbackScore{}, false, err
	}
	for _, score := range scores {
		if score.Name == key.Name {
			return score, true, nil
		}
	}
	return telemetry.FeedbackScore{}, false, nil
}

// Update applies a partial update to one score.
func (s *ScoreService) Update(ctx context.Context, key telemetry.ScoreKey, patch telemetry.ScorePatch) error {
	path := "/v1/private/" + s.entityPath + "/" + url.PathEscape(key.EntityID) +
		"/feedback-scores/" + url.PathEscape(key.Name)
	return s.client.do(ctx, http.MethodPatch, path, patch, nil)
}

// DeleteBatch removes scores one collector call per key. The score
// queues dispatch deletes unbatched, so in practice ids holds a
// single key; the loop keeps the contract honest regardless.
func (s *ScoreService) DeleteBatch(ctx context.Context, keys []telemetry.ScoreKey) error {
	var failures []error
	for _, key := range keys {
		body := struct {
			Name string `json:"name"`
		}{Name: key.Name}
		path := "/v1/private/" + s.entityPath + "/" + url.PathEscape(key.EntityID) + "/feedback-scores/delete"
		if err := s.client.do(ctx, http.MethodPost, path, body, nil); err != nil {
			failures = append(failures, err)
		}
	}
	return errors.Join(failures...)
}
