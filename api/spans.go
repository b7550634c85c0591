// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sightline-ai/sightline-go/telemetry"
)

// SpanService implements the batch backend operations for spans.
type SpanService struct {
	client *Client
}

// CreateBatch persists spans in one collector call. The batching
// layer partitions span batches by parent before calling this, so a
// parent is never created later than its children.
func (s *SpanService) CreateBatch(ctx context.Context, spans []telemetry.Span) error {
	body := struct {
		Spans []telemetry.Span `json:"spans"`
	}{Spans: spans}
	return s.client.do(ctx, http.MethodPost, "/v1/private/spans/batch", body, nil)
}

// Fetch returns the span with the given ID, or found=false on 404.
func (s *SpanService) Fetch(ctx context.Context, id string) (telemetry.Span, bool, error) {
	var span telemetry.Span
	err := s.client.do(ctx, http.MethodGet, "/v1/private/spans/"+url.PathEscape(id), nil, &span)
	if IsNotFound(err) {
		return telemetry.Span{}, false, nil
	}
	if err != nil {
		return telemetry.Span{}, false, err
	}
	return span, true, nil
}

// Update applies a partial update to one span.
func (s *SpanService) Update(ctx context.Context, id string, patch telemetry.SpanPatch) error {
	return s.client.do(ctx, http.MethodPatch, "/v1/private/spans/"+url.PathEscape(id), patch, nil)
}

// DeleteBatch removes spans by ID in one collector call.
func (s *SpanService) DeleteBatch(ctx context.Context, ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	return s.client.do(ctx, http.MethodPost, "/v1/private/spans/delete", body, nil)
}
