// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sightline-ai/sightline-go/telemetry"
)

// TraceService implements the batch backend operations for traces.
type TraceService struct {
	client *Client
}

// CreateBatch persists traces in one collector call.
func (s *TraceService) CreateBatch(ctx context.Context, traces []telemetry.Trace) error {
	body := struct {
		Traces []telemetry.Trace `json:"traces"`
	}{Traces: traces}
	return s.client.do(ctx, http.MethodPost, "/v1/private/traces/batch", body, nil)
}

// Fetch returns the trace with the given ID, or found=false on 404.
func (s *TraceService) Fetch(ctx context.Context, id string) (telemetry.Trace, bool, error) {
	var trace telemetry.Trace
	err := s.client.do(ctx, http.MethodGet, "/v1/private/traces/"+url.PathEscape(id), nil, &trace)
	if IsNotFound(err) {
		return telemetry.Trace{}, false, nil
	}
	if err != nil {
		return telemetry.Trace{}, false, err
	}
	return trace, true, nil
}

// Update applies a partial update to one trace.
func (s *TraceService) Update(ctx context.Context, id string, patch telemetry.TracePatch) error {
	return s.client.do(ctx, http.MethodPatch, "/v1/private/traces/"+url.PathEscape(id), patch, nil)
}

// DeleteBatch removes traces by ID in one collector call.
func (s *TraceService) DeleteBatch(ctx context.Context, ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	return s.client.do(ctx, http.MethodPost, "/v1/private/traces/delete", body, nil)
}
