// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sightline-ai/sightline-go/telemetry"
)

// DatasetService implements the batch backend operations for
// datasets.
type DatasetService struct {
	client *Client
}

// CreateBatch persists datasets in one collector call.
func (s *DatasetService) CreateBatch(ctx context.Context, datasets []telemetry.Dataset) error {
	body := struct {
		Datasets []telemetry.Dataset `json:"datasets"`
	}{Datasets: datasets}
	return s.client.do(ctx, http.MethodPost, "/v1/private/datasets/batch", body, nil)
}

// Fetch returns the dataset with the given ID, or found=false on 404.
func (s *DatasetService) Fetch(ctx context.Context, id string) (telemetry.Dataset, bool, error) {
	var dataset telemetry.Dataset
	err := s.client.do(ctx, http.MethodGet, "/v1/private/datasets/"+url.PathEscape(id), nil, &dataset)
	if IsNotFound(err) {
		return telemetry.Dataset{}, false, nil
	}
	if err != nil {
		return telemetry.Dataset{}, false, err
	}
	return dataset, true, nil
}

// Update applies a partial update to one dataset.
func (s *DatasetService) Update(ctx context.Context, id string, patch telemetry.DatasetPatch) error {
	return s.client.do(ctx, http.MethodPatch, "/v1/private/datasets/"+url.PathEscape(id), patch, nil)
}

// DeleteBatch removes datasets by ID in one collector call.
func (s *DatasetService) DeleteBatch(ctx context.Context, ids []string) error {
	body := struct {
		IDs []string `json:"ids"`
	}{IDs: ids}
	return s.client.do(ctx, http.MethodPost, "/v1/private/datasets/delete", body, nil)
}
