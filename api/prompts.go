// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"context"
	"net/http"
	"net/url"

	"github.com/sightline-ai/sightline-go/telemetry"
)

// PromptService implements the batch backend operations for prompt
// versions. Versions for one prompt name must be committed in order,
// so the prompt queue dispatches singleton groups; each CreateBatch
// call posts its versions one at a time.
type PromptService struct {
	client *Client
}

// CreateBatch commits prompt versions sequentially. A conflict on one
// version (commit already exists) is returned as-is so the batching
// layer can recognize and swallow it; other failures stop the
// sequence to preserve version ordering per prompt name.
func (s *PromptService) CreateBatch(ctx context.Context, versions []telemetry.PromptVersion) error {
	for _, version := range versions {
		err := s.client.do(ctx, http.MethodPost, "/v1/private/prompts/versions", version, nil)
		if err != nil {
			return err
		}
	}
	return nil
}

// Fetch returns the version with the given (name, commit) key, or
// found=false on 404.
func (s *PromptService) Fetch(ctx context.Context, key telemetry.PromptVersionKey) (telemetry.PromptVersion, bool, error) {
	var version telemetry.PromptVersion
	path := "/v1/private/prompts/" + url.PathEscape(key.Name) + "/versions/" + url.PathEscape(key.Commit)
	err := s.client.do(ctx, http.MethodGet, path, nil, &version)
	if IsNotFound(err) {
		return telemetry.PromptVersion{}, false, nil
	}
	if err != nil {
		return telemetry.PromptVersion{}, false, err
	}
	return version, true, nil
}

// Update patches a prompt's descriptive metadata. The template and
// commit of existing versions are immutable; the patch addresses the
// prompt by name only.
func (s *PromptService) Update(ctx context.Context, key telemetry.PromptVersionKey, patch telemetry.PromptPatch) error {
	return s.client.do(ctx, http.MethodPatch, "/v1/private/prompts/"+url.PathEscape(key.Name), patch, nil)
}

// DeleteBatch removes prompt versions by (name, commit) key in one
// collector call.
func (s *PromptService) DeleteBatch(ctx context.Context, keys []telemetry.PromptVersionKey) error {
	type versionRef struct {
		Name   string `json:"name"`
		Commit string `json:"commit"`
	}
	refs := make([]versionRef, 0, len(keys))
	for _, key := range keys {
		refs = append(refs, versionRef{Name: key.Name, Commit: key.Commit})
	}
	body := struct {
		Versions []versionRef `json:"versions"`
	}{Versions: refs}
	return s.client.do(ctx, http.MethodPost, "/v1/private/prompts/versions/delete", body, nil)
}
