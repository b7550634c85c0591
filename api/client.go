// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/klauspost/compress/gzip"
)

// gzipThreshold is the request body size above which the client
// compresses. Small bodies (singleton updates, deletes) are not worth
// the CPU; trace batches with prompt and completion payloads routinely
// run to hundreds of kilobytes.
const gzipThreshold = 1024

// Config holds configuration for creating a Client.
type Config struct {
	// BaseURL is the collector endpoint
	// (e.g. "https://collector.sightline.dev").
	BaseURL string
	// APIKey authenticates every request. Required.
	APIKey string
	// Workspace scopes requests to one workspace. Optional; the
	// collector falls back to the key's default workspace.
	Workspace string
	// HTTPClient is used for all requests. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client
	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// Client is the low-level REST client shared by the per-entity
// services. It is safe for concurrent use.
type Client struct {
	baseURL    string
	apiKey     string
	workspace  string
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient validates config and creates a collector client.
func NewClient(config Config) (*Client, error) {
	if config.BaseURL == "" {
		return nil, fmt.Errorf("api: BaseURL is required")
	}
	if _, err := url.Parse(config.BaseURL); err != nil {
		return nil, fmt.Errorf("api: invalid BaseURL %q: %w", config.BaseURL, err)
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("api: APIKey is required")
	}

	httpClient := config.HTTPClient
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	logger := config.Logger
	if logger == nil {
		logger = slog.Default()
	}

	return &Client{
		baseURL:    strings.TrimRight(config.BaseURL, "/"),
		apiKey:     config.APIKey,
		workspace:  config.Workspace,
		httpClient: httpClient,
		logger:     logger,
	}, nil
}

// Traces returns the trace service.
func (c *Client) Traces() *TraceService { return &TraceService{client: c} }

// Spans returns the span service.
func (c *Client) Spans() *SpanService { return &SpanService{client: c} }

// TraceScores returns the feedback-score service for traces.
func (c *Client) TraceScores() *ScoreService {
	return &ScoreService{client: c, entityPath: "traces"}
}

// SpanScores returns the feedback-score service for spans.
func (c *Client) SpanScores() *ScoreService {
	return &ScoreService{client: c, entityPath: "spans"}
}

// Datasets returns the dataset service.
func (c *Client) Datasets() *DatasetService { return &DatasetService{client: c} }

// Prompts returns the prompt service.
func (c *Client) Prompts() *PromptService { return &PromptService{client: c} }

// do issues one JSON request. body and out may each be nil. Bodies
// over gzipThreshold are gzip-compressed. Non-2xx responses decode
// into *Error.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		encoded, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("api: encoding %s %s body: %w", method, path, err)
		}
		payload = encoded
	}

	compressed := false
	if len(payload) > gzipThreshold {
		var buf bytes.Buffer
		writer := gzip.NewWriter(&buf)
		if _, err := writer.Write(payload); err != nil {
			return fmt.Errorf("api: compressing %s %s body: %w", method, path, err)
		}
		if err := writer.Close(); err != nil {
			return fmt.Errorf("api: compressing %s %s body: %w", method, path, err)
		}
		payload = buf.Bytes()
		compressed = true
	}

	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	request, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("api: building %s %s: %w", method, path, err)
	}

	request.Header.Set("Authorization", c.apiKey)
	request.Header.Set("Accept", "application/json")
	if c.workspace != "" {
		request.Header.Set("X-Sightline-Workspace", c.workspace)
	}
	if body != nil {
		request.Header.Set("Content-Type", "application/json")
		if compressed {
			request.Header.Set("Content-Encoding", "gzip")
		}
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("api: %s %s: %w", method, path, err)
	}
	defer response.Body.Close()

	if response.StatusCode < 200 || response.StatusCode >= 300 {
		return c.decodeError(method, path, response)
	}

	if out == nil {
		// Drain so the connection can be reused.
		io.Copy(io.Discard, response.Body)
		return nil
	}
	if err := json.NewDecoder(response.Body).Decode(out); err != nil {
		return fmt.Errorf("api: decoding %s %s response: %w", method, path, err)
	}
	return nil
}

// decodeError turns a non-2xx response into *Error. Bodies that are
// not the collector's JSON error shape still produce a usable error
// with the status line.
func (c *Client) decodeError(method, path string, response *http.Response) error {
	apiErr := &Error{StatusCode: response.StatusCode}

	raw, err := io.ReadAll(io.LimitReader(response.Body, 64*1024))
	if err == nil && len(raw) > 0 {
		if json.Unmarshal(raw, apiErr) != nil || apiErr.Message == "" {
			apiErr.Message = strings.TrimSpace(string(raw))
		}
	}
	if apiErr.Message == "" {
		apiErr.Message = http.StatusText(response.StatusCode)
	}

	c.logger.Debug("collector request failed",
		"method", method,
		"path", path,
		"status", response.StatusCode,
		"code", apiErr.Code,
	)
	return apiErr
}
