// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package api

import (
	"errors"
	"fmt"
	"net/http"
)

// Error is a structured error response from the collector. Callers
// inspect it with errors.As, or use the IsConflict and IsNotFound
// helpers for the two codes the SDK reacts to.
type Error struct {
	// StatusCode is the HTTP status of the response.
	StatusCode int `json:"-"`
	// Code is the collector's machine-readable error code
	// (e.g. "VERSION_ALREADY_EXISTS").
	Code string `json:"code"`
	// Message is the human-readable description.
	Message string `json:"message"`
}

func (e *Error) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("api: %s (%d): %s", e.Code, e.StatusCode, e.Message)
	}
	return fmt.Sprintf("api: status %d: %s", e.StatusCode, e.Message)
}

// Collector error codes the SDK recognizes.
const (
	// CodeVersionExists is returned when creating a prompt version
	// whose (name, commit) pair already exists. The prompt queue
	// treats it as success.
	CodeVersionExists = "VERSION_ALREADY_EXISTS"
)

// IsConflict reports whether err is a collector conflict (HTTP 409),
// such as a duplicate prompt version.
func IsConflict(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusConflict
}

// IsNotFound reports whether err is a collector 404.
func IsNotFound(err error) bool {
	var apiErr *Error
	return errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound
}
