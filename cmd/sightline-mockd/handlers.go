// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/klauspost/compress/gzip"

	"github.com/sightline-ai/sightline-go/telemetry"
)

// handlers serves the collector's private REST surface against the
// in-memory store.
type handlers struct {
	store  *memoryStore
	logger *slog.Logger
}

// newRouter builds the mock collector's route table. Paths and wire
// shapes mirror the real collector exactly so the SDK needs no
// mock-specific configuration.
func newRouter(store *memoryStore, logger *slog.Logger) http.Handler {
	h := &handlers{store: store, logger: logger}

	router := chi.NewRouter()
	router.Use(decompressRequests)
	router.Route("/v1/private", func(r chi.Router) {
		r.Post("/traces/batch", h.createTraces)
		r.Post("/traces/delete", h.deleteTraces)
		r.Get("/traces/{id}", h.getTrace)
		r.Patch("/traces/{id}", h.patchTrace)
		r.Put("/traces/feedback-scores", h.putScores("traces"))
		r.Get("/traces/{id}/feedback-scores", h.listScores("traces"))
		r.Patch("/traces/{id}/feedback-scores/{name}", h.patchScore("traces"))
		r.Post("/traces/{id}/feedback-scores/delete", h.deleteScore("traces"))

		r.Post("/spans/batch", h.createSpans)
		r.Post("/spans/delete", h.deleteSpans)
		r.Get("/spans/{id}", h.getSpan)
		r.Patch("/spans/{id}", h.patchSpan)
		r.Put("/spans/feedback-scores", h.putScores("spans"))
		r.Get("/spans/{id}/feedback-scores", h.listScores("spans"))
		r.Patch("/spans/{id}/feedback-scores/{name}", h.patchScore("spans"))
		r.Post("/spans/{id}/feedback-scores/delete", h.deleteScore("spans"))

		r.Post("/datasets/batch", h.createDatasets)
		r.Post("/datasets/delete", h.deleteDatasets)
		r.Get("/datasets/{id}", h.getDataset)
		r.Patch("/datasets/{id}", h.patchDataset)

		r.Post("/prompts/versions", h.createPromptVersion)
		r.Post("/prompts/versions/delete", h.deletePromptVersions)
		r.Get("/prompts/{name}/versions/{commit}", h.getPromptVersion)
		r.Patch("/prompts/{name}", h.patchPrompt)
	})
	return router
}

// decompressRequests transparently inflates gzip request bodies; the
// SDK compresses anything over a size threshold.
func decompressRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Content-Encoding") == "gzip" {
			reader, err := gzip.NewReader(r.Body)
			if err != nil {
				writeError(w, http.StatusBadRequest, "", "malformed gzip body")
				return
			}
			r.Body = reader
			r.Header.Del("Content-Encoding")
		}
		next.ServeHTTP(w, r)
	})
}

// writeError emits the collector's JSON error shape.
func writeError(w http.ResponseWriter, status int, code, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{
		"code":    code,
		"message": message,
	})
}

func writeJSON(w http.ResponseWriter, value any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(value)
}

// decode reads a JSON request body into out, writing a 400 and
// returning false on malformed input.
func decode(w http.ResponseWriter, r *http.Request, out any) bool {
	if err := json.NewDecoder(r.Body).Decode(out); err != nil {
		writeError(w, http.StatusBadRequest, "", "malformed request body: "+err.Error())
		return false
	}
	return true
}

func (h *handlers) createTraces(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Traces []telemetry.Trace `json:"traces"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.store.putTraces(body.Traces)
	h.logger.Info("ingested traces", "count", len(body.Traces))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getTrace(w http.ResponseWriter, r *http.Request) {
	trace, found := h.store.getTrace(chi.URLParam(r, "id"))
	if !found {
		writeError(w, http.StatusNotFound, "", "trace not found")
		return
	}
	writeJSON(w, trace)
}

func (h *handlers) patchTrace(w http.ResponseWriter, r *http.Request) {
	var patch telemetry.TracePatch
	if !decode(w, r, &patch) {
		return
	}
	if !h.store.patchTrace(chi.URLParam(r, "id"), patch) {
		writeError(w, http.StatusNotFound, "", "trace not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteTraces(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.store.deleteTraces(body.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) createSpans(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Spans []telemetry.Span `json:"spans"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.store.putSpans(body.Spans)
	h.logger.Info("ingested spans", "count", len(body.Spans))
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getSpan(w http.ResponseWriter, r *http.Request) {
	span, found := h.store.getSpan(chi.URLParam(r, "id"))
	if !found {
		writeError(w, http.StatusNotFound, "", "span not found")
		return
	}
	writeJSON(w, span)
}

func (h *handlers) patchSpan(w http.ResponseWriter, r *http.Request) {
	var patch telemetry.SpanPatch
	if !decode(w, r, &patch) {
		return
	}
	if !h.store.patchSpan(chi.URLParam(r, "id"), patch) {
		writeError(w, http.StatusNotFound, "", "span not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteSpans(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.store.deleteSpans(body.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) putScores(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Scores []telemetry.FeedbackScore `json:"scores"`
		}
		if !decode(w, r, &body) {
			return
		}
		h.store.putScores(scope, body.Scores)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handlers) listScores(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		scores, found := h.store.listScores(scope, chi.URLParam(r, "id"))
		if !found {
			writeError(w, http.StatusNotFound, "", "no scores for entity")
			return
		}
		writeJSON(w, scores)
	}
}

func (h *handlers) patchScore(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var patch telemetry.ScorePatch
		if !decode(w, r, &patch) {
			return
		}
		if !h.store.patchScore(scope, chi.URLParam(r, "id"), chi.URLParam(r, "name"), patch) {
			writeError(w, http.StatusNotFound, "", "score not found")
			return
		}
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handlers) deleteScore(scope string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var body struct {
			Name string `json:"name"`
		}
		if !decode(w, r, &body) {
			return
		}
		h.store.deleteScore(scope, chi.URLParam(r, "id"), body.Name)
		w.WriteHeader(http.StatusNoContent)
	}
}

func (h *handlers) createDatasets(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Datasets []telemetry.Dataset `json:"datasets"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.store.putDatasets(body.Datasets)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getDataset(w http.ResponseWriter, r *http.Request) {
	dataset, found := h.store.getDataset(chi.URLParam(r, "id"))
	if !found {
		writeError(w, http.StatusNotFound, "", "dataset not found")
		return
	}
	writeJSON(w, dataset)
}

func (h *handlers) patchDataset(w http.ResponseWriter, r *http.Request) {
	var patch telemetry.DatasetPatch
	if !decode(w, r, &patch) {
		return
	}
	if !h.store.patchDataset(chi.URLParam(r, "id"), patch) {
		writeError(w, http.StatusNotFound, "", "dataset not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deleteDatasets(w http.ResponseWriter, r *http.Request) {
	var body struct {
		IDs []string `json:"ids"`
	}
	if !decode(w, r, &body) {
		return
	}
	h.store.deleteDatasets(body.IDs)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) createPromptVersion(w http.ResponseWriter, r *http.Request) {
	var version telemetry.PromptVersion
	if !decode(w, r, &version) {
		return
	}
	if err := h.store.createPromptVersion(version); err != nil {
		writeError(w, http.StatusConflict, "VERSION_ALREADY_EXISTS",
			"commit "+version.Commit+" already exists for prompt "+version.PromptName)
		return
	}
	h.logger.Info("committed prompt version", "prompt", version.PromptName, "commit", version.Commit)
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) getPromptVersion(w http.ResponseWriter, r *http.Request) {
	version, found := h.store.getPromptVersion(chi.URLParam(r, "name"), chi.URLParam(r, "commit"))
	if !found {
		writeError(w, http.StatusNotFound, "", "prompt version not found")
		return
	}
	writeJSON(w, version)
}

func (h *handlers) patchPrompt(w http.ResponseWriter, r *http.Request) {
	var patch telemetry.PromptPatch
	if !decode(w, r, &patch) {
		return
	}
	if !h.store.patchPrompt(chi.URLParam(r, "name"), patch) {
		writeError(w, http.StatusNotFound, "", "prompt not found")
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *handlers) deletePromptVersions(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Versions []struct {
			Name   string `json:"name"`
			Commit string `json:"commit"`
		} `json:"versions"`
	}
	if !decode(w, r, &body) {
		return
	}
	keys := make([]telemetry.PromptVersionKey, 0, len(body.Versions))
	for _, ref := range body.Versions {
		keys = append(keys, telemetry.PromptVersionKey{Name: ref.Name, Commit: ref.Commit})
	}
	h.store.deletePromptVersions(keys)
	w.WriteHeader(http.StatusNoContent)
}
