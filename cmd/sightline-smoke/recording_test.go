// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"path/filepath"
	"testing"
	"time"
)

func TestRecordingRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "run.slr")

	rec, err := newRecorder(path)
	if err != nil {
		t.Fatalf("newRecorder: %v", err)
	}
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	events := []event{
		{At: at, Op: "start_trace", Alias: "run", EntityID: "t1"},
		{At: at.Add(time.Second), Op: "flush"},
	}
	for _, e := range events {
		if err := rec.record(e); err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	if err := rec.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	loaded, err := readRecording(path)
	if err != nil {
		t.Fatalf("readRecording: %v", err)
	}
	if len(loaded) != 2 {
		t.Fatalf("loaded %d events, want 2", len(loaded))
	}
	if loaded[0].Op != "start_trace" || loaded[0].EntityID != "t1" || !loaded[0].At.Equal(at) {
		t.Fatalf("first event = %+v", loaded[0])
	}
	if loaded[1].Op != "flush" || loaded[1].Alias != "" {
		t.Fatalf("second event = %+v", loaded[1])
	}
}

func TestReadRecordingMissingFile(t *testing.T) {
	if _, err := readRecording(filepath.Join(t.TempDir(), "absent.slr")); err == nil {
		t.Fatal("missing recording accepted")
	}
}
