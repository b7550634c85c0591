// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/pierrec/lz4/v4"

	"github.com/sightline-ai/sightline-go/lib/codec"
)

// event is one executed scenario step. Recordings are a stream of
// CBOR-encoded events inside an lz4 frame; scenario payloads carry
// full LLM prompts, so recordings compress well.
type event struct {
	At       time.Time `cbor:"at"`
	Op       string    `cbor:"op"`
	Alias    string    `cbor:"alias,omitempty"`
	EntityID string    `cbor:"entity_id,omitempty"`
}

// recorder appends events to an lz4-compressed CBOR stream on disk.
type recorder struct {
	file       *os.File
	compressor *lz4.Writer
	encoder    *codec.Encoder
}

func newRecorder(path string) (*recorder, error) {
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("creating recording: %w", err)
	}
	compressor := lz4.NewWriter(file)
	return &recorder{
		file:       file,
		compressor: compressor,
		encoder:    codec.NewEncoder(compressor),
	}, nil
}

func (r *recorder) record(e event) error {
	if err := r.encoder.Encode(e); err != nil {
		return fmt.Errorf("encoding event: %w", err)
	}
	return nil
}

// Close flushes the lz4 frame and closes the file. Must be called for
// the recording to be readable.
func (r *recorder) Close() error {
	return errors.Join(r.compressor.Close(), r.file.Close())
}

// readRecording loads every event from a recording file.
func readRecording(path string) ([]event, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening recording: %w", err)
	}
	defer file.Close()

	decoder := codec.NewDecoder(lz4.NewReader(file))
	var events []event
	for {
		var e event
		err := decoder.Decode(&e)
		if errors.Is(err, io.EOF) {
			return events, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decoding recording: %w", err)
		}
		events = append(events, e)
	}
}
