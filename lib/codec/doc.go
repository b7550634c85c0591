// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

// Package codec centralizes the SDK's CBOR configuration. Batch
// recordings written by the smoke tool and the mock collector use
// deterministic encoding so identical telemetry produces identical
// files.
package codec
