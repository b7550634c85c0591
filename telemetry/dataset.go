// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

// Dataset is a named collection of evaluation items.
type Dataset struct {
	ID          string   `json:"id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// DatasetPatch is a partial update to a dataset.
type DatasetPatch struct {
	Name        *string  `json:"name,omitempty"`
	Description *string  `json:"description,omitempty"`
	Tags        []string `json:"tags,omitempty"`
}

// ApplyDatasetPatch merges patch into dataset, field by field.
func ApplyDatasetPatch(dataset Dataset, patch DatasetPatch) Dataset {
	if patch.Name != nil {
		dataset.Name = *patch.Name
	}
	if patch.Description != nil {
		dataset.Description = *patch.Description
	}
	if patch.Tags != nil {
		dataset.Tags = patch.Tags
	}
	return dataset
}

// CoalesceDataset merges a second pending create over an earlier one.
func CoalesceDataset(old, newer Dataset) Dataset {
	merged := newer
	if merged.Name == "" {
		merged.Name = old.Name
	}
	if merged.Description == "" {
		merged.Description = old.Description
	}
	if merged.Tags == nil {
		merged.Tags = old.Tags
	}
	return merged
}
