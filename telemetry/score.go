// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

// ScoreSource records where a feedback score originated.
type ScoreSource string

const (
	ScoreSourceSDK           ScoreSource = "sdk"
	ScoreSourceUI            ScoreSource = "ui"
	ScoreSourceOnlineScoring ScoreSource = "online_scoring"
)

// FeedbackScore is a named numeric judgement attached to a trace or a
// span. Scores are keyed by the (entity, name) pair: logging the same
// name twice for one entity overwrites rather than appends.
type FeedbackScore struct {
	// EntityID is the trace ID or span ID the score attaches to,
	// depending on which queue carries it.
	EntityID     string      `json:"id"`
	ProjectName  string      `json:"project_name,omitempty"`
	Name         string      `json:"name"`
	Value        float64     `json:"value"`
	CategoryName string      `json:"category_name,omitempty"`
	Reason       string      `json:"reason,omitempty"`
	Source       ScoreSource `json:"source,omitempty"`
}

// ScoreKey is the composite identity of a feedback score.
type ScoreKey struct {
	EntityID string
	Name     string
}

// Key returns the score's composite identity.
func (s FeedbackScore) Key() ScoreKey {
	return ScoreKey{EntityID: s.EntityID, Name: s.Name}
}

// ScorePatch is a partial update to a feedback score. Scores are
// small enough that callers usually re-log instead of patching, but
// the batching layer requires a patch type for its update path.
type ScorePatch struct {
	Value        *float64 `json:"value,omitempty"`
	CategoryName *string  `json:"category_name,omitempty"`
	Reason       *string  `json:"reason,omitempty"`
}

// ApplyScorePatch merges patch into score, field by field.
func ApplyScorePatch(score FeedbackScore, patch ScorePatch) FeedbackScore {
	if patch.Value != nil {
		score.Value = *patch.Value
	}
	if patch.CategoryName != nil {
		score.CategoryName = *patch.CategoryName
	}
	if patch.Reason != nil {
		score.Reason = *patch.Reason
	}
	return score
}

// CoalesceScore resolves two pending scores for the same key: the
// newer score wins outright. A re-logged score is a full replacement,
// not an amendment.
func CoalesceScore(old, newer FeedbackScore) FeedbackScore {
	merged := newer
	if merged.ProjectName == "" {
		merged.ProjectName = old.ProjectName
	}
	if merged.Source == "" {
		merged.Source = old.Source
	}
	return merged
}
