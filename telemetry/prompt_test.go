// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"regexp"
	"testing"
)

func TestTemplateCommitIsDeterministic(t *testing.T) {
	template := "You are a helpful assistant. Context: {{context}}"
	first := TemplateCommit(template)
	second := TemplateCommit(template)
	if first != second {
		t.Fatalf("TemplateCommit not deterministic: %q vs %q", first, second)
	}
}

func TestTemplateCommitShape(t *testing.T) {
	commit := TemplateCommit("Hello {{name}}")
	if !regexp.MustCompile(`^[0-9a-f]{16}$`).MatchString(commit) {
		t.Fatalf("commit %q is not 16 lowercase hex characters", commit)
	}
}

func TestTemplateCommitDiffersAcrossTemplates(t *testing.T) {
	a := TemplateCommit("Hello {{name}}")
	b := TemplateCommit("Hello {{name}}!")
	empty := TemplateCommit("")
	if a == b || a == empty || b == empty {
		t.Fatalf("distinct templates collided: %q %q %q", a, b, empty)
	}
}

func TestPromptVersionKey(t *testing.T) {
	version := PromptVersion{PromptName: "greeting", Commit: "abc123", Template: "hi"}
	key := version.Key()
	if key.Name != "greeting" || key.Commit != "abc123" {
		t.Fatalf("Key() = %+v", key)
	}
}
