// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package telemetry

import (
	"encoding/hex"

	"github.com/zeebo/blake3"
)

// PromptType identifies the templating dialect of a prompt version.
type PromptType string

const (
	PromptTypeMustache PromptType = "mustache"
	PromptTypeJinja2   PromptType = "jinja2"
)

// PromptVersion is one immutable version of a named prompt. The
// collector keys versions by (name, commit); creating a version whose
// commit already exists returns a conflict, which the prompt queue
// treats as success.
type PromptVersion struct {
	PromptName string         `json:"name"`
	Commit     string         `json:"commit"`
	Template   string         `json:"template"`
	Type       PromptType     `json:"type,omitempty"`
	Metadata   map[string]any `json:"metadata,omitempty"`
	// ChangeDescription explains what changed relative to the prior
	// version. Descriptive only; not part of the commit hash.
	ChangeDescription string `json:"change_description,omitempty"`
}

// PromptVersionKey is the composite identity of a prompt version.
type PromptVersionKey struct {
	Name   string
	Commit string
}

// Key returns the version's composite identity.
func (p PromptVersion) Key() PromptVersionKey {
	return PromptVersionKey{Name: p.PromptName, Commit: p.Commit}
}

// PromptPatch updates a prompt's descriptive metadata. Template
// content is immutable once a version is committed; there is
// deliberately no Template field here.
type PromptPatch struct {
	// Description replaces the version's ChangeDescription when folded
	// into a pending create.
	Description *string `json:"description,omitempty"`
}

// ApplyPromptPatch merges patch into version. Only descriptive fields
// move; the template and commit are untouched by construction.
func ApplyPromptPatch(version PromptVersion, patch PromptPatch) PromptVersion {
	if patch.Description != nil {
		version.ChangeDescription = *patch.Description
	}
	return version
}

// CoalescePromptVersion resolves two pending creates for the same
// (name, commit): identical template content by definition, so the
// newer descriptive fields win.
func CoalescePromptVersion(old, newer PromptVersion) PromptVersion {
	merged := newer
	if merged.Metadata == nil {
		merged.Metadata = old.Metadata
	}
	if merged.ChangeDescription == "" {
		merged.ChangeDescription = old.ChangeDescription
	}
	if merged.Type == "" {
		merged.Type = old.Type
	}
	return merged
}

// templateDomainKey is the BLAKE3 keyed-hash domain for prompt
// template commits. Domain separation keeps template hashes from
// colliding with any other hash the platform derives from the same
// bytes. The key is the ASCII domain name zero-padded to 32 bytes so
// it reads cleanly in hex dumps.
var templateDomainKey = [32]byte{
	's', 'i', 'g', 'h', 't', 'l', 'i', 'n', 'e', '.',
	'p', 'r', 'o', 'm', 'p', 't', '.',
	't', 'e', 'm', 'p', 'l', 'a', 't', 'e', 0, 0, 0, 0, 0, 0, 0,
}

// TemplateCommit derives the commit identifier for a prompt template:
// the first 8 bytes of the domain-keyed BLAKE3 hash of the template
// text, hex encoded. Two calls with the same template always produce
// the same commit, which is what lets the collector detect duplicate
// version creation.
func TemplateCommit(template string) string {
	hasher, err := blake3.NewKeyed(templateDomainKey[:])
	if err != nil {
		// NewKeyed fails only for a key of the wrong length; the key
		// above is exactly 32 bytes.
		panic("telemetry: blake3 keyed hasher: " + err.Error())
	}
	hasher.Write([]byte(template))
	digest := hasher.Sum(nil)
	return hex.EncodeToString(digest[:8])
}
