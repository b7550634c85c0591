// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

package client

import (
	"bytes"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/sightline-ai/sightline-go/lib/clock"
)

// Environment variables recognized by LoadConfig. Each overrides the
// corresponding file field when set.
const (
	EnvEndpoint  = "SIGHTLINE_ENDPOINT"
	EnvAPIKey    = "SIGHTLINE_API_KEY"
	EnvWorkspace = "SIGHTLINE_WORKSPACE"
	EnvProject   = "SIGHTLINE_PROJECT"
)

// DefaultProjectName is used for traces and spans created without an
// explicit project.
const DefaultProjectName = "default"

// Config assembles a Client. Endpoint and APIKey are required; the
// rest defaults.
type Config struct {
	// Endpoint is the collector base URL.
	Endpoint string

	// APIKey authenticates every collector request.
	APIKey string

	// Workspace scopes requests to one workspace. Optional.
	Workspace string

	// ProjectName is stamped onto traces and spans that do not carry
	// their own. Defaults to DefaultProjectName.
	ProjectName string

	// FlushDelay is the debounce quiet period for every queue. Zero
	// means batch.DefaultDelay.
	FlushDelay time.Duration

	// HTTPClient is used for collector requests. If nil,
	// http.DefaultClient is used.
	HTTPClient *http.Client

	// Clock supplies timestamps and debounce timers. If nil,
	// clock.Real() is used.
	Clock clock.Clock

	// Logger is used for structured logging. If nil, slog.Default()
	// is used.
	Logger *slog.Logger
}

// fileConfig is the on-disk YAML shape of Config. Durations are plain
// milliseconds so config files stay editor-friendly.
type fileConfig struct {
	Endpoint     string `yaml:"endpoint"`
	APIKey       string `yaml:"api_key"`
	Workspace    string `yaml:"workspace"`
	ProjectName  string `yaml:"project_name"`
	FlushDelayMS int    `yaml:"flush_delay_ms"`
}

// LoadConfig reads a YAML config file and applies environment
// overrides on top. An empty path skips the file and loads from the
// environment alone. Unknown file keys are rejected; they are almost
// always typos of known ones.
func LoadConfig(path string) (Config, error) {
	var config Config

	if path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("client: reading config: %w", err)
		}
		var file fileConfig
		decoder := yaml.NewDecoder(bytes.NewReader(raw))
		decoder.KnownFields(true)
		if err := decoder.Decode(&file); err != nil {
			return Config{}, fmt.Errorf("client: parsing config %s: %w", path, err)
		}
		if file.FlushDelayMS < 0 {
			return Config{}, fmt.Errorf("client: %s: flush_delay_ms must not be negative", path)
		}
		config.Endpoint = file.Endpoint
		config.APIKey = file.APIKey
		config.Workspace = file.Workspace
		config.ProjectName = file.ProjectName
		config.FlushDelay = time.Duration(file.FlushDelayMS) * time.Millisecond
	}

	if value := os.Getenv(EnvEndpoint); value != "" {
		config.Endpoint = value
	}
	if value := os.Getenv(EnvAPIKey); value != "" {
		config.APIKey = value
	}
	if value := os.Getenv(EnvWorkspace); value != "" {
		config.Workspace = value
	}
	if value := os.Getenv(EnvProject); value != "" {
		config.ProjectName = value
	}

	return config, nil
}
