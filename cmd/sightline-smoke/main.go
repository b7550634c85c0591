// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

// sightline-smoke replays a scripted scenario of SDK calls against a
// collector (real or sightline-mockd) and reports whether the full
// dispatch path works end to end. Scenarios are JSONC files; see the
// step type in scenario.go for the available operations.
//
// With --record, every executed step is appended to an lz4-compressed
// CBOR recording; --replay prints a recording without contacting any
// collector.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/sightline-ai/sightline-go/client"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var configPath string
	var scenarioPath string
	var recordPath string
	var replayPath string
	var endpoint string
	var apiKey string

	flagSet := pflag.NewFlagSet("sightline-smoke", pflag.ContinueOnError)
	flagSet.StringVar(&configPath, "config", "", "SDK config file (YAML); environment variables override")
	flagSet.StringVar(&scenarioPath, "scenario", "", "JSONC scenario file to replay (required unless --replay)")
	flagSet.StringVar(&recordPath, "record", "", "write executed steps to this recording file")
	flagSet.StringVar(&replayPath, "replay", "", "print a recording file and exit")
	flagSet.StringVar(&endpoint, "endpoint", "", "collector endpoint (overrides config)")
	flagSet.StringVar(&apiKey, "api-key", "", "collector API key (overrides config)")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	if replayPath != "" {
		return printRecording(replayPath)
	}
	if scenarioPath == "" {
		return fmt.Errorf("--scenario is required")
	}

	config, err := client.LoadConfig(configPath)
	if err != nil {
		return err
	}
	if endpoint != "" {
		config.Endpoint = endpoint
	}
	if apiKey != "" {
		config.APIKey = apiKey
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))
	config.Logger = logger

	raw, err := os.ReadFile(scenarioPath)
	if err != nil {
		return fmt.Errorf("reading scenario: %w", err)
	}
	scenario, err := parseScenario(raw)
	if err != nil {
		return err
	}

	sdk, err := client.New(config)
	if err != nil {
		return err
	}

	var rec *recorder
	if recordPath != "" {
		if rec, err = newRecorder(recordPath); err != nil {
			return err
		}
		defer rec.Close()
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := newRunner(sdk, rec, logger).execute(ctx, scenario); err != nil {
		return err
	}

	// Final durability checkpoint: nothing buffered may be lost on
	// exit, whether or not the scenario ended with a flush step.
	if err := sdk.Flush(ctx); err != nil {
		return fmt.Errorf("final flush: %w", err)
	}
	logger.Info("scenario complete", "name", scenario.Name)
	return nil
}

// printRecording dumps a recording file as one line per event.
func printRecording(path string) error {
	events, err := readRecording(path)
	if err != nil {
		return err
	}
	for _, e := range events {
		fmt.Printf("%s  %-20s", e.At.Format("15:04:05.000"), e.Op)
		if e.Alias != "" {
			fmt.Printf("  alias=%s", e.Alias)
		}
		if e.EntityID != "" {
			fmt.Printf("  id=%s", e.EntityID)
		}
		fmt.Println()
	}
	fmt.Printf("%d events\n", len(events))
	return nil
}
