// Copyright 2026 The Sightline Authors
// SPDX-License-Identifier: Apache-2.0

// sightline-mockd is an in-memory stand-in for the Sightline collector,
// used in integration tests and local development. It serves the same
// private REST surface the SDK dispatches to (same paths, same wire
// shapes, same error codes) and stores everything in memory.
//
// With --dump, the full store is written as CBOR on shutdown so a test
// harness can assert on exactly what the SDK shipped.
package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/pflag"

	"github.com/sightline-ai/sightline-go/lib/codec"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	var listenAddr string
	var dumpPath string

	flagSet := pflag.NewFlagSet("sightline-mockd", pflag.ContinueOnError)
	flagSet.StringVar(&listenAddr, "listen", "127.0.0.1:8702", "address to serve the mock collector on")
	flagSet.StringVar(&dumpPath, "dump", "", "write a CBOR snapshot of the store to this path on shutdown")
	if err := flagSet.Parse(os.Args[1:]); err != nil {
		if errors.Is(err, pflag.ErrHelp) {
			return nil
		}
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, nil))

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	store := newMemoryStore()
	server := &http.Server{
		Addr:    listenAddr,
		Handler: newRouter(store, logger),
	}

	serveDone := make(chan error, 1)
	go func() {
		serveDone <- server.ListenAndServe()
	}()

	logger.Info("mock collector running", "listen", listenAddr)

	select {
	case err := <-serveDone:
		return fmt.Errorf("serving: %w", err)
	case <-ctx.Done():
	}
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown", "error", err)
	}

	if dumpPath != "" {
		if err := writeDump(dumpPath, store); err != nil {
			return err
		}
		logger.Info("wrote store snapshot", "path", dumpPath)
	}
	return nil
}

// writeDump serializes the store snapshot as deterministic CBOR.
func writeDump(path string, store *memoryStore) error {
	raw, err := codec.Marshal(store.snapshot())
	if err != nil {
		return fmt.Errorf("encoding snapshot: %w", err)
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return fmt.Errorf("writing snapshot: %w", err)
	}
	return nil
}
