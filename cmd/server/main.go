// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/tomtom215/shelfcast/internal/auth"
	"github.com/tomtom215/shelfcast/internal/config"
	"github.com/tomtom215/shelfcast/internal/logging"
)

func main() {
	dataDir := flag.String("data", "", "directory of CSV/Parquet files to load as the first data version")
	issue := flag.String("issue-token", "", "print a signed token for subject:role and exit")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to load configuration: %v\n", err)
		os.Exit(1)
	}
	logging.Init(cfg.Logging.Logging())

	if *issue != "" {
		token, err := issueToken(cfg.Auth, *issue)
		if err != nil {
			logging.Fatal().Err(err).Msg("Failed to issue token")
		}
		fmt.Println(token)
		return
	}

	if *dataDir != "" {
		cfg.Ingest.DataDir = *dataDir
	}

	logging.Info().
		Str("addr", cfg.Server.Addr()).
		Str("record_store", cfg.Training.RecordStore).
		Bool("auto_train", cfg.Training.AutoTrain).
		Bool("nats", cfg.Events.NATSEnabled).
		Bool("auth", cfg.Auth.Enabled).
		Msg("Starting Shelfcast")

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	app, err := newApp(ctx, cfg, logging.Logger())
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize")
	}
	defer app.Close()

	tree := app.Tree(logging.NewSlogLogger())
	logging.Info().Msg("Supervisor tree started")
	if err := tree.Serve(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logging.Error().Err(err).Msg("Supervisor tree stopped with error")
	}

	if report, err := tree.UnstoppedServiceReport(); err == nil && len(report) > 0 {
		for _, svc := range report {
			logging.Warn().Str("service", svc.Name).Msg("Service did not stop in time")
		}
	}
	logging.Info().Msg("Shelfcast stopped")
}

// issueToken signs a token for a "subject:role" pair.
//
//nolint:gocritic // config passed by value mirrors auth.NewTokenManager
func issueToken(cfg auth.Config, arg string) (string, error) {
	subject, role, ok := strings.Cut(arg, ":")
	if !ok || subject == "" || role == "" {
		return "", fmt.Errorf("token argument %q: want subject:role", arg)
	}
	tokens, err := auth.NewTokenManager(cfg)
	if err != nil {
		return "", err
	}
	return tokens.Issue(subject, role)
}
