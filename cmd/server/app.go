// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/api"
	"github.com/tomtom215/shelfcast/internal/auth"
	"github.com/tomtom215/shelfcast/internal/config"
	"github.com/tomtom215/shelfcast/internal/events"
	"github.com/tomtom215/shelfcast/internal/ingest"
	"github.com/tomtom215/shelfcast/internal/metrics"
	"github.com/tomtom215/shelfcast/internal/storage"
	"github.com/tomtom215/shelfcast/internal/supervisor"
	"github.com/tomtom215/shelfcast/internal/supervisor/services"
	"github.com/tomtom215/shelfcast/internal/training"
	"github.com/tomtom215/shelfcast/internal/websocket"
)

// app holds the initialized components before they are handed to the
// supervisor tree.
type app struct {
	cfg         *config.Config
	logger      zerolog.Logger
	records     training.RecordStore
	broadcaster *events.Broadcaster
	orch        *training.Orchestrator
	loader      *ingest.Loader
	hub         *websocket.Hub
	embedded    *events.EmbeddedServer
	forwarder   *events.NATSForwarder
	server      *http.Server
}

// newApp builds every component in dependency order. On error the
// components created so far are closed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func newApp(ctx context.Context, cfg *config.Config, logger zerolog.Logger) (a *app, err error) {
	a = &app{cfg: cfg, logger: logger}
	defer func() {
		if err != nil {
			a.Close()
			a = nil
		}
	}()

	a.records, err = openRecordStore(cfg.Training, logger)
	if err != nil {
		return a, err
	}

	var artifacts *storage.Store
	if cfg.Training.ArtifactDir != "" {
		artifacts, err = storage.NewStore(cfg.Training.ArtifactDir)
		if err != nil {
			return a, fmt.Errorf("open artifact store: %w", err)
		}
	}

	a.broadcaster = events.NewBroadcaster(logger, metrics.RecordDroppedSubscriber)
	a.orch, err = training.NewOrchestrator(cfg.Training, cfg.Forecast, &cfg.Recommend, training.Deps{
		Catalog:     training.NewCatalog(),
		Records:     a.records,
		Registry:    training.NewRegistry(),
		Broadcaster: a.broadcaster,
		Artifacts:   artifacts,
	}, logger)
	if err != nil {
		return a, fmt.Errorf("create orchestrator: %w", err)
	}
	if _, err = a.orch.RestoreArtifacts(ctx); err != nil {
		logger.Warn().Err(err).Msg("Could not restore trained models")
		err = nil
	}

	a.loader, err = ingest.NewLoader(cfg.Ingest, logger)
	if err != nil {
		return a, fmt.Errorf("create loader: %w", err)
	}
	if cfg.Ingest.DataDir != "" {
		if err = a.preload(ctx, cfg.Ingest.DataDir); err != nil {
			return a, err
		}
	}

	var guard *auth.Middleware
	if cfg.Auth.Enabled {
		guard, err = newAuth(cfg.Auth, logger)
		if err != nil {
			return a, err
		}
	}

	if cfg.Events.NATSEnabled {
		if err = a.initNATS(); err != nil {
			return a, err
		}
	}

	a.hub = websocket.NewHub(logger)
	router := api.NewRouter(cfg.API, api.Deps{
		Orchestrator: a.orch,
		Loader:       a.loader,
		Hub:          a.hub,
		Auth:         guard,
		Forecast:     cfg.Forecast,
		Recommend:    &cfg.Recommend,
		Ready:        a.ready,
	}, logger)

	a.server = &http.Server{
		Addr:              cfg.Server.Addr(),
		Handler:           router,
		ReadTimeout:       cfg.Server.ReadTimeout,
		ReadHeaderTimeout: cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
	return a, nil
}

// preload registers dir as the first data version. With auto-train on, the
// registration also queues training.
func (a *app) preload(ctx context.Context, dir string) error {
	tables, err := a.loader.LoadDir(ctx, dir)
	if err != nil {
		return fmt.Errorf("load %s: %w", dir, err)
	}
	v, err := a.orch.RegisterVersion(tables, dir)
	if err != nil {
		return fmt.Errorf("register %s: %w", dir, err)
	}
	a.logger.Info().Str("version", v.ID).Str("source", dir).Msg("Preloaded data version")
	return nil
}

// initNATS starts the embedded server when configured and connects the
// progress forwarder.
func (a *app) initNATS() error {
	url := a.cfg.Events.NATSURL
	if a.cfg.Events.EmbeddedNATS {
		srv, err := events.NewEmbeddedServer(a.cfg.Events.EmbeddedServer())
		if err != nil {
			return fmt.Errorf("start embedded NATS: %w", err)
		}
		a.embedded = srv
		url = srv.ClientURL()
		a.logger.Info().Str("url", url).Msg("Embedded NATS server started")
	}
	fwd, err := events.NewNATSForwarder(a.cfg.Events.Forwarder(url), a.broadcaster, a.logger, metrics.RecordForwardedEvent)
	if err != nil {
		return fmt.Errorf("connect NATS forwarder: %w", err)
	}
	a.forwarder = fwd
	return nil
}

// ready fails while the NATS forwarder's breaker is open.
func (a *app) ready(context.Context) error {
	if a.forwarder != nil && a.forwarder.BreakerState() == "open" {
		return errors.New("nats forwarder circuit open")
	}
	return nil
}

// Tree assembles the supervisor tree:
//
//	shelfcast
//	├── data-layer:      training worker, retrain ticker
//	├── messaging-layer: websocket hub, feeder, embedded NATS, forwarder
//	└── api-layer:       HTTP server
func (a *app) Tree(logger *slog.Logger) *supervisor.SupervisorTree {
	treeCfg := supervisor.DefaultTreeConfig()
	treeCfg.ShutdownTimeout = a.cfg.Server.ShutdownTimeout
	tree := supervisor.NewSupervisorTree(logger, treeCfg)

	tree.AddDataService(training.NewWorker(a.orch, a.cfg.Training, a.logger))
	if a.cfg.Training.RetrainInterval > 0 {
		tree.AddDataService(services.NewRetrainService(a.orch, a.cfg.Training.RetrainInterval, training.ErrNoVersions, a.logger))
	}

	tree.AddMessagingService(a.hub)
	tree.AddMessagingService(websocket.NewFeeder(a.broadcaster, a.hub, a.cfg.Events.SubscriberBuffer, a.logger))
	if a.embedded != nil {
		tree.AddMessagingService(a.embedded)
	}
	if a.forwarder != nil {
		tree.AddMessagingService(a.forwarder)
	}

	tree.AddAPIService(services.NewHTTPServerService(a.server, a.cfg.Server.ShutdownTimeout))
	return tree
}

// Close releases resources in reverse order of creation.
func (a *app) Close() {
	if a.forwarder != nil {
		if err := a.forwarder.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Error closing NATS forwarder")
		}
	}
	if a.embedded != nil {
		a.embedded.Shutdown()
	}
	if a.broadcaster != nil {
		a.broadcaster.Close()
	}
	if a.loader != nil {
		if err := a.loader.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Error closing loader")
		}
	}
	if a.records != nil {
		if err := a.records.Close(); err != nil {
			a.logger.Warn().Err(err).Msg("Error closing record store")
		}
	}
}

// openRecordStore selects the record backend named in cfg.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func openRecordStore(cfg training.Config, logger zerolog.Logger) (training.RecordStore, error) {
	switch cfg.RecordStore {
	case training.RecordStoreBadger:
		s, err := training.OpenBadgerRecordStore(cfg.RecordPath, logger)
		if err != nil {
			return nil, fmt.Errorf("open record store: %w", err)
		}
		return s, nil
	case training.RecordStoreMemory, "":
		return training.NewMemoryRecordStore(), nil
	default:
		return nil, fmt.Errorf("unknown record store %q", cfg.RecordStore)
	}
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newAuth(cfg auth.Config, logger zerolog.Logger) (*auth.Middleware, error) {
	tokens, err := auth.NewTokenManager(cfg)
	if err != nil {
		return nil, fmt.Errorf("create token manager: %w", err)
	}
	enforcer, err := auth.NewEnforcer(cfg.PolicyPath)
	if err != nil {
		return nil, fmt.Errorf("create policy enforcer: %w", err)
	}
	return auth.NewMiddleware(cfg, tokens, enforcer, api.WriteAuthError, logger), nil
}
