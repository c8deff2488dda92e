// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package main is the entry point for the Shelfcast server.

Shelfcast loads retail transaction tables, trains a demand forecaster and a
hybrid product recommender per data version, and serves predictions over a
REST API with training progress streamed over WebSocket and, optionally,
NATS.

# Application Architecture

Services run under a Suture v4 supervisor tree:

	RootSupervisor ("shelfcast")
	├── DataSupervisor ("data-layer")
	│   ├── Training worker (paced job queue)
	│   └── Retrain service (optional, training.retrain_interval)
	├── MessagingSupervisor ("messaging-layer")
	│   ├── WebSocket hub
	│   ├── Progress feeder (broadcaster to hub)
	│   ├── Embedded NATS server (optional)
	│   └── NATS forwarder (optional)
	└── APISupervisor ("api-layer")
	    └── HTTP server

Initialization order:

 1. Configuration: Koanf v2 (defaults, YAML file, environment)
 2. Logging: zerolog, bridged to slog for the supervisor
 3. Training record store: memory or BadgerDB
 4. Artifact store for trained models (optional)
 5. Progress broadcaster and training orchestrator
 6. DuckDB loader and optional data preload
 7. JWT/Casbin guard for mutating routes (optional)
 8. NATS components (optional)
 9. WebSocket hub and chi router

# Flags

	-data DIR              load DIR as the first data version
	-issue-token SUBJ:ROLE print a signed bearer token and exit

# Signals

SIGINT and SIGTERM cancel the root context. Each service gets
server.shutdown_timeout to stop; in-flight training runs complete.
*/
package main
