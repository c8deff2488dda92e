// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package supervisor runs Shelfcast's long-lived services under a suture v4
tree.

	shelfcast (root)
	├── data-layer       training worker, periodic retrain
	├── messaging-layer  embedded NATS, NATS forwarder, websocket hub, hub feeder
	└── api-layer        HTTP server

Each layer restarts its own failed services with backoff, so a NATS outage
does not interrupt the HTTP API. Supervisor events are logged through
sutureslog on top of the zerolog slog adapter.
*/
package supervisor
