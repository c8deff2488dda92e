// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package websocket streams training progress to browser clients.

A Hub owns the connected clients and fans messages out to them. Each
Client runs a read pump (answering application-level pings) and a write
pump (draining a bounded queue and sending keepalive pings). A client that
cannot keep up is disconnected rather than slowing the others.

The Feeder connects the hub to the training event broadcaster:

	Orchestrator -> events.Broadcaster -> Feeder -> Hub -> Clients

Both Hub and Feeder implement suture.Service.

Frames are JSON objects of the form:

	{"type": "training_update", "data": {"model": "forecast", "stage": "model_train", ...}}

Clients may send {"type": "ping"} and receive {"type": "pong"}.

The HTTP upgrade, including origin checks, lives in the api package.
*/
package websocket
