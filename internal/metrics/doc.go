// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package metrics defines the Prometheus metrics exported at /metrics.
//
// Metrics are registered with the default registry through promauto and
// updated through the Record* helpers:
//
//   - Training: runs by status, duration, latest progress, queue depth
//   - Serving: forecasts by method, recommendations by kind
//   - Events: dropped subscribers, NATS forward results
//   - API: request duration by route and status, active requests
//   - Ingest: rows loaded per table
//   - WebSocket: active connections and messages sent
package metrics
