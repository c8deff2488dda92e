// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package middleware provides the HTTP middleware shared by every API route.

  - RequestID assigns X-Request-ID and attaches request and correlation IDs
    to the request's logging context.
  - PrometheusMetrics records request counts, latency and in-flight
    requests, labeled by the chi route pattern rather than the raw path.
  - AccessLog writes one structured log line per request and warns on
    slow requests.

All three preserve http.Hijacker so they can wrap the WebSocket route.

Recommended order:

	r.Use(middleware.RequestID)
	r.Use(middleware.AccessLog(logger, time.Second))
	r.Use(middleware.PrometheusMetrics)
*/
package middleware
