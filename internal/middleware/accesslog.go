// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package middleware

import (
	"net/http"
	"time"

	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/logging"
)

// AccessLog logs each request at debug level, server errors at error level
// and requests slower than slow at warn level. A zero slow disables the
// slow-request warning.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func AccessLog(logger zerolog.Logger, slow time.Duration) func(http.Handler) http.Handler {
	logger = logger.With().Str("component", "http").Logger()
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			ww := chimiddleware.NewWrapResponseWriter(w, r.ProtoMajor)

			l := logger.With().
				Str("request_id", logging.RequestIDFromContext(r.Context())).
				Str("correlation_id", logging.CorrelationIDFromContext(r.Context())).
				Logger()
			ctx := logging.ContextWithLogger(r.Context(), l)
			next.ServeHTTP(ww, r.WithContext(ctx))

			d := time.Since(start)
			status := statusOf(ww)
			var ev *zerolog.Event
			switch {
			case status >= http.StatusInternalServerError:
				ev = l.Error()
			case slow > 0 && d > slow:
				ev = l.Warn().Dur("threshold", slow)
			default:
				ev = l.Debug()
			}
			ev.Str("method", r.Method).
				Str("route", RoutePattern(r)).
				Str("path", r.URL.Path).
				Int("status", status).
				Int("bytes", ww.BytesWritten()).
				Dur("duration", d).
				Msg("request")
		})
	}
}
