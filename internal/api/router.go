// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/rs/zerolog"
	httpSwagger "github.com/swaggo/http-swagger/v2"

	_ "github.com/tomtom215/shelfcast/docs" // registers the OpenAPI document
	"github.com/tomtom215/shelfcast/internal/auth"
	"github.com/tomtom215/shelfcast/internal/forecast"
	"github.com/tomtom215/shelfcast/internal/middleware"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/training"
	"github.com/tomtom215/shelfcast/internal/websocket"
)

// Deps are the collaborators behind the API.
type Deps struct {
	Orchestrator *training.Orchestrator
	Loader       Ingester
	Hub          *websocket.Hub

	// Auth guards mutating routes. Nil leaves them open.
	Auth *auth.Middleware

	Forecast  forecast.Config
	Recommend *recommend.Config

	// Ready is consulted by the readiness probe. Nil is always ready.
	Ready func(context.Context) error
}

// WriteAuthError renders auth failures in the API envelope. Pass it to
// auth.NewMiddleware.
func WriteAuthError(w http.ResponseWriter, r *http.Request, status int, code, message string) {
	respondError(w, r, status, code, message, nil)
}

// NewRouter builds the HTTP handler for the API.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRouter(cfg Config, deps Deps, logger zerolog.Logger) http.Handler {
	h := newHandler(cfg, deps, logger)

	r := chi.NewRouter()
	r.Use(startTimer)
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(middleware.AccessLog(logger, cfg.SlowRequest))
	r.Use(middleware.PrometheusMetrics)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: cfg.CORSOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodOptions},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", middleware.HeaderRequestID},
		ExposedHeaders: []string{middleware.HeaderRequestID, "Retry-After"},
		MaxAge:         300,
	}))

	r.NotFound(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusNotFound, ErrCodeNotFound, "route not found", nil)
	})
	r.MethodNotAllowed(func(w http.ResponseWriter, r *http.Request) {
		respondError(w, r, http.StatusMethodNotAllowed, ErrCodeBadRequest, "method not allowed", nil)
	})

	r.Handle("/metrics", promhttp.Handler())
	if cfg.SwaggerEnabled {
		r.Get("/swagger/*", httpSwagger.Handler(
			httpSwagger.URL("/swagger/doc.json"),
			httpSwagger.DeepLinking(true),
			httpSwagger.DocExpansion("list"),
		))
	}

	guard := func(next http.Handler) http.Handler { return next }
	if deps.Auth != nil {
		guard = deps.Auth.Require
	}

	r.Route("/api/v1", func(r chi.Router) {
		r.Use(securityHeaders)

		r.Get("/health/live", h.HealthLive)
		r.Get("/health/ready", h.HealthReady)

		r.Group(func(r chi.Router) {
			r.Use(rateLimit(cfg))

			r.Get("/versions", h.ListVersions)
			r.Get("/versions/{id}", h.GetVersion)
			r.With(guard).Post("/versions", h.CreateVersion)

			r.Get("/forecast", h.Forecast)
			r.Post("/forecast/batch", h.BatchForecast)
			r.With(guard).Post("/forecast/train", h.Train(training.ModelForecast))

			r.Get("/recommend", h.Recommend)
			r.Get("/recommend/popular", h.RecommendPopular)
			r.With(guard).Post("/recommend/train", h.Train(training.ModelRecommend))

			r.Get("/training/{version}", h.TrainingRecords)
			r.Get("/ws", h.WebSocket)
		})
	})

	return r
}

func startTimer(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := context.WithValue(r.Context(), startKey{}, time.Now())
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

func securityHeaders(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Cache-Control", "no-store")
		next.ServeHTTP(w, r)
	})
}

func rateLimit(cfg Config) func(http.Handler) http.Handler {
	if cfg.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		cfg.RateLimitRequests,
		cfg.RateLimitWindow,
		httprate.WithKeyFuncs(httprate.KeyByIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			respondError(w, r, http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded", nil)
		}),
	)
}

func urlParam(r *http.Request, name string) string {
	return chi.URLParam(r, name)
}
