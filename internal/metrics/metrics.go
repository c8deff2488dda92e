// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package metrics

import (
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Training Metrics
	TrainingRunsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfcast_training_runs_total",
			Help: "Total number of training runs by final status",
		},
		[]string{"model", "status"}, // status: completed, failed, skipped
	)

	TrainingDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfcast_training_duration_seconds",
			Help:    "Duration of training runs in seconds",
			Buckets: []float64{0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300, 600},
		},
		[]string{"model"},
	)

	TrainingProgress = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "shelfcast_training_progress",
			Help: "Progress percentage of the most recent training run",
		},
		[]string{"model"},
	)

	TrainingQueueDepth = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfcast_training_queue_depth",
			Help: "Number of training jobs waiting for the worker",
		},
	)

	// Serving Metrics
	ForecastRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfcast_forecast_requests_total",
			Help: "Total number of forecasts served by method",
		},
		[]string{"method"},
	)

	RecommendRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfcast_recommend_requests_total",
			Help: "Total number of recommendation requests by kind",
		},
		[]string{"kind"}, // personalized, popular
	)

	// Event Metrics
	EventsDroppedSubscribers = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfcast_events_dropped_subscribers_total",
			Help: "Total number of event subscribers dropped for a full queue",
		},
	)

	EventsForwardedTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfcast_events_forwarded_total",
			Help: "Total number of events forwarded to NATS by result",
		},
		[]string{"result"}, // ok, error, rejected
	)

	// API Endpoint Metrics
	APIRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfcast_api_requests_total",
			Help: "Total number of API requests",
		},
		[]string{"method", "route", "status"},
	)

	APIRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "shelfcast_api_request_duration_seconds",
			Help:    "API request duration in seconds",
			Buckets: []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		},
		[]string{"method", "route", "status"},
	)

	APIActiveRequests = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfcast_api_active_requests",
			Help: "Current number of active API requests",
		},
	)

	// Ingest Metrics
	IngestRowsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "shelfcast_ingest_rows_total",
			Help: "Total number of rows loaded per table",
		},
		[]string{"table"},
	)

	// WebSocket Metrics
	WSConnections = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "shelfcast_websocket_connections_active",
			Help: "Current number of active WebSocket connections",
		},
	)

	WSMessagesSent = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "shelfcast_websocket_messages_sent_total",
			Help: "Total number of WebSocket messages sent",
		},
	)
)

// RecordTrainingRun records the outcome and duration of a training run.
func RecordTrainingRun(model, status string, duration time.Duration) {
	TrainingRunsTotal.WithLabelValues(model, status).Inc()
	if status != "skipped" {
		TrainingDuration.WithLabelValues(model).Observe(duration.Seconds())
	}
}

// SetTrainingProgress records the latest progress percentage for a model.
func SetTrainingProgress(model string, progress int) {
	TrainingProgress.WithLabelValues(model).Set(float64(progress))
}

// RecordForecast records a served forecast.
func RecordForecast(method string) {
	ForecastRequestsTotal.WithLabelValues(method).Inc()
}

// RecordRecommendation records a served recommendation request.
func RecordRecommendation(kind string) {
	RecommendRequestsTotal.WithLabelValues(kind).Inc()
}

// RecordDroppedSubscriber records a subscriber removed for overflow.
func RecordDroppedSubscriber() {
	EventsDroppedSubscribers.Inc()
}

// RecordForwardedEvent records a NATS forward attempt.
func RecordForwardedEvent(result string) {
	EventsForwardedTotal.WithLabelValues(result).Inc()
}

// RecordAPIRequest records an API request metric.
func RecordAPIRequest(method, route string, statusCode int, duration time.Duration) {
	status := strconv.Itoa(statusCode)
	APIRequestsTotal.WithLabelValues(method, route, status).Inc()
	APIRequestDuration.WithLabelValues(method, route, status).Observe(duration.Seconds())
}

// TrackActiveRequest tracks active API requests.
func TrackActiveRequest(inc bool) {
	if inc {
		APIActiveRequests.Inc()
	} else {
		APIActiveRequests.Dec()
	}
}

// RecordIngestRows records rows loaded into a table.
func RecordIngestRows(table string, rows int) {
	IngestRowsTotal.WithLabelValues(table).Add(float64(rows))
}
