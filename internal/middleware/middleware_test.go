// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package middleware

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/goccy/go-json"
	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/metrics"
)

func TestRequestID(t *testing.T) {
	var gotID, gotCorrelation string
	h := RequestID(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = logging.RequestIDFromContext(r.Context())
		gotCorrelation = logging.CorrelationIDFromContext(r.Context())
	}))

	tests := []struct {
		name     string
		incoming string
		keep     bool
	}{
		{"generated", "", false},
		{"upstream kept", "abc-123", true},
		{"unsafe replaced", "bad id\nx", false},
		{"too long replaced", strings.Repeat("a", 65), false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			if tt.incoming != "" {
				req.Header.Set(HeaderRequestID, tt.incoming)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)

			header := rec.Header().Get(HeaderRequestID)
			if header == "" || header != gotID {
				t.Errorf("header %q, context %q", header, gotID)
			}
			if (header == tt.incoming) != tt.keep {
				t.Errorf("request ID = %q, keep upstream %v", header, tt.keep)
			}
			if gotCorrelation == "" {
				t.Error("correlation ID not set")
			}
		})
	}
}

func TestPrometheusMetrics_RoutePattern(t *testing.T) {
	r := chi.NewRouter()
	r.Use(PrometheusMetrics)
	r.Get("/api/v1/training/{version}", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})

	counter := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, "/api/v1/training/{version}", "418")
	before := testutil.ToFloat64(counter)
	for _, v := range []string{"a", "b", "c"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/api/v1/training/"+v, nil))
	}
	if got := testutil.ToFloat64(counter) - before; got != 3 {
		t.Errorf("requests counted = %v, want 3", got)
	}

	unmatched := metrics.APIRequestsTotal.WithLabelValues(http.MethodGet, unmatchedRoute, "404")
	before = testutil.ToFloat64(unmatched)
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/nope", nil))
	if got := testutil.ToFloat64(unmatched) - before; got != 1 {
		t.Errorf("unmatched counted = %v, want 1", got)
	}
}

func TestAccessLog(t *testing.T) {
	var buf bytes.Buffer
	logger := logging.NewTestLogger(&buf)

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(AccessLog(logger, 10*time.Millisecond))
	r.Get("/fast", func(w http.ResponseWriter, r *http.Request) {
		logging.Ctx(r.Context()).Info().Msg("inside")
		_, _ = w.Write([]byte("ok"))
	})
	r.Get("/slow", func(_ http.ResponseWriter, _ *http.Request) {
		time.Sleep(20 * time.Millisecond)
	})
	r.Get("/fail", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	})

	tests := []struct {
		path      string
		wantLevel string
	}{
		{"/fast", "debug"},
		{"/slow", "warn"},
		{"/fail", "error"},
	}
	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			buf.Reset()
			r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, tt.path, nil))

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			var entry map[string]interface{}
			if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
				t.Fatalf("decode %q: %v", lines[len(lines)-1], err)
			}
			if entry["level"] != tt.wantLevel || entry["route"] != tt.path {
				t.Errorf("entry = %v, want level %s", entry, tt.wantLevel)
			}
			if entry["request_id"] == "" {
				t.Error("request_id missing")
			}
		})
	}

	buf.Reset()
	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/fast", nil))
	if !strings.Contains(buf.String(), `"message":"inside"`) || !strings.Contains(buf.String(), `"component":"http"`) {
		t.Errorf("handler log did not use the request logger: %s", buf.String())
	}
}
