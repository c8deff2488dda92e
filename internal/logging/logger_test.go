// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

func decode(t *testing.T, line string) map[string]interface{} {
	t.Helper()
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(line), &m); err != nil {
		t.Fatalf("invalid JSON log line %q: %v", line, err)
	}
	return m
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	if cfg.Level != "info" || cfg.Format != "json" || !cfg.Timestamp || cfg.Caller {
		t.Errorf("DefaultConfig() = %+v", cfg)
	}
}

func TestInit(t *testing.T) {
	defer Init(DefaultConfig())

	var buf bytes.Buffer
	Init(Config{Level: "warn", Format: "json", Output: &buf})

	Info().Msg("hidden")
	Warn().Str("model", "forecast").Msg("visible")

	out := strings.TrimSpace(buf.String())
	if strings.Contains(out, "hidden") {
		t.Errorf("info message written at warn level: %s", out)
	}
	m := decode(t, out)
	if m["message"] != "visible" || m["model"] != "forecast" || m["level"] != "warn" {
		t.Errorf("log entry = %v", m)
	}
}

func TestParseLevel(t *testing.T) {
	tests := []struct {
		in   string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"WARNING", zerolog.WarnLevel},
		{" error ", zerolog.ErrorLevel},
		{"off", zerolog.Disabled},
		{"bogus", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}
	for _, tt := range tests {
		if got := parseLevel(tt.in); got != tt.want {
			t.Errorf("parseLevel(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
	if ValidLevel("bogus") || !ValidLevel("trace") {
		t.Error("ValidLevel() mismatch")
	}
}

func TestCtx(t *testing.T) {
	var buf bytes.Buffer
	ctx := ContextWithLogger(context.Background(), NewTestLogger(&buf))
	ctx = ContextWithRequestID(ctx, "req-1")
	ctx = ContextWithNewCorrelationID(ctx)

	Ctx(ctx).Info().Msg("handled")

	m := decode(t, strings.TrimSpace(buf.String()))
	if m["request_id"] != "req-1" {
		t.Errorf("request_id = %v, want req-1", m["request_id"])
	}
	if id, _ := m["correlation_id"].(string); len(id) != 8 {
		t.Errorf("correlation_id = %v, want 8 characters", m["correlation_id"])
	}
	if RequestIDFromContext(context.Background()) != "" {
		t.Error("RequestIDFromContext(empty) != \"\"")
	}
}

func TestSlogHandler(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(NewSlogHandler(NewTestLogger(&buf)))

	logger.WithGroup("svc").With("name", "worker").Warn("restarted", "attempt", 3, slog.Group("backoff", "ms", 250))

	m := decode(t, strings.TrimSpace(buf.String()))
	tests := []struct {
		key  string
		want interface{}
	}{
		{"level", "warn"},
		{"message", "restarted"},
		{"svc.name", "worker"},
		{"svc.attempt", float64(3)},
		{"svc.backoff.ms", float64(250)},
	}
	for _, tt := range tests {
		if m[tt.key] != tt.want {
			t.Errorf("%s = %v, want %v", tt.key, m[tt.key], tt.want)
		}
	}
}

func TestSecurityLogger(t *testing.T) {
	var buf bytes.Buffer
	l := NewSecurityLogger(NewTestLogger(&buf))
	l.LogAccessDenied("analyst-0001", "viewer", "/api/v1/forecast/train", "POST", "10.0.0.1")

	m := decode(t, strings.TrimSpace(buf.String()))
	if m["event"] != "access_denied" || m["status"] != "failed" || m["level"] != "warn" {
		t.Errorf("entry = %v", m)
	}
	if m["subject"] != "anal...0001" {
		t.Errorf("subject = %v, want masked", m["subject"])
	}
}

func TestSanitizeToken(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"short", "***"},
		{"exactlytwelv", "***"},
		{"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9", "eyJh...VCJ9"},
	}
	for _, tt := range tests {
		if got := SanitizeToken(tt.in); got != tt.want {
			t.Errorf("SanitizeToken(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
