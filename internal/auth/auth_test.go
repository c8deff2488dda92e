// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package auth

import (
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func testConfig() Config {
	cfg := DefaultConfig()
	cfg.Enabled = true
	cfg.JWTSecret = testSecret
	return cfg
}

func newTokens(t *testing.T) *TokenManager {
	t.Helper()
	m, err := NewTokenManager(testConfig())
	if err != nil {
		t.Fatalf("NewTokenManager() error = %v", err)
	}
	return m
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"disabled needs nothing", func(c *Config) { c.Enabled = false; c.JWTSecret = "" }, false},
		{"enabled", func(*Config) {}, false},
		{"short secret", func(c *Config) { c.JWTSecret = "short" }, true},
		{"zero ttl", func(c *Config) { c.TokenTTL = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := testConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestTokenManager_RoundTrip(t *testing.T) {
	m := newTokens(t)
	token, err := m.Issue("analyst", RoleTrainer)
	if err != nil {
		t.Fatalf("Issue() error = %v", err)
	}
	claims, err := m.Verify(token)
	if err != nil {
		t.Fatalf("Verify() error = %v", err)
	}
	if claims.Subject != "analyst" || claims.Role != RoleTrainer || claims.Issuer != "shelfcast" {
		t.Errorf("claims = %+v", claims)
	}
	if _, err := m.Issue("", RoleAdmin); err == nil {
		t.Error("Issue() with empty subject succeeded")
	}
}

func TestTokenManager_Rejects(t *testing.T) {
	m := newTokens(t)
	valid, _ := m.Issue("analyst", RoleViewer)

	expired := newTokens(t)
	expired.now = func() time.Time { return time.Now().Add(-48 * time.Hour) }
	old, _ := expired.Issue("analyst", RoleViewer)

	otherCfg := testConfig()
	otherCfg.JWTSecret = strings.Repeat("x", 32)
	other, _ := NewTokenManager(otherCfg)
	forged, _ := other.Issue("analyst", RoleAdmin)

	otherIssuer := testConfig()
	otherIssuer.Issuer = "someone-else"
	foreign, _ := NewTokenManager(otherIssuer)
	wrongIss, _ := foreign.Issue("analyst", RoleViewer)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{Role: RoleAdmin})
	unsigned, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		token string
	}{
		{"expired", old},
		{"wrong secret", forged},
		{"wrong issuer", wrongIss},
		{"alg none", unsigned},
		{"garbage", "not.a.token"},
		{"tampered", valid[:len(valid)-2] + "xx"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := m.Verify(tt.token)
			if !errors.Is(err, ErrInvalidToken) {
				t.Errorf("Verify() error = %v, want ErrInvalidToken", err)
			}
		})
	}
}

func TestEnforcer_DefaultPolicy(t *testing.T) {
	e, err := NewEnforcer("")
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}

	tests := []struct {
		role, path, method string
		want               bool
	}{
		{RoleViewer, "/api/v1/forecast", http.MethodGet, true},
		{RoleViewer, "/api/v1/forecast/batch", http.MethodPost, true},
		{RoleViewer, "/api/v1/forecast/train", http.MethodPost, false},
		{RoleViewer, "/api/v1/versions", http.MethodPost, false},
		{RoleTrainer, "/api/v1/forecast/train", http.MethodPost, true},
		{RoleTrainer, "/api/v1/recommend/train", http.MethodPost, true},
		{RoleTrainer, "/api/v1/versions", http.MethodPost, true},
		{RoleTrainer, "/api/v1/recommend", http.MethodGet, true},
		{RoleTrainer, "/api/v1/versions/v1", http.MethodDelete, false},
		{RoleAdmin, "/api/v1/versions/v1", http.MethodDelete, true},
		{"guest", "/api/v1/forecast", http.MethodGet, false},
	}
	for _, tt := range tests {
		t.Run(tt.role+" "+tt.method+" "+tt.path, func(t *testing.T) {
			got, err := e.Allow(tt.role, tt.path, tt.method)
			if err != nil {
				t.Fatalf("Allow() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("Allow() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestEnforcer_PolicyFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policy.csv")
	if err := os.WriteFile(path, []byte("p, ops, /api/v1/versions, write\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	e, err := NewEnforcer(path)
	if err != nil {
		t.Fatalf("NewEnforcer() error = %v", err)
	}
	if ok, _ := e.Allow("ops", "/api/v1/versions", http.MethodPost); !ok {
		t.Error("ops denied by file policy")
	}
	if ok, _ := e.Allow(RoleAdmin, "/api/v1/versions", http.MethodPost); ok {
		t.Error("file policy should replace the built-in one")
	}

	if _, err := NewEnforcer(filepath.Join(t.TempDir(), "missing.csv")); err == nil {
		t.Error("NewEnforcer(missing) error = nil")
	}
}

func TestMiddleware_Require(t *testing.T) {
	tokens := newTokens(t)
	enforcer, err := NewEnforcer("")
	if err != nil {
		t.Fatal(err)
	}
	mw := NewMiddleware(testConfig(), tokens, enforcer, nil, zerolog.New(io.Discard))

	var seen *Claims
	h := mw.Require(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen = ClaimsFromContext(r.Context())
		w.WriteHeader(http.StatusAccepted)
	}))

	viewer, _ := tokens.Issue("v", RoleViewer)
	trainer, _ := tokens.Issue("t", RoleTrainer)

	tests := []struct {
		name   string
		header string
		want   int
	}{
		{"no header", "", http.StatusUnauthorized},
		{"not bearer", "Basic abc", http.StatusUnauthorized},
		{"bad token", "Bearer nope", http.StatusUnauthorized},
		{"viewer forbidden", "Bearer " + viewer, http.StatusForbidden},
		{"trainer allowed", "bearer " + trainer, http.StatusAccepted},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodPost, "/api/v1/forecast/train", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			h.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
			if tt.want == http.StatusAccepted && (seen == nil || seen.Subject != "t") {
				t.Errorf("claims in context = %+v", seen)
			}
		})
	}
}

func TestMiddleware_Disabled(t *testing.T) {
	mw := NewMiddleware(DefaultConfig(), nil, nil, nil, zerolog.New(io.Discard))
	if mw.Enabled() {
		t.Fatal("Enabled() = true")
	}
	h := mw.Require(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/versions", nil))
	if rec.Code != http.StatusNoContent {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestMiddleware_CustomErrorWriter(t *testing.T) {
	var gotCode string
	onError := func(w http.ResponseWriter, _ *http.Request, status int, code, _ string) {
		gotCode = code
		w.WriteHeader(status)
	}
	enforcer, _ := NewEnforcer("")
	mw := NewMiddleware(testConfig(), newTokens(t), enforcer, onError, zerolog.New(io.Discard))
	rec := httptest.NewRecorder()
	mw.Require(http.NotFoundHandler()).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/v1/versions", nil))
	if rec.Code != http.StatusUnauthorized || gotCode != "UNAUTHORIZED" {
		t.Errorf("status = %d code = %q", rec.Code, gotCode)
	}
}
