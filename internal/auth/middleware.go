// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package auth

import (
	"context"
	"net"
	"net/http"
	"strings"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/logging"
)

type contextKey struct{}

// ErrorWriter writes an authentication or authorization failure.
type ErrorWriter func(w http.ResponseWriter, r *http.Request, status int, code, message string)

// Middleware enforces bearer tokens and the RBAC policy.
type Middleware struct {
	enabled  bool
	tokens   *TokenManager
	enforcer *Enforcer
	security *logging.SecurityLogger
	onError  ErrorWriter
}

// NewMiddleware builds the middleware. With cfg.Enabled false, tokens and
// enforcer may be nil. onError defaults to http.Error.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewMiddleware(cfg Config, tokens *TokenManager, enforcer *Enforcer, onError ErrorWriter, logger zerolog.Logger) *Middleware {
	if onError == nil {
		onError = func(w http.ResponseWriter, _ *http.Request, status int, _, message string) {
			http.Error(w, message, status)
		}
	}
	return &Middleware{
		enabled:  cfg.Enabled,
		tokens:   tokens,
		enforcer: enforcer,
		security: logging.NewSecurityLogger(logger),
		onError:  onError,
	}
}

// Enabled reports whether requests are checked.
func (m *Middleware) Enabled() bool {
	return m.enabled
}

// Require rejects requests without a valid token (401) or whose role the
// policy does not allow for the request path and method (403).
func (m *Middleware) Require(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !m.enabled {
			next.ServeHTTP(w, r)
			return
		}

		ip := clientIP(r)
		token, ok := bearerToken(r)
		if !ok {
			m.security.LogTokenRejected(ip, "missing bearer token")
			m.onError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "missing bearer token")
			return
		}
		claims, err := m.tokens.Verify(token)
		if err != nil {
			m.security.LogTokenRejected(ip, err.Error())
			m.onError(w, r, http.StatusUnauthorized, "UNAUTHORIZED", "invalid token")
			return
		}

		allowed, err := m.enforcer.Allow(claims.Role, r.URL.Path, r.Method)
		if err != nil {
			logging.Ctx(r.Context()).Error().Err(err).Msg("authorization error")
			m.onError(w, r, http.StatusInternalServerError, "INTERNAL_ERROR", "authorization failed")
			return
		}
		if !allowed {
			m.security.LogAccessDenied(claims.Subject, claims.Role, r.URL.Path, r.Method, ip)
			m.onError(w, r, http.StatusForbidden, "FORBIDDEN", "insufficient permissions")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithClaims(r.Context(), claims)))
	})
}

// ContextWithClaims attaches verified claims.
func ContextWithClaims(ctx context.Context, c *Claims) context.Context {
	return context.WithValue(ctx, contextKey{}, c)
}

// ClaimsFromContext returns the verified claims, or nil.
func ClaimsFromContext(ctx context.Context) *Claims {
	c, _ := ctx.Value(contextKey{}).(*Claims)
	return c
}

func bearerToken(r *http.Request) (string, bool) {
	h := r.Header.Get("Authorization")
	const prefix = "bearer "
	if len(h) <= len(prefix) || !strings.EqualFold(h[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(h[len(prefix):])
	return token, token != ""
}

func clientIP(r *http.Request) string {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}
