// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package logging

import (
	"strings"

	"github.com/rs/zerolog"
)

// SecurityEvent is an authentication or authorization decision.
type SecurityEvent struct {
	// Event names the decision, e.g. "token_rejected" or "access_denied".
	Event     string
	Subject   string
	Role      string
	Resource  string
	Action    string
	IPAddress string
	Success   bool
	Reason    string
}

// SecurityLogger writes security events with sensitive values masked.
type SecurityLogger struct {
	logger zerolog.Logger
}

// NewSecurityLogger creates a security logger tagged component=auth.
//
//nolint:gocritic // zerolog.Logger is designed to be passed by value
func NewSecurityLogger(logger zerolog.Logger) *SecurityLogger {
	return &SecurityLogger{logger: logger.With().Str("component", "auth").Logger()}
}

// LogEvent writes the event. Failures are logged at warn level.
func (l *SecurityLogger) LogEvent(ev *SecurityEvent) {
	e := l.logger.Info()
	status := "success"
	if !ev.Success {
		e = l.logger.Warn()
		status = "failed"
	}
	e = e.Str("event", ev.Event).Str("status", status)
	if ev.Subject != "" {
		e = e.Str("subject", SanitizeSubject(ev.Subject))
	}
	if ev.Role != "" {
		e = e.Str("role", ev.Role)
	}
	if ev.Resource != "" {
		e = e.Str("resource", ev.Resource).Str("action", ev.Action)
	}
	if ev.IPAddress != "" {
		e = e.Str("ip", ev.IPAddress)
	}
	if ev.Reason != "" {
		e = e.Str("reason", truncate(ev.Reason, 200))
	}
	e.Msg("security event")
}

// LogTokenRejected records a bearer token that failed validation.
func (l *SecurityLogger) LogTokenRejected(ip, reason string) {
	l.LogEvent(&SecurityEvent{Event: "token_rejected", IPAddress: ip, Reason: reason})
}

// LogAccessDenied records a policy denial.
func (l *SecurityLogger) LogAccessDenied(subject, role, resource, action, ip string) {
	l.LogEvent(&SecurityEvent{
		Event:     "access_denied",
		Subject:   subject,
		Role:      role,
		Resource:  resource,
		Action:    action,
		IPAddress: ip,
	})
}

// SanitizeToken masks a token, keeping four characters at each end of
// tokens longer than twelve characters.
func SanitizeToken(token string) string {
	return mask(token, 12)
}

// SanitizeSubject masks a subject identifier longer than eight characters.
func SanitizeSubject(subject string) string {
	return mask(subject, 8)
}

func mask(s string, minLen int) string {
	if s == "" {
		return ""
	}
	if len(s) <= minLen {
		return "***"
	}
	return s[:4] + "..." + s[len(s)-4:]
}

func truncate(s string, n int) string {
	s = strings.TrimSpace(s)
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
