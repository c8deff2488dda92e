// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package api

import (
	"fmt"
	"time"
)

// Config holds HTTP API settings.
type Config struct {
	// CORSOrigins also governs websocket origin checks.
	CORSOrigins []string `koanf:"cors_origins" json:"cors_origins"`

	RateLimitRequests int           `koanf:"rate_limit_requests" json:"rate_limit_requests"`
	RateLimitWindow   time.Duration `koanf:"rate_limit_window" json:"rate_limit_window"`
	RateLimitDisabled bool          `koanf:"rate_limit_disabled" json:"rate_limit_disabled"`

	// SlowRequest is the access log warn threshold.
	SlowRequest time.Duration `koanf:"slow_request" json:"slow_request"`

	MaxBodyBytes int64 `koanf:"max_body_bytes" json:"max_body_bytes"`

	// DataRoot confines POST /versions paths. Empty allows any path.
	DataRoot string `koanf:"data_root" json:"data_root"`

	// SwaggerEnabled serves the OpenAPI UI under /swagger/.
	SwaggerEnabled bool `koanf:"swagger_enabled" json:"swagger_enabled"`
}

// DefaultConfig returns default API settings.
func DefaultConfig() Config {
	return Config{
		RateLimitRequests: 100,
		RateLimitWindow:   time.Minute,
		SlowRequest:       time.Second,
		MaxBodyBytes:      1 << 20,
		SwaggerEnabled:    true,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if !c.RateLimitDisabled {
		if c.RateLimitRequests <= 0 {
			return fmt.Errorf("rate_limit_requests must be positive, got %d", c.RateLimitRequests)
		}
		if c.RateLimitWindow <= 0 {
			return fmt.Errorf("rate_limit_window must be positive, got %s", c.RateLimitWindow)
		}
	}
	if c.MaxBodyBytes <= 0 {
		return fmt.Errorf("max_body_bytes must be positive, got %d", c.MaxBodyBytes)
	}
	return nil
}
