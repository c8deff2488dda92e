// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package auth

import (
	"fmt"
	"time"
)

// MinSecretLength is the shortest accepted JWT secret.
const MinSecretLength = 32

// Config holds authentication settings.
type Config struct {
	Enabled bool `koanf:"enabled" json:"enabled"`

	// JWTSecret signs and verifies tokens. Required when Enabled.
	JWTSecret string `koanf:"jwt_secret" json:"-"`

	// Issuer is set on issued tokens and required on verified ones.
	Issuer string `koanf:"issuer" json:"issuer"`

	TokenTTL time.Duration `koanf:"token_ttl" json:"token_ttl"`

	// PolicyPath optionally replaces the built-in Casbin policy.
	PolicyPath string `koanf:"policy_path" json:"policy_path"`
}

// DefaultConfig returns authentication disabled with a 24h token lifetime.
func DefaultConfig() Config {
	return Config{
		Issuer:   "shelfcast",
		TokenTTL: 24 * time.Hour,
	}
}

// Validate checks the configuration.
func (c Config) Validate() error {
	if !c.Enabled {
		return nil
	}
	if len(c.JWTSecret) < MinSecretLength {
		return fmt.Errorf("jwt_secret must be at least %d characters when auth is enabled", MinSecretLength)
	}
	if c.TokenTTL <= 0 {
		return fmt.Errorf("token_ttl must be positive, got %v", c.TokenTTL)
	}
	return nil
}
