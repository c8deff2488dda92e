// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"fmt"
	"time"
)

// Config contains all configuration for the hybrid recommender.
type Config struct {
	// CFWeight scales collaborative filtering scores.
	CFWeight float64 `koanf:"cf_weight" json:"cf_weight"`

	// ContentWeight scales content similarity scores.
	ContentWeight float64 `koanf:"content_weight" json:"content_weight"`

	// PopularSize is the number of products kept in the global popularity list.
	PopularSize int `koanf:"popular_size" json:"popular_size"`

	// Neighbors is the number of similar customers aggregated by the
	// collaborative model.
	Neighbors int `koanf:"neighbors" json:"neighbors"`

	// HistoryLimit is the number of recently purchased products used as
	// content similarity seeds.
	HistoryLimit int `koanf:"history_limit" json:"history_limit"`

	// PadScore is assigned to popular products used to fill short lists.
	PadScore float64 `koanf:"pad_score" json:"pad_score"`

	// DefaultTopK and MaxTopK bound request sizes at the API layer.
	DefaultTopK int `koanf:"default_top_k" json:"default_top_k"`
	MaxTopK     int `koanf:"max_top_k" json:"max_top_k"`

	// NumWorkers is the number of similarity workers used during Fit.
	NumWorkers int `koanf:"num_workers" json:"num_workers"`

	// CacheTTL is how long recommendation lists are cached. Zero disables
	// caching.
	CacheTTL time.Duration `koanf:"cache_ttl" json:"cache_ttl"`

	// CacheMaxEntries bounds the cache; the least recently used list is
	// evicted beyond it.
	CacheMaxEntries int `koanf:"cache_max_entries" json:"cache_max_entries"`

	// DiversityLambda below 1 reranks personalized lists with MMR over
	// product category. 1 keeps pure score order.
	DiversityLambda float64 `koanf:"diversity_lambda" json:"diversity_lambda"`
}

// DefaultConfig returns the default recommender configuration.
func DefaultConfig() *Config {
	return &Config{
		CFWeight:        0.6,
		ContentWeight:   0.4,
		PopularSize:     50,
		Neighbors:       20,
		HistoryLimit:    5,
		PadScore:        0.5,
		DefaultTopK:     10,
		MaxTopK:         50,
		NumWorkers:      4,
		CacheTTL:        5 * time.Minute,
		CacheMaxEntries: 10000,
		DiversityLambda: 1.0,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.CFWeight < 0 {
		return fmt.Errorf("cf_weight must be non-negative, got %f", c.CFWeight)
	}
	if c.ContentWeight < 0 {
		return fmt.Errorf("content_weight must be non-negative, got %f", c.ContentWeight)
	}
	if c.PopularSize < 1 {
		return fmt.Errorf("popular_size must be positive, got %d", c.PopularSize)
	}
	if c.Neighbors < 1 {
		return fmt.Errorf("neighbors must be positive, got %d", c.Neighbors)
	}
	if c.HistoryLimit < 0 {
		return fmt.Errorf("history_limit must be non-negative, got %d", c.HistoryLimit)
	}
	if c.DefaultTopK < 1 {
		return fmt.Errorf("default_top_k must be positive, got %d", c.DefaultTopK)
	}
	if c.MaxTopK < c.DefaultTopK {
		return fmt.Errorf("max_top_k must be >= default_top_k, got %d < %d", c.MaxTopK, c.DefaultTopK)
	}
	if c.NumWorkers < 1 {
		return fmt.Errorf("num_workers must be positive, got %d", c.NumWorkers)
	}
	if c.DiversityLambda < 0 || c.DiversityLambda > 1 {
		return fmt.Errorf("diversity_lambda must be in [0, 1], got %f", c.DiversityLambda)
	}
	if c.CacheTTL < 0 {
		return fmt.Errorf("cache_ttl must be non-negative, got %v", c.CacheTTL)
	}
	return nil
}

// Clone returns a copy of the configuration.
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
