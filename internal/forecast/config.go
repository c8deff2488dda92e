// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package forecast

import "fmt"

// Config contains forecasting pipeline parameters.
type Config struct {
	// Target is the column the models learn to predict.
	Target string `koanf:"target" json:"target"`

	// BaselineWindow is the number of trailing observations averaged by the
	// baseline model.
	BaselineWindow int `koanf:"baseline_window" json:"baseline_window"`

	// MinTrainingRows is the row count under which a data-sufficiency
	// warning is recorded. Training still proceeds.
	MinTrainingRows int `koanf:"min_training_rows" json:"min_training_rows"`

	// TestSize is the trailing fraction of rows held out for validation.
	TestSize float64 `koanf:"test_size" json:"test_size"`

	// DefaultHorizon and MaxHorizon bound request sizes at the API layer.
	DefaultHorizon int `koanf:"default_horizon" json:"default_horizon"`
	MaxHorizon     int `koanf:"max_horizon" json:"max_horizon"`

	// GBM contains gradient boosting parameters.
	GBM GBMConfig `koanf:"gbm" json:"gbm"`
}

// GBMConfig contains gradient boosted tree parameters.
type GBMConfig struct {
	// NumLeaves caps the leaves per tree. Trees grow best-first.
	NumLeaves int `koanf:"num_leaves" json:"num_leaves"`

	LearningRate float64 `koanf:"learning_rate" json:"learning_rate"`

	// FeatureFraction is the share of features sampled for each tree.
	FeatureFraction float64 `koanf:"feature_fraction" json:"feature_fraction"`

	// BaggingFraction is the share of rows sampled every BaggingFreq rounds.
	// BaggingFreq 0 disables bagging.
	BaggingFraction float64 `koanf:"bagging_fraction" json:"bagging_fraction"`
	BaggingFreq     int     `koanf:"bagging_freq" json:"bagging_freq"`

	// MinDataInLeaf is the minimum number of rows on each side of a split.
	MinDataInLeaf int `koanf:"min_data_in_leaf" json:"min_data_in_leaf"`

	// MaxBins bounds the histogram bins per feature.
	MaxBins int `koanf:"max_bins" json:"max_bins"`

	// NumEstimators is the maximum number of boosting rounds.
	NumEstimators int `koanf:"num_estimators" json:"num_estimators"`

	// EarlyStoppingRounds stops training after this many rounds without
	// validation improvement. Zero disables early stopping.
	EarlyStoppingRounds int `koanf:"early_stopping_rounds" json:"early_stopping_rounds"`

	Seed int64 `koanf:"seed" json:"seed"`
}

// DefaultConfig returns the default forecasting configuration.
func DefaultConfig() Config {
	return Config{
		Target:          "sales_quantity",
		BaselineWindow:  7,
		MinTrainingRows: 100,
		TestSize:        0.2,
		DefaultHorizon:  14,
		MaxHorizon:      90,
		GBM:             DefaultGBMConfig(),
	}
}

// DefaultGBMConfig returns the default boosting parameters.
func DefaultGBMConfig() GBMConfig {
	return GBMConfig{
		NumLeaves:           31,
		LearningRate:        0.05,
		FeatureFraction:     0.9,
		BaggingFraction:     0.8,
		BaggingFreq:         5,
		MinDataInLeaf:       20,
		MaxBins:             255,
		NumEstimators:       100,
		EarlyStoppingRounds: 10,
		Seed:                42,
	}
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if c.Target == "" {
		return fmt.Errorf("target must not be empty")
	}
	if c.BaselineWindow < 1 {
		return fmt.Errorf("baseline_window must be positive, got %d", c.BaselineWindow)
	}
	if c.MinTrainingRows < 0 {
		return fmt.Errorf("min_training_rows must be non-negative, got %d", c.MinTrainingRows)
	}
	if c.TestSize < 0 || c.TestSize >= 1 {
		return fmt.Errorf("test_size must be in [0, 1), got %f", c.TestSize)
	}
	if c.DefaultHorizon < 1 {
		return fmt.Errorf("default_horizon must be positive, got %d", c.DefaultHorizon)
	}
	if c.MaxHorizon < c.DefaultHorizon {
		return fmt.Errorf("max_horizon must be >= default_horizon, got %d < %d", c.MaxHorizon, c.DefaultHorizon)
	}
	return c.GBM.Validate()
}

// Validate checks the boosting parameters for errors.
func (c *GBMConfig) Validate() error {
	if c.NumLeaves < 2 {
		return fmt.Errorf("gbm.num_leaves must be at least 2, got %d", c.NumLeaves)
	}
	if c.LearningRate <= 0 {
		return fmt.Errorf("gbm.learning_rate must be positive, got %f", c.LearningRate)
	}
	if c.FeatureFraction <= 0 || c.FeatureFraction > 1 {
		return fmt.Errorf("gbm.feature_fraction must be in (0, 1], got %f", c.FeatureFraction)
	}
	if c.BaggingFraction <= 0 || c.BaggingFraction > 1 {
		return fmt.Errorf("gbm.bagging_fraction must be in (0, 1], got %f", c.BaggingFraction)
	}
	if c.BaggingFreq < 0 {
		return fmt.Errorf("gbm.bagging_freq must be non-negative, got %d", c.BaggingFreq)
	}
	if c.MinDataInLeaf < 1 {
		return fmt.Errorf("gbm.min_data_in_leaf must be positive, got %d", c.MinDataInLeaf)
	}
	if c.MaxBins < 2 || c.MaxBins > 65535 {
		return fmt.Errorf("gbm.max_bins must be in [2, 65535], got %d", c.MaxBins)
	}
	if c.NumEstimators < 1 {
		return fmt.Errorf("gbm.num_estimators must be positive, got %d", c.NumEstimators)
	}
	if c.EarlyStoppingRounds < 0 {
		return fmt.Errorf("gbm.early_stopping_rounds must be non-negative, got %d", c.EarlyStoppingRounds)
	}
	return nil
}
