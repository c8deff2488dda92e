// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import (
	"fmt"
	"time"
)

// Record store backends.
const (
	RecordStoreMemory = "memory"
	RecordStoreBadger = "badger"
)

// Config contains training orchestration settings.
type Config struct {
	// QueueSize bounds the jobs waiting for the background worker.
	QueueSize int `koanf:"queue_size" json:"queue_size"`

	// AutoTrain schedules both models when a version is registered.
	AutoTrain bool `koanf:"auto_train" json:"auto_train"`

	// TraceLines bounds the stack trace stored on failed records.
	TraceLines int `koanf:"trace_lines" json:"trace_lines"`

	// StartsPerSecond and Burst pace job starts in the worker.
	StartsPerSecond float64 `koanf:"starts_per_second" json:"starts_per_second"`
	Burst           int     `koanf:"burst" json:"burst"`

	// RecordStore selects "memory" or "badger".
	RecordStore string `koanf:"record_store" json:"record_store"`
	RecordPath  string `koanf:"record_path" json:"record_path"`

	// ArtifactDir is where trained models are persisted. Empty disables
	// persistence.
	ArtifactDir string `koanf:"artifact_dir" json:"artifact_dir"`

	// KeepRevisions is the number of artifact revisions kept per name.
	KeepRevisions int `koanf:"keep_revisions" json:"keep_revisions"`

	// RetrainInterval periodically schedules both models on the latest
	// version. Zero disables periodic retraining.
	RetrainInterval time.Duration `koanf:"retrain_interval" json:"retrain_interval"`
}

// DefaultConfig returns default training settings.
func DefaultConfig() Config {
	return Config{
		QueueSize:       16,
		AutoTrain:       true,
		TraceLines:      20,
		StartsPerSecond: 1,
		Burst:           2,
		RecordStore:     RecordStoreMemory,
		RecordPath:      "./data/records",
		ArtifactDir:     "./data/models",
		KeepRevisions:   3,
	}
}

// Validate checks the configuration.
func (c *Config) Validate() error {
	if c.QueueSize <= 0 {
		return fmt.Errorf("queue_size must be positive, got %d", c.QueueSize)
	}
	if c.TraceLines <= 0 {
		return fmt.Errorf("trace_lines must be positive, got %d", c.TraceLines)
	}
	if c.StartsPerSecond <= 0 {
		return fmt.Errorf("starts_per_second must be positive, got %v", c.StartsPerSecond)
	}
	if c.Burst <= 0 {
		return fmt.Errorf("burst must be positive, got %d", c.Burst)
	}
	switch c.RecordStore {
	case RecordStoreMemory:
	case RecordStoreBadger:
		if c.RecordPath == "" {
			return fmt.Errorf("record_path is required for the badger record store")
		}
	default:
		return fmt.Errorf("record_store must be %q or %q, got %q", RecordStoreMemory, RecordStoreBadger, c.RecordStore)
	}
	if c.RetrainInterval < 0 {
		return fmt.Errorf("retrain_interval must not be negative, got %v", c.RetrainInterval)
	}
	if c.KeepRevisions < 0 {
		return fmt.Errorf("keep_revisions must not be negative, got %d", c.KeepRevisions)
	}
	return nil
}
