// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package events

import "time"

// TypeTrainingUpdate is the type of every progress event.
const TypeTrainingUpdate = "training_update"

// ProgressEvent reports a training stage transition.
type ProgressEvent struct {
	Type      string             `json:"type"`
	Model     string             `json:"model"`
	Version   string             `json:"version"`
	Status    string             `json:"status"`
	Progress  int                `json:"progress"`
	Stage     string             `json:"stage"`
	Metrics   map[string]float64 `json:"metrics,omitempty"`
	Error     string             `json:"error,omitempty"`
	Timestamp time.Time          `json:"timestamp"`
}
