// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package forecast

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

// PipelineState is the serializable form of a trained pipeline.
type PipelineState struct {
	Config       Config
	FeatureNames []string
	Model        *Model
	Baseline     *Baseline
	Latest       map[string][]float64
	LastDate     time.Time
	Metrics      Metrics
	Warnings     []string
}

// Snapshot captures the trained state for persistence.
func (p *Pipeline) Snapshot() (*PipelineState, error) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.trained {
		return nil, ErrNotTrained
	}
	return &PipelineState{
		Config:       p.cfg,
		FeatureNames: append([]string(nil), p.featureNames...),
		Model:        p.model,
		Baseline:     p.baseline,
		Latest:       p.latest,
		LastDate:     p.lastDate,
		Metrics:      p.metrics,
		Warnings:     append([]string(nil), p.warnings...),
	}, nil
}

// Restore rebuilds a trained pipeline from a snapshot. The restored pipeline
// serves forecasts but has no feature matrix to retrain on.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Restore(state *PipelineState, logger zerolog.Logger) (*Pipeline, error) {
	if state == nil || state.Model == nil || state.Baseline == nil {
		return nil, fmt.Errorf("restore forecast pipeline: incomplete state")
	}
	if len(state.Model.Importance) != len(state.FeatureNames) {
		return nil, fmt.Errorf("restore forecast pipeline: %d features but %d importance entries",
			len(state.FeatureNames), len(state.Model.Importance))
	}
	p := NewPipeline(nil, state.Config, logger)
	p.model = state.Model
	p.baseline = state.Baseline
	p.featureNames = append([]string(nil), state.FeatureNames...)
	p.latest = state.Latest
	if p.latest == nil {
		p.latest = make(map[string][]float64)
	}
	p.lastDate = state.LastDate
	p.metrics = state.Metrics
	p.warnings = append([]string(nil), state.Warnings...)
	p.trained = true
	return p, nil
}
