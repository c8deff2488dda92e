// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import (
	"sync"
	"time"

	"github.com/tomtom215/shelfcast/internal/forecast"
	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Artifact is a trained model bound to the data version it was fit on.
// Exactly one of Forecast and Recommend is set, matching Model.
type Artifact struct {
	Version   string
	Model     string
	Forecast  *forecast.Pipeline
	Recommend *recommend.Hybrid
	TrainedAt time.Time
}

// Registry maps (version, model) to trained artifacts and tracks the
// current artifact per model type.
type Registry struct {
	mu      sync.RWMutex
	byKey   map[recordKey]*Artifact
	current map[string]*Artifact
}

// NewRegistry creates an empty artifact registry.
func NewRegistry() *Registry {
	return &Registry{
		byKey:   make(map[recordKey]*Artifact),
		current: make(map[string]*Artifact),
	}
}

// Swap installs a as the artifact for its (version, model) and as current
// for its model type in one step.
func (r *Registry) Swap(a *Artifact) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.byKey[recordKey{a.Version, a.Model}] = a
	r.current[a.Model] = a
}

// Get returns the artifact trained for a (version, model) pair.
func (r *Registry) Get(version, model string) (*Artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.byKey[recordKey{version, model}]
	return a, ok
}

// Current returns the most recently swapped artifact for a model type.
func (r *Registry) Current(model string) (*Artifact, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	a, ok := r.current[model]
	return a, ok
}

// Resolve returns the artifact for version, or the current one when version
// is empty.
func (r *Registry) Resolve(version, model string) (*Artifact, bool) {
	if version == "" {
		return r.Current(model)
	}
	return r.Get(version, model)
}

// Forecaster returns the forecast pipeline for version (current when empty).
// A missing artifact reports forecast.ErrNotTrained.
func (r *Registry) Forecaster(version string) (*forecast.Pipeline, error) {
	a, ok := r.Resolve(version, ModelForecast)
	if !ok || a.Forecast == nil {
		return nil, forecast.ErrNotTrained
	}
	return a.Forecast, nil
}

// Recommender returns the hybrid recommender for version (current when
// empty). A missing artifact reports recommend.ErrNotTrained.
func (r *Registry) Recommender(version string) (*recommend.Hybrid, error) {
	a, ok := r.Resolve(version, ModelRecommend)
	if !ok || a.Recommend == nil {
		return nil, recommend.ErrNotTrained
	}
	return a.Recommend, nil
}

// CurrentVersions returns the data version behind each current artifact.
func (r *Registry) CurrentVersions() map[string]string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make(map[string]string, len(r.current))
	for m, a := range r.current {
		out[m] = a.Version
	}
	return out
}
