// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"context"
	"fmt"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/recommend/algorithms"
)

// HybridState is the gob-encodable form of a fitted Hybrid. Nil sub-model
// states mark degraded models.
type HybridState struct {
	Config     Config
	CF         *algorithms.CFState
	Content    *algorithms.ContentState
	Popularity *algorithms.PopularityState
	History    map[string][]string
	Meta       map[string]ProductMeta
	Degraded   map[string]string
}

// Snapshot captures the fitted model.
func (h *Hybrid) Snapshot() (*HybridState, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.trained {
		return nil, ErrNotTrained
	}

	state := &HybridState{
		Config:     *h.config,
		Popularity: h.popular.Snapshot(),
		History:    h.history,
		Meta:       h.meta,
		Degraded:   h.degraded,
	}
	if h.cf != nil {
		state.CF = h.cf.Snapshot()
	}
	if h.content != nil {
		state.Content = h.content.Snapshot()
	}
	return state, nil
}

// Restore rebuilds a Hybrid from a snapshot. Similarity matrices are
// recomputed from the stored vectors.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func Restore(ctx context.Context, state *HybridState, logger zerolog.Logger) (*Hybrid, error) {
	if state == nil || state.Popularity == nil {
		return nil, fmt.Errorf("restore recommender: incomplete state")
	}
	cfg := state.Config
	h, err := NewHybrid(&cfg, logger)
	if err != nil {
		return nil, err
	}

	popular := algorithms.NewPopularity(cfg.PopularSize)
	if err := popular.Restore(state.Popularity); err != nil {
		return nil, fmt.Errorf("restore popularity: %w", err)
	}

	var cf *algorithms.UserBasedCF
	if state.CF != nil {
		cf = algorithms.NewUserBasedCF(algorithms.KNNConfig{K: cfg.Neighbors, NumWorkers: cfg.NumWorkers})
		if err := cf.Restore(ctx, state.CF); err != nil {
			return nil, fmt.Errorf("restore collaborative: %w", err)
		}
	}

	var content *algorithms.ContentBased
	if state.Content != nil {
		content = algorithms.NewContentBased(cfg.NumWorkers)
		if err := content.Restore(ctx, state.Content); err != nil {
			return nil, fmt.Errorf("restore content: %w", err)
		}
	}

	h.cf = cf
	h.content = content
	h.popular = popular
	h.history = state.History
	h.meta = state.Meta
	if h.history == nil {
		h.history = make(map[string][]string)
	}
	if h.meta == nil {
		h.meta = make(map[string]ProductMeta)
	}
	if state.Degraded != nil {
		h.degraded = state.Degraded
	}
	h.trained = true
	h.lastTrainedAt = h.now()
	return h, nil
}
