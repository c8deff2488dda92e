// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package algorithms

import (
	"context"

	"github.com/tomtom215/shelfcast/internal/table"
)

// Popularity ranks products by total interaction strength. It serves cold
// start customers and pads personalized lists.
//
//	score(product) = sum(purchase_count) over all customers
//
// Store-scoped rankings are kept when store popularity rows are provided.
type Popularity struct {
	BaseAlgorithm
	maxItems int

	ranked  []Scored
	byStore map[string][]Scored
}

// PopularityState is the serializable form of a trained Popularity model.
type PopularityState struct {
	Ranked  []Scored
	ByStore map[string][]Scored
}

// NewPopularity creates a popularity ranking that keeps maxItems products.
func NewPopularity(maxItems int) *Popularity {
	if maxItems <= 0 {
		maxItems = 50
	}
	return &Popularity{
		BaseAlgorithm: NewBaseAlgorithm("popularity"),
		maxItems:      maxItems,
		byStore:       make(map[string][]Scored),
	}
}

// Train ranks products from the interaction table and, when non-nil, the
// per-store popularity table.
func (p *Popularity) Train(ctx context.Context, interactions, stores *table.Table) error {
	if !interactions.Has(colProductID) {
		return &InsufficientDataError{Model: p.name, Reason: "product_id is required"}
	}
	ranked, err := rankProducts(ctx, interactions, p.maxItems)
	if err != nil {
		return err
	}

	byStore := make(map[string][]Scored)
	if stores != nil && stores.HasAll(colStoreID, colProductID) {
		groups, err := stores.Groups(colStoreID)
		if err != nil {
			return err
		}
		for _, g := range groups {
			if ContextCancelled(ctx) {
				return ctx.Err()
			}
			storeRows := stores.Take(g.Rows)
			r, err := rankProducts(ctx, storeRows, -1)
			if err != nil {
				return err
			}
			byStore[g.Key[0]] = r
		}
	}

	p.acquireTrainLock()
	defer p.releaseTrainLock()
	p.ranked = ranked
	p.byStore = byStore
	p.markTrained()
	return nil
}

// rankProducts sums the score column per product in first-appearance order
// and stably sorts descending. k < 0 keeps every product.
func rankProducts(ctx context.Context, t *table.Table, k int) ([]Scored, error) {
	groups, err := t.Groups(colProductID)
	if err != nil {
		return nil, err
	}
	score := t.Column(scoreColumn(t))
	out := make([]Scored, len(groups))
	for i, g := range groups {
		if i%1024 == 0 && ContextCancelled(ctx) {
			return nil, ctx.Err()
		}
		out[i].ID = g.Key[0]
		if score == nil {
			continue
		}
		for _, r := range g.Rows {
			if v, ok := score.FloatAt(r); ok {
				out[i].Score += v
			}
		}
	}
	return topN(out, k), nil
}

// TopK returns up to k of the most popular products.
func (p *Popularity) TopK(k int) []Scored {
	p.acquirePredictLock()
	defer p.releasePredictLock()
	return head(p.ranked, k)
}

// TopKForStore returns up to k of the store's most popular products. The
// boolean is false when the store has no popularity data.
func (p *Popularity) TopKForStore(storeID string, k int) ([]Scored, bool) {
	p.acquirePredictLock()
	defer p.releasePredictLock()
	r, ok := p.byStore[storeID]
	if !ok || len(r) == 0 {
		return nil, false
	}
	return head(r, k), true
}

func head(s []Scored, k int) []Scored {
	if k <= 0 {
		return nil
	}
	if k > len(s) {
		k = len(s)
	}
	return append([]Scored(nil), s[:k]...)
}

// Snapshot returns the trained rankings.
func (p *Popularity) Snapshot() *PopularityState {
	p.acquirePredictLock()
	defer p.releasePredictLock()
	if !p.trained {
		return nil
	}
	return &PopularityState{Ranked: p.ranked, ByStore: p.byStore}
}

// Restore loads rankings from a snapshot.
func (p *Popularity) Restore(state *PopularityState) error {
	if state == nil {
		return &InsufficientDataError{Model: p.name, Reason: "invalid snapshot"}
	}
	p.acquireTrainLock()
	defer p.releaseTrainLock()
	p.ranked = state.Ranked
	p.byStore = state.ByStore
	if p.byStore == nil {
		p.byStore = make(map[string][]Scored)
	}
	p.markTrained()
	return nil
}
