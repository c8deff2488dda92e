// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/cache"
	"github.com/tomtom215/shelfcast/internal/features"
	"github.com/tomtom215/shelfcast/internal/recommend/algorithms"
	"github.com/tomtom215/shelfcast/internal/recommend/reranking"
	"github.com/tomtom215/shelfcast/internal/table"
)

// Product master columns attached to recommended items.
const (
	colProductName = "product_name"
	colCategory    = "category_level1"
)

// Sub-model names reported by Degraded.
const (
	ModelCollaborative = "collaborative"
	ModelContent       = "content"
)

// Hybrid combines collaborative filtering, content similarity and popularity
// into a single ranked list. It is safe for concurrent use.
type Hybrid struct {
	config *Config
	logger zerolog.Logger

	// Model state, replaced wholesale by Fit and Restore.
	mu            sync.RWMutex
	cf            *algorithms.UserBasedCF
	content       *algorithms.ContentBased
	popular       *algorithms.Popularity
	history       map[string][]string
	meta          map[string]ProductMeta
	degraded      map[string]string
	trained       bool
	lastTrainedAt time.Time

	// lists is nil when caching is disabled.
	lists       *cache.LRU[[]Item]
	cacheHits   atomic.Int64
	cacheMisses atomic.Int64

	now func() time.Time
}

// NewHybrid creates an untrained hybrid recommender.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewHybrid(cfg *Config, logger zerolog.Logger) (*Hybrid, error) {
	if cfg == nil {
		cfg = DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	h := &Hybrid{
		config:   cfg,
		logger:   logger.With().Str("component", "recommend").Logger(),
		degraded: make(map[string]string),
		now:      time.Now,
	}
	if cfg.CacheTTL > 0 {
		h.lists = cache.NewLRU[[]Item](cfg.CacheMaxEntries, cfg.CacheTTL)
	}
	return h, nil
}

// Fit trains every sub-model. Collaborative and content failures are logged
// and reported by Degraded; Fit fails only when the interactions cannot
// produce a popularity ranking.
func (h *Hybrid) Fit(ctx context.Context, in FitInput) (Summary, error) {
	if in.Interactions == nil {
		return Summary{}, &InsufficientDataError{Model: "hybrid", Reason: "interactions are required"}
	}
	start := h.now()
	h.logger.Info().
		Int("interactions", in.Interactions.Len()).
		Msg("training hybrid recommender")

	popular := algorithms.NewPopularity(h.config.PopularSize)
	if err := popular.Train(ctx, in.Interactions, in.StorePopularity); err != nil {
		return Summary{}, fmt.Errorf("popularity: %w", err)
	}

	degraded := make(map[string]string)

	cf := algorithms.NewUserBasedCF(algorithms.KNNConfig{
		K:          h.config.Neighbors,
		NumWorkers: h.config.NumWorkers,
	})
	if err := cf.Train(ctx, in.Interactions); err != nil {
		if ctx.Err() != nil {
			return Summary{}, ctx.Err()
		}
		h.logger.Error().Err(err).Str("model", ModelCollaborative).Msg("sub-model training failed")
		degraded[ModelCollaborative] = err.Error()
		cf = nil
	}

	content := algorithms.NewContentBased(h.config.NumWorkers)
	switch {
	case in.Products == nil:
		degraded[ModelContent] = "product table is missing"
		content = nil
	default:
		if err := content.Train(ctx, in.Products); err != nil {
			if ctx.Err() != nil {
				return Summary{}, ctx.Err()
			}
			h.logger.Error().Err(err).Str("model", ModelContent).Msg("sub-model training failed")
			degraded[ModelContent] = err.Error()
			content = nil
		}
	}

	history := purchaseHistory(in.Interactions, h.config.HistoryLimit)
	meta := productMeta(in.Products)

	h.mu.Lock()
	h.cf = cf
	h.content = content
	h.popular = popular
	h.history = history
	h.meta = meta
	h.degraded = degraded
	h.trained = true
	h.lastTrainedAt = h.now()
	h.mu.Unlock()
	h.clearCache()

	summary := h.Summary()
	h.logger.Info().
		Int("customers", summary.Customers).
		Int("products", summary.Products).
		Int("degraded", len(degraded)).
		Dur("duration", h.now().Sub(start)).
		Msg("hybrid recommender trained")
	return summary, nil
}

// purchaseHistory returns each customer's most recently purchased distinct
// products, newest first. Without last_purchased, table order is kept.
func purchaseHistory(t *table.Table, limit int) map[string][]string {
	out := make(map[string][]string)
	if !t.HasAll(features.ColCustomerID, features.ColProductID) || limit == 0 {
		return out
	}
	groups, err := t.Groups(features.ColCustomerID)
	if err != nil {
		return out
	}
	products := t.Column(features.ColProductID)
	last := t.Column(features.ColLastPurchased)

	for _, g := range groups {
		rows := append([]int(nil), g.Rows...)
		if last != nil {
			sort.SliceStable(rows, func(a, b int) bool {
				ta, okA := last.TimeAt(rows[a])
				tb, okB := last.TimeAt(rows[b])
				if okA != okB {
					return okA
				}
				return ta.After(tb)
			})
		}
		seen := make(map[string]struct{})
		var recent []string
		for _, r := range rows {
			id, ok := products.StringAt(r)
			if !ok {
				continue
			}
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			recent = append(recent, id)
			if len(recent) == limit {
				break
			}
		}
		out[g.Key[0]] = recent
	}
	return out
}

// productMeta indexes display metadata by product, keeping the first row.
func productMeta(t *table.Table) map[string]ProductMeta {
	out := make(map[string]ProductMeta)
	if t == nil || !t.Has(features.ColProductID) {
		return out
	}
	ids := t.Column(features.ColProductID)
	names := t.Column(colProductName)
	cats := t.Column(colCategory)
	prices := t.Column(features.ColRetailPrice)
	for i := 0; i < t.Len(); i++ {
		id, ok := ids.StringAt(i)
		if !ok {
			continue
		}
		if _, dup := out[id]; dup {
			continue
		}
		var m ProductMeta
		if names != nil {
			m.Name, _ = names.StringAt(i)
		}
		if cats != nil {
			m.Category, _ = cats.StringAt(i)
		}
		if prices != nil {
			m.Price, m.HasPrice = prices.FloatAt(i)
		}
		out[id] = m
	}
	return out
}

// Recommend returns up to topK products for a customer.
//
// Known customers receive neighbour scores weighted by CFWeight. Products
// similar to the customer's recent purchases add ContentWeight-scaled
// similarity. Short lists are padded with popular products at PadScore.
// diversityBoost is accepted for API compatibility and currently unused.
func (h *Hybrid) Recommend(customerID string, topK int, diversityBoost float64) ([]Item, error) {
	_ = diversityBoost
	if topK < 1 {
		return nil, &InvalidRequestError{Field: "top_k", Reason: "must be at least 1"}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.trained {
		return nil, ErrNotTrained
	}

	key := fmt.Sprintf("rec:%s:%d", customerID, topK)
	if items := h.checkCache(key); items != nil {
		h.cacheHits.Add(1)
		return items, nil
	}
	h.cacheMisses.Add(1)

	scores := make(map[string]float64)
	var order []string
	add := func(id string, s float64) {
		if _, ok := scores[id]; !ok {
			order = append(order, id)
		}
		scores[id] += s
	}

	if h.cf != nil && h.cf.Knows(customerID) {
		for _, s := range h.cf.Recommend(customerID, topK*2) {
			add(s.ID, s.Score*h.config.CFWeight)
		}
	}

	if h.content != nil {
		for _, pid := range h.history[customerID] {
			for _, s := range h.content.Similar(pid, topK) {
				add(s.ID, s.Score*h.config.ContentWeight)
			}
		}
	}

	if len(order) < topK {
		for _, s := range h.popular.TopK(topK) {
			if _, ok := scores[s.ID]; !ok {
				add(s.ID, h.config.PadScore)
			}
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return scores[order[i]] > scores[order[j]]
	})
	items := h.rank(order, scores, topK)

	h.storeCache(key, items)
	h.logger.Debug().
		Str("customer_id", customerID).
		Int("returned", len(items)).
		Msg("recommendation complete")
	return items, nil
}

// RecommendPopular returns up to topK best sellers, store scoped when the
// store has popularity data. Every item scores 1.0.
func (h *Hybrid) RecommendPopular(topK int, storeID string) ([]Item, error) {
	if topK < 1 {
		return nil, &InvalidRequestError{Field: "top_k", Reason: "must be at least 1"}
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	if !h.trained {
		return nil, ErrNotTrained
	}

	var ranked []algorithms.Scored
	if storeID != "" {
		ranked, _ = h.popular.TopKForStore(storeID, topK)
	}
	if ranked == nil {
		ranked = h.popular.TopK(topK)
	}

	items := make([]Item, len(ranked))
	for i, s := range ranked {
		items[i] = h.item(s.ID, 1.0)
	}
	return items, nil
}

// item attaches product metadata. Must be called with mu held.
func (h *Hybrid) item(id string, score float64) Item {
	it := Item{ProductID: id, Score: score}
	if m, ok := h.meta[id]; ok {
		it.Name = m.Name
		it.Category = m.Category
		if m.HasPrice {
			p := m.Price
			it.Price = &p
		}
	}
	return it
}

// rank cuts the sorted candidates to topK items. With diversity enabled,
// up to 2*topK candidates are reranked by MMR over product category.
func (h *Hybrid) rank(order []string, scores map[string]float64, topK int) []Item {
	if h.config.DiversityLambda >= 1 {
		if len(order) > topK {
			order = order[:topK]
		}
		items := make([]Item, len(order))
		for i, id := range order {
			items[i] = h.item(id, scores[id])
		}
		return items
	}

	if len(order) > 2*topK {
		order = order[:2*topK]
	}
	cands := make([]reranking.Candidate, len(order))
	for i, id := range order {
		cands[i] = reranking.Candidate{ID: id, Score: scores[id], Category: h.meta[id].Category}
	}
	picked := reranking.NewMMR(h.config.DiversityLambda).Rerank(cands, topK)
	items := make([]Item, len(picked))
	for i, c := range picked {
		items[i] = h.item(c.ID, c.Score)
	}
	return items
}

// IsTrained reports whether Fit or Restore has succeeded.
func (h *Hybrid) IsTrained() bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.trained
}

// LastTrainedAt returns when the model was last fitted or restored.
func (h *Hybrid) LastTrainedAt() time.Time {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.lastTrainedAt
}

// Degraded returns the sub-models that failed to train, with their errors.
func (h *Hybrid) Degraded() map[string]string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	out := make(map[string]string, len(h.degraded))
	for k, v := range h.degraded {
		out[k] = v
	}
	return out
}

// Summary describes the fitted model.
func (h *Hybrid) Summary() Summary {
	h.mu.RLock()
	defer h.mu.RUnlock()
	s := Summary{
		Customers: len(h.history),
		Products:  len(h.meta),
	}
	if h.popular != nil {
		s.Popular = len(h.popular.TopK(h.config.PopularSize))
	}
	if len(h.degraded) > 0 {
		s.Degraded = make(map[string]string, len(h.degraded))
		for k, v := range h.degraded {
			s.Degraded[k] = v
		}
	}
	return s
}

// CacheStats returns cache hit and miss counts.
func (h *Hybrid) CacheStats() (hits, misses int64) {
	return h.cacheHits.Load(), h.cacheMisses.Load()
}

// checkCache returns a copy of a live cached list, or nil.
func (h *Hybrid) checkCache(key string) []Item {
	if h.lists == nil {
		return nil
	}
	items, ok := h.lists.Get(key)
	if !ok {
		return nil
	}
	return append([]Item(nil), items...)
}

// storeCache stores a copy of a list.
func (h *Hybrid) storeCache(key string, items []Item) {
	if h.lists == nil {
		return
	}
	h.lists.Add(key, append([]Item(nil), items...))
}

// clearCache removes all cached entries.
func (h *Hybrid) clearCache() {
	if h.lists == nil {
		return
	}
	h.lists.Clear()
	h.logger.Debug().Msg("cache cleared")
}
