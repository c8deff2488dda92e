// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/table"
)

func newTestHybrid(t *testing.T, mutate func(*Config)) *Hybrid {
	t.Helper()
	cfg := DefaultConfig()
	if mutate != nil {
		mutate(cfg)
	}
	h, err := NewHybrid(cfg, zerolog.Nop())
	if err != nil {
		t.Fatalf("NewHybrid() error = %v", err)
	}
	return h
}

func fitInput() FitInput {
	base := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	interactions := table.MustFromRows("interactions",
		[]string{"customer_id", "product_id", "purchase_count", "last_purchased"},
		[][]interface{}{
			{"C1", "P1", 3, base},
			{"C1", "P2", 1, base.AddDate(0, 0, 2)},
			{"C2", "P1", 2, base},
			{"C2", "P2", 1, base},
			{"C2", "P3", 4, base},
			{"C3", "P4", 5, base},
		})
	stores := table.MustFromRows("store_popularity",
		[]string{"store_id", "product_id", "purchase_count"},
		[][]interface{}{
			{"S1", "P4", 1},
			{"S1", "P2", 7},
		})
	products := table.MustFromRows("product",
		[]string{"product_id", "product_name", "category_level1", "price_range", "retail_price_jpy"},
		[][]interface{}{
			{"P1", "Rice crackers", "snacks", "100-300", 180},
			{"P2", "Potato chips", "snacks", "100-300", 150},
			{"P3", "Green tea", "drinks", "100-300", 130},
			{"P4", "Sake", "drinks", "1000+", 1800},
		})
	return FitInput{Interactions: interactions, StorePopularity: stores, Products: products}
}

func TestHybrid_NotTrained(t *testing.T) {
	h := newTestHybrid(t, nil)
	if _, err := h.Recommend("C1", 5, 0); !errors.Is(err, ErrNotTrained) {
		t.Errorf("Recommend() error = %v, want ErrNotTrained", err)
	}
	if _, err := h.RecommendPopular(5, ""); !errors.Is(err, ErrNotTrained) {
		t.Errorf("RecommendPopular() error = %v, want ErrNotTrained", err)
	}
	if _, err := h.Snapshot(); !errors.Is(err, ErrNotTrained) {
		t.Errorf("Snapshot() error = %v, want ErrNotTrained", err)
	}
}

func TestHybrid_InvalidTopK(t *testing.T) {
	h := newTestHybrid(t, nil)
	if _, err := h.Fit(context.Background(), fitInput()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	for _, k := range []int{0, -3} {
		var ire *InvalidRequestError
		if _, err := h.Recommend("C1", k, 0); !errors.As(err, &ire) {
			t.Errorf("Recommend(top_k=%d) error = %v, want *InvalidRequestError", k, err)
		}
		if _, err := h.RecommendPopular(k, ""); !errors.As(err, &ire) {
			t.Errorf("RecommendPopular(top_k=%d) error = %v, want *InvalidRequestError", k, err)
		}
	}
}

func TestHybrid_Recommend(t *testing.T) {
	h := newTestHybrid(t, nil)
	summary, err := h.Fit(context.Background(), fitInput())
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if summary.Customers != 3 || summary.Products != 4 {
		t.Errorf("Summary = %+v, want 3 customers and 4 products", summary)
	}
	if len(h.Degraded()) != 0 {
		t.Errorf("Degraded() = %v, want none", h.Degraded())
	}

	tests := []struct {
		name     string
		customer string
		topK     int
		wantLen  int
	}{
		{"known customer", "C1", 3, 3},
		{"known customer single", "C2", 1, 1},
		{"unknown customer padded", "nobody", 2, 2},
		{"more than catalog", "C1", 20, 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := h.Recommend(tt.customer, tt.topK, 0.1)
			if err != nil {
				t.Fatalf("Recommend() error = %v", err)
			}
			if len(items) != tt.wantLen {
				t.Errorf("len(items) = %d, want %d", len(items), tt.wantLen)
			}
			seen := make(map[string]bool)
			for i, it := range items {
				if seen[it.ProductID] {
					t.Errorf("duplicate product %s", it.ProductID)
				}
				seen[it.ProductID] = true
				if i > 0 && it.Score > items[i-1].Score {
					t.Errorf("scores not non-increasing at %d: %v > %v", i, it.Score, items[i-1].Score)
				}
			}
		})
	}
}

func TestHybrid_Recommend_UnknownCustomerGetsPadding(t *testing.T) {
	h := newTestHybrid(t, nil)
	if _, err := h.Fit(context.Background(), fitInput()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	items, err := h.Recommend("nobody", 3, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	// P1 5, P4 5, P3 4 by summed purchase_count.
	want := []string{"P1", "P4", "P3"}
	for i, it := range items {
		if it.ProductID != want[i] {
			t.Errorf("items[%d] = %s, want %s", i, it.ProductID, want[i])
		}
		if it.Score != 0.5 {
			t.Errorf("items[%d].Score = %v, want 0.5", i, it.Score)
		}
	}
}

func TestHybrid_Recommend_ContentWeighting(t *testing.T) {
	// C1 bought every product C2 did, so collaborative scores are empty and
	// only content neighbours of P1 and P2 contribute.
	in := FitInput{
		Interactions: table.MustFromRows("interactions",
			[]string{"customer_id", "product_id", "quantity"},
			[][]interface{}{
				{"C1", "P1", 2},
				{"C1", "P2", 1},
				{"C2", "P1", 5},
			}),
		Products: table.MustFromRows("product",
			[]string{"product_id", "category_level1"},
			[][]interface{}{
				{"P1", "a"},
				{"P2", "a"},
				{"P3", "b"},
			}),
	}
	h := newTestHybrid(t, nil)
	if _, err := h.Fit(context.Background(), in); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	items, err := h.Recommend("C1", 2, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	want := []string{"P2", "P1"}
	for i, it := range items {
		if it.ProductID != want[i] {
			t.Errorf("items[%d] = %s, want %s", i, it.ProductID, want[i])
		}
		if math.Abs(it.Score-0.4) > 1e-12 {
			t.Errorf("items[%d].Score = %v, want 0.4", i, it.Score)
		}
	}
}

func TestHybrid_Recommend_CollaborativeWeighting(t *testing.T) {
	h := newTestHybrid(t, func(c *Config) { c.ContentWeight = 0 })
	if _, err := h.Fit(context.Background(), fitInput()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	items, err := h.Recommend("C1", 1, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	// C1=[3,1,0,0], C2=[2,1,4,0]: only C2 contributes, scoring P3.
	sim := 7 / (math.Sqrt(10) * math.Sqrt(21))
	if len(items) != 1 || items[0].ProductID != "P3" {
		t.Fatalf("items = %+v, want [P3]", items)
	}
	if math.Abs(items[0].Score-0.6*sim*4) > 1e-9 {
		t.Errorf("Score = %v, want %v", items[0].Score, 0.6*sim*4)
	}
}

func TestHybrid_Metadata(t *testing.T) {
	h := newTestHybrid(t, nil)
	if _, err := h.Fit(context.Background(), fitInput()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	items, err := h.RecommendPopular(1, "")
	if err != nil {
		t.Fatalf("RecommendPopular() error = %v", err)
	}
	it := items[0]
	if it.ProductID != "P1" || it.Name != "Rice crackers" || it.Category != "snacks" {
		t.Errorf("item = %+v, want P1 Rice crackers snacks", it)
	}
	if it.Price == nil || *it.Price != 180 {
		t.Errorf("Price = %v, want 180", it.Price)
	}
}

func TestHybrid_RecommendPopular(t *testing.T) {
	h := newTestHybrid(t, nil)
	if _, err := h.Fit(context.Background(), fitInput()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	tests := []struct {
		name  string
		store string
		topK  int
		want  []string
	}{
		{"global", "", 2, []string{"P1", "P4"}},
		{"store scoped", "S1", 2, []string{"P2", "P4"}},
		{"unknown store falls back", "S9", 1, []string{"P1"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			items, err := h.RecommendPopular(tt.topK, tt.store)
			if err != nil {
				t.Fatalf("RecommendPopular() error = %v", err)
			}
			if len(items) != len(tt.want) {
				t.Fatalf("len(items) = %d, want %d", len(items), len(tt.want))
			}
			for i, it := range items {
				if it.ProductID != tt.want[i] {
					t.Errorf("items[%d] = %s, want %s", i, it.ProductID, tt.want[i])
				}
				if it.Score != 1.0 {
					t.Errorf("items[%d].Score = %v, want 1.0", i, it.Score)
				}
			}
		})
	}
}

func TestHybrid_Fit_Degraded(t *testing.T) {
	in := fitInput()
	in.Products = nil
	h := newTestHybrid(t, nil)
	summary, err := h.Fit(context.Background(), in)
	if err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	if _, ok := summary.Degraded[ModelContent]; !ok {
		t.Errorf("Summary.Degraded = %v, want content entry", summary.Degraded)
	}
	if _, err := h.Recommend("C1", 3, 0); err != nil {
		t.Errorf("Recommend() on degraded model error = %v", err)
	}

	in = fitInput()
	in.Interactions = table.MustFromRows("interactions",
		[]string{"product_id", "quantity"}, [][]interface{}{{"P1", 1}})
	if _, err := h.Fit(context.Background(), in); err != nil {
		t.Fatalf("Fit() without customers error = %v", err)
	}
	if _, ok := h.Degraded()[ModelCollaborative]; !ok {
		t.Errorf("Degraded() = %v, want collaborative entry", h.Degraded())
	}
}

func TestHybrid_Fit_Errors(t *testing.T) {
	h := newTestHybrid(t, nil)
	in := fitInput()
	in.Interactions = table.MustFromRows("interactions",
		[]string{"customer_id", "quantity"}, [][]interface{}{{"C1", 1}})
	var ide *InsufficientDataError
	if _, err := h.Fit(context.Background(), in); !errors.As(err, &ide) {
		t.Errorf("Fit() error = %v, want *InsufficientDataError", err)
	}
	if _, err := h.Fit(context.Background(), FitInput{}); !errors.As(err, &ide) {
		t.Errorf("Fit(empty) error = %v, want *InsufficientDataError", err)
	}
	if h.IsTrained() {
		t.Error("IsTrained() = true after failed Fit")
	}
}

func TestHybrid_Cache(t *testing.T) {
	h := newTestHybrid(t, nil)
	if _, err := h.Fit(context.Background(), fitInput()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	first, _ := h.Recommend("C1", 3, 0)
	second, _ := h.Recommend("C1", 3, 0)
	hits, misses := h.CacheStats()
	if hits != 1 || misses != 1 {
		t.Errorf("CacheStats() = (%d, %d), want (1, 1)", hits, misses)
	}
	second[0].Score = -1
	third, _ := h.Recommend("C1", 3, 0)
	if third[0].Score != first[0].Score {
		t.Error("cached list was mutated through a returned slice")
	}

	if _, err := h.Fit(context.Background(), fitInput()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	_, _ = h.Recommend("C1", 3, 0)
	if _, misses := h.CacheStats(); misses != 2 {
		t.Errorf("misses after refit = %d, want 2", misses)
	}
}

func TestHybrid_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	h := newTestHybrid(t, nil)
	if _, err := h.Fit(ctx, fitInput()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}
	state, err := h.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}

	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		t.Fatalf("gob encode: %v", err)
	}
	var decoded HybridState
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("gob decode: %v", err)
	}

	restored, err := Restore(ctx, &decoded, zerolog.Nop())
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	for _, customer := range []string{"C1", "C2", "C3", "nobody"} {
		a, _ := h.Recommend(customer, 4, 0)
		b, _ := restored.Recommend(customer, 4, 0)
		if len(a) != len(b) {
			t.Fatalf("%s: len = %d, want %d", customer, len(b), len(a))
		}
		for i := range a {
			if a[i].ProductID != b[i].ProductID || math.Abs(a[i].Score-b[i].Score) > 1e-12 {
				t.Errorf("%s item %d = %+v, want %+v", customer, i, b[i], a[i])
			}
		}
	}

	if _, err := Restore(ctx, nil, zerolog.Nop()); err == nil {
		t.Error("Restore(nil) should fail")
	}
}

func TestHybrid_Diversity(t *testing.T) {
	h := newTestHybrid(t, func(c *Config) {
		c.DiversityLambda = 0
		c.CacheTTL = 0
	})
	if _, err := h.Fit(context.Background(), fitInput()); err != nil {
		t.Fatalf("Fit() error = %v", err)
	}

	items, err := h.Recommend("C1", 2, 0)
	if err != nil {
		t.Fatalf("Recommend() error = %v", err)
	}
	if len(items) != 2 {
		t.Fatalf("len(items) = %d, want 2", len(items))
	}
	if items[0].Category == items[1].Category {
		t.Errorf("categories = %q, %q; want distinct categories", items[0].Category, items[1].Category)
	}
}
