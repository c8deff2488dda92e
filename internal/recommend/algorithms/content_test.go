// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package algorithms

import (
	"context"
	"errors"
	"math"
	"testing"

	"github.com/tomtom215/shelfcast/internal/table"
)

func productFixture() *table.Table {
	return table.MustFromRows("products",
		[]string{"product_id", "category_level1", "price_range", "retail_price_jpy"},
		[][]interface{}{
			{"P1", "snacks", "100-300", 150},
			{"P2", "snacks", "100-300", 180},
			{"P3", "drinks", "1000+", 1200},
			{"P4", "drinks", "100-300", 200},
			{"P1", "drinks", "1000+", 9999}, // duplicate, ignored
		})
}

func TestContentBased_Train_Errors(t *testing.T) {
	tests := []struct {
		name string
		data *table.Table
	}{
		{"missing product_id", table.MustFromRows("p", []string{"category_level1"}, [][]interface{}{{"a"}})},
		{"no category columns", table.MustFromRows("p", []string{"product_id", "retail_price_jpy"}, [][]interface{}{{"P1", 1}})},
		{"no products", table.MustFromRows("p", []string{"product_id", "Category"}, [][]interface{}{{nil, "a"}})},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := NewContentBased(2).Train(context.Background(), tt.data)
			var ide *InsufficientDataError
			if !errors.As(err, &ide) {
				t.Errorf("Train() error = %v, want *InsufficientDataError", err)
			}
		})
	}
}

func TestContentBased_Similar(t *testing.T) {
	c := NewContentBased(2)
	if got := c.Similar("P1", 3); got != nil {
		t.Errorf("Similar() before Train = %v, want nil", got)
	}
	if err := c.Train(context.Background(), productFixture()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	got := c.Similar("P1", 3)
	if len(got) != 3 {
		t.Fatalf("len(Similar) = %d, want 3", len(got))
	}
	if got[0].ID != "P2" {
		t.Errorf("most similar to P1 = %s, want P2", got[0].ID)
	}
	for _, s := range got {
		if s.ID == "P1" {
			t.Error("Similar() should exclude the query product")
		}
	}
	for i := 1; i < len(got); i++ {
		if got[i].Score > got[i-1].Score {
			t.Errorf("scores not descending: %v", got)
		}
	}

	if got := c.Similar("P9", 3); got != nil {
		t.Errorf("Similar(unknown) = %v, want nil", got)
	}
	if got := c.Similar("P1", 1); len(got) != 1 {
		t.Errorf("len(Similar(k=1)) = %d, want 1", len(got))
	}
}

func TestNormalizePrices(t *testing.T) {
	tests := []struct {
		name  string
		vals  []interface{}
		check func(t *testing.T, out []float64)
	}{
		{
			name: "standardized with sample std",
			vals: []interface{}{1, 2, 3},
			check: func(t *testing.T, out []float64) {
				want := []float64{-1, 0, 1}
				for i := range want {
					if math.Abs(out[i]-want[i]) > 1e-12 {
						t.Errorf("out[%d] = %v, want %v", i, out[i], want[i])
					}
				}
			},
		},
		{
			name: "zero deviation",
			vals: []interface{}{5, 5},
			check: func(t *testing.T, out []float64) {
				if out[0] != 0 || out[1] != 0 {
					t.Errorf("out = %v, want zeros", out)
				}
			},
		},
		{
			name: "null maps to zero",
			vals: []interface{}{1, nil, 3},
			check: func(t *testing.T, out []float64) {
				if out[1] != 0 {
					t.Errorf("out[1] = %v, want 0", out[1])
				}
				if out[0] >= 0 || out[2] <= 0 {
					t.Errorf("out = %v, want negative then positive", out)
				}
			},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rows := make([][]interface{}, len(tt.vals))
			idx := make([]int, len(tt.vals))
			for i, v := range tt.vals {
				rows[i] = []interface{}{v}
				idx[i] = i
			}
			tbl := table.MustFromRows("p", []string{"retail_price_jpy"}, rows)
			tt.check(t, normalizePrices(tbl.Column("retail_price_jpy"), idx))
		})
	}
}

func TestContentBased_SnapshotRestore(t *testing.T) {
	ctx := context.Background()
	c := NewContentBased(2)
	if err := c.Train(ctx, productFixture()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	restored := NewContentBased(2)
	if err := restored.Restore(ctx, c.Snapshot()); err != nil {
		t.Fatalf("Restore() error = %v", err)
	}
	a, b := c.Similar("P3", 3), restored.Similar("P3", 3)
	if len(a) != len(b) {
		t.Fatalf("len = %d, want %d", len(b), len(a))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("item %d = %v, want %v", i, b[i], a[i])
		}
	}
	if err := restored.Restore(ctx, &ContentState{ProductIDs: []string{"x"}}); err == nil {
		t.Error("Restore() with mismatched vectors should fail")
	}
}
