// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package table

import "testing"

func TestLeftJoin(t *testing.T) {
	items := MustFromRows("items", []string{"transaction_id", "product_id", "quantity"}, [][]interface{}{
		{"T1", "P1", 2},
		{"T2", "P2", 1},
		{"T3", "P1", 4},
		{nil, "P3", 1},
	})
	trans := MustFromRows("trans", []string{"transaction_id", "store_id", "quantity"}, [][]interface{}{
		{"T1", "S1", 9},
		{"T2", "S2", 9},
		{"T2", "S3", 9},
	})

	tests := []struct {
		name      string
		opts      JoinOptions
		wantRows  int
		wantCols  []string
		checkNull int
	}{
		{
			name:      "all matches kept",
			opts:      JoinOptions{Suffix: "_trans"},
			wantRows:  5,
			wantCols:  []string{"transaction_id", "product_id", "quantity", "store_id", "quantity_trans"},
			checkNull: 3,
		},
		{
			name:      "first match preserves row count",
			opts:      JoinOptions{Suffix: "_trans", FirstMatch: true},
			wantRows:  4,
			wantCols:  []string{"transaction_id", "product_id", "quantity", "store_id", "quantity_trans"},
			checkNull: 2,
		},
		{
			name:      "restricted columns",
			opts:      JoinOptions{Columns: []string{"store_id"}, FirstMatch: true},
			wantRows:  4,
			wantCols:  []string{"transaction_id", "product_id", "quantity", "store_id"},
			checkNull: 2,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := items.LeftJoin(trans, []string{"transaction_id"}, tt.opts)
			if err != nil {
				t.Fatalf("LeftJoin() error = %v", err)
			}
			if out.Len() != tt.wantRows {
				t.Errorf("Len() = %d, want %d", out.Len(), tt.wantRows)
			}
			got := out.ColumnNames()
			if len(got) != len(tt.wantCols) {
				t.Fatalf("ColumnNames() = %v, want %v", got, tt.wantCols)
			}
			for i := range got {
				if got[i] != tt.wantCols[i] {
					t.Errorf("ColumnNames()[%d] = %q, want %q", i, got[i], tt.wantCols[i])
				}
			}
			if !out.Column("store_id").IsNull(tt.checkNull) {
				t.Errorf("store_id[%d] should be null for unmatched row", tt.checkNull)
			}
			if s, _ := out.Column("store_id").StringAt(0); s != "S1" {
				t.Errorf("store_id[0] = %q, want S1", s)
			}
		})
	}
}

func TestLeftJoin_MissingKey(t *testing.T) {
	a := MustFromRows("a", []string{"k"}, [][]interface{}{{"x"}})
	b := MustFromRows("b", []string{"other"}, [][]interface{}{{"x"}})
	if _, err := a.LeftJoin(b, []string{"k"}, JoinOptions{}); err == nil {
		t.Error("LeftJoin() should fail when right side lacks the key")
	}
	if _, err := a.LeftJoin(b, nil, JoinOptions{}); err == nil {
		t.Error("LeftJoin() should fail without keys")
	}
}

func TestLeftJoin_TimeKeys(t *testing.T) {
	left := MustFromRows("l", []string{"date", "v"}, [][]interface{}{
		{day("2024-01-01"), 1},
		{day("2024-01-02"), 2},
	})
	right := MustFromRows("r", []string{"date", "temp"}, [][]interface{}{
		{day("2024-01-02"), 20.5},
	})
	out, err := left.LeftJoin(right, []string{"date"}, JoinOptions{FirstMatch: true})
	if err != nil {
		t.Fatalf("LeftJoin() error = %v", err)
	}
	if !out.Column("temp").IsNull(0) {
		t.Error("temp[0] should be null")
	}
	if v, ok := out.Column("temp").FloatAt(1); !ok || v != 20.5 {
		t.Errorf("temp[1] = %v, %v, want 20.5", v, ok)
	}
}
