// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package reranking

import (
	"reflect"
	"testing"
)

func TestNewMMR(t *testing.T) {
	tests := []struct {
		name       string
		lambda     float64
		wantLambda float64
	}{
		{"normal value", 0.7, 0.7},
		{"zero value", 0.0, 0.0},
		{"one value", 1.0, 1.0},
		{"negative clamped to zero", -0.5, 0.0},
		{"above one clamped to one", 1.5, 1.0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := NewMMR(tt.lambda).lambda; got != tt.wantLambda {
				t.Errorf("lambda = %f, want %f", got, tt.wantLambda)
			}
		})
	}
}

func TestMMR_Name(t *testing.T) {
	if got := NewMMR(0.7).Name(); got != "mmr" {
		t.Errorf("Name() = %q, want %q", got, "mmr")
	}
}

func ids(items []Candidate) []string {
	out := make([]string, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func TestMMR_Rerank(t *testing.T) {
	items := []Candidate{
		{ID: "P1", Score: 1.0, Category: "Dairy"},
		{ID: "P2", Score: 0.9, Category: "Dairy"},
		{ID: "P3", Score: 0.85, Category: "Bakery"},
		{ID: "P4", Score: 0.8, Category: "Dairy"},
		{ID: "P5", Score: 0.75, Category: "Produce"},
		{ID: "P6", Score: 0.7, Category: "Bakery"},
	}

	tests := []struct {
		name   string
		lambda float64
		k      int
		want   []string
	}{
		{"pure relevance", 1.0, 3, []string{"P1", "P2", "P3"}},
		{"balanced spreads categories", 0.5, 3, []string{"P1", "P3", "P5"}},
		{"pure diversity", 0.0, 3, []string{"P1", "P3", "P5"}},
		{"k larger than input", 0.5, 10, []string{"P1", "P3", "P5", "P2", "P4", "P6"}},
		{"zero k", 0.5, 0, []string{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ids(NewMMR(tt.lambda).Rerank(items, tt.k))
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Rerank() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestMMR_RerankKeepsScores(t *testing.T) {
	items := []Candidate{
		{ID: "A", Score: 4, Category: "x"},
		{ID: "B", Score: 3, Category: "x"},
		{ID: "C", Score: 2, Category: "y"},
	}
	got := NewMMR(0.3).Rerank(items, 2)
	if len(got) != 2 || got[1].ID != "C" || got[1].Score != 2 {
		t.Errorf("Rerank() = %+v, want A then C with original scores", got)
	}
}

func TestMMR_UncategorizedNotPenalized(t *testing.T) {
	items := []Candidate{
		{ID: "A", Score: 3},
		{ID: "B", Score: 2},
		{ID: "C", Score: 1, Category: "z"},
	}
	got := ids(NewMMR(0.5).Rerank(items, 3))
	want := []string{"A", "B", "C"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("Rerank() = %v, want %v", got, want)
	}
}

func TestMMR_EmptyInput(t *testing.T) {
	if got := NewMMR(0.5).Rerank(nil, 5); got != nil {
		t.Errorf("Rerank(nil) = %v, want nil", got)
	}
}
