// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package reranking

import (
	"math"
	"strings"
)

// maxRerankSize bounds the similarity matrix.
const maxRerankSize = 10000

// Candidate is a scored product offered to a reranker.
type Candidate struct {
	ID       string
	Score    float64
	Category string
}

// MMR implements Maximal Marginal Relevance reranking. Each step picks
//
//	argmax[lambda * rel(i) - (1-lambda) * max(sim(i, s)) for s in selected]
//
// where rel is the score scaled by the largest absolute score and sim is 1
// for two products of the same category, else 0.
//
// Reference:
// Carbonell, J., & Goldstein, J. (1998). "The Use of MMR, Diversity-Based
// Reranking for Reordering Documents and Producing Summaries." SIGIR 1998.
type MMR struct {
	// lambda balances relevance (1.0) against diversity (0.0).
	lambda float64
}

// NewMMR creates a reranker, clamping lambda to [0, 1].
func NewMMR(lambda float64) *MMR {
	if lambda < 0 {
		lambda = 0
	}
	if lambda > 1 {
		lambda = 1
	}
	return &MMR{lambda: lambda}
}

// Name returns the reranker identifier.
func (m *MMR) Name() string {
	return "mmr"
}

// Rerank returns up to k candidates in MMR order. The input must be sorted
// by descending score; ties in MMR value keep input order. Scores are left
// unchanged.
func (m *MMR) Rerank(items []Candidate, k int) []Candidate {
	if len(items) == 0 || k <= 0 {
		return nil
	}
	if k > maxRerankSize {
		k = maxRerankSize
	}
	if k > len(items) {
		k = len(items)
	}
	if m.lambda >= 1.0 {
		return append([]Candidate(nil), items[:k]...)
	}

	scale := 0.0
	for _, it := range items {
		scale = math.Max(scale, math.Abs(it.Score))
	}
	if scale == 0 {
		scale = 1
	}

	selected := make([]Candidate, 0, k)
	taken := make([]bool, len(items))
	for len(selected) < k {
		bestIdx := -1
		bestMMR := math.Inf(-1)
		for i, it := range items {
			if taken[i] {
				continue
			}
			maxSim := 0.0
			for _, s := range selected {
				if sameCategory(it.Category, s.Category) {
					maxSim = 1
					break
				}
			}
			score := m.lambda*(it.Score/scale) - (1-m.lambda)*maxSim
			if score > bestMMR {
				bestMMR = score
				bestIdx = i
			}
		}
		if bestIdx < 0 {
			break
		}
		taken[bestIdx] = true
		selected = append(selected, items[bestIdx])
	}
	return selected
}

func sameCategory(a, b string) bool {
	return a != "" && strings.EqualFold(a, b)
}
