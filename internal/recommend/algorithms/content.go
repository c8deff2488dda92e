// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package algorithms

import (
	"context"
	"math"
	"sort"
	"strings"

	"github.com/tomtom215/shelfcast/internal/table"
)

// ContentBased recommends products similar to a given product by their
// attributes.
//
// Each product is encoded as a vector of:
//   - one-hot indicators for every category-like column (any column whose
//     name contains "category", plus price_range)
//   - price_normalized = (price - mean) / sample std of retail_price_jpy
//
// Similarity is cosine similarity between product vectors.
type ContentBased struct {
	BaseAlgorithm
	numWorkers int

	productIDs []string
	index      map[string]int
	vectors    [][]float64
	similarity [][]float64
}

// ContentState is the serializable form of a trained ContentBased model.
type ContentState struct {
	ProductIDs []string
	Vectors    [][]float64
}

// NewContentBased creates a new content-based algorithm.
func NewContentBased(numWorkers int) *ContentBased {
	if numWorkers <= 0 {
		numWorkers = 4
	}
	return &ContentBased{
		BaseAlgorithm: NewBaseAlgorithm("content"),
		numWorkers:    numWorkers,
		index:         make(map[string]int),
	}
}

// categoryColumns returns the columns one-hot encoded as product attributes.
func categoryColumns(t *table.Table) []string {
	var out []string
	for _, name := range t.ColumnNames() {
		if strings.Contains(strings.ToLower(name), "category") || name == colPriceRange {
			out = append(out, name)
		}
	}
	return out
}

// Train encodes products and precomputes pairwise similarity.
func (c *ContentBased) Train(ctx context.Context, products *table.Table) error {
	if !products.Has(colProductID) {
		return &InsufficientDataError{Model: c.name, Reason: "product_id is required"}
	}
	cats := categoryColumns(products)
	if len(cats) == 0 {
		return &InsufficientDataError{Model: c.name, Reason: "no category columns"}
	}

	ids := products.Column(colProductID)
	var rows []int
	var productIDs []string
	seen := make(map[string]struct{})
	for i := 0; i < products.Len(); i++ {
		id, ok := ids.StringAt(i)
		if !ok {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		rows = append(rows, i)
		productIDs = append(productIDs, id)
	}
	if len(rows) == 0 {
		return &InsufficientDataError{Model: c.name, Reason: "no products"}
	}

	vectors := make([][]float64, len(rows))
	for _, name := range cats {
		col := products.Column(name)
		levels := make(map[string]int)
		var distinct []string
		for _, r := range rows {
			if v, ok := col.StringAt(r); ok {
				if _, known := levels[v]; !known {
					levels[v] = 0
					distinct = append(distinct, v)
				}
			}
		}
		sort.Strings(distinct)
		for i, v := range distinct {
			levels[v] = i
		}
		for k, r := range rows {
			onehot := make([]float64, len(distinct))
			if v, ok := col.StringAt(r); ok {
				onehot[levels[v]] = 1
			}
			vectors[k] = append(vectors[k], onehot...)
		}
	}

	if price := products.Column(colRetailPrice); price != nil {
		norm := normalizePrices(price, rows)
		for k := range vectors {
			vectors[k] = append(vectors[k], norm[k])
		}
	}

	return c.load(ctx, &ContentState{ProductIDs: productIDs, Vectors: vectors})
}

// normalizePrices standardizes prices with the sample standard deviation.
// Nulls, and every value when the deviation is zero, map to 0.
func normalizePrices(price *table.Column, rows []int) []float64 {
	out := make([]float64, len(rows))
	sum, n := 0.0, 0
	for _, r := range rows {
		if v, ok := price.FloatAt(r); ok {
			sum += v
			n++
		}
	}
	if n < 2 {
		return out
	}
	mean := sum / float64(n)
	ss := 0.0
	for _, r := range rows {
		if v, ok := price.FloatAt(r); ok {
			ss += (v - mean) * (v - mean)
		}
	}
	std := math.Sqrt(ss / float64(n-1))
	if std == 0 {
		return out
	}
	for k, r := range rows {
		if v, ok := price.FloatAt(r); ok {
			out[k] = (v - mean) / std
		}
	}
	return out
}

func (c *ContentBased) load(ctx context.Context, state *ContentState) error {
	sim, err := similarityMatrix(ctx, state.Vectors, c.numWorkers)
	if err != nil {
		return err
	}
	c.acquireTrainLock()
	defer c.releaseTrainLock()
	c.productIDs = state.ProductIDs
	c.index = indexOf(state.ProductIDs)
	c.similarity = sim
	c.vectors = state.Vectors
	c.markTrained()
	return nil
}

// Similar returns up to k other products ordered by similarity. Unknown
// products return nil.
func (c *ContentBased) Similar(productID string, k int) []Scored {
	c.acquirePredictLock()
	defer c.releasePredictLock()

	if !c.trained || k <= 0 {
		return nil
	}
	pi, ok := c.index[productID]
	if !ok {
		return nil
	}
	sims := c.similarity[pi]
	out := make([]Scored, 0, len(sims)-1)
	for j, s := range sims {
		if j == pi {
			continue
		}
		out = append(out, Scored{ID: c.productIDs[j], Score: s})
	}
	return topN(out, k)
}

// Snapshot returns the encoded product vectors.
func (c *ContentBased) Snapshot() *ContentState {
	c.acquirePredictLock()
	defer c.releasePredictLock()
	if !c.trained {
		return nil
	}
	return &ContentState{ProductIDs: c.productIDs, Vectors: c.vectors}
}

// Restore loads a snapshot taken from a trained model.
func (c *ContentBased) Restore(ctx context.Context, state *ContentState) error {
	if state == nil || len(state.Vectors) != len(state.ProductIDs) {
		return &InsufficientDataError{Model: c.name, Reason: "invalid snapshot"}
	}
	return c.load(ctx, state)
}
