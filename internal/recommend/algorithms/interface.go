// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package algorithms

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/tomtom215/shelfcast/internal/table"
)

// Column names read by the algorithms.
const (
	colCustomerID    = "customer_id"
	colProductID     = "product_id"
	colStoreID       = "store_id"
	colPurchaseCount = "purchase_count"
	colQuantity      = "quantity"
	colRetailPrice   = "retail_price_jpy"
	colPriceRange    = "price_range"
)

// BaseAlgorithm provides common functionality for all algorithms.
type BaseAlgorithm struct {
	name          string
	trained       bool
	lastTrainedAt time.Time
	mu            sync.RWMutex
}

// NewBaseAlgorithm creates a new base algorithm with the given name.
func NewBaseAlgorithm(name string) BaseAlgorithm {
	return BaseAlgorithm{
		name: name,
	}
}

// Name returns the algorithm identifier.
func (b *BaseAlgorithm) Name() string {
	return b.name
}

// IsTrained returns whether the model has been trained.
func (b *BaseAlgorithm) IsTrained() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.trained
}

// LastTrainedAt returns when the model was last trained.
func (b *BaseAlgorithm) LastTrainedAt() time.Time {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.lastTrainedAt
}

// markTrained updates the trained state.
// Must be called while holding the training lock (acquireTrainLock).
func (b *BaseAlgorithm) markTrained() {
	b.trained = true
	b.lastTrainedAt = time.Now()
}

func (b *BaseAlgorithm) acquireTrainLock()   { b.mu.Lock() }
func (b *BaseAlgorithm) releaseTrainLock()   { b.mu.Unlock() }
func (b *BaseAlgorithm) acquirePredictLock() { b.mu.RLock() }
func (b *BaseAlgorithm) releasePredictLock() { b.mu.RUnlock() }

// Scored is a product with a model score.
type Scored struct {
	ID    string
	Score float64
}

// topN stably sorts by score descending and keeps the first k.
func topN(items []Scored, k int) []Scored {
	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})
	if k >= 0 && len(items) > k {
		items = items[:k]
	}
	return items
}

// InsufficientDataError reports that training input lacks what a model needs.
type InsufficientDataError struct {
	Model  string
	Reason string
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("%s: insufficient data: %s", e.Model, e.Reason)
}

// scoreColumn picks the interaction strength column: purchase_count, else quantity.
func scoreColumn(t *table.Table) string {
	if t.Has(colPurchaseCount) {
		return colPurchaseCount
	}
	if t.Has(colQuantity) {
		return colQuantity
	}
	return ""
}

// cosineSimilarity computes cosine similarity between two vectors.
func cosineSimilarity(a, b []float64) float64 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}

	var dotProduct, normA, normB float64
	for i := range a {
		dotProduct += a[i] * b[i]
		normA += a[i] * a[i]
		normB += b[i] * b[i]
	}

	if normA == 0 || normB == 0 {
		return 0
	}

	return dotProduct / (math.Sqrt(normA) * math.Sqrt(normB))
}

// similarityMatrix computes all pairwise cosine similarities using workers.
func similarityMatrix(ctx context.Context, vectors [][]float64, workers int) ([][]float64, error) {
	n := len(vectors)
	sim := make([][]float64, n)
	for i := range sim {
		sim[i] = make([]float64, n)
	}
	if workers < 1 {
		workers = 1
	}

	rows := make(chan int)
	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range rows {
				for j := 0; j < n; j++ {
					sim[i][j] = cosineSimilarity(vectors[i], vectors[j])
				}
			}
		}()
	}

	var err error
	for i := 0; i < n; i++ {
		if ContextCancelled(ctx) {
			err = ctx.Err()
			break
		}
		rows <- i
	}
	close(rows)
	wg.Wait()
	if err != nil {
		return nil, err
	}
	return sim, nil
}

// ContextCancelled checks if the context has been canceled.
func ContextCancelled(ctx context.Context) bool {
	select {
	case <-ctx.Done():
		return true
	default:
		return false
	}
}
