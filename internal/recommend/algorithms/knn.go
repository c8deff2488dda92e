// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package algorithms

import (
	"context"
	"sort"

	"github.com/tomtom215/shelfcast/internal/table"
)

// KNNConfig contains configuration for user-based collaborative filtering.
type KNNConfig struct {
	// K is the number of neighbours whose purchases are aggregated.
	K int

	// NumWorkers is the number of parallel similarity workers.
	NumWorkers int
}

// DefaultKNNConfig returns default KNN configuration.
func DefaultKNNConfig() KNNConfig {
	return KNNConfig{
		K:          20,
		NumWorkers: 4,
	}
}

// UserBasedCF implements user-based collaborative filtering.
// It recommends products that similar customers bought.
//
// For a target customer u and product i:
//
//	score(u, i) = sum_{v in N(u)} sim(u, v) * r(v, i)
//
// where N(u) is the K most similar other customers by cosine similarity of
// their purchase vectors. Products u already bought are excluded.
type UserBasedCF struct {
	BaseAlgorithm
	config KNNConfig

	userIDs    []string
	itemIDs    []string
	userIndex  map[string]int
	matrix     [][]float64 // users x items
	similarity [][]float64 // users x users
	popular    []Scored    // items by column sum
}

// CFState is the serializable form of a trained UserBasedCF.
type CFState struct {
	UserIDs []string
	ItemIDs []string
	Matrix  [][]float64
}

// NewUserBasedCF creates a new user-based CF algorithm.
func NewUserBasedCF(cfg KNNConfig) *UserBasedCF {
	if cfg.K <= 0 {
		cfg.K = 20
	}
	if cfg.NumWorkers <= 0 {
		cfg.NumWorkers = 4
	}
	return &UserBasedCF{
		BaseAlgorithm: NewBaseAlgorithm("collaborative"),
		config:        cfg,
		userIndex:     make(map[string]int),
	}
}

// Train builds the customer x product matrix from purchase_count, or quantity
// when absent, and precomputes customer similarities.
func (u *UserBasedCF) Train(ctx context.Context, interactions *table.Table) error {
	if !interactions.HasAll(colCustomerID, colProductID) {
		return &InsufficientDataError{Model: u.name, Reason: "customer_id and product_id are required"}
	}
	score := scoreColumn(interactions)
	if score == "" {
		return &InsufficientDataError{Model: u.name, Reason: "purchase_count or quantity is required"}
	}

	users, items := interactions.Column(colCustomerID), interactions.Column(colProductID)
	values := interactions.Column(score)
	userSet := make(map[string]struct{})
	itemSet := make(map[string]struct{})
	for i := 0; i < interactions.Len(); i++ {
		uid, ok1 := users.StringAt(i)
		iid, ok2 := items.StringAt(i)
		if ok1 && ok2 {
			userSet[uid] = struct{}{}
			itemSet[iid] = struct{}{}
		}
	}
	if len(userSet) == 0 {
		return &InsufficientDataError{Model: u.name, Reason: "no interactions"}
	}

	state := &CFState{UserIDs: sortedKeys(userSet), ItemIDs: sortedKeys(itemSet)}
	userIdx := indexOf(state.UserIDs)
	itemIdx := indexOf(state.ItemIDs)
	state.Matrix = make([][]float64, len(state.UserIDs))
	for i := range state.Matrix {
		state.Matrix[i] = make([]float64, len(state.ItemIDs))
	}
	for i := 0; i < interactions.Len(); i++ {
		uid, ok1 := users.StringAt(i)
		iid, ok2 := items.StringAt(i)
		if !ok1 || !ok2 {
			continue
		}
		v, _ := values.FloatAt(i)
		state.Matrix[userIdx[uid]][itemIdx[iid]] += v
	}

	return u.load(ctx, state)
}

// load installs a matrix and derives similarities and popularity.
func (u *UserBasedCF) load(ctx context.Context, state *CFState) error {
	sim, err := similarityMatrix(ctx, state.Matrix, u.config.NumWorkers)
	if err != nil {
		return err
	}

	popular := make([]Scored, len(state.ItemIDs))
	for j, id := range state.ItemIDs {
		popular[j].ID = id
		for i := range state.Matrix {
			popular[j].Score += state.Matrix[i][j]
		}
	}
	popular = topN(popular, -1)

	u.acquireTrainLock()
	defer u.releaseTrainLock()
	u.userIDs = state.UserIDs
	u.itemIDs = state.ItemIDs
	u.userIndex = indexOf(state.UserIDs)
	u.matrix = state.Matrix
	u.similarity = sim
	u.popular = popular
	u.markTrained()
	return nil
}

// Knows reports whether the customer was seen in training.
func (u *UserBasedCF) Knows(userID string) bool {
	u.acquirePredictLock()
	defer u.releasePredictLock()
	_, ok := u.userIndex[userID]
	return ok
}

// Recommend returns up to k unpurchased products scored by neighbour
// purchases. Unknown customers get the most purchased products.
func (u *UserBasedCF) Recommend(userID string, k int) []Scored {
	u.acquirePredictLock()
	defer u.releasePredictLock()

	if !u.trained || k <= 0 {
		return nil
	}
	ui, ok := u.userIndex[userID]
	if !ok {
		return u.popularLocked(k)
	}

	sims := u.similarity[ui]
	neighbors := make([]int, 0, len(u.userIDs)-1)
	for v := range u.userIDs {
		if v != ui {
			neighbors = append(neighbors, v)
		}
	}
	sort.SliceStable(neighbors, func(a, b int) bool {
		return sims[neighbors[a]] > sims[neighbors[b]]
	})
	if len(neighbors) > u.config.K {
		neighbors = neighbors[:u.config.K]
	}

	scores := make([]float64, len(u.itemIDs))
	for _, v := range neighbors {
		s := sims[v]
		for j, r := range u.matrix[v] {
			scores[j] += s * r
		}
	}

	own := u.matrix[ui]
	cands := make([]Scored, 0, len(scores))
	for j, s := range scores {
		if own[j] > 0 || s <= 0 {
			continue
		}
		cands = append(cands, Scored{ID: u.itemIDs[j], Score: s})
	}
	return topN(cands, k)
}

// Popular returns up to k products by total interaction strength.
func (u *UserBasedCF) Popular(k int) []Scored {
	u.acquirePredictLock()
	defer u.releasePredictLock()
	return u.popularLocked(k)
}

func (u *UserBasedCF) popularLocked(k int) []Scored {
	if k > len(u.popular) {
		k = len(u.popular)
	}
	return append([]Scored(nil), u.popular[:k]...)
}

// Snapshot returns the trained matrix. Similarities are recomputed on restore.
func (u *UserBasedCF) Snapshot() *CFState {
	u.acquirePredictLock()
	defer u.releasePredictLock()
	if !u.trained {
		return nil
	}
	return &CFState{UserIDs: u.userIDs, ItemIDs: u.itemIDs, Matrix: u.matrix}
}

// Restore loads a snapshot taken from a trained model.
func (u *UserBasedCF) Restore(ctx context.Context, state *CFState) error {
	if state == nil || len(state.Matrix) != len(state.UserIDs) {
		return &InsufficientDataError{Model: u.name, Reason: "invalid snapshot"}
	}
	return u.load(ctx, state)
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func indexOf(ids []string) map[string]int {
	m := make(map[string]int, len(ids))
	for i, id := range ids {
		m[id] = i
	}
	return m
}
