// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package forecast

import (
	"context"
	"math"
	"math/rand"
	"sort"
)

// Node is one node of a regression tree. Leaves have Feature -1.
type Node struct {
	Feature   int
	Threshold float64
	Left      int
	Right     int
	Value     float64
}

// Tree is a binary regression tree stored as a flat node slice rooted at 0.
// Rows with x[Feature] <= Threshold go left.
type Tree struct {
	Nodes []Node
}

func (t *Tree) predict(x []float64) float64 {
	i := 0
	for {
		n := &t.Nodes[i]
		if n.Feature < 0 {
			return n.Value
		}
		if x[n.Feature] <= n.Threshold {
			i = n.Left
		} else {
			i = n.Right
		}
	}
}

// Model is a trained gradient boosted tree ensemble.
type Model struct {
	BaseScore     float64
	Trees         []Tree
	BestIteration int
	// Importance counts splits per feature.
	Importance []int
}

// Predict returns the ensemble prediction for one feature vector.
func (m *Model) Predict(x []float64) float64 {
	s := m.BaseScore
	for i := range m.Trees {
		s += m.Trees[i].predict(x)
	}
	return s
}

// gbmTrainer fits a Model by leaf-wise histogram gradient boosting on
// squared error.
type gbmTrainer struct {
	cfg   GBMConfig
	rng   *rand.Rand
	edges [][]float64 // per feature bin upper bounds
	bins  [][]uint16  // per feature, per row bin index
	grad  []float64
	nf    int
}

type splitInfo struct {
	ok      bool
	feature int
	bin     int
	gain    float64
}

type growLeaf struct {
	node  int
	rows  []int
	split splitInfo
}

// fitGBM trains on (x, y) and, when validation rows are given, stops early on
// validation RMSE and keeps the best iteration.
func fitGBM(ctx context.Context, cfg GBMConfig, x [][]float64, y []float64, vx [][]float64, vy []float64) (*Model, error) {
	n := len(x)
	nf := 0
	if n > 0 {
		nf = len(x[0])
	}
	m := &Model{Importance: make([]int, nf)}
	if n == 0 {
		return m, nil
	}

	for _, v := range y {
		m.BaseScore += v
	}
	m.BaseScore /= float64(n)

	t := &gbmTrainer{
		cfg:  cfg,
		rng:  rand.New(rand.NewSource(cfg.Seed)), //nolint:gosec // deterministic sampling, not security sensitive
		grad: make([]float64, n),
		nf:   nf,
	}
	t.buildBins(x)

	pred := make([]float64, n)
	for i := range pred {
		pred[i] = m.BaseScore
	}
	vpred := make([]float64, len(vx))
	for i := range vpred {
		vpred[i] = m.BaseScore
	}

	bestRMSE := math.Inf(1)
	bestIter := 0
	var sample []int
	var trees []Tree
	var importance [][]int

	for iter := 0; iter < cfg.NumEstimators; iter++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		for i := range pred {
			t.grad[i] = pred[i] - y[i]
		}
		if sample == nil || (cfg.BaggingFreq > 0 && iter%cfg.BaggingFreq == 0) {
			sample = t.bag(n)
		}

		tree, splits := t.growTree(sample)
		trees = append(trees, tree)
		importance = append(importance, splits)

		for i := range pred {
			pred[i] += tree.predict(x[i])
		}
		if len(vx) == 0 {
			bestIter = iter + 1
			continue
		}
		for i := range vpred {
			vpred[i] += tree.predict(vx[i])
		}
		r := rmse(vy, vpred)
		if r < bestRMSE {
			bestRMSE = r
			bestIter = iter + 1
		} else if cfg.EarlyStoppingRounds > 0 && iter+1-bestIter >= cfg.EarlyStoppingRounds {
			break
		}
	}

	m.Trees = trees[:bestIter]
	m.BestIteration = bestIter
	for _, splits := range importance[:bestIter] {
		for f, c := range splits {
			m.Importance[f] += c
		}
	}
	return m, nil
}

// buildBins computes per-feature bin edges and the binned training matrix.
func (t *gbmTrainer) buildBins(x [][]float64) {
	n := len(x)
	t.edges = make([][]float64, t.nf)
	t.bins = make([][]uint16, t.nf)
	col := make([]float64, n)
	for f := 0; f < t.nf; f++ {
		for i := range x {
			col[i] = x[i][f]
		}
		t.edges[f] = binEdges(col, t.cfg.MaxBins)
		b := make([]uint16, n)
		for i, v := range col {
			b[i] = uint16(sort.SearchFloat64s(t.edges[f], v))
		}
		t.bins[f] = b
	}
}

// binEdges returns ascending split thresholds so that value v falls in bin
// SearchFloat64s(edges, v). Thresholds sit midway between observed values.
func binEdges(vals []float64, maxBins int) []float64 {
	sorted := append([]float64(nil), vals...)
	sort.Float64s(sorted)
	distinct := sorted[:0:0]
	for i, v := range sorted {
		if i == 0 || v != sorted[i-1] {
			distinct = append(distinct, v)
		}
	}
	if len(distinct) < 2 {
		return nil
	}

	var edges []float64
	if len(distinct) <= maxBins {
		edges = make([]float64, 0, len(distinct)-1)
		for i := 1; i < len(distinct); i++ {
			edges = append(edges, (distinct[i-1]+distinct[i])/2)
		}
		return edges
	}

	n := len(sorted)
	for k := 1; k < maxBins; k++ {
		i := k * n / maxBins
		if i <= 0 || i >= n || sorted[i-1] == sorted[i] {
			continue
		}
		e := (sorted[i-1] + sorted[i]) / 2
		if len(edges) == 0 || e > edges[len(edges)-1] {
			edges = append(edges, e)
		}
	}
	return edges
}

// bag samples rows without replacement.
func (t *gbmTrainer) bag(n int) []int {
	if t.cfg.BaggingFreq == 0 || t.cfg.BaggingFraction >= 1 {
		all := make([]int, n)
		for i := range all {
			all[i] = i
		}
		return all
	}
	k := int(math.Ceil(float64(n) * t.cfg.BaggingFraction))
	rows := t.rng.Perm(n)[:k]
	sort.Ints(rows)
	return rows
}

// sampleFeatures picks the feature subset for one tree.
func (t *gbmTrainer) sampleFeatures() []int {
	k := int(math.Ceil(float64(t.nf) * t.cfg.FeatureFraction))
	if k >= t.nf {
		all := make([]int, t.nf)
		for i := range all {
			all[i] = i
		}
		return all
	}
	if k < 1 {
		k = 1
	}
	fs := t.rng.Perm(t.nf)[:k]
	sort.Ints(fs)
	return fs
}

// growTree grows one tree best-first until NumLeaves or no positive gain.
func (t *gbmTrainer) growTree(rows []int) (Tree, []int) {
	features := t.sampleFeatures()
	splits := make([]int, t.nf)
	tree := Tree{Nodes: []Node{{Feature: -1}}}
	leaves := []*growLeaf{{node: 0, rows: rows}}
	leaves[0].split = t.bestSplit(rows, features)

	for len(leaves) < t.cfg.NumLeaves {
		best := -1
		for i, l := range leaves {
			if l.split.ok && (best < 0 || l.split.gain > leaves[best].split.gain) {
				best = i
			}
		}
		if best < 0 {
			break
		}

		l := leaves[best]
		s := l.split
		var left, right []int
		for _, r := range l.rows {
			if int(t.bins[s.feature][r]) <= s.bin {
				left = append(left, r)
			} else {
				right = append(right, r)
			}
		}
		li, ri := len(tree.Nodes), len(tree.Nodes)+1
		tree.Nodes[l.node] = Node{
			Feature:   s.feature,
			Threshold: t.edges[s.feature][s.bin],
			Left:      li,
			Right:     ri,
		}
		tree.Nodes = append(tree.Nodes, Node{Feature: -1}, Node{Feature: -1})
		splits[s.feature]++

		ll := &growLeaf{node: li, rows: left, split: t.bestSplit(left, features)}
		rl := &growLeaf{node: ri, rows: right, split: t.bestSplit(right, features)}
		leaves[best] = ll
		leaves = append(leaves, rl)
	}

	for _, l := range leaves {
		sum := 0.0
		for _, r := range l.rows {
			sum += t.grad[r]
		}
		if len(l.rows) > 0 {
			tree.Nodes[l.node].Value = -t.cfg.LearningRate * sum / float64(len(l.rows))
		}
	}
	return tree, splits
}

// bestSplit scans feature histograms for the split maximizing the reduction
// in squared error.
func (t *gbmTrainer) bestSplit(rows []int, features []int) splitInfo {
	var best splitInfo
	n := len(rows)
	minLeaf := t.cfg.MinDataInLeaf
	if n < 2*minLeaf {
		return best
	}

	total := 0.0
	for _, r := range rows {
		total += t.grad[r]
	}
	parent := total * total / float64(n)

	for _, f := range features {
		nb := len(t.edges[f]) + 1
		if nb < 2 {
			continue
		}
		sumG := make([]float64, nb)
		cnt := make([]int, nb)
		bins := t.bins[f]
		for _, r := range rows {
			b := bins[r]
			sumG[b] += t.grad[r]
			cnt[b]++
		}

		gl, nl := 0.0, 0
		for b := 0; b < nb-1; b++ {
			gl += sumG[b]
			nl += cnt[b]
			nr := n - nl
			if nl < minLeaf {
				continue
			}
			if nr < minLeaf {
				break
			}
			gr := total - gl
			gain := gl*gl/float64(nl) + gr*gr/float64(nr) - parent
			if gain > 1e-12 && (!best.ok || gain > best.gain) {
				best = splitInfo{ok: true, feature: f, bin: b, gain: gain}
			}
		}
	}
	return best
}
