// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package forecast

import (
	"github.com/tomtom215/shelfcast/internal/features"
	"github.com/tomtom215/shelfcast/internal/table"
)

// Baseline forecasts the mean of the last Window observations per
// (product, store) series, falling back to a global mean.
type Baseline struct {
	Window    int
	Means     map[string]float64
	Global    float64
	HasGlobal bool
}

// pairKey identifies a (product, store) series.
func pairKey(productID, storeID string) string {
	return productID + "\x1f" + storeID
}

// fitBaseline caches trailing means. Rows are expected in series order.
func fitBaseline(t *table.Table, target string, window int) (*Baseline, error) {
	b := &Baseline{Window: window, Means: make(map[string]float64)}
	y := t.Column(target)

	all := make([]int, t.Len())
	for i := range all {
		all[i] = i
	}
	if mean, ok := tailMean(y, all, window); ok {
		b.Global, b.HasGlobal = mean, true
	}

	if !t.HasAll(features.ColProductID, features.ColStoreID) {
		return b, nil
	}
	groups, err := t.Groups(features.ColProductID, features.ColStoreID)
	if err != nil {
		return nil, err
	}
	for _, g := range groups {
		if mean, ok := tailMean(y, g.Rows, window); ok {
			b.Means[pairKey(g.Key[0], g.Key[1])] = mean
		}
	}
	return b, nil
}

func tailMean(col *table.Column, rows []int, window int) (float64, bool) {
	if len(rows) > window {
		rows = rows[len(rows)-window:]
	}
	s, n := 0.0, 0
	for _, r := range rows {
		if v, ok := col.FloatAt(r); ok {
			s += v
			n++
		}
	}
	if n == 0 {
		return 0, false
	}
	return s / float64(n), true
}

// Predict repeats the cached mean for the series, or the global mean, or 0.
func (b *Baseline) Predict(productID, storeID string, horizon int) []float64 {
	v := 0.0
	if m, ok := b.Means[pairKey(productID, storeID)]; ok && productID != "" && storeID != "" {
		v = m
	} else if b.HasGlobal {
		v = b.Global
	}
	out := make([]float64, horizon)
	for i := range out {
		out[i] = v
	}
	return out
}
