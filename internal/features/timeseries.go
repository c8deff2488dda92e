// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package features

import (
	"fmt"
	"math"

	"github.com/tomtom215/shelfcast/internal/table"
)

// seriesGroups partitions the sorted aggregate into per-series row lists.
// Without identifier columns the whole table is one series.
func seriesGroups(t *table.Table) ([]table.Group, error) {
	return t.Groups(availableKeys(t, ColProductID, ColStoreID)...)
}

// addLagFeatures adds lag_N: the target N rows earlier in the same series.
func addLagFeatures(t *table.Table) (*table.Table, error) {
	target := t.Column(ColSalesQuantity)
	if target == nil || !t.Has(ColDate) {
		return t, nil
	}
	groups, err := seriesGroups(t)
	if err != nil {
		return nil, err
	}

	n := t.Len()
	cols := make([]*table.Column, 0, len(Lags))
	for _, lag := range Lags {
		vals := make([]float64, n)
		valid := make([]bool, n)
		for _, g := range groups {
			for i := lag; i < len(g.Rows); i++ {
				if v, ok := target.FloatAt(g.Rows[i-lag]); ok {
					vals[g.Rows[i]] = v
					valid[g.Rows[i]] = true
				}
			}
		}
		cols = append(cols, table.NewFloatColumn(fmt.Sprintf("lag_%d", lag), vals, valid))
	}
	return t.WithColumns(cols...)
}

// addRollingFeatures adds trailing mean, sample std and max per window.
// Windows include the current row and need one observation.
func addRollingFeatures(t *table.Table) (*table.Table, error) {
	target := t.Column(ColSalesQuantity)
	if target == nil {
		return t, nil
	}
	groups, err := seriesGroups(t)
	if err != nil {
		return nil, err
	}

	n := t.Len()
	cols := make([]*table.Column, 0, 3*len(Windows))
	for _, w := range Windows {
		mean := make([]float64, n)
		std := make([]float64, n)
		maxv := make([]float64, n)
		meanOK := make([]bool, n)
		stdOK := make([]bool, n)

		window := make([]float64, 0, w)
		for _, g := range groups {
			for i, row := range g.Rows {
				window = window[:0]
				for j := i - w + 1; j <= i; j++ {
					if j < 0 {
						continue
					}
					if v, ok := target.FloatAt(g.Rows[j]); ok {
						window = append(window, v)
					}
				}
				if len(window) == 0 {
					continue
				}
				m, s, mx := windowStats(window)
				mean[row], maxv[row], meanOK[row] = m, mx, true
				if len(window) > 1 {
					std[row], stdOK[row] = s, true
				}
			}
		}
		cols = append(cols,
			table.NewFloatColumn(fmt.Sprintf("rolling_mean_%d", w), mean, meanOK),
			table.NewFloatColumn(fmt.Sprintf("rolling_std_%d", w), std, stdOK),
			table.NewFloatColumn(fmt.Sprintf("rolling_max_%d", w), maxv, meanOK),
		)
	}
	return t.WithColumns(cols...)
}

// windowStats returns mean, sample standard deviation and max.
func windowStats(v []float64) (mean, std, maxv float64) {
	maxv = math.Inf(-1)
	for _, x := range v {
		mean += x
		if x > maxv {
			maxv = x
		}
	}
	mean /= float64(len(v))
	if len(v) > 1 {
		ss := 0.0
		for _, x := range v {
			d := x - mean
			ss += d * d
		}
		std = math.Sqrt(ss / float64(len(v)-1))
	}
	return mean, std, maxv
}

// addPriceFeatures merges {col}_mean/_min/_max per (product_id, store_id, date)
// from the joined detail table.
func addPriceFeatures(agg, detail *table.Table) (*table.Table, error) {
	keys := []string{ColProductID, ColStoreID, ColDate}
	if !detail.HasAll(keys...) || !agg.HasAll(keys...) {
		return agg, nil
	}
	available := availableKeys(detail, priceColumns...)
	if len(available) == 0 {
		return agg, nil
	}

	groups, err := detail.Groups(keys...)
	if err != nil {
		return nil, err
	}
	first := make([]int, len(groups))
	for g := range groups {
		first[g] = groups[g].Rows[0]
	}
	heads := detail.Take(first)

	cols := make([]*table.Column, 0, len(keys)+3*len(available))
	for _, k := range keys {
		cols = append(cols, heads.Column(k))
	}
	for _, name := range available {
		src := detail.Column(name)
		mean := make([]float64, len(groups))
		minv := make([]float64, len(groups))
		maxv := make([]float64, len(groups))
		ok := make([]bool, len(groups))
		for g, grp := range groups {
			sum, cnt := 0.0, 0
			for _, r := range grp.Rows {
				v, valid := src.FloatAt(r)
				if !valid {
					continue
				}
				if cnt == 0 || v < minv[g] {
					minv[g] = v
				}
				if cnt == 0 || v > maxv[g] {
					maxv[g] = v
				}
				sum += v
				cnt++
			}
			if cnt > 0 {
				mean[g] = sum / float64(cnt)
				ok[g] = true
			}
		}
		cols = append(cols,
			table.NewFloatColumn(name+"_mean", mean, ok),
			table.NewFloatColumn(name+"_min", minv, ok),
			table.NewFloatColumn(name+"_max", maxv, ok),
		)
	}

	stats, err := table.New("price_stats", cols...)
	if err != nil {
		return nil, err
	}
	return agg.LeftJoin(stats, keys, table.JoinOptions{Suffix: "_price", FirstMatch: true})
}
