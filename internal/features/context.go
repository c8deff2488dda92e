// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package features

import (
	"time"

	"github.com/tomtom215/shelfcast/internal/table"
)

// addPromotionFeatures flags rows whose date lies inside any promotion window.
// The column is added even when the promotion table has no date range.
func addPromotionFeatures(t, promo *table.Table) (*table.Table, error) {
	dates := t.Column(ColDate)
	if dates == nil {
		return t, nil
	}

	type window struct{ start, end time.Time }
	var windows []window
	if promo.HasAll("start_date", "end_date") {
		starts, ends := promo.Column("start_date"), promo.Column("end_date")
		for i := 0; i < promo.Len(); i++ {
			s, ok1 := starts.TimeAt(i)
			e, ok2 := ends.TimeAt(i)
			if ok1 && ok2 {
				windows = append(windows, window{truncateDay(s), truncateDay(e)})
			}
		}
	}

	vals := make([]float64, t.Len())
	for i := range vals {
		d, ok := dates.TimeAt(i)
		if !ok {
			continue
		}
		for _, w := range windows {
			if !d.Before(w.start) && !d.After(w.end) {
				vals[i] = 1
				break
			}
		}
	}
	return t.WithColumns(table.NewFloatColumn("promotion_active", vals, nil))
}

// addWeatherFeatures joins daily weather by date, and by prefecture when both
// sides carry it.
func addWeatherFeatures(t, weather *table.Table) (*table.Table, error) {
	if !t.Has(ColDate) || !weather.Has(ColDate) {
		return t, nil
	}
	w, err := weather.WithColumns(dayColumn(ColDate, weather.Column(ColDate)))
	if err != nil {
		return nil, err
	}

	keys := []string{ColDate}
	if t.Has(ColPrefecture) && w.Has(ColPrefecture) {
		keys = append(keys, ColPrefecture)
	}

	var carry []string
	if w.HasAll(weatherColumns[0], weatherColumns[1]) {
		carry = availableKeys(w, weatherColumns...)
	}
	return t.LeftJoin(w, keys, table.JoinOptions{Suffix: "_weather", FirstMatch: true, Columns: carry})
}

// addHolidayFeatures sets is_holiday to 1 on dates listed in the holiday table.
func addHolidayFeatures(t, holiday *table.Table) (*table.Table, error) {
	dates := t.Column(ColDate)
	if dates == nil || !holiday.Has(ColDate) {
		return t, nil
	}
	src := holiday.Column(ColDate)
	days := make(map[time.Time]struct{}, holiday.Len())
	for i := 0; i < holiday.Len(); i++ {
		if d, ok := src.TimeAt(i); ok {
			days[truncateDay(d)] = struct{}{}
		}
	}

	vals := make([]float64, t.Len())
	for i := range vals {
		if d, ok := dates.TimeAt(i); ok {
			if _, hit := days[truncateDay(d)]; hit {
				vals[i] = 1
			}
		}
	}
	return t.WithColumns(table.NewFloatColumn("is_holiday", vals, nil))
}

// inventoryColumns are carried from the latest inventory row per key.
var inventoryColumns = []string{"stock_quantity", "reorder_point"}

// addInventoryFeatures joins the last known stock level per product, and per
// store when both sides carry store_id.
func addInventoryFeatures(t, inv *table.Table) (*table.Table, error) {
	if !t.Has(ColProductID) || !inv.Has(ColProductID) {
		return t, nil
	}
	keys := []string{ColProductID}
	if t.Has(ColStoreID) && inv.Has(ColStoreID) {
		keys = append(keys, ColStoreID)
	}
	values := availableKeys(inv, inventoryColumns...)
	if len(values) == 0 {
		return t, nil
	}

	groups, err := inv.Groups(keys...)
	if err != nil {
		return nil, err
	}
	first := make([]int, len(groups))
	for g := range groups {
		first[g] = groups[g].Rows[0]
	}
	heads := inv.Take(first)

	cols := make([]*table.Column, 0, len(keys)+len(values))
	for _, k := range keys {
		cols = append(cols, heads.Column(k))
	}
	for _, name := range values {
		src := inv.Column(name)
		vals := make([]float64, len(groups))
		ok := make([]bool, len(groups))
		for g, grp := range groups {
			// Last non-null value in table order.
			for j := len(grp.Rows) - 1; j >= 0; j-- {
				if v, valid := src.FloatAt(grp.Rows[j]); valid {
					vals[g], ok[g] = v, true
					break
				}
			}
		}
		cols = append(cols, table.NewFloatColumn(name, vals, ok))
	}

	latest, err := table.New("inventory_latest", cols...)
	if err != nil {
		return nil, err
	}
	return t.LeftJoin(latest, keys, table.JoinOptions{Suffix: "_inventory", FirstMatch: true})
}
