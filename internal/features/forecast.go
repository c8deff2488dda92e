// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package features

import (
	"fmt"
	"time"

	"github.com/tomtom215/shelfcast/internal/table"
)

// Lags and Windows are the lag offsets and rolling window sizes, in rows.
var (
	Lags    = []int{1, 7, 14, 28}
	Windows = []int{7, 14, 28}
)

// priceColumns are summarized per (product, store, day) when present.
var priceColumns = []string{"unit_price", "retail_price_jpy", "discount_price_jpy", "original_price_jpy"}

// weatherColumns are carried from the weather table when the core pair exists.
var weatherColumns = []string{"temperature_celsius", "precipitation_mm", "humidity_percent"}

// step is one stage of feature derivation over the aggregate table.
type step struct {
	name string
	fn   func(*table.Table) (*table.Table, error)
}

// ForecastFeatures is the forecast feature matrix and how it was derived.
type ForecastFeatures struct {
	// Matrix is keyed by (product_id, store_id, date) and sorted ascending.
	Matrix *table.Table

	// DateColumn names the source date column. Empty when every row was
	// stamped with the ingestion time.
	DateColumn string

	Warnings []string
}

// GenerateForecastFeatures builds the supervised forecast matrix.
// transaction_items and transaction are required; every other table is
// optional.
func (e *Engine) GenerateForecastFeatures() (*ForecastFeatures, error) {
	items, err := e.require(TableTransactionItems)
	if err != nil {
		return nil, err
	}
	trans, err := e.require(TableTransaction)
	if err != nil {
		return nil, err
	}

	df := items
	if items.Has(ColTransactionID) && trans.Has(ColTransactionID) {
		if df, err = df.LeftJoin(trans, []string{ColTransactionID}, table.JoinOptions{Suffix: "_trans"}); err != nil {
			return nil, fmt.Errorf("join transaction: %w", err)
		}
	}
	if product := e.optional(TableProduct); product != nil && df.Has(ColProductID) && product.Has(ColProductID) {
		if df, err = df.LeftJoin(product, []string{ColProductID}, table.JoinOptions{Suffix: "_prod"}); err != nil {
			return nil, fmt.Errorf("join product: %w", err)
		}
	}
	if store := e.optional(TableStore); store != nil && df.Has(ColStoreID) && store.Has(ColStoreID) {
		if df, err = df.LeftJoin(store, []string{ColStoreID}, table.JoinOptions{Suffix: "_store"}); err != nil {
			return nil, fmt.Errorf("join store: %w", err)
		}
	}

	out := &ForecastFeatures{DateColumn: findDateColumn(df)}
	var dates *table.Column
	if out.DateColumn != "" {
		dates = dayColumn(ColDate, df.Column(out.DateColumn))
	} else {
		msg := "no date column found, using ingestion time for every row"
		out.Warnings = append(out.Warnings, msg)
		e.logger.Warn().Msg(msg)
		today := truncateDay(e.now())
		vals := make([]time.Time, df.Len())
		for i := range vals {
			vals[i] = today
		}
		dates = table.NewTimeColumn(ColDate, vals, nil)
	}
	if df, err = df.WithColumns(dates); err != nil {
		return nil, fmt.Errorf("set date column: %w", err)
	}

	agg, err := aggregateSales(df)
	if err != nil {
		return nil, err
	}
	agg = agg.SortBy(availableKeys(agg, ColProductID, ColStoreID, ColDate)...)

	steps := []step{
		{"lag", addLagFeatures},
		{"rolling", addRollingFeatures},
		{"price", func(t *table.Table) (*table.Table, error) { return addPriceFeatures(t, df) }},
	}
	if promo := e.optional(TablePromotion); promo != nil {
		steps = append(steps, step{"promotion", func(t *table.Table) (*table.Table, error) { return addPromotionFeatures(t, promo) }})
	}
	if weather := e.optional(TableWeather); weather != nil {
		steps = append(steps, step{"weather", func(t *table.Table) (*table.Table, error) { return addWeatherFeatures(t, weather) }})
	}
	if holiday := e.optional(TableHoliday); holiday != nil {
		steps = append(steps, step{"holiday", func(t *table.Table) (*table.Table, error) { return addHolidayFeatures(t, holiday) }})
	}
	if inv := e.optional(TableInventory); inv != nil {
		steps = append(steps, step{"inventory", func(t *table.Table) (*table.Table, error) { return addInventoryFeatures(t, inv) }})
	}
	for _, s := range steps {
		if agg, err = s.fn(agg); err != nil {
			return nil, fmt.Errorf("%s features: %w", s.name, err)
		}
	}

	out.Matrix = agg.Renamed("features")
	e.logger.Info().
		Int("rows", agg.Len()).
		Int("columns", agg.Width()).
		Str("date_column", out.DateColumn).
		Msg("Generated forecast features")
	return out, nil
}

// aggregateSales collapses detail rows to one row per (product_id, store_id, date).
func aggregateSales(df *table.Table) (*table.Table, error) {
	keys := availableKeys(df, ColProductID, ColStoreID, ColDate)
	groups, err := df.Groups(keys...)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	n := len(groups)

	first := make([]int, n)
	for g := range groups {
		first[g] = groups[g].Rows[0]
	}
	heads := df.Take(first)

	cols := make([]*table.Column, 0, len(keys)+4)
	for _, k := range keys {
		cols = append(cols, heads.Column(k))
	}
	// Store attribute, carried so weather can join by region.
	if df.Has(ColPrefecture) {
		cols = append(cols, heads.Column(ColPrefecture))
	}

	if df.Has(ColQuantity) {
		cols = append(cols, sumByGroup(df.Column(ColQuantity), groups, ColSalesQuantity))
	} else {
		ones := make([]float64, n)
		for i := range ones {
			ones[i] = 1
		}
		cols = append(cols, table.NewFloatColumn(ColSalesQuantity, ones, nil))
	}

	switch {
	case df.Has("line_total"):
		cols = append(cols, sumByGroup(df.Column("line_total"), groups, ColSalesAmount))
	case df.Has("total_amount"):
		cols = append(cols, sumByGroup(df.Column("total_amount"), groups, ColSalesAmount))
	}

	switch {
	case df.Has("unit_price"):
		cols = append(cols, meanByGroup(df.Column("unit_price"), groups, "unit_price"))
	case df.Has(ColRetailPrice):
		cols = append(cols, meanByGroup(df.Column(ColRetailPrice), groups, ColRetailPrice))
	}

	agg, err := table.New("sales", cols...)
	if err != nil {
		return nil, fmt.Errorf("aggregate sales: %w", err)
	}
	return addCalendarFeatures(agg)
}

func sumByGroup(src *table.Column, groups []table.Group, name string) *table.Column {
	vals := make([]float64, len(groups))
	for g, grp := range groups {
		for _, r := range grp.Rows {
			if v, ok := src.FloatAt(r); ok {
				vals[g] += v
			}
		}
	}
	return table.NewFloatColumn(name, vals, nil)
}

func meanByGroup(src *table.Column, groups []table.Group, name string) *table.Column {
	vals := make([]float64, len(groups))
	valid := make([]bool, len(groups))
	for g, grp := range groups {
		s, c := 0.0, 0
		for _, r := range grp.Rows {
			if v, ok := src.FloatAt(r); ok {
				s += v
				c++
			}
		}
		if c > 0 {
			vals[g] = s / float64(c)
			valid[g] = true
		}
	}
	return table.NewFloatColumn(name, vals, valid)
}

// calendarNames are the calendar feature columns in output order.
var calendarNames = []string{
	"year", "month", "day", "dayofweek", "dayofyear", "week",
	"quarter", "is_weekend", "is_month_start", "is_month_end",
}

func calendarValues(d time.Time) []float64 {
	dow := (int(d.Weekday()) + 6) % 7
	_, week := d.ISOWeek()
	return []float64{
		float64(d.Year()),
		float64(d.Month()),
		float64(d.Day()),
		float64(dow),
		float64(d.YearDay()),
		float64(week),
		float64((int(d.Month())-1)/3 + 1),
		boolFloat(dow >= 5),
		boolFloat(d.Day() == 1),
		boolFloat(d.AddDate(0, 0, 1).Day() == 1),
	}
}

func addCalendarFeatures(t *table.Table) (*table.Table, error) {
	dc := t.Column(ColDate)
	if dc == nil {
		return t, nil
	}
	n := t.Len()
	vals := make([][]float64, len(calendarNames))
	for j := range vals {
		vals[j] = make([]float64, n)
	}
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		d, ok := dc.TimeAt(i)
		if !ok {
			continue
		}
		valid[i] = true
		for j, v := range calendarValues(d) {
			vals[j][i] = v
		}
	}
	cols := make([]*table.Column, len(calendarNames))
	for j, name := range calendarNames {
		cols[j] = table.NewFloatColumn(name, vals[j], valid)
	}
	return t.WithColumns(cols...)
}

func boolFloat(b bool) float64 {
	if b {
		return 1
	}
	return 0
}
