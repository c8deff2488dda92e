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

// Interactions holds the recommendation training inputs derived from sales.
type Interactions struct {
	// Table has one row per (customer_id, product_id) with quantity,
	// purchase_count and, when dates exist, last_purchased.
	Table *table.Table

	// StorePopularity has one row per (store_id, product_id) with quantity and
	// purchase_count. Nil when no store identifier is available.
	StorePopularity *table.Table
}

// MatrixInfo summarizes the interaction matrix shape.
type MatrixInfo struct {
	Users        int `json:"n_users"`
	Items        int `json:"n_items"`
	Interactions int `json:"n_interactions"`
}

// GenerateUserItemMatrix aggregates purchases per customer and product.
func (e *Engine) GenerateUserItemMatrix() (*Interactions, MatrixInfo, error) {
	items, err := e.require(TableTransactionItems)
	if err != nil {
		return nil, MatrixInfo{}, err
	}
	trans, err := e.require(TableTransaction)
	if err != nil {
		return nil, MatrixInfo{}, err
	}
	if !items.Has(ColTransactionID) {
		return nil, MatrixInfo{}, &MissingKeyError{Table: TableTransactionItems, Column: ColTransactionID}
	}
	if !trans.Has(ColTransactionID) {
		return nil, MatrixInfo{}, &MissingKeyError{Table: TableTransaction, Column: ColTransactionID}
	}

	carry := availableKeys(trans, ColCustomerID)
	dateCol := findDateColumn(trans)
	if dateCol != "" && !items.Has(dateCol) {
		carry = append(carry, dateCol)
	}
	if trans.Has(ColStoreID) && !items.Has(ColStoreID) {
		carry = append(carry, ColStoreID)
	}
	df, err := items.LeftJoin(trans, []string{ColTransactionID}, table.JoinOptions{Columns: carry})
	if err != nil {
		return nil, MatrixInfo{}, fmt.Errorf("join transaction: %w", err)
	}
	if !df.Has(ColCustomerID) {
		return nil, MatrixInfo{}, &MissingKeyError{Table: TableTransaction, Column: ColCustomerID}
	}
	if !df.Has(ColProductID) {
		return nil, MatrixInfo{}, &MissingKeyError{Table: TableTransactionItems, Column: ColProductID}
	}
	if dateCol == "" {
		dateCol = findDateColumn(df)
	}

	interactions, err := aggregatePurchases(df, ColCustomerID, dateCol)
	if err != nil {
		return nil, MatrixInfo{}, err
	}
	out := &Interactions{Table: interactions.Renamed("interactions")}

	if df.Has(ColStoreID) {
		pop, err := aggregatePurchases(df, ColStoreID, "")
		if err != nil {
			return nil, MatrixInfo{}, err
		}
		out.StorePopularity = pop.Renamed("store_popularity")
	}

	info := MatrixInfo{
		Users:        interactions.Distinct(ColCustomerID),
		Items:        interactions.Distinct(ColProductID),
		Interactions: interactions.Len(),
	}
	e.logger.Info().
		Int("users", info.Users).
		Int("items", info.Items).
		Int("interactions", info.Interactions).
		Msg("Generated user-item matrix")
	return out, info, nil
}

// aggregatePurchases groups by (owner, product_id), summing quantity and
// counting transactions. When dateCol is set, last_purchased is the latest day.
func aggregatePurchases(df *table.Table, owner, dateCol string) (*table.Table, error) {
	keys := []string{owner, ColProductID}
	groups, err := df.Groups(keys...)
	if err != nil {
		return nil, err
	}
	first := make([]int, len(groups))
	for g := range groups {
		first[g] = groups[g].Rows[0]
	}
	heads := df.Take(first)

	qty := make([]float64, len(groups))
	count := make([]float64, len(groups))
	qtyCol := df.Column(ColQuantity)
	txCol := df.Column(ColTransactionID)
	for g, grp := range groups {
		for _, r := range grp.Rows {
			if qtyCol != nil {
				if v, ok := qtyCol.FloatAt(r); ok {
					qty[g] += v
				}
			}
			if txCol == nil || !txCol.IsNull(r) {
				count[g]++
			}
		}
	}

	cols := []*table.Column{
		heads.Column(owner),
		heads.Column(ColProductID),
		table.NewFloatColumn(ColQuantity, qty, nil),
		table.NewFloatColumn(ColPurchaseCount, count, nil),
	}

	if dc := df.Column(dateCol); dateCol != "" && dc != nil {
		last := make([]time.Time, len(groups))
		for g, grp := range groups {
			for _, r := range grp.Rows {
				if d, ok := dc.TimeAt(r); ok && d.After(last[g]) {
					last[g] = d
				}
			}
		}
		cols = append(cols, table.NewTimeColumn(ColLastPurchased, last, nil))
	}
	return table.New("purchases", cols...)
}

// Price range bins are right-closed: (0,500], (500,1000], ...
var (
	priceBins   = []float64{500, 1000, 2000, 5000}
	priceLabels = []string{"very_cheap", "cheap", "medium", "expensive", "very_expensive"}
)

// GenerateProductFeatures returns the product table with a price_range band
// derived from retail_price_jpy.
func (e *Engine) GenerateProductFeatures() (*table.Table, error) {
	product, err := e.require(TableProduct)
	if err != nil {
		return nil, err
	}
	price := product.Column(ColRetailPrice)
	if price == nil {
		return product, nil
	}

	n := product.Len()
	labels := make([]string, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if label, ok := PriceRange(price, i); ok {
			labels[i], valid[i] = label, true
		}
	}
	return product.WithColumns(table.NewStringColumn(ColPriceRange, labels, valid))
}

// PriceRange returns the price band label for row i, or false when the price
// is null or not positive.
func PriceRange(price *table.Column, i int) (string, bool) {
	p, ok := price.FloatAt(i)
	if !ok || p <= 0 {
		return "", false
	}
	for b, upper := range priceBins {
		if p <= upper {
			return priceLabels[b], true
		}
	}
	return priceLabels[len(priceLabels)-1], true
}
