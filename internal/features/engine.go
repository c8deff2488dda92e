// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package features turns cleaned retail tables into model inputs.

The Engine produces two kinds of output:
  - a forecast feature matrix keyed by (product_id, store_id, date), with
    calendar, lag, rolling, price and context features
  - recommendation inputs: the customer x product interaction table, the
    store-scoped popularity table and the product content table

Input tables are never mutated. Every step returns a new table.
*/
package features

import (
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/table"
)

// Source table names.
const (
	TableTransactionItems = "transaction_items"
	TableTransaction      = "transaction"
	TableProduct          = "product"
	TableStore            = "store"
	TableCustomer         = "customer"
	TablePromotion        = "promotion"
	TableWeather          = "weather"
	TableHoliday          = "holiday"
	TableInventory        = "inventory"
)

// Well-known column names.
const (
	ColProductID     = "product_id"
	ColStoreID       = "store_id"
	ColCustomerID    = "customer_id"
	ColTransactionID = "transaction_id"
	ColDate          = "date"
	ColQuantity      = "quantity"
	ColSalesQuantity = "sales_quantity"
	ColSalesAmount   = "sales_amount"
	ColPurchaseCount = "purchase_count"
	ColLastPurchased = "last_purchased"
	ColRetailPrice   = "retail_price_jpy"
	ColPriceRange    = "price_range"
	ColPrefecture    = "prefecture"
)

// dateCandidates lists date columns in resolution priority.
var dateCandidates = []string{"transaction_date", "date", "order_date", "sale_date"}

// Tables maps source table names to cleaned tables.
type Tables map[string]*table.Table

// Engine builds feature tables from a set of source tables.
type Engine struct {
	tables Tables
	logger zerolog.Logger
	now    func() time.Time
}

// NewEngine creates a feature engine over the given tables.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewEngine(tables Tables, logger zerolog.Logger) *Engine {
	return &Engine{
		tables: tables,
		logger: logger.With().Str("component", "features").Logger(),
		now:    time.Now,
	}
}

func (e *Engine) require(name string) (*table.Table, error) {
	t, ok := e.tables[name]
	if !ok || t == nil {
		return nil, &MissingTableError{Table: name}
	}
	return t, nil
}

func (e *Engine) optional(name string) *table.Table {
	return e.tables[name]
}

// findDateColumn resolves the date column by name priority, then by the
// first time-typed column.
func findDateColumn(t *table.Table) string {
	for _, c := range dateCandidates {
		if t.Has(c) {
			return c
		}
	}
	for _, c := range t.Columns() {
		if c.Kind() == table.KindTime {
			return c.Name()
		}
	}
	return ""
}

// truncateDay returns midnight UTC of t's calendar day.
func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// dayColumn converts a column to calendar days under a new name.
func dayColumn(name string, src *table.Column) *table.Column {
	n := src.Len()
	vals := make([]time.Time, n)
	valid := make([]bool, n)
	for i := 0; i < n; i++ {
		if t, ok := src.TimeAt(i); ok {
			vals[i] = truncateDay(t)
			valid[i] = true
		}
	}
	return table.NewTimeColumn(name, vals, valid)
}

// availableKeys returns the subset of names present in t, in order.
func availableKeys(t *table.Table, names ...string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if t.Has(n) {
			out = append(out, n)
		}
	}
	return out
}
