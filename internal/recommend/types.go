// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package recommend

import (
	"errors"
	"fmt"

	"github.com/tomtom215/shelfcast/internal/recommend/algorithms"
	"github.com/tomtom215/shelfcast/internal/table"
)

// ErrNotTrained is returned when recommending before a successful Fit.
var ErrNotTrained = errors.New("recommender has not been trained")

// InsufficientDataError reports that training input lacks what a model needs.
type InsufficientDataError = algorithms.InsufficientDataError

// InvalidRequestError reports a malformed recommendation request.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Item is a recommended product.
type Item struct {
	ProductID string   `json:"product_id"`
	Score     float64  `json:"score"`
	Name      string   `json:"product_name,omitempty"`
	Category  string   `json:"category,omitempty"`
	Price     *float64 `json:"price,omitempty"`
}

// FitInput holds the tables the hybrid recommender trains on.
type FitInput struct {
	// Interactions has one row per (customer_id, product_id) with
	// purchase_count and last_purchased.
	Interactions *table.Table

	// StorePopularity has one row per (store_id, product_id). Optional.
	StorePopularity *table.Table

	// Products is the product master with category and price attributes.
	Products *table.Table
}

// ProductMeta is the display metadata attached to recommended items.
type ProductMeta struct {
	Name     string
	Category string
	Price    float64
	HasPrice bool
}

// Summary describes a fitted recommender.
type Summary struct {
	Customers int               `json:"n_customers"`
	Products  int               `json:"n_products"`
	Popular   int               `json:"n_popular"`
	Degraded  map[string]string `json:"degraded,omitempty"`
}
