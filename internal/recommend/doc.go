// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package recommend implements the hybrid product recommender.
//
// # Architecture
//
// The Hybrid combines three models from the algorithms package:
//
//   - Collaborative filtering: neighbour-weighted scores for known customers
//   - Content-based: products similar to the customer's recent purchases
//   - Popularity: pads short lists and serves cold-start requests
//
// Sub-model failures during Fit degrade the hybrid rather than failing it.
// Degraded reports which models are unavailable.
//
// # Usage
//
//	h, err := recommend.NewHybrid(recommend.DefaultConfig(), logger)
//	if err != nil {
//	    return err
//	}
//	if _, err := h.Fit(ctx, recommend.FitInput{
//	    Interactions:    interactions.Table,
//	    StorePopularity: interactions.StorePopularity,
//	    Products:        products,
//	}); err != nil {
//	    return err
//	}
//	items, err := h.Recommend("C001", 10, 0)
//
// # Thread Safety
//
// The Hybrid is safe for concurrent use. Fit builds new sub-models off to the
// side and swaps them in under an exclusive lock, so readers never observe a
// partially trained model.
package recommend
