// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package algorithms implements the recommendation models combined by the
// hybrid recommender.
//
// # Algorithm Categories
//
// Collaborative Filtering:
//   - UserBasedCF: user-user cosine similarity over a dense customer x
//     product matrix built from purchase counts
//
// Content-Based Filtering:
//   - ContentBased: product similarity over one-hot category attributes and
//     standardized retail price
//
// Baselines:
//   - Popularity: global and per-store best sellers by summed purchase count
//
// # Input
//
// Every model trains on a table.Table. Interaction tables carry customer_id,
// product_id and purchase_count (quantity is accepted when purchase_count is
// absent). Product tables carry product_id, any number of category columns,
// price_range and retail_price_jpy.
//
// # Usage Example
//
//	cf := algorithms.NewUserBasedCF(algorithms.DefaultKNNConfig())
//	if err := cf.Train(ctx, interactions); err != nil {
//	    return err
//	}
//	items := cf.Recommend("C001", 10)
//
// # Persistence
//
// Each model exposes Snapshot and Restore over plain exported structs so the
// state can be gob encoded by the artifact store. Similarity matrices are not
// persisted; they are recomputed from the restored vectors.
//
// # Thread Safety
//
// All algorithms are safe for concurrent use. Training acquires an exclusive
// lock while prediction uses a shared lock.
package algorithms
