// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package reranking post-processes recommendation lists for category
// diversity.
//
// The hybrid recommender over-fetches candidates and, when
// recommend.diversity_lambda is below 1, passes them through MMR so a list
// is not dominated by a single product category.
package reranking
