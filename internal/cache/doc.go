// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package cache provides a bounded, TTL-aware LRU cache.
//
// The recommender keeps recent recommendation lists here, keyed by
// customer and list size, and clears it whenever the model is retrained:
//
//	lists := cache.NewLRU[[]Item](10000, 5*time.Minute)
//	if items, ok := lists.Get(key); ok {
//	    return items
//	}
//	lists.Add(key, items)
package cache
