// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package forecast implements short-horizon demand forecasting per
// (product, store) series.
//
// # Models
//
// Two models are trained on the same feature matrix:
//
//   - Baseline: mean of the last BaselineWindow observations per series,
//     with a global mean as fallback
//   - Gradient boosting: leaf-wise histogram boosted regression trees on
//     squared error, validated on the tail of the row order with early stopping
//
// # Forecasting
//
// Multi-step forecasts repeat a one-step prediction from the latest feature
// row of the series. Series without history fall back to the baseline.
//
// # Persistence
//
// Snapshot and Restore convert a trained pipeline to and from PipelineState,
// a plain struct suitable for gob encoding.
//
// # Thread Safety
//
// Pipeline is safe for concurrent use. Training swaps state under an
// exclusive lock while forecasts hold a shared lock.
package forecast
