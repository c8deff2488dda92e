// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package services adapts components without a context-aware Serve method
// to suture.Service: the HTTP server and the periodic retrain ticker.
package services
