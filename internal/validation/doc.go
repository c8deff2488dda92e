// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package validation wraps go-playground/validator v10 with a shared
// instance, an "identifier" rule for retail IDs and readable messages.
//
//	type ForecastQuery struct {
//	    ProductID string `validate:"required,max=128,identifier"`
//	}
//
//	if verr := validation.ValidateStruct(&q); verr != nil {
//	    // verr.Fields() feeds the VALIDATION_FAILED details
//	}
package validation
