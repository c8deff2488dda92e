// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package forecast

import (
	"errors"
	"fmt"
)

var (
	// ErrNotTrained is returned when forecasting before a successful Train.
	ErrNotTrained = errors.New("forecast model has not been trained")

	// ErrNoTrainingRows is returned when no row has a target value.
	ErrNoTrainingRows = errors.New("no rows with a target value")
)

// InvalidRequestError reports a malformed forecast request.
type InvalidRequestError struct {
	Field  string
	Reason string
}

func (e *InvalidRequestError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}
