// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package features

import "fmt"

// MissingTableError reports that a required source table is absent.
type MissingTableError struct {
	Table string
}

func (e *MissingTableError) Error() string {
	return fmt.Sprintf("missing required table %q", e.Table)
}

// MissingKeyError reports that a required join or grouping column is absent.
type MissingKeyError struct {
	Table  string
	Column string
}

func (e *MissingKeyError) Error() string {
	return fmt.Sprintf("table %q is missing key column %q", e.Table, e.Column)
}
