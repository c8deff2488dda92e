// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package forecast

import "math"

// Metrics summarizes a training run.
type Metrics struct {
	MAE  float64 `json:"mae"`
	RMSE float64 `json:"rmse"`
	// MAPE is a fraction computed over rows with a positive actual value.
	MAPE float64 `json:"mape"`

	BestIteration int      `json:"best_iteration"`
	TrainRows     int      `json:"train_rows"`
	ValidRows     int      `json:"valid_rows"`
	FeatureCount  int      `json:"feature_count"`
	Warnings      []string `json:"warnings,omitempty"`
}

// Scores returns the error metrics keyed by name.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (m Metrics) Scores() map[string]float64 {
	return map[string]float64{
		"mae":  m.MAE,
		"rmse": m.RMSE,
		"mape": m.MAPE,
	}
}

func mae(y, p []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	s := 0.0
	for i := range y {
		s += math.Abs(y[i] - p[i])
	}
	return s / float64(len(y))
}

func rmse(y, p []float64) float64 {
	if len(y) == 0 {
		return 0
	}
	s := 0.0
	for i := range y {
		d := y[i] - p[i]
		s += d * d
	}
	return math.Sqrt(s / float64(len(y)))
}

// mape ignores rows whose actual value is not positive. Zero when none remain.
func mape(y, p []float64) float64 {
	s, n := 0.0, 0
	for i := range y {
		if y[i] <= 0 {
			continue
		}
		s += math.Abs(y[i]-p[i]) / y[i]
		n++
	}
	if n == 0 {
		return 0
	}
	return s / float64(n)
}
