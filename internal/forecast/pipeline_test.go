// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package forecast

import (
	"bytes"
	"context"
	"encoding/gob"
	"errors"
	"io"
	"math"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/table"
)

var start = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

// weeklyMatrix builds days of weekly-seasonal demand for each product at S1.
// Weekend days sell 20 units, weekdays 5.
func weeklyMatrix(t *testing.T, products []string, days int) *table.Table {
	t.Helper()
	b := table.NewBuilder("features", []table.Field{
		{Name: "product_id", Kind: table.KindString},
		{Name: "store_id", Kind: table.KindString},
		{Name: "date", Kind: table.KindTime},
		{Name: "sales_quantity", Kind: table.KindFloat},
		{Name: "dayofweek", Kind: table.KindFloat},
		{Name: "lag_7", Kind: table.KindFloat},
		{Name: "product_name", Kind: table.KindString},
	})
	for _, p := range products {
		for d := 0; d < days; d++ {
			date := start.AddDate(0, 0, d)
			dow := float64((int(date.Weekday()) + 6) % 7)
			qty := 5.0
			if dow >= 5 {
				qty = 20
			}
			var lag interface{}
			if d >= 7 {
				lag = qty
			}
			if err := b.Append(p, "S1", date, qty, dow, lag, "name-"+p); err != nil {
				t.Fatalf("Append() error = %v", err)
			}
		}
	}
	tbl, err := b.Build()
	if err != nil {
		t.Fatalf("Build() error = %v", err)
	}
	return tbl
}

func quietLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func TestPipeline_TrainAndForecast(t *testing.T) {
	p := NewPipeline(weeklyMatrix(t, []string{"P1", "P2"}, 140), DefaultConfig(), quietLogger())

	m, err := p.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if m.TrainRows != 224 || m.ValidRows != 56 {
		t.Errorf("split = %d/%d, want 224/56", m.TrainRows, m.ValidRows)
	}
	if m.FeatureCount != 2 {
		t.Errorf("FeatureCount = %d, want 2 (dayofweek, lag_7); names = %v", m.FeatureCount, p.FeatureNames())
	}
	if m.BestIteration < 1 || m.BestIteration > DefaultGBMConfig().NumEstimators {
		t.Errorf("BestIteration = %d, out of range", m.BestIteration)
	}
	if len(m.Warnings) != 0 {
		t.Errorf("Warnings = %v, want none for 280 rows", m.Warnings)
	}
	if math.IsNaN(m.RMSE) || m.RMSE > 5 {
		t.Errorf("RMSE = %v, want a fit better than 5 on a clean weekly pattern", m.RMSE)
	}

	res, err := p.Forecast("P1", "S1", 14, false)
	if err != nil {
		t.Fatalf("Forecast() error = %v", err)
	}
	if res.Method != MethodGradientBoost {
		t.Errorf("Method = %q, want %q", res.Method, MethodGradientBoost)
	}
	if len(res.Predictions) != 14 || len(res.Dates) != 14 {
		t.Fatalf("len = %d/%d, want 14", len(res.Predictions), len(res.Dates))
	}
	wantFirst := start.AddDate(0, 0, 140).Format("2006-01-02")
	if res.Dates[0] != wantFirst {
		t.Errorf("Dates[0] = %s, want %s", res.Dates[0], wantFirst)
	}
	for i, v := range res.Predictions {
		if v < 0 {
			t.Errorf("Predictions[%d] = %v, want non-negative", i, v)
		}
	}
	if math.Abs(res.TotalForecast-res.AvgDailyForecast*14) > 1e-9 {
		t.Errorf("TotalForecast %v inconsistent with AvgDailyForecast %v", res.TotalForecast, res.AvgDailyForecast)
	}
}

func TestPipeline_ForecastMethods(t *testing.T) {
	p := NewPipeline(weeklyMatrix(t, []string{"P1"}, 140), DefaultConfig(), quietLogger())
	if _, err := p.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	// Last 7 days of any week-aligned window: 5 weekdays at 5, 2 weekend days at 20.
	wantBaseline := (5*5.0 + 2*20.0) / 7

	tests := []struct {
		name        string
		product     string
		useBaseline bool
		wantMethod  string
	}{
		{"gradient boost for known series", "P1", false, MethodGradientBoost},
		{"explicit baseline", "P1", true, MethodBaseline},
		{"unknown series falls back", "P9", false, MethodBaselineFallback},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res, err := p.Forecast(tt.product, "S1", 3, tt.useBaseline)
			if err != nil {
				t.Fatalf("Forecast() error = %v", err)
			}
			if res.Method != tt.wantMethod {
				t.Errorf("Method = %q, want %q", res.Method, tt.wantMethod)
			}
			if tt.wantMethod == MethodGradientBoost {
				return
			}
			for i, v := range res.Predictions {
				if math.Abs(v-wantBaseline) > 1e-9 {
					t.Errorf("Predictions[%d] = %v, want %v", i, v, wantBaseline)
				}
			}
		})
	}
}

func TestPipeline_Errors(t *testing.T) {
	p := NewPipeline(weeklyMatrix(t, []string{"P1"}, 30), DefaultConfig(), quietLogger())

	if _, err := p.Forecast("P1", "S1", 7, false); !errors.Is(err, ErrNotTrained) {
		t.Errorf("Forecast() before Train error = %v, want ErrNotTrained", err)
	}

	m, err := p.Train(context.Background())
	if err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	if len(m.Warnings) == 0 || len(p.Warnings()) == 0 {
		t.Error("expected a data-sufficiency warning for 30 rows")
	}

	_, err = p.Forecast("P1", "S1", 0, false)
	var ire *InvalidRequestError
	if !errors.As(err, &ire) {
		t.Errorf("Forecast(horizon=0) error = %v, want *InvalidRequestError", err)
	}

	cfg := DefaultConfig()
	cfg.Target = "missing"
	if _, err := NewPipeline(weeklyMatrix(t, []string{"P1"}, 10), cfg, quietLogger()).Train(context.Background()); err == nil {
		t.Error("Train() with missing target should fail")
	}
}

func TestPipeline_BatchForecast(t *testing.T) {
	p := NewPipeline(weeklyMatrix(t, []string{"P1", "P2"}, 60), DefaultConfig(), quietLogger())
	if _, err := p.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	results := p.BatchForecast([]Pair{
		{ProductID: "P1", StoreID: "S1"},
		{ProductID: "", StoreID: "S1"},
		{ProductID: "P2", StoreID: "S1"},
	}, 5)

	if len(results) != 3 {
		t.Fatalf("len(results) = %d, want 3", len(results))
	}
	if results[0].Error != "" || results[0].Result == nil {
		t.Errorf("results[0] = %+v, want success", results[0])
	}
	if results[1].Error == "" || results[1].Result != nil {
		t.Errorf("results[1] = %+v, want validation error", results[1])
	}
	if results[2].Error != "" || len(results[2].Predictions) != 5 {
		t.Errorf("results[2] = %+v, want 5 predictions", results[2])
	}
}

func TestPipeline_SnapshotRestore(t *testing.T) {
	p := NewPipeline(weeklyMatrix(t, []string{"P1", "P2"}, 90), DefaultConfig(), quietLogger())
	if _, err := p.Snapshot(); !errors.Is(err, ErrNotTrained) {
		t.Errorf("Snapshot() before Train error = %v, want ErrNotTrained", err)
	}
	if _, err := p.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}

	state, err := p.Snapshot()
	if err != nil {
		t.Fatalf("Snapshot() error = %v", err)
	}
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(state); err != nil {
		t.Fatalf("gob encode error = %v", err)
	}
	var decoded PipelineState
	if err := gob.NewDecoder(&buf).Decode(&decoded); err != nil {
		t.Fatalf("gob decode error = %v", err)
	}

	restored, err := Restore(&decoded, quietLogger())
	if err != nil {
		t.Fatalf("Restore() error = %v", err)
	}

	gotNames, wantNames := restored.FeatureNames(), p.FeatureNames()
	if len(gotNames) != len(wantNames) {
		t.Fatalf("FeatureNames() = %v, want %v", gotNames, wantNames)
	}
	for i := range gotNames {
		if gotNames[i] != wantNames[i] {
			t.Errorf("FeatureNames()[%d] = %q, want %q", i, gotNames[i], wantNames[i])
		}
	}

	for _, useBaseline := range []bool{false, true} {
		want, _ := p.Forecast("P2", "S1", 7, useBaseline)
		got, err := restored.Forecast("P2", "S1", 7, useBaseline)
		if err != nil {
			t.Fatalf("restored Forecast() error = %v", err)
		}
		for i := range want.Predictions {
			if got.Predictions[i] != want.Predictions[i] {
				t.Errorf("baseline=%v Predictions[%d] = %v, want %v", useBaseline, i, got.Predictions[i], want.Predictions[i])
			}
		}
		if got.Dates[0] != want.Dates[0] {
			t.Errorf("Dates[0] = %s, want %s", got.Dates[0], want.Dates[0])
		}
	}

	if _, err := Restore(&PipelineState{}, quietLogger()); err == nil {
		t.Error("Restore() of empty state should fail")
	}
}

func TestFeatureImportance_Ordered(t *testing.T) {
	p := NewPipeline(weeklyMatrix(t, []string{"P1", "P2"}, 140), DefaultConfig(), quietLogger())
	if _, err := p.Train(context.Background()); err != nil {
		t.Fatalf("Train() error = %v", err)
	}
	imp := p.FeatureImportance()
	if len(imp) != 2 {
		t.Fatalf("len = %d, want 2", len(imp))
	}
	if imp[0].Splits < imp[1].Splits {
		t.Errorf("importance not sorted: %+v", imp)
	}
	if imp[0].Splits == 0 {
		t.Error("expected at least one split on a seasonal pattern")
	}
}
