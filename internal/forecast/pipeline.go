// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package forecast

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/features"
	"github.com/tomtom215/shelfcast/internal/table"
)

// Forecast methods.
const (
	MethodBaseline         = "baseline"
	MethodBaselineFallback = "baseline_fallback"
	MethodGradientBoost    = "gradient_boost"
)

// excludedColumns never become model features.
var excludedColumns = map[string]struct{}{
	features.ColDate:          {},
	features.ColProductID:     {},
	features.ColStoreID:       {},
	features.ColCustomerID:    {},
	features.ColTransactionID: {},
	"product_name":            {},
	"store_name":              {},
}

// Pipeline trains and serves demand forecasts from a feature matrix.
type Pipeline struct {
	cfg    Config
	logger zerolog.Logger
	matrix *table.Table
	now    func() time.Time

	mu           sync.RWMutex
	trained      bool
	baseline     *Baseline
	model        *Model
	featureNames []string
	latest       map[string][]float64
	lastDate     time.Time
	metrics      Metrics
	warnings     []string
}

// NewPipeline creates an untrained pipeline over the feature matrix.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewPipeline(matrix *table.Table, cfg Config, logger zerolog.Logger) *Pipeline {
	return &Pipeline{
		cfg:    cfg,
		logger: logger.With().Str("component", "forecast").Logger(),
		matrix: matrix,
		now:    time.Now,
	}
}

// Train fits the baseline and gradient boosted models. A small dataset adds a
// warning but does not fail.
func (p *Pipeline) Train(ctx context.Context) (Metrics, error) {
	if err := p.cfg.Validate(); err != nil {
		return Metrics{}, fmt.Errorf("invalid forecast config: %w", err)
	}
	if p.matrix == nil {
		return Metrics{}, ErrNoTrainingRows
	}
	target := p.matrix.Column(p.cfg.Target)
	if target == nil {
		return Metrics{}, fmt.Errorf("target column %q not found", p.cfg.Target)
	}

	df := p.matrix.Filter(func(i int) bool { return !target.IsNull(i) })
	if df.Len() == 0 {
		return Metrics{}, ErrNoTrainingRows
	}

	var warnings []string
	if df.Len() < p.cfg.MinTrainingRows {
		msg := fmt.Sprintf("insufficient data: %d rows, recommended at least %d", df.Len(), p.cfg.MinTrainingRows)
		warnings = append(warnings, msg)
		p.logger.Warn().Int("rows", df.Len()).Int("min_rows", p.cfg.MinTrainingRows).Msg("Training on a small dataset")
	}

	baseline, err := fitBaseline(df, p.cfg.Target, p.cfg.BaselineWindow)
	if err != nil {
		return Metrics{}, fmt.Errorf("fit baseline: %w", err)
	}

	names := featureColumns(df, p.cfg.Target)
	x := featureRows(df, names)
	y := make([]float64, df.Len())
	yc := df.Column(p.cfg.Target)
	for i := range y {
		y[i], _ = yc.FloatAt(i)
	}

	split := int(float64(len(x)) * (1 - p.cfg.TestSize))
	if split < 1 {
		split = len(x)
	}
	xTrain, yTrain := x[:split], y[:split]
	xValid, yValid := x[split:], y[split:]

	model, err := fitGBM(ctx, p.cfg.GBM, xTrain, yTrain, xValid, yValid)
	if err != nil {
		return Metrics{}, fmt.Errorf("fit gradient boosting: %w", err)
	}

	evalX, evalY := xValid, yValid
	if len(xValid) == 0 {
		evalX, evalY = xTrain, yTrain
		msg := "no validation rows, metrics computed on the training slice"
		warnings = append(warnings, msg)
		p.logger.Warn().Int("rows", len(x)).Msg(msg)
	}
	pred := make([]float64, len(evalX))
	for i := range evalX {
		pred[i] = model.Predict(evalX[i])
	}

	metrics := Metrics{
		MAE:           mae(evalY, pred),
		RMSE:          rmse(evalY, pred),
		MAPE:          mape(evalY, pred),
		BestIteration: model.BestIteration,
		TrainRows:     len(xTrain),
		ValidRows:     len(xValid),
		FeatureCount:  len(names),
		Warnings:      warnings,
	}

	latest, lastDate := latestVectors(p.matrix, names)

	p.mu.Lock()
	p.baseline = baseline
	p.model = model
	p.featureNames = names
	p.latest = latest
	p.lastDate = lastDate
	p.metrics = metrics
	p.warnings = warnings
	p.trained = true
	p.mu.Unlock()

	p.logger.Info().
		Float64("mae", metrics.MAE).
		Float64("rmse", metrics.RMSE).
		Float64("mape", metrics.MAPE).
		Int("best_iteration", metrics.BestIteration).
		Int("features", metrics.FeatureCount).
		Msg("Forecast model trained")
	return metrics, nil
}

// featureColumns returns every numeric column usable as a model input.
func featureColumns(t *table.Table, target string) []string {
	var names []string
	for _, c := range t.Columns() {
		if c.Kind() != table.KindFloat || c.Name() == target {
			continue
		}
		if _, skip := excludedColumns[c.Name()]; skip {
			continue
		}
		names = append(names, c.Name())
	}
	return names
}

// featureRows materializes the feature matrix with nulls as 0.
func featureRows(t *table.Table, names []string) [][]float64 {
	cols := make([]*table.Column, len(names))
	for j, n := range names {
		cols[j] = t.Column(n)
	}
	rows := make([][]float64, t.Len())
	for i := range rows {
		rows[i] = rowVector(cols, i)
	}
	return rows
}

func rowVector(cols []*table.Column, i int) []float64 {
	v := make([]float64, len(cols))
	for j, c := range cols {
		if c == nil {
			continue
		}
		v[j], _ = c.FloatAt(i)
	}
	return v
}

// latestVectors returns the last feature row per (product, store) and the
// latest date. Without identifier columns the last row is stored under the
// empty pair.
func latestVectors(t *table.Table, names []string) (map[string][]float64, time.Time) {
	cols := make([]*table.Column, len(names))
	for j, n := range names {
		cols[j] = t.Column(n)
	}
	latest := make(map[string][]float64)
	products, stores := t.Column(features.ColProductID), t.Column(features.ColStoreID)
	for i := 0; i < t.Len(); i++ {
		key := pairKey("", "")
		if products != nil && stores != nil {
			p, ok1 := products.StringAt(i)
			s, ok2 := stores.StringAt(i)
			if !ok1 || !ok2 {
				continue
			}
			key = pairKey(p, s)
		}
		latest[key] = rowVector(cols, i)
	}

	var last time.Time
	if dates := t.Column(features.ColDate); dates != nil {
		for i := 0; i < t.Len(); i++ {
			if d, ok := dates.TimeAt(i); ok && d.After(last) {
				last = d
			}
		}
	}
	return latest, last
}

// Result is a single series forecast.
type Result struct {
	ProductID        string    `json:"product_id"`
	StoreID          string    `json:"store_id"`
	Method           string    `json:"method"`
	Horizon          int       `json:"horizon"`
	Predictions      []float64 `json:"predictions"`
	Dates            []string  `json:"dates"`
	TotalForecast    float64   `json:"total_forecast"`
	AvgDailyForecast float64   `json:"avg_daily_forecast"`
}

// Forecast predicts horizon days of demand for one (product, store) series.
func (p *Pipeline) Forecast(productID, storeID string, horizon int, useBaseline bool) (*Result, error) {
	if horizon < 1 {
		return nil, &InvalidRequestError{Field: "horizon", Reason: "must be at least 1"}
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if !p.trained {
		return nil, ErrNotTrained
	}

	var preds []float64
	method := MethodBaseline
	if !useBaseline {
		vec, ok := p.latest[pairKey(productID, storeID)]
		if !ok {
			vec, ok = p.latest[pairKey("", "")]
		}
		if ok {
			method = MethodGradientBoost
			preds = make([]float64, horizon)
			for i := range preds {
				v := p.model.Predict(vec)
				if v < 0 {
					v = 0
				}
				preds[i] = v
			}
		} else {
			method = MethodBaselineFallback
		}
	}
	if preds == nil {
		preds = p.baseline.Predict(productID, storeID, horizon)
	}

	start := p.lastDate
	if start.IsZero() {
		y, m, d := p.now().Date()
		start = time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	} else {
		start = start.AddDate(0, 0, 1)
	}
	dates := make([]string, horizon)
	total := 0.0
	for i := range dates {
		dates[i] = start.AddDate(0, 0, i).Format("2006-01-02")
		total += preds[i]
	}

	return &Result{
		ProductID:        productID,
		StoreID:          storeID,
		Method:           method,
		Horizon:          horizon,
		Predictions:      preds,
		Dates:            dates,
		TotalForecast:    total,
		AvgDailyForecast: total / float64(horizon),
	}, nil
}

// Pair is a (product, store) series identifier.
type Pair struct {
	ProductID string `json:"product_id" validate:"required"`
	StoreID   string `json:"store_id" validate:"required"`
}

// BatchResult is one entry of a batch forecast. Exactly one of Result and
// Error is set.
type BatchResult struct {
	*Result
	ProductID string `json:"product_id"`
	StoreID   string `json:"store_id"`
	Error     string `json:"error,omitempty"`
}

// BatchForecast forecasts each pair independently. A failing pair records
// its error without affecting the others.
func (p *Pipeline) BatchForecast(pairs []Pair, horizon int) []BatchResult {
	out := make([]BatchResult, 0, len(pairs))
	for _, pair := range pairs {
		br := BatchResult{ProductID: pair.ProductID, StoreID: pair.StoreID}
		if pair.ProductID == "" || pair.StoreID == "" {
			br.Error = (&InvalidRequestError{Field: "pair", Reason: "product_id and store_id are required"}).Error()
			out = append(out, br)
			continue
		}
		res, err := p.Forecast(pair.ProductID, pair.StoreID, horizon, false)
		if err != nil {
			p.logger.Error().Err(err).
				Str("product_id", pair.ProductID).
				Str("store_id", pair.StoreID).
				Msg("Batch forecast failed for pair")
			br.Error = err.Error()
		} else {
			br.Result = res
		}
		out = append(out, br)
	}
	return out
}

// IsTrained reports whether Train has succeeded.
func (p *Pipeline) IsTrained() bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.trained
}

// Metrics returns the metrics of the last successful training run.
func (p *Pipeline) Metrics() Metrics {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.metrics
}

// Warnings returns data-sufficiency warnings from training.
func (p *Pipeline) Warnings() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.warnings...)
}

// FeatureNames returns the model input columns in order.
func (p *Pipeline) FeatureNames() []string {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return append([]string(nil), p.featureNames...)
}

// FeatureImportance is a feature with its split count.
type FeatureImportance struct {
	Feature string `json:"feature"`
	Splits  int    `json:"splits"`
}

// FeatureImportance returns features ordered by split count, descending.
func (p *Pipeline) FeatureImportance() []FeatureImportance {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.model == nil {
		return nil
	}
	out := make([]FeatureImportance, len(p.featureNames))
	for i, n := range p.featureNames {
		out[i] = FeatureImportance{Feature: n, Splits: p.model.Importance[i]}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Splits > out[j].Splits })
	return out
}
