// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/events"
	"github.com/tomtom215/shelfcast/internal/features"
	"github.com/tomtom215/shelfcast/internal/forecast"
	"github.com/tomtom215/shelfcast/internal/metrics"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/storage"
	"github.com/tomtom215/shelfcast/internal/table"
)

// prerequisites lists the tables each model needs before it can run.
var prerequisites = map[string][]string{
	ModelForecast:  {features.TableTransactionItems, features.TableTransaction},
	ModelRecommend: {features.TableTransactionItems, features.TableTransaction, features.TableProduct},
}

// Deps are the collaborators of an Orchestrator.
type Deps struct {
	Catalog     *Catalog
	Records     RecordStore
	Registry    *Registry
	Broadcaster *events.Broadcaster

	// Artifacts persists trained models. Nil disables persistence.
	Artifacts *storage.Store
}

// RunResult is the outcome of a synchronous training run.
type RunResult struct {
	Record            Record                       `json:"record"`
	ForecastMetrics   *forecast.Metrics            `json:"metrics,omitempty"`
	FeatureImportance []forecast.FeatureImportance `json:"feature_importance,omitempty"`
	MatrixInfo        *features.MatrixInfo         `json:"matrix_info,omitempty"`
	Summary           *recommend.Summary           `json:"summary,omitempty"`
}

type job struct {
	version string
	model   string
}

type step struct {
	stage Stage
	run   func() error
}

// Orchestrator runs training per (data version, model), records progress and
// installs successful artifacts in the registry.
type Orchestrator struct {
	cfg          Config
	forecastCfg  forecast.Config
	recommendCfg *recommend.Config

	catalog     *Catalog
	records     RecordStore
	registry    *Registry
	broadcaster *events.Broadcaster
	artifacts   *storage.Store
	logger      zerolog.Logger

	jobs  chan job
	locks sync.Map // recordKey -> *sync.Mutex

	// beforeStage runs ahead of every stage's work. Tests use it to inject
	// failures.
	beforeStage func(model string, stage Stage) error
	now         func() time.Time
}

// NewOrchestrator creates an orchestrator.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewOrchestrator(cfg Config, fc forecast.Config, rc *recommend.Config, deps Deps, logger zerolog.Logger) (*Orchestrator, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid training config: %w", err)
	}
	if err := fc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid forecast config: %w", err)
	}
	if rc == nil {
		rc = recommend.DefaultConfig()
	}
	if err := rc.Validate(); err != nil {
		return nil, fmt.Errorf("invalid recommend config: %w", err)
	}
	if deps.Catalog == nil || deps.Records == nil || deps.Registry == nil || deps.Broadcaster == nil {
		return nil, errors.New("catalog, records, registry and broadcaster are required")
	}
	return &Orchestrator{
		cfg:          cfg,
		forecastCfg:  fc,
		recommendCfg: rc.Clone(),
		catalog:      deps.Catalog,
		records:      deps.Records,
		registry:     deps.Registry,
		broadcaster:  deps.Broadcaster,
		artifacts:    deps.Artifacts,
		logger:       logger.With().Str("component", "training").Logger(),
		jobs:         make(chan job, cfg.QueueSize),
		now:          time.Now,
	}, nil
}

// Catalog returns the data version catalog.
func (o *Orchestrator) Catalog() *Catalog { return o.catalog }

// Registry returns the artifact registry.
func (o *Orchestrator) Registry() *Registry { return o.registry }

// AutoTrain reports whether registering a version schedules training.
func (o *Orchestrator) AutoTrain() bool { return o.cfg.AutoTrain }

func (o *Orchestrator) lockFor(version, model string) *sync.Mutex {
	m, _ := o.locks.LoadOrStore(recordKey{version, model}, &sync.Mutex{})
	return m.(*sync.Mutex)
}

// missingTables returns the model's prerequisite tables absent from v.
func missingTables(v *DataVersion, model string) []string {
	var missing []string
	for _, name := range prerequisites[model] {
		if v.Tables[name] == nil {
			missing = append(missing, name)
		}
	}
	return missing
}

// Run trains model on version and blocks until the run finishes. Runs of the
// same (version, model) are serialized. Once started a run ignores ctx
// cancellation.
//
// A run with missing prerequisite tables is recorded as skipped and returns
// a nil error. A failed run returns its record together with the error.
func (o *Orchestrator) Run(ctx context.Context, version, model string) (RunResult, error) {
	if !ValidModel(model) {
		return RunResult{}, fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	v, err := o.catalog.Get(version)
	if err != nil {
		return RunResult{}, err
	}

	mu := o.lockFor(version, model)
	mu.Lock()
	defer mu.Unlock()

	ctx = context.WithoutCancel(ctx)
	start := o.now()
	rec := Record{
		Version: version,
		Model:   model,
		Status:  StatusPending,
		Stage:   StagePending,
	}

	if missing := missingTables(v, model); len(missing) > 0 {
		rec.Status = StatusSkipped
		rec.Stage = StageSkipped
		rec.Error = "missing required tables: " + strings.Join(missing, ", ")
		rec.FinishedAt = &start
		o.save(ctx, &rec)
		metrics.RecordTrainingRun(model, string(StatusSkipped), 0)
		o.logger.Info().
			Str("version", version).
			Str("model", model).
			Strs("missing", missing).
			Msg("training skipped")
		return RunResult{Record: rec.Clone()}, nil
	}

	rec.Status = StatusRunning
	rec.StartedAt = &start
	o.save(ctx, &rec)
	o.logger.Info().Str("version", version).Str("model", model).Msg("training started")

	var res RunResult
	art, trace, err := o.execute(ctx, v, &rec, &res)
	finished := o.now()
	rec.FinishedAt = &finished
	duration := finished.Sub(start)

	if err != nil {
		rec.Status = StatusFailed
		rec.Stage = StageFailed
		rec.Error = err.Error()
		rec.ErrorTrace = trace
		o.save(ctx, &rec)
		metrics.RecordTrainingRun(model, string(StatusFailed), duration)
		o.logger.Error().
			Err(err).
			Str("version", version).
			Str("model", model).
			Int("progress", rec.Progress).
			Msg("training failed")
		res.Record = rec.Clone()
		return res, fmt.Errorf("train %s on %s: %w", model, version, err)
	}

	rec.Status = StatusCompleted
	rec.Stage = StageComplete
	rec.Progress = StageComplete.Progress(model)
	art.TrainedAt = finished
	o.persistArtifact(ctx, art, &rec, duration)
	o.registry.Swap(art)
	o.save(ctx, &rec)
	metrics.RecordTrainingRun(model, string(StatusCompleted), duration)
	o.logger.Info().
		Str("version", version).
		Str("model", model).
		Dur("duration", duration).
		Msg("training completed")

	res.Record = rec.Clone()
	return res, nil
}

// execute runs the model's stages in order, recording progress after each.
// Panics are recovered into errors with a bounded stack trace.
func (o *Orchestrator) execute(ctx context.Context, v *DataVersion, rec *Record, res *RunResult) (art *Artifact, trace string, err error) {
	current := StagePending
	defer func() {
		if p := recover(); p != nil {
			art = nil
			err = &StageError{Stage: current, Err: &PanicError{Value: p}}
			trace = boundTrace(debug.Stack(), o.cfg.TraceLines)
		}
	}()

	var steps []step
	var result *Artifact
	switch rec.Model {
	case ModelForecast:
		steps = o.forecastSteps(ctx, v, rec, res, &result)
	case ModelRecommend:
		steps = o.recommendSteps(ctx, v, rec, res, &result)
	}

	for _, s := range steps {
		current = s.stage
		if o.beforeStage != nil {
			if err := o.beforeStage(rec.Model, s.stage); err != nil {
				return nil, boundTrace(debug.Stack(), o.cfg.TraceLines), &StageError{Stage: s.stage, Err: err}
			}
		}
		if err := s.run(); err != nil {
			return nil, boundTrace(debug.Stack(), o.cfg.TraceLines), &StageError{Stage: s.stage, Err: err}
		}
		rec.Stage = s.stage
		rec.Progress = s.stage.Progress(rec.Model)
		o.save(ctx, rec)
	}
	if result == nil {
		return nil, "", &StageError{Stage: current, Err: errors.New("no artifact produced")}
	}
	return result, "", nil
}

func (o *Orchestrator) forecastSteps(ctx context.Context, v *DataVersion, rec *Record, res *RunResult, out **Artifact) []step {
	var (
		engine   *features.Engine
		ff       *features.ForecastFeatures
		pipeline *forecast.Pipeline
		m        forecast.Metrics
	)
	return []step{
		{StageInit, func() error {
			engine = features.NewEngine(v.Tables, o.logger)
			return nil
		}},
		{StageFeatureEngine, func() error {
			var err error
			ff, err = engine.GenerateForecastFeatures()
			return err
		}},
		{StageFeatureDone, func() error {
			if ff.Matrix.Len() == 0 {
				return errors.New("feature matrix is empty")
			}
			rec.Warnings = append(rec.Warnings, ff.Warnings...)
			rec.Metrics = map[string]float64{"feature_rows": float64(ff.Matrix.Len())}
			return nil
		}},
		{StageModelInit, func() error {
			pipeline = forecast.NewPipeline(ff.Matrix, o.forecastCfg, o.logger)
			return nil
		}},
		{StageModelTrain, func() error {
			var err error
			m, err = pipeline.Train(ctx)
			return err
		}},
		{StageMetrics, func() error {
			scores := m.Scores()
			scores["best_iteration"] = float64(m.BestIteration)
			scores["train_rows"] = float64(m.TrainRows)
			scores["valid_rows"] = float64(m.ValidRows)
			scores["feature_count"] = float64(m.FeatureCount)
			rec.Metrics = scores
			rec.Warnings = append(rec.Warnings, m.Warnings...)
			res.ForecastMetrics = &m
			res.FeatureImportance = pipeline.FeatureImportance()
			*out = &Artifact{Version: v.ID, Model: ModelForecast, Forecast: pipeline}
			return nil
		}},
	}
}

func (o *Orchestrator) recommendSteps(ctx context.Context, v *DataVersion, rec *Record, res *RunResult, out **Artifact) []step {
	var (
		engine   *features.Engine
		inter    *features.Interactions
		products *table.Table
		hybrid   *recommend.Hybrid
		summary  recommend.Summary
	)
	return []step{
		{StageInit, func() error {
			engine = features.NewEngine(v.Tables, o.logger)
			return nil
		}},
		{StageInteractionMatrix, func() error {
			var (
				info features.MatrixInfo
				err  error
			)
			inter, info, err = engine.GenerateUserItemMatrix()
			if err != nil {
				return err
			}
			rec.MatrixInfo = &info
			res.MatrixInfo = &info
			return nil
		}},
		{StageProductFeatures, func() error {
			var err error
			products, err = engine.GenerateProductFeatures()
			return err
		}},
		{StageModelInit, func() error {
			var err error
			hybrid, err = recommend.NewHybrid(o.recommendCfg.Clone(), o.logger)
			return err
		}},
		{StageModelTrain, func() error {
			var err error
			summary, err = hybrid.Fit(ctx, recommend.FitInput{
				Interactions:    inter.Table,
				StorePopularity: inter.StorePopularity,
				Products:        products,
			})
			return err
		}},
		{StageMetrics, func() error {
			rec.Metrics = map[string]float64{
				"n_customers": float64(summary.Customers),
				"n_products":  float64(summary.Products),
				"n_popular":   float64(summary.Popular),
				"n_degraded":  float64(len(summary.Degraded)),
			}
			for name, reason := range summary.Degraded {
				rec.Warnings = append(rec.Warnings, fmt.Sprintf("%s model unavailable: %s", name, reason))
			}
			res.Summary = &summary
			*out = &Artifact{Version: v.ID, Model: ModelRecommend, Recommend: hybrid}
			return nil
		}},
	}
}

// save stores the record and emits a progress event.
func (o *Orchestrator) save(ctx context.Context, rec *Record) {
	o.persistRecord(ctx, rec)
	o.emit(rec)
}

func (o *Orchestrator) persistRecord(ctx context.Context, rec *Record) {
	rec.UpdatedAt = o.now()
	if err := o.records.Put(ctx, *rec); err != nil {
		o.logger.Warn().
			Err(err).
			Str("version", rec.Version).
			Str("model", rec.Model).
			Msg("failed to store training record")
	}
}

func (o *Orchestrator) emit(rec *Record) {
	ev := events.ProgressEvent{
		Type:      events.TypeTrainingUpdate,
		Model:     rec.Model,
		Version:   rec.Version,
		Status:    string(rec.Status),
		Progress:  rec.Progress,
		Stage:     rec.Stage.String(),
		Error:     rec.Error,
		Timestamp: rec.UpdatedAt,
	}
	if len(rec.Metrics) > 0 {
		ev.Metrics = make(map[string]float64, len(rec.Metrics))
		for k, v := range rec.Metrics {
			ev.Metrics[k] = v
		}
	}
	metrics.SetTrainingProgress(rec.Model, rec.Progress)
	o.broadcaster.Publish(ev)
}

func (o *Orchestrator) invoke(cb func(events.ProgressEvent), ev events.ProgressEvent) {
	defer func() {
		if p := recover(); p != nil {
			o.logger.Error().Interface("panic", p).Msg("progress callback panicked")
		}
	}()
	cb(ev)
}

// persistArtifact saves the trained state to the artifact store. Failures
// are logged; the run still succeeds.
func (o *Orchestrator) persistArtifact(ctx context.Context, art *Artifact, rec *Record, duration time.Duration) {
	if o.artifacts == nil {
		return
	}
	meta := storage.Metadata{
		Model:              art.Model,
		DataVersion:        art.Version,
		TrainedAt:          art.TrainedAt,
		Metrics:            rec.Metrics,
		TrainingDurationMS: duration.Milliseconds(),
	}
	var state interface{}
	switch {
	case art.Forecast != nil:
		st, err := art.Forecast.Snapshot()
		if err != nil {
			o.logger.Warn().Err(err).Msg("failed to snapshot forecast pipeline")
			return
		}
		meta.FeatureNames = st.FeatureNames
		state = st
	case art.Recommend != nil:
		st, err := art.Recommend.Snapshot()
		if err != nil {
			o.logger.Warn().Err(err).Msg("failed to snapshot recommender")
			return
		}
		state = st
	default:
		return
	}

	name := storage.ArtifactName(art.Model, art.Version)
	saved, err := o.artifacts.Save(ctx, name, state, meta)
	if err != nil {
		o.logger.Warn().Err(err).Str("artifact", name).Msg("failed to persist artifact")
		return
	}
	if o.cfg.KeepRevisions > 0 {
		if err := o.artifacts.Prune(ctx, name, o.cfg.KeepRevisions); err != nil {
			o.logger.Warn().Err(err).Str("artifact", name).Msg("failed to prune artifact revisions")
		}
	}
	o.logger.Debug().
		Str("artifact", name).
		Int("revision", saved.Revision).
		Int64("size_bytes", saved.SizeBytes).
		Msg("artifact persisted")
}

// RestoreArtifacts loads the latest persisted revision of every artifact
// into the registry. The most recently saved artifact per model becomes
// current. It returns the number of artifacts restored.
func (o *Orchestrator) RestoreArtifacts(ctx context.Context) (int, error) {
	if o.artifacts == nil {
		return 0, nil
	}
	list, err := o.artifacts.List(ctx)
	if err != nil {
		return 0, fmt.Errorf("list artifacts: %w", err)
	}
	restored := 0
	for _, meta := range list {
		art, err := o.loadArtifact(ctx, meta)
		if err != nil {
			o.logger.Warn().Err(err).Str("artifact", meta.Name).Msg("skipping unreadable artifact")
			continue
		}
		o.registry.Swap(art)
		restored++
	}
	if restored > 0 {
		o.logger.Info().Int("artifacts", restored).Msg("restored trained models")
	}
	return restored, nil
}

//nolint:gocritic // metadata passed by value mirrors List output
func (o *Orchestrator) loadArtifact(ctx context.Context, meta storage.Metadata) (*Artifact, error) {
	art := &Artifact{Version: meta.DataVersion, Model: meta.Model, TrainedAt: meta.TrainedAt}
	switch meta.Model {
	case ModelForecast:
		var st forecast.PipelineState
		if _, err := o.artifacts.Load(ctx, meta.Name, meta.Revision, &st); err != nil {
			return nil, err
		}
		p, err := forecast.Restore(&st, o.logger)
		if err != nil {
			return nil, err
		}
		art.Forecast = p
	case ModelRecommend:
		var st recommend.HybridState
		if _, err := o.artifacts.Load(ctx, meta.Name, meta.Revision, &st); err != nil {
			return nil, err
		}
		h, err := recommend.Restore(ctx, &st, o.logger)
		if err != nil {
			return nil, err
		}
		art.Recommend = h
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownModel, meta.Model)
	}
	return art, nil
}

// Schedule queues a background run of model on version and returns
// immediately. It fails with ErrQueueFull when the queue is at capacity.
func (o *Orchestrator) Schedule(version, model string) error {
	if !ValidModel(model) {
		return fmt.Errorf("%w: %q", ErrUnknownModel, model)
	}
	if _, err := o.catalog.Get(version); err != nil {
		return err
	}

	select {
	case o.jobs <- job{version: version, model: model}:
	default:
		return ErrQueueFull
	}
	metrics.TrainingQueueDepth.Set(float64(len(o.jobs)))

	ctx := context.Background()
	if prev, ok, _ := o.records.Get(ctx, version, model); !ok || prev.Status.Terminal() {
		o.persistRecord(ctx, &Record{
			Version: version,
			Model:   model,
			Status:  StatusPending,
			Stage:   StagePending,
		})
	}
	o.logger.Debug().Str("version", version).Str("model", model).Msg("training scheduled")
	return nil
}

// RegisterVersion adds tables to the catalog as a new data version and
// records every model as pending on it. With auto-train enabled both models
// are scheduled; scheduling failures are logged and do not undo the
// registration.
func (o *Orchestrator) RegisterVersion(tables features.Tables, source string) (*DataVersion, error) {
	v, err := o.catalog.Register(tables, source)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	for _, model := range Models {
		o.persistRecord(ctx, &Record{
			Version: v.ID,
			Model:   model,
			Status:  StatusPending,
			Stage:   StagePending,
		})
	}
	o.logger.Info().
		Str("version", v.ID).
		Str("source", source).
		Int("tables", len(v.Tables)).
		Msg("data version registered")

	if o.cfg.AutoTrain {
		for _, model := range Models {
			if err := o.Schedule(v.ID, model); err != nil {
				o.logger.Warn().Err(err).Str("version", v.ID).Str("model", model).Msg("auto-train not scheduled")
			}
		}
	}
	return v, nil
}

// ScheduleLatest queues every model for the latest version and returns its
// ID. It stops at the first scheduling error.
func (o *Orchestrator) ScheduleLatest() (string, error) {
	v, err := o.catalog.Latest()
	if err != nil {
		return "", err
	}
	for _, model := range Models {
		if err := o.Schedule(v.ID, model); err != nil {
			return v.ID, err
		}
	}
	return v.ID, nil
}

// Record returns the training record for a (version, model) pair.
func (o *Orchestrator) Record(ctx context.Context, version, model string) (Record, bool, error) {
	return o.records.Get(ctx, version, model)
}

// Records returns the training records of a version, or of every version
// when version is empty.
func (o *Orchestrator) Records(ctx context.Context, version string) ([]Record, error) {
	return o.records.List(ctx, version)
}

// Subscribe returns a progress event subscription with its own queue.
func (o *Orchestrator) Subscribe(buffer int) *events.Subscription {
	return o.broadcaster.Subscribe(buffer)
}

// OnProgress runs cb for every progress event on a dedicated goroutine fed
// by its own subscription queue. A callback that falls behind is dropped
// like any other subscriber and never delays the run or other callbacks.
//
// The returned function removes the callback and waits until the events
// already queued for it have been delivered. It must not be called from
// inside cb.
func (o *Orchestrator) OnProgress(cb func(events.ProgressEvent)) func() {
	sub := o.broadcaster.Subscribe(events.DefaultBuffer)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for ev := range sub.C() {
			o.invoke(cb, ev)
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() { o.broadcaster.Unsubscribe(sub) })
		<-done
	}
}

// QueueLen returns the number of queued jobs.
func (o *Orchestrator) QueueLen() int {
	return len(o.jobs)
}

// boundTrace keeps the first n lines of a stack trace.
func boundTrace(stack []byte, n int) string {
	lines := strings.Split(strings.TrimRight(string(stack), "\n"), "\n")
	if len(lines) > n {
		lines = lines[:n]
	}
	return strings.Join(lines, "\n")
}
