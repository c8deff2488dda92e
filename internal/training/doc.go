// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package training runs model training per data version and tracks its progress.

# Lifecycle

RegisterVersion records every model as pending on the new version. Each
(version, model) pair then moves through

	pending -> running -> completed | failed
	pending -> skipped

A run whose prerequisite tables are missing is skipped without entering
running. Stages are an enum with a fixed progress percentage per model:

	forecast:  init 5, feature_engine 25, feature_done 40, model_init 50,
	           model_train 85, metrics 95, complete 100
	recommend: init 5, interaction_matrix 20, product_features 40,
	           model_init 55, model_train 85, metrics 95, complete 100

Progress is recorded after a stage's work completes, so a failure leaves the
record at the last stage reached. Panics are recovered and stored with a
stack trace bounded to Config.TraceLines lines.

# Components

  - Catalog: registered DataVersion snapshots
  - RecordStore: MemoryRecordStore (copy-on-write) or BadgerRecordStore
  - Registry: trained artifacts per (version, model) plus the current one
    per model type, swapped atomically on success
  - Orchestrator: Run (synchronous), Schedule (queued), Subscribe and
    OnProgress for progress events; each subscriber and callback has its
    own bounded queue
  - Worker: suture service that drains the queue, paced by a rate limiter

# Example

	orch, err := training.NewOrchestrator(cfg, forecast.DefaultConfig(), recommend.DefaultConfig(), training.Deps{
	    Catalog:     training.NewCatalog(),
	    Records:     training.NewMemoryRecordStore(),
	    Registry:    training.NewRegistry(),
	    Broadcaster: events.NewBroadcaster(logger, nil),
	}, logger)
	v, _ := orch.RegisterVersion(tables, "upload")
	res, err := orch.Run(ctx, v.ID, training.ModelForecast)
*/
package training
