// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package storage persists trained model artifacts to disk.
//
// # Overview
//
// The store provides:
//   - Gob serialization of forecast and recommender state structs
//   - Gzip compression to reduce storage footprint
//   - SHA-256 checksums for integrity verification on load
//   - Revision tracking per artifact name
//   - Pruning of old revisions
//
// # Storage Format
//
// Each artifact is a single gob-encoded file:
//
//	filename: {model}_{data_version}_v{revision}.gob.gz
//
//	structure:
//	  - Metadata
//	  - CompressedData (gzip-compressed gob-encoded state)
//
// Files are written to a temporary name and renamed into place, so a crash
// never leaves a truncated artifact behind.
//
// # Usage Example
//
//	store, err := storage.NewStore("/data/artifacts")
//	if err != nil {
//	    return err
//	}
//
//	state, _ := pipeline.Snapshot()
//	meta, err := store.Save(ctx, storage.ArtifactName("forecast", versionID), state, storage.Metadata{
//	    Model:        "forecast",
//	    DataVersion:  versionID,
//	    FeatureNames: state.FeatureNames,
//	})
//
//	var restored forecast.PipelineState
//	meta, err = store.Load(ctx, storage.ArtifactName("forecast", versionID), 0, &restored)
//
// # Thread Safety
//
// All store operations are safe for concurrent use.
package storage
