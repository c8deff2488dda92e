// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import (
	"errors"
	"fmt"
)

var (
	// ErrVersionNotFound is returned for an unknown data version.
	ErrVersionNotFound = errors.New("data version not found")

	// ErrUnknownModel is returned for a model type other than forecast or
	// recommend.
	ErrUnknownModel = errors.New("unknown model type")

	// ErrQueueFull is returned by Schedule when the job queue is at capacity.
	ErrQueueFull = errors.New("training queue is full")

	// ErrNoVersions is returned by Latest on an empty catalog.
	ErrNoVersions = errors.New("no data versions registered")
)

// PanicError wraps a panic recovered during a training run.
type PanicError struct {
	Value interface{}
}

func (e *PanicError) Error() string {
	return fmt.Sprintf("panic: %v", e.Value)
}

// StageError reports the stage at which a training run failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}
