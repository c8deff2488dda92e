// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/tomtom215/shelfcast/internal/metrics"
)

// Worker drains the orchestrator's job queue. It implements suture.Service.
// Job starts are paced by a token bucket; a started run always finishes even
// when the worker is stopped.
type Worker struct {
	o       *Orchestrator
	limiter *rate.Limiter
	logger  zerolog.Logger
	name    string
}

// NewWorker creates a worker pacing job starts at cfg.StartsPerSecond with
// cfg.Burst.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewWorker(o *Orchestrator, cfg Config, logger zerolog.Logger) *Worker {
	return &Worker{
		o:       o,
		limiter: rate.NewLimiter(rate.Limit(cfg.StartsPerSecond), cfg.Burst),
		logger:  logger.With().Str("service", "training-worker").Logger(),
		name:    "training-worker",
	}
}

// Serve implements the suture.Service interface.
func (w *Worker) Serve(ctx context.Context) error {
	w.logger.Info().Msg("training worker started")
	for {
		select {
		case <-ctx.Done():
			w.logger.Info().Msg("training worker shutting down")
			return ctx.Err()
		case j := <-w.o.jobs:
			metrics.TrainingQueueDepth.Set(float64(len(w.o.jobs)))
			if err := w.limiter.Wait(ctx); err != nil {
				// Requeue; the run has not started.
				select {
				case w.o.jobs <- j:
				default:
					w.logger.Warn().Str("version", j.version).Str("model", j.model).Msg("dropping queued training job on shutdown")
				}
				return ctx.Err()
			}
			w.run(ctx, j)
		}
	}
}

func (w *Worker) run(ctx context.Context, j job) {
	res, err := w.o.Run(ctx, j.version, j.model)
	switch {
	case err == nil:
		w.logger.Debug().
			Str("version", j.version).
			Str("model", j.model).
			Str("status", string(res.Record.Status)).
			Msg("training job finished")
	case errors.Is(err, ErrVersionNotFound), errors.Is(err, ErrUnknownModel):
		w.logger.Warn().Err(err).Msg("discarding training job")
	default:
		// The record already carries the failure.
		w.logger.Debug().Err(err).Msg("training job failed")
	}
}

// String returns the service name for logging.
func (w *Worker) String() string {
	return w.name
}
