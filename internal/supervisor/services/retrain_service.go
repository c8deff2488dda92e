// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package services

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"
)

// Retrainer queues training of the latest data version.
// *training.Orchestrator satisfies it.
type Retrainer interface {
	ScheduleLatest() (string, error)
}

// RetrainService schedules both models on the latest version every interval.
type RetrainService struct {
	retrainer Retrainer
	interval  time.Duration
	logger    zerolog.Logger

	// isEmpty reports errors that mean "nothing to train yet".
	isEmpty func(error) bool
}

// NewRetrainService creates a periodic retrain service. Errors matching
// noVersions are logged at debug rather than warn.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewRetrainService(r Retrainer, interval time.Duration, noVersions error, logger zerolog.Logger) *RetrainService {
	return &RetrainService{
		retrainer: r,
		interval:  interval,
		logger:    logger.With().Str("service", "retrain").Logger(),
		isEmpty:   func(err error) bool { return noVersions != nil && errors.Is(err, noVersions) },
	}
}

// Serve implements suture.Service.
func (s *RetrainService) Serve(ctx context.Context) error {
	if s.interval <= 0 {
		return suture.ErrDoNotRestart
	}
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	s.logger.Info().Dur("interval", s.interval).Msg("periodic retraining enabled")
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.tick()
		}
	}
}

func (s *RetrainService) tick() {
	version, err := s.retrainer.ScheduleLatest()
	switch {
	case err == nil:
		s.logger.Info().Str("version", version).Msg("scheduled periodic retraining")
	case s.isEmpty(err):
		s.logger.Debug().Msg("no data version to retrain")
	default:
		s.logger.Warn().Err(err).Str("version", version).Msg("periodic retraining not scheduled")
	}
}

// String implements fmt.Stringer.
func (s *RetrainService) String() string {
	return "retrain-service"
}
