// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package websocket

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/thejerf/suture/v4"

	"github.com/tomtom215/shelfcast/internal/events"
)

// Feeder relays broadcaster events into the hub.
type Feeder struct {
	broadcaster *events.Broadcaster
	hub         *Hub
	buffer      int
	logger      zerolog.Logger
}

// NewFeeder creates a feeder subscribing with the given queue size.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewFeeder(b *events.Broadcaster, hub *Hub, buffer int, logger zerolog.Logger) *Feeder {
	return &Feeder{
		broadcaster: b,
		hub:         hub,
		buffer:      buffer,
		logger:      logger.With().Str("component", "websocket-feeder").Logger(),
	}
}

// Serve relays events until ctx is done. A subscription dropped for
// overflow is replaced; a closed broadcaster stops the service.
func (f *Feeder) Serve(ctx context.Context) error {
	for {
		sub := f.broadcaster.Subscribe(f.buffer)
		if f.broadcaster.IsClosed() {
			return suture.ErrDoNotRestart
		}
		if err := f.relay(ctx, sub); err != nil {
			f.broadcaster.Unsubscribe(sub)
			return err
		}
		f.logger.Warn().Msg("feeder subscription dropped, resubscribing")
	}
}

func (f *Feeder) relay(ctx context.Context, sub *events.Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			f.hub.BroadcastProgress(ev)
		}
	}
}

// String implements fmt.Stringer for supervisor logs.
func (f *Feeder) String() string {
	return "websocket-feeder"
}
