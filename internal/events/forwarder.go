// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package events

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/ThreeDotsLabs/watermill/message"
	wmNats "github.com/ThreeDotsLabs/watermill-nats/v2/pkg/nats"
	"github.com/goccy/go-json"
	"github.com/google/uuid"
	natsgo "github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/thejerf/suture/v4"
)

// ForwarderConfig configures the NATS forwarder.
type ForwarderConfig struct {
	// URL is the NATS server URL.
	URL string

	// Subject receives every progress event.
	Subject string

	// Buffer is the forwarder's subscription queue size.
	Buffer int

	MaxReconnects int
	ReconnectWait time.Duration

	// FailureThreshold is the number of consecutive publish failures that
	// opens the circuit breaker.
	FailureThreshold uint32

	// BreakerTimeout is how long the breaker stays open before probing.
	BreakerTimeout time.Duration
}

// DefaultForwarderConfig returns default forwarder settings.
func DefaultForwarderConfig() ForwarderConfig {
	return ForwarderConfig{
		URL:              natsgo.DefaultURL,
		Subject:          "shelfcast.training.progress",
		Buffer:           256,
		MaxReconnects:    -1,
		ReconnectWait:    2 * time.Second,
		FailureThreshold: 5,
		BreakerTimeout:   30 * time.Second,
	}
}

// NATSForwarder publishes broadcast events to a NATS subject. It implements
// suture.Service.
type NATSForwarder struct {
	config      ForwarderConfig
	broadcaster *Broadcaster
	publisher   message.Publisher
	breaker     *gobreaker.CircuitBreaker[interface{}]
	logger      zerolog.Logger

	// onResult, when non-nil, observes each publish as "ok", "error" or
	// "rejected".
	onResult func(result string)
}

// NewNATSForwarder connects a Watermill NATS publisher for the broadcaster's
// events.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewNATSForwarder(cfg ForwarderConfig, b *Broadcaster, logger zerolog.Logger, onResult func(string)) (*NATSForwarder, error) {
	if cfg.Subject == "" {
		return nil, fmt.Errorf("nats subject is required")
	}
	logger = logger.With().Str("component", "nats-forwarder").Logger()
	wmLogger := NewWatermillLogger(logger)

	natsOpts := []natsgo.Option{
		natsgo.RetryOnFailedConnect(true),
		natsgo.MaxReconnects(cfg.MaxReconnects),
		natsgo.ReconnectWait(cfg.ReconnectWait),
		natsgo.DisconnectErrHandler(func(_ *natsgo.Conn, err error) {
			if err != nil {
				logger.Warn().Err(err).Msg("NATS disconnected")
			}
		}),
		natsgo.ReconnectHandler(func(nc *natsgo.Conn) {
			logger.Info().Str("url", nc.ConnectedUrl()).Msg("NATS reconnected")
		}),
	}

	pub, err := wmNats.NewPublisher(wmNats.PublisherConfig{
		URL:         cfg.URL,
		NatsOptions: natsOpts,
		Marshaler:   &wmNats.NATSMarshaler{},
		JetStream:   wmNats.JetStreamConfig{Disabled: true},
	}, wmLogger)
	if err != nil {
		return nil, fmt.Errorf("create watermill publisher: %w", err)
	}

	breaker := gobreaker.NewCircuitBreaker[interface{}](gobreaker.Settings{
		Name:    "nats-forwarder",
		Timeout: cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= cfg.FailureThreshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			logger.Warn().
				Str("breaker", name).
				Str("from", from.String()).
				Str("to", to.String()).
				Msg("circuit breaker state changed")
		},
	})

	return &NATSForwarder{
		config:      cfg,
		broadcaster: b,
		publisher:   pub,
		breaker:     breaker,
		logger:      logger,
		onResult:    onResult,
	}, nil
}

// Serve drains a broadcaster subscription into NATS until ctx is done. An
// overflowed subscription is replaced; a closed broadcaster stops the service.
func (f *NATSForwarder) Serve(ctx context.Context) error {
	f.logger.Info().
		Str("url", f.config.URL).
		Str("subject", f.config.Subject).
		Msg("NATS forwarder starting")

	for {
		sub := f.broadcaster.Subscribe(f.config.Buffer)
		if f.broadcaster.IsClosed() {
			return suture.ErrDoNotRestart
		}
		if err := f.drain(ctx, sub); err != nil {
			f.broadcaster.Unsubscribe(sub)
			return err
		}
		f.logger.Warn().Msg("forwarder subscription dropped, resubscribing")
	}
}

// drain forwards events until the subscription closes or ctx is done.
func (f *NATSForwarder) drain(ctx context.Context, sub *Subscription) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-sub.C():
			if !ok {
				return nil
			}
			f.forward(ev)
		}
	}
}

//nolint:gocritic // event passed by value from the channel
func (f *NATSForwarder) forward(ev ProgressEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		f.logger.Error().Err(err).Msg("failed to encode event")
		return
	}
	msg := message.NewMessage(uuid.NewString(), data)
	msg.Metadata.Set("model", ev.Model)
	msg.Metadata.Set("version", ev.Version)
	msg.Metadata.Set("stage", ev.Stage)

	_, err = f.breaker.Execute(func() (interface{}, error) {
		return nil, f.publisher.Publish(f.config.Subject, msg)
	})
	result := "ok"
	switch {
	case errors.Is(err, gobreaker.ErrOpenState), errors.Is(err, gobreaker.ErrTooManyRequests):
		result = "rejected"
	case err != nil:
		result = "error"
		f.logger.Warn().Err(err).Str("stage", ev.Stage).Msg("failed to publish event")
	}
	if f.onResult != nil {
		f.onResult(result)
	}
}

// BreakerState returns the circuit breaker state name.
func (f *NATSForwarder) BreakerState() string {
	return f.breaker.State().String()
}

// Close shuts down the publisher.
func (f *NATSForwarder) Close() error {
	return f.publisher.Close()
}

// String returns the service name for logging.
func (f *NATSForwarder) String() string {
	return "nats-forwarder"
}
