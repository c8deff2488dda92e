// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package config

import (
	"errors"
	"fmt"
	"net"
	"strconv"
	"time"

	"github.com/tomtom215/shelfcast/internal/api"
	"github.com/tomtom215/shelfcast/internal/auth"
	"github.com/tomtom215/shelfcast/internal/events"
	"github.com/tomtom215/shelfcast/internal/forecast"
	"github.com/tomtom215/shelfcast/internal/ingest"
	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/training"
)

// Config is the complete application configuration.
type Config struct {
	Server    ServerConfig     `koanf:"server"`
	Logging   LoggingConfig    `koanf:"logging"`
	Forecast  forecast.Config  `koanf:"forecast"`
	Recommend recommend.Config `koanf:"recommend"`
	Training  training.Config  `koanf:"training"`
	Events    EventsConfig     `koanf:"events"`
	Ingest    ingest.Config    `koanf:"ingest"`
	API       api.Config       `koanf:"api"`
	Auth      auth.Config      `koanf:"auth"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Host string `koanf:"host"`
	Port int    `koanf:"port"`

	ReadTimeout  time.Duration `koanf:"read_timeout"`
	WriteTimeout time.Duration `koanf:"write_timeout"`
	IdleTimeout  time.Duration `koanf:"idle_timeout"`

	// ShutdownTimeout bounds graceful shutdown of the HTTP server.
	ShutdownTimeout time.Duration `koanf:"shutdown_timeout"`
}

// Addr returns host:port for http.Server.
func (s ServerConfig) Addr() string {
	return net.JoinHostPort(s.Host, strconv.Itoa(s.Port))
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// Logging converts to the logging package's configuration.
func (l LoggingConfig) Logging() logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = l.Level
	cfg.Format = l.Format
	cfg.Caller = l.Caller
	return cfg
}

// EventsConfig holds progress fan-out settings.
type EventsConfig struct {
	// SubscriberBuffer is the queue size of the websocket feeder subscription.
	SubscriberBuffer int `koanf:"subscriber_buffer"`

	// NATSEnabled forwards progress events to NATSSubject.
	NATSEnabled bool   `koanf:"nats_enabled"`
	NATSURL     string `koanf:"nats_url"`
	NATSSubject string `koanf:"nats_subject"`

	// EmbeddedNATS starts an in-process server and forwards to it,
	// ignoring NATSURL.
	EmbeddedNATS bool   `koanf:"embedded_nats"`
	EmbeddedHost string `koanf:"embedded_host"`
	EmbeddedPort int    `koanf:"embedded_port"`

	BreakerFailures uint32        `koanf:"breaker_failures"`
	BreakerTimeout  time.Duration `koanf:"breaker_timeout"`
}

// Forwarder returns the NATS forwarder settings for url.
func (e EventsConfig) Forwarder(url string) events.ForwarderConfig {
	cfg := events.DefaultForwarderConfig()
	cfg.URL = url
	cfg.Subject = e.NATSSubject
	cfg.Buffer = e.SubscriberBuffer
	cfg.FailureThreshold = e.BreakerFailures
	cfg.BreakerTimeout = e.BreakerTimeout
	return cfg
}

// EmbeddedServer returns the embedded NATS server settings.
func (e EventsConfig) EmbeddedServer() events.ServerConfig {
	return events.ServerConfig{Host: e.EmbeddedHost, Port: e.EmbeddedPort}
}

// defaultConfig returns every section at its package defaults.
func defaultConfig() *Config {
	fwd := events.DefaultForwarderConfig()
	return &Config{
		Server: ServerConfig{
			Host:            "0.0.0.0",
			Port:            8080,
			ReadTimeout:     15 * time.Second,
			WriteTimeout:    10 * time.Minute,
			IdleTimeout:     2 * time.Minute,
			ShutdownTimeout: 30 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Forecast:  forecast.DefaultConfig(),
		Recommend: *recommend.DefaultConfig(),
		Training:  training.DefaultConfig(),
		Events: EventsConfig{
			SubscriberBuffer: fwd.Buffer,
			NATSURL:          fwd.URL,
			NATSSubject:      fwd.Subject,
			EmbeddedHost:     "127.0.0.1",
			EmbeddedPort:     4222,
			BreakerFailures:  fwd.FailureThreshold,
			BreakerTimeout:   fwd.BreakerTimeout,
		},
		Ingest: ingest.DefaultConfig(),
		API:    api.DefaultConfig(),
		Auth:   auth.DefaultConfig(),
	}
}

// Validate checks every section.
func (c *Config) Validate() error {
	var errs []error
	add := func(section string, err error) {
		if err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", section, err))
		}
	}

	add("server", c.Server.validate())
	if !logging.ValidLevel(c.Logging.Level) {
		add("logging", fmt.Errorf("unknown level %q", c.Logging.Level))
	}
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		add("logging", fmt.Errorf("format must be json or console, got %q", c.Logging.Format))
	}
	add("forecast", c.Forecast.Validate())
	add("recommend", c.Recommend.Validate())
	add("training", c.Training.Validate())
	add("events", c.Events.validate())
	add("ingest", c.Ingest.Validate())
	add("api", c.API.Validate())
	add("auth", c.Auth.Validate())

	return errors.Join(errs...)
}

func (s ServerConfig) validate() error {
	if s.Port < 1 || s.Port > 65535 {
		return fmt.Errorf("port must be between 1 and 65535, got %d", s.Port)
	}
	if s.ReadTimeout <= 0 {
		return fmt.Errorf("read_timeout must be positive, got %s", s.ReadTimeout)
	}
	if s.ShutdownTimeout <= 0 {
		return fmt.Errorf("shutdown_timeout must be positive, got %s", s.ShutdownTimeout)
	}
	return nil
}

func (e EventsConfig) validate() error {
	if e.SubscriberBuffer <= 0 {
		return fmt.Errorf("subscriber_buffer must be positive, got %d", e.SubscriberBuffer)
	}
	if !e.NATSEnabled {
		return nil
	}
	if e.NATSSubject == "" {
		return errors.New("nats_subject is required when nats is enabled")
	}
	if !e.EmbeddedNATS && e.NATSURL == "" {
		return errors.New("nats_url is required unless embedded_nats is set")
	}
	if e.BreakerFailures == 0 {
		return errors.New("breaker_failures must be positive")
	}
	return nil
}
