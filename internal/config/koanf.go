// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package config

import (
	"fmt"
	"os"
	"strings"

	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	"github.com/knadh/koanf/providers/structs"
	"github.com/knadh/koanf/v2"
)

// DefaultConfigPaths lists the config files searched, first match wins.
var DefaultConfigPaths = []string{
	"config.yaml",
	"config.yml",
	"/etc/shelfcast/config.yaml",
	"/etc/shelfcast/config.yml",
}

// ConfigPathEnvVar overrides the config file path.
const ConfigPathEnvVar = "CONFIG_PATH"

// Load reads defaults, the optional config file and the environment, then
// validates the result.
func Load() (*Config, error) {
	k := koanf.New(".")

	if err := k.Load(structs.Provider(defaultConfig(), "koanf"), nil); err != nil {
		return nil, fmt.Errorf("failed to load defaults: %w", err)
	}

	if path := findConfigFile(); path != "" {
		if err := k.Load(file.Provider(path), yaml.Parser()); err != nil {
			return nil, fmt.Errorf("failed to load config file %s: %w", path, err)
		}
	}

	if err := k.Load(env.Provider("", ".", envTransformFunc), nil); err != nil {
		return nil, fmt.Errorf("failed to load environment variables: %w", err)
	}

	if err := processSliceFields(k); err != nil {
		return nil, fmt.Errorf("failed to process slice fields: %w", err)
	}

	cfg := &Config{}
	if err := k.Unmarshal("", cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal configuration: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cfg, nil
}

// findConfigFile returns CONFIG_PATH when it exists, else the first default
// path that exists, else "".
func findConfigFile() string {
	if p := os.Getenv(ConfigPathEnvVar); p != "" {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	for _, p := range DefaultConfigPaths {
		if _, err := os.Stat(p); err == nil {
			return p
		}
	}
	return ""
}

// sliceConfigPaths are parsed as comma-separated lists when set from the
// environment.
var sliceConfigPaths = []string{
	"api.cors_origins",
}

func processSliceFields(k *koanf.Koanf) error {
	for _, path := range sliceConfigPaths {
		s, ok := k.Get(path).(string)
		if !ok || s == "" {
			continue
		}
		parts := strings.Split(s, ",")
		out := make([]string, 0, len(parts))
		for _, p := range parts {
			if p = strings.TrimSpace(p); p != "" {
				out = append(out, p)
			}
		}
		if err := k.Set(path, out); err != nil {
			return fmt.Errorf("failed to set %s: %w", path, err)
		}
	}
	return nil
}

// envMappings maps lower-cased environment variable names to config keys.
var envMappings = map[string]string{
	// Server
	"http_host":             "server.host",
	"http_port":             "server.port",
	"http_read_timeout":     "server.read_timeout",
	"http_write_timeout":    "server.write_timeout",
	"http_shutdown_timeout": "server.shutdown_timeout",

	// Logging
	"log_level":  "logging.level",
	"log_format": "logging.format",
	"log_caller": "logging.caller",

	// Forecasting
	"forecast_target":            "forecast.target",
	"forecast_baseline_window":   "forecast.baseline_window",
	"forecast_min_training_rows": "forecast.min_training_rows",
	"forecast_test_size":         "forecast.test_size",
	"forecast_default_horizon":   "forecast.default_horizon",
	"forecast_max_horizon":       "forecast.max_horizon",
	"forecast_num_estimators":    "forecast.gbm.num_estimators",
	"forecast_learning_rate":     "forecast.gbm.learning_rate",
	"forecast_num_leaves":        "forecast.gbm.num_leaves",
	"forecast_seed":              "forecast.gbm.seed",

	// Recommendation
	"recommend_cf_weight":      "recommend.cf_weight",
	"recommend_content_weight": "recommend.content_weight",
	"recommend_popular_size":   "recommend.popular_size",
	"recommend_neighbors":      "recommend.neighbors",
	"recommend_history_limit":  "recommend.history_limit",
	"recommend_default_top_k":  "recommend.default_top_k",
	"recommend_max_top_k":      "recommend.max_top_k",
	"recommend_workers":        "recommend.num_workers",
	"recommend_cache_ttl":      "recommend.cache_ttl",

	// Training
	"training_queue_size":     "training.queue_size",
	"training_auto_train":     "training.auto_train",
	"training_trace_lines":    "training.trace_lines",
	"training_starts_per_sec": "training.starts_per_second",
	"training_record_store":   "training.record_store",
	"training_record_path":    "training.record_path",
	"training_artifact_dir":   "training.artifact_dir",
	"training_keep_revisions": "training.keep_revisions",

	// Events
	"events_subscriber_buffer": "events.subscriber_buffer",
	"nats_enabled":             "events.nats_enabled",
	"nats_url":                 "events.nats_url",
	"nats_subject":             "events.nats_subject",
	"nats_embedded":            "events.embedded_nats",
	"nats_embedded_port":       "events.embedded_port",

	// Ingest
	"ingest_threads":    "ingest.threads",
	"ingest_max_memory": "ingest.max_memory",
	"data_dir":          "ingest.data_dir",

	// API
	"cors_origins":        "api.cors_origins",
	"rate_limit_requests": "api.rate_limit_requests",
	"rate_limit_window":   "api.rate_limit_window",
	"disable_rate_limit":  "api.rate_limit_disabled",
	"api_data_root":       "api.data_root",
	"swagger_enabled":     "api.swagger_enabled",

	// Auth
	"auth_enabled":     "auth.enabled",
	"jwt_secret":       "auth.jwt_secret",
	"jwt_issuer":       "auth.issuer",
	"jwt_ttl":          "auth.token_ttl",
	"auth_policy_path": "auth.policy_path",
}

// envTransformFunc maps an environment variable to its config key. Unmapped
// variables return "" and are skipped.
func envTransformFunc(key string) string {
	return envMappings[strings.ToLower(key)]
}
