// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package config loads the Shelfcast configuration with koanf.

Sources are layered, later ones overriding earlier ones:

 1. Built-in defaults (each package's DefaultConfig)
 2. An optional YAML file: $CONFIG_PATH, else config.yaml, config.yml,
    /etc/shelfcast/config.yaml
 3. Environment variables listed in the mapping table (HTTP_PORT,
    LOG_LEVEL, JWT_SECRET, ...). Unmapped variables are ignored.

The result is validated as a whole before it is returned.

Example config.yaml:

	server:
	  port: 8080
	logging:
	  level: debug
	  format: console
	forecast:
	  max_horizon: 60
	  gbm:
	    num_estimators: 300
	training:
	  record_store: badger
	  record_path: /var/lib/shelfcast/records
	events:
	  nats_enabled: true
	  embedded_nats: true
	auth:
	  enabled: true
	  jwt_secret: change-me-to-a-long-random-string-of-32-chars
*/
package config
