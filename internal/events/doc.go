// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package events distributes training progress events.
//
// The Broadcaster fans out every ProgressEvent to its subscribers. Each
// subscriber owns a bounded queue; publishing never blocks, and a subscriber
// whose queue is full is dropped and its channel closed.
//
// NATSForwarder drains one subscription into a NATS subject through a
// Watermill publisher guarded by a circuit breaker. EmbeddedServer runs an
// in-process NATS server for single-node deployments and tests.
package events
