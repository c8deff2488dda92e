// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package events

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// DefaultBuffer is the subscriber queue size used when none is given.
const DefaultBuffer = 64

// Subscription is a subscriber's bounded event queue.
type Subscription struct {
	id uint64
	ch chan ProgressEvent
}

// C returns the event channel. It is closed when the subscription is
// removed, either by Unsubscribe, by overflow, or by Close.
func (s *Subscription) C() <-chan ProgressEvent {
	return s.ch
}

// Broadcaster fans out progress events to subscribers without blocking.
type Broadcaster struct {
	mu     sync.RWMutex
	subs   map[uint64]*Subscription
	nextID uint64
	closed bool
	logger zerolog.Logger

	dropped atomic.Int64
	onDrop  func()
}

// NewBroadcaster creates a broadcaster. onDrop, when non-nil, is called for
// every subscriber removed because its queue overflowed.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func NewBroadcaster(logger zerolog.Logger, onDrop func()) *Broadcaster {
	return &Broadcaster{
		subs:   make(map[uint64]*Subscription),
		logger: logger.With().Str("component", "events").Logger(),
		onDrop: onDrop,
	}
}

// Subscribe registers a subscriber with the given queue size. After Close the
// returned subscription's channel is already closed.
func (b *Broadcaster) Subscribe(buffer int) *Subscription {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	b.mu.Lock()
	defer b.mu.Unlock()

	b.nextID++
	sub := &Subscription{id: b.nextID, ch: make(chan ProgressEvent, buffer)}
	if b.closed {
		close(sub.ch)
		return sub
	}
	b.subs[sub.id] = sub
	return sub
}

// Unsubscribe removes a subscriber and closes its channel.
func (b *Broadcaster) Unsubscribe(sub *Subscription) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.subs[sub.id]; ok {
		delete(b.subs, sub.id)
		close(sub.ch)
	}
}

// Publish delivers an event to every subscriber. A subscriber whose queue is
// full is removed; delivery to the others continues.
//
//nolint:gocritic // event passed by value to keep subscribers isolated
func (b *Broadcaster) Publish(ev ProgressEvent) {
	if ev.Type == "" {
		ev.Type = TypeTrainingUpdate
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}

	for id, sub := range b.subs {
		select {
		case sub.ch <- ev:
		default:
			delete(b.subs, id)
			close(sub.ch)
			b.dropped.Add(1)
			if b.onDrop != nil {
				b.onDrop()
			}
			b.logger.Warn().
				Uint64("subscriber", id).
				Msg("subscriber queue full, dropping subscriber")
		}
	}
}

// Subscribers returns the number of active subscribers.
func (b *Broadcaster) Subscribers() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// IsClosed reports whether Close has been called.
func (b *Broadcaster) IsClosed() bool {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return b.closed
}

// Dropped returns how many subscribers have been removed for overflow.
func (b *Broadcaster) Dropped() int64 {
	return b.dropped.Load()
}

// Close removes every subscriber. Later publishes are discarded.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, sub := range b.subs {
		delete(b.subs, id)
		close(sub.ch)
	}
}
