// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"
	"github.com/rs/zerolog"
)

const prefixRecord = "record:"

// ErrStoreClosed is returned by operations on a closed record store.
var ErrStoreClosed = errors.New("record store is closed")

// BadgerRecordStore persists training records in BadgerDB so they survive
// restarts. Records are stored as JSON under "record:{version}:{model}".
type BadgerRecordStore struct {
	db     *badger.DB
	logger zerolog.Logger

	mu     sync.RWMutex
	closed bool
}

// OpenBadgerRecordStore opens (or creates) a record store at path. An empty
// path opens an in-memory database.
//
//nolint:gocritic // logger passed by value is acceptable for zerolog
func OpenBadgerRecordStore(path string, logger zerolog.Logger) (*BadgerRecordStore, error) {
	opts := badger.DefaultOptions(path)
	if path == "" {
		opts = opts.WithInMemory(true)
	}
	opts.SyncWrites = true

	// Reduce logging verbosity
	opts.Logger = nil

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open BadgerDB: %w", err)
	}

	s := &BadgerRecordStore{
		db:     db,
		logger: logger.With().Str("component", "record_store").Logger(),
	}
	s.logger.Info().
		Str("path", path).
		Bool("in_memory", path == "").
		Msg("record store opened")
	return s, nil
}

func recordDBKey(version, model string) []byte {
	return []byte(prefixRecord + version + ":" + model)
}

func (s *BadgerRecordStore) checkOpen() error {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.closed {
		return ErrStoreClosed
	}
	return nil
}

// Put writes the record.
func (s *BadgerRecordStore) Put(ctx context.Context, r Record) error {
	if err := s.checkOpen(); err != nil {
		return err
	}
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(r)
	if err != nil {
		return fmt.Errorf("marshal record: %w", err)
	}
	err = s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(recordDBKey(r.Version, r.Model), data)
	})
	if err != nil {
		return fmt.Errorf("write record: %w", err)
	}
	return nil
}

// Get reads one record.
func (s *BadgerRecordStore) Get(ctx context.Context, version, model string) (Record, bool, error) {
	if err := s.checkOpen(); err != nil {
		return Record{}, false, err
	}
	if err := ctx.Err(); err != nil {
		return Record{}, false, err
	}
	var rec Record
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get(recordDBKey(version, model))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &rec)
		})
	})
	if errors.Is(err, badger.ErrKeyNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, fmt.Errorf("read record: %w", err)
	}
	return rec, true, nil
}

// List iterates records under the version prefix.
func (s *BadgerRecordStore) List(ctx context.Context, version string) ([]Record, error) {
	if err := s.checkOpen(); err != nil {
		return nil, err
	}
	prefix := []byte(prefixRecord)
	if version != "" {
		prefix = []byte(prefixRecord + version + ":")
	}

	var out []Record
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			if err := ctx.Err(); err != nil {
				return err
			}
			var rec Record
			if err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			}); err != nil {
				s.logger.Warn().Err(err).
					Str("key", string(it.Item().Key())).
					Msg("skipping unreadable training record")
				continue
			}
			out = append(out, rec)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list records: %w", err)
	}
	sortRecords(out)
	return out, nil
}

// Close closes the database, waiting at most 30 seconds.
func (s *BadgerRecordStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	s.mu.Unlock()

	done := make(chan error, 1)
	go func() {
		done <- s.db.Close()
	}()
	select {
	case err := <-done:
		if err != nil {
			return fmt.Errorf("close BadgerDB: %w", err)
		}
		s.logger.Info().Msg("record store closed")
		return nil
	case <-time.After(30 * time.Second):
		return errors.New("timeout closing record store")
	}
}
