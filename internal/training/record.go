// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import (
	"context"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"github.com/tomtom215/shelfcast/internal/features"
)

// Status is the lifecycle state of a training record.
type Status string

const (
	StatusPending   Status = "pending"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// Terminal reports whether no further transition is expected.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusFailed || s == StatusSkipped
}

// Record tracks one training run for a (version, model) pair.
type Record struct {
	Version    string               `json:"version"`
	Model      string               `json:"model"`
	Status     Status               `json:"status"`
	Progress   int                  `json:"progress"`
	Stage      Stage                `json:"stage"`
	Metrics    map[string]float64   `json:"metrics,omitempty"`
	MatrixInfo *features.MatrixInfo `json:"matrix_info,omitempty"`
	Warnings   []string             `json:"warnings,omitempty"`
	Error      string               `json:"error,omitempty"`
	ErrorTrace string               `json:"error_trace,omitempty"`
	StartedAt  *time.Time           `json:"started_at,omitempty"`
	FinishedAt *time.Time           `json:"finished_at,omitempty"`
	UpdatedAt  time.Time            `json:"updated_at"`
}

// Clone returns a deep copy of the record.
//
//nolint:gocritic // value receiver is intentional for immutable semantics
func (r Record) Clone() Record {
	out := r
	if r.Metrics != nil {
		out.Metrics = make(map[string]float64, len(r.Metrics))
		for k, v := range r.Metrics {
			out.Metrics[k] = v
		}
	}
	if r.MatrixInfo != nil {
		mi := *r.MatrixInfo
		out.MatrixInfo = &mi
	}
	if r.Warnings != nil {
		out.Warnings = append([]string(nil), r.Warnings...)
	}
	if r.StartedAt != nil {
		t := *r.StartedAt
		out.StartedAt = &t
	}
	if r.FinishedAt != nil {
		t := *r.FinishedAt
		out.FinishedAt = &t
	}
	return out
}

// RecordStore persists training records.
type RecordStore interface {
	// Put inserts or replaces the record for (r.Version, r.Model).
	Put(ctx context.Context, r Record) error

	// Get returns the record for a (version, model) pair. The boolean is
	// false when no record exists.
	Get(ctx context.Context, version, model string) (Record, bool, error)

	// List returns records for a version, or every record when version is
	// empty, ordered by version then model.
	List(ctx context.Context, version string) ([]Record, error)

	Close() error
}

type recordKey struct {
	version string
	model   string
}

// MemoryRecordStore keeps records in a copy-on-write map. Readers load the
// current map without locking; writers copy it under a mutex.
type MemoryRecordStore struct {
	mu      sync.Mutex
	records atomic.Pointer[map[recordKey]Record]
}

// NewMemoryRecordStore creates an empty in-memory record store.
func NewMemoryRecordStore() *MemoryRecordStore {
	s := &MemoryRecordStore{}
	m := make(map[recordKey]Record)
	s.records.Store(&m)
	return s
}

// Put stores a copy of r.
func (s *MemoryRecordStore) Put(_ context.Context, r Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	old := *s.records.Load()
	next := make(map[recordKey]Record, len(old)+1)
	for k, v := range old {
		next[k] = v
	}
	next[recordKey{r.Version, r.Model}] = r.Clone()
	s.records.Store(&next)
	return nil
}

// Get returns a copy of the stored record.
func (s *MemoryRecordStore) Get(_ context.Context, version, model string) (Record, bool, error) {
	r, ok := (*s.records.Load())[recordKey{version, model}]
	if !ok {
		return Record{}, false, nil
	}
	return r.Clone(), true, nil
}

// List returns copies of the matching records.
func (s *MemoryRecordStore) List(_ context.Context, version string) ([]Record, error) {
	m := *s.records.Load()
	out := make([]Record, 0, len(m))
	for k, r := range m {
		if version == "" || k.version == version {
			out = append(out, r.Clone())
		}
	}
	sortRecords(out)
	return out, nil
}

// Close is a no-op.
func (s *MemoryRecordStore) Close() error {
	return nil
}

func sortRecords(rs []Record) {
	sort.Slice(rs, func(i, j int) bool {
		if rs[i].Version != rs[j].Version {
			return rs[i].Version < rs[j].Version
		}
		return rs[i].Model < rs[j].Model
	})
}
