// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/tomtom215/shelfcast/internal/features"
)

// DataVersion is an immutable snapshot of the cleaned source tables.
type DataVersion struct {
	ID        string
	Tables    features.Tables
	CreatedAt time.Time
	Source    string
}

// VersionInfo describes a data version without its table contents.
type VersionInfo struct {
	ID        string         `json:"id"`
	CreatedAt time.Time      `json:"created_at"`
	Source    string         `json:"source,omitempty"`
	Tables    map[string]int `json:"tables"`
	Current   bool           `json:"current"`
}

// Info summarizes the version with row counts per table.
func (v *DataVersion) Info() VersionInfo {
	rows := make(map[string]int, len(v.Tables))
	for name, t := range v.Tables {
		if t != nil {
			rows[name] = t.Len()
		}
	}
	return VersionInfo{ID: v.ID, CreatedAt: v.CreatedAt, Source: v.Source, Tables: rows}
}

// Has reports whether every named table is present.
func (v *DataVersion) Has(names ...string) bool {
	for _, n := range names {
		if v.Tables[n] == nil {
			return false
		}
	}
	return true
}

// NewVersionID returns a sortable, collision-free version identifier:
// YYYYMMDD_HHMMSS followed by an eight character uuid suffix.
func NewVersionID(now time.Time) string {
	suffix := strings.ReplaceAll(uuid.NewString(), "-", "")[:8]
	return now.UTC().Format("20060102_150405") + "_" + suffix
}

// Catalog holds registered data versions.
type Catalog struct {
	mu       sync.RWMutex
	versions map[string]*DataVersion
	now      func() time.Time
}

// NewCatalog creates an empty version catalog.
func NewCatalog() *Catalog {
	return &Catalog{
		versions: make(map[string]*DataVersion),
		now:      time.Now,
	}
}

// Register snapshots tables as a new data version.
func (c *Catalog) Register(tables features.Tables, source string) (*DataVersion, error) {
	if len(tables) == 0 {
		return nil, errors.New("no tables to register")
	}
	snapshot := make(features.Tables, len(tables))
	for name, t := range tables {
		if t != nil {
			snapshot[name] = t
		}
	}
	now := c.now()
	v := &DataVersion{
		ID:        NewVersionID(now),
		Tables:    snapshot,
		CreatedAt: now.UTC(),
		Source:    source,
	}
	if err := c.Add(v); err != nil {
		return nil, err
	}
	return v, nil
}

// Add inserts a prepared version. IDs must be unique.
func (c *Catalog) Add(v *DataVersion) error {
	if v == nil || v.ID == "" {
		return errors.New("version id is required")
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, exists := c.versions[v.ID]; exists {
		return fmt.Errorf("version %s already registered", v.ID)
	}
	c.versions[v.ID] = v
	return nil
}

// Get returns a version by ID.
func (c *Catalog) Get(id string) (*DataVersion, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.versions[id]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrVersionNotFound, id)
	}
	return v, nil
}

// Latest returns the most recently created version.
func (c *Catalog) Latest() (*DataVersion, error) {
	list := c.List()
	if len(list) == 0 {
		return nil, ErrNoVersions
	}
	return list[len(list)-1], nil
}

// Resolve returns the named version, or the latest when id is empty.
func (c *Catalog) Resolve(id string) (*DataVersion, error) {
	if id == "" {
		return c.Latest()
	}
	return c.Get(id)
}

// List returns every version ordered oldest first.
func (c *Catalog) List() []*DataVersion {
	c.mu.RLock()
	out := make([]*DataVersion, 0, len(c.versions))
	for _, v := range c.versions {
		out = append(out, v)
	}
	c.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}

// Len returns the number of registered versions.
func (c *Catalog) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.versions)
}
