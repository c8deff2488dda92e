// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package table provides the columnar, null-aware table used by the feature,
// forecasting, and recommendation pipelines.
//
// A Table is an ordered set of equal-length typed columns. Every operation
// returns a new Table; inputs are never modified, so tables can be shared
// freely between goroutines once built.
package table

import (
	"fmt"
	"sort"
	"strings"
)

// Table is an immutable collection of named columns of equal length.
type Table struct {
	name  string
	cols  []*Column
	index map[string]int
	rows  int
}

// New creates a table from columns. Column names must be unique and lengths equal.
func New(name string, cols ...*Column) (*Table, error) {
	t := &Table{name: name, index: make(map[string]int, len(cols))}
	for i, c := range cols {
		if _, dup := t.index[c.name]; dup {
			return nil, fmt.Errorf("table %s: duplicate column %q", name, c.name)
		}
		if i == 0 {
			t.rows = c.Len()
		} else if c.Len() != t.rows {
			return nil, fmt.Errorf("table %s: column %q has %d rows, want %d", name, c.name, c.Len(), t.rows)
		}
		t.index[c.name] = i
	}
	t.cols = append([]*Column(nil), cols...)
	return t, nil
}

// MustNew is like New but panics on error. Intended for tests and literals.
func MustNew(name string, cols ...*Column) *Table {
	t, err := New(name, cols...)
	if err != nil {
		panic(err)
	}
	return t
}

// Name returns the table name.
func (t *Table) Name() string { return t.name }

// Len returns the number of rows.
func (t *Table) Len() int { return t.rows }

// Width returns the number of columns.
func (t *Table) Width() int { return len(t.cols) }

// Has reports whether a column exists.
func (t *Table) Has(name string) bool {
	_, ok := t.index[name]
	return ok
}

// HasAll reports whether every named column exists.
func (t *Table) HasAll(names ...string) bool {
	for _, n := range names {
		if !t.Has(n) {
			return false
		}
	}
	return true
}

// Column returns the named column or nil.
func (t *Table) Column(name string) *Column {
	i, ok := t.index[name]
	if !ok {
		return nil
	}
	return t.cols[i]
}

// Columns returns the columns in order.
func (t *Table) Columns() []*Column {
	return append([]*Column(nil), t.cols...)
}

// ColumnNames returns column names in order.
func (t *Table) ColumnNames() []string {
	names := make([]string, len(t.cols))
	for i, c := range t.cols {
		names[i] = c.name
	}
	return names
}

// Renamed returns a shallow copy of the table with a different name.
func (t *Table) Renamed(name string) *Table {
	cp := *t
	cp.name = name
	return &cp
}

// WithColumns returns a new table with the given columns appended, or replacing
// existing columns of the same name in place.
func (t *Table) WithColumns(cols ...*Column) (*Table, error) {
	out := append([]*Column(nil), t.cols...)
	pos := make(map[string]int, len(t.index))
	for k, v := range t.index {
		pos[k] = v
	}
	for _, c := range cols {
		if i, ok := pos[c.name]; ok {
			out[i] = c
			continue
		}
		pos[c.name] = len(out)
		out = append(out, c)
	}
	return New(t.name, out...)
}

// Without returns a new table excluding the named columns.
func (t *Table) Without(names ...string) *Table {
	drop := make(map[string]struct{}, len(names))
	for _, n := range names {
		drop[n] = struct{}{}
	}
	kept := make([]*Column, 0, len(t.cols))
	for _, c := range t.cols {
		if _, ok := drop[c.name]; !ok {
			kept = append(kept, c)
		}
	}
	out, _ := New(t.name, kept...) //nolint:errcheck // subset of a valid table is valid
	out.rows = t.rows
	return out
}

// Select returns a new table with only the named columns, in the given order.
func (t *Table) Select(names ...string) (*Table, error) {
	cols := make([]*Column, 0, len(names))
	for _, n := range names {
		c := t.Column(n)
		if c == nil {
			return nil, fmt.Errorf("table %s: no column %q", t.name, n)
		}
		cols = append(cols, c)
	}
	out, err := New(t.name, cols...)
	if err != nil {
		return nil, err
	}
	out.rows = t.rows
	return out, nil
}

// Take gathers rows by index into a new table. Index -1 yields an all-null row.
func (t *Table) Take(idx []int) *Table {
	cols := make([]*Column, len(t.cols))
	for i, c := range t.cols {
		cols[i] = c.take(idx)
	}
	out := &Table{name: t.name, cols: cols, index: t.index, rows: len(idx)}
	return out
}

// Filter returns the rows for which keep returns true.
func (t *Table) Filter(keep func(row int) bool) *Table {
	idx := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		if keep(i) {
			idx = append(idx, i)
		}
	}
	return t.Take(idx)
}

// SortBy returns the table stably sorted ascending by the given columns.
// Nulls sort last. Unknown columns are ignored.
func (t *Table) SortBy(keys ...string) *Table {
	cols := make([]*Column, 0, len(keys))
	for _, k := range keys {
		if c := t.Column(k); c != nil {
			cols = append(cols, c)
		}
	}
	idx := make([]int, t.rows)
	for i := range idx {
		idx[i] = i
	}
	sort.SliceStable(idx, func(a, b int) bool {
		for _, c := range cols {
			if d := c.compare(idx[a], idx[b]); d != 0 {
				return d < 0
			}
		}
		return false
	})
	return t.Take(idx)
}

// Group is a set of rows sharing the same key values.
type Group struct {
	// Key holds the key cell representations, one per key column.
	Key []string
	// Rows lists member row indices in table order.
	Rows []int
}

// keySep joins composite key parts. It cannot appear in formatted cells.
const keySep = "\x1f"

// Groups partitions rows by the given key columns, in order of first appearance.
// Rows with a null in any key column belong to no group. With no keys, every
// row belongs to a single group.
func (t *Table) Groups(keys ...string) ([]Group, error) {
	cols := make([]*Column, len(keys))
	for i, k := range keys {
		c := t.Column(k)
		if c == nil {
			return nil, fmt.Errorf("table %s: no column %q", t.name, k)
		}
		cols[i] = c
	}
	if len(cols) == 0 {
		all := make([]int, t.rows)
		for i := range all {
			all[i] = i
		}
		return []Group{{Rows: all}}, nil
	}

	pos := make(map[string]int)
	var groups []Group
	parts := make([]string, len(cols))
	for i := 0; i < t.rows; i++ {
		k, ok := rowKey(cols, i, parts)
		if !ok {
			continue
		}
		g, seen := pos[k]
		if !seen {
			g = len(groups)
			pos[k] = g
			groups = append(groups, Group{Key: append([]string(nil), parts...)})
		}
		groups[g].Rows = append(groups[g].Rows, i)
	}
	return groups, nil
}

// rowKey builds the composite key for row i, reusing parts as scratch space.
func rowKey(cols []*Column, i int, parts []string) (string, bool) {
	for j, c := range cols {
		k, ok := c.Key(i)
		if !ok {
			return "", false
		}
		parts[j] = k
	}
	return strings.Join(parts, keySep), true
}

// Distinct counts distinct non-null values in a column.
func (t *Table) Distinct(name string) int {
	c := t.Column(name)
	if c == nil {
		return 0
	}
	seen := make(map[string]struct{})
	for i := 0; i < t.rows; i++ {
		if k, ok := c.Key(i); ok {
			seen[k] = struct{}{}
		}
	}
	return len(seen)
}
