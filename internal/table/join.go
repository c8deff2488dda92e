// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package table

import "fmt"

// JoinOptions controls LeftJoin behavior.
type JoinOptions struct {
	// Suffix is appended to right-side column names that collide with left-side names.
	Suffix string

	// FirstMatch keeps only the first matching right row per left row,
	// preserving the left row count. When false every match is emitted.
	FirstMatch bool

	// Columns restricts the right-side columns carried into the result.
	// Key columns are never duplicated. Nil carries every column.
	Columns []string
}

// LeftJoin joins right onto t by equality of the key columns. Every left row is
// kept; rows without a match get nulls in the right-side columns. Null keys
// never match.
func (t *Table) LeftJoin(right *Table, on []string, opts JoinOptions) (*Table, error) {
	if len(on) == 0 {
		return nil, fmt.Errorf("join %s with %s: no key columns", t.name, right.name)
	}
	leftKeys := make([]*Column, len(on))
	rightKeys := make([]*Column, len(on))
	for i, k := range on {
		if leftKeys[i] = t.Column(k); leftKeys[i] == nil {
			return nil, fmt.Errorf("join %s with %s: left side has no column %q", t.name, right.name, k)
		}
		if rightKeys[i] = right.Column(k); rightKeys[i] == nil {
			return nil, fmt.Errorf("join %s with %s: right side has no column %q", t.name, right.name, k)
		}
	}

	matches := make(map[string][]int, right.rows)
	parts := make([]string, len(on))
	for i := 0; i < right.rows; i++ {
		k, ok := rowKey(rightKeys, i, parts)
		if !ok {
			continue
		}
		matches[k] = append(matches[k], i)
	}

	leftIdx := make([]int, 0, t.rows)
	rightIdx := make([]int, 0, t.rows)
	for i := 0; i < t.rows; i++ {
		k, ok := rowKey(leftKeys, i, parts)
		m := matches[k]
		if !ok || len(m) == 0 {
			leftIdx = append(leftIdx, i)
			rightIdx = append(rightIdx, -1)
			continue
		}
		if opts.FirstMatch {
			m = m[:1]
		}
		for _, r := range m {
			leftIdx = append(leftIdx, i)
			rightIdx = append(rightIdx, r)
		}
	}

	isKey := make(map[string]struct{}, len(on))
	for _, k := range on {
		isKey[k] = struct{}{}
	}
	carry := right.cols
	if opts.Columns != nil {
		carry = make([]*Column, 0, len(opts.Columns))
		for _, n := range opts.Columns {
			if c := right.Column(n); c != nil {
				carry = append(carry, c)
			}
		}
	}

	out := make([]*Column, 0, len(t.cols)+len(carry))
	used := make(map[string]struct{}, len(t.cols)+len(carry))
	for _, c := range t.cols {
		out = append(out, c.take(leftIdx))
		used[c.name] = struct{}{}
	}
	for _, c := range carry {
		if _, key := isKey[c.name]; key {
			continue
		}
		name := c.name
		for {
			if _, clash := used[name]; !clash {
				break
			}
			name += opts.Suffix
			if opts.Suffix == "" {
				name += "_right"
			}
		}
		used[name] = struct{}{}
		out = append(out, c.take(rightIdx).Renamed(name))
	}
	return New(t.name, out...)
}
