// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package table

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Kind is the storage type of a column.
type Kind int

const (
	// KindString holds identifiers and categorical values.
	KindString Kind = iota
	// KindFloat holds numeric values.
	KindFloat
	// KindTime holds dates and timestamps.
	KindTime
)

// String returns a human-readable name for the kind.
func (k Kind) String() string {
	switch k {
	case KindString:
		return "string"
	case KindFloat:
		return "float"
	case KindTime:
		return "time"
	default:
		return "unknown"
	}
}

// dateLayouts are tried in order when a string cell is read as a time.
var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339Nano,
	"2006-01-02 15:04:05",
	"2006/01/02",
}

// Column is a named, typed vector with a per-cell validity mask.
// Columns are never modified after construction.
type Column struct {
	name  string
	kind  Kind
	strs  []string
	nums  []float64
	times []time.Time
	valid []bool
}

// NewStringColumn creates a string column. A nil valid slice marks every cell valid.
func NewStringColumn(name string, vals []string, valid []bool) *Column {
	return &Column{name: name, kind: KindString, strs: vals, valid: fillValid(valid, len(vals))}
}

// NewFloatColumn creates a numeric column. NaN cells are stored as null.
func NewFloatColumn(name string, vals []float64, valid []bool) *Column {
	v := fillValid(valid, len(vals))
	for i, x := range vals {
		if math.IsNaN(x) {
			v[i] = false
		}
	}
	return &Column{name: name, kind: KindFloat, nums: vals, valid: v}
}

// NewTimeColumn creates a time column. Zero times are stored as null.
func NewTimeColumn(name string, vals []time.Time, valid []bool) *Column {
	v := fillValid(valid, len(vals))
	for i, x := range vals {
		if x.IsZero() {
			v[i] = false
		}
	}
	return &Column{name: name, kind: KindTime, times: vals, valid: v}
}

func fillValid(valid []bool, n int) []bool {
	out := make([]bool, n)
	if valid == nil {
		for i := range out {
			out[i] = true
		}
		return out
	}
	copy(out, valid)
	return out
}

// Name returns the column name.
func (c *Column) Name() string { return c.name }

// Kind returns the column storage kind.
func (c *Column) Kind() Kind { return c.kind }

// Len returns the number of cells.
func (c *Column) Len() int { return len(c.valid) }

// IsNull reports whether cell i is null.
func (c *Column) IsNull(i int) bool { return !c.valid[i] }

// NullCount returns the number of null cells.
func (c *Column) NullCount() int {
	n := 0
	for _, ok := range c.valid {
		if !ok {
			n++
		}
	}
	return n
}

// Renamed returns a copy of the column under a new name. Cell data is shared.
func (c *Column) Renamed(name string) *Column {
	cp := *c
	cp.name = name
	return &cp
}

// FloatAt returns cell i as a number. String cells are parsed; time cells are never numeric.
func (c *Column) FloatAt(i int) (float64, bool) {
	if !c.valid[i] {
		return 0, false
	}
	switch c.kind {
	case KindFloat:
		return c.nums[i], true
	case KindString:
		f, err := strconv.ParseFloat(strings.TrimSpace(c.strs[i]), 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	default:
		return 0, false
	}
}

// StringAt returns cell i formatted as a string.
func (c *Column) StringAt(i int) (string, bool) {
	if !c.valid[i] {
		return "", false
	}
	switch c.kind {
	case KindString:
		return c.strs[i], true
	case KindFloat:
		return strconv.FormatFloat(c.nums[i], 'f', -1, 64), true
	case KindTime:
		t := c.times[i]
		if t.Hour() == 0 && t.Minute() == 0 && t.Second() == 0 && t.Nanosecond() == 0 {
			return t.Format("2006-01-02"), true
		}
		return t.Format(time.RFC3339), true
	default:
		return "", false
	}
}

// TimeAt returns cell i as a time. String cells are parsed with common date layouts.
func (c *Column) TimeAt(i int) (time.Time, bool) {
	if !c.valid[i] {
		return time.Time{}, false
	}
	switch c.kind {
	case KindTime:
		return c.times[i], true
	case KindString:
		s := strings.TrimSpace(c.strs[i])
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
		return time.Time{}, false
	default:
		return time.Time{}, false
	}
}

// Key returns a comparable representation of cell i for joins and grouping.
// Null cells have no key.
func (c *Column) Key(i int) (string, bool) {
	if !c.valid[i] {
		return "", false
	}
	if c.kind == KindTime {
		return c.times[i].UTC().Format(time.RFC3339Nano), true
	}
	return c.StringAt(i)
}

// Value returns cell i as an interface value, or nil when null.
func (c *Column) Value(i int) interface{} {
	if !c.valid[i] {
		return nil
	}
	switch c.kind {
	case KindString:
		return c.strs[i]
	case KindFloat:
		return c.nums[i]
	case KindTime:
		return c.times[i]
	default:
		return nil
	}
}

// take gathers the given row indices into a new column. Index -1 yields a null cell.
func (c *Column) take(idx []int) *Column {
	out := &Column{name: c.name, kind: c.kind, valid: make([]bool, len(idx))}
	switch c.kind {
	case KindString:
		out.strs = make([]string, len(idx))
	case KindFloat:
		out.nums = make([]float64, len(idx))
	case KindTime:
		out.times = make([]time.Time, len(idx))
	}
	for j, i := range idx {
		if i < 0 || !c.valid[i] {
			continue
		}
		out.valid[j] = true
		switch c.kind {
		case KindString:
			out.strs[j] = c.strs[i]
		case KindFloat:
			out.nums[j] = c.nums[i]
		case KindTime:
			out.times[j] = c.times[i]
		}
	}
	return out
}

// compare orders cells i and j. Nulls sort after every value.
func (c *Column) compare(i, j int) int {
	vi, vj := c.valid[i], c.valid[j]
	switch {
	case !vi && !vj:
		return 0
	case !vi:
		return 1
	case !vj:
		return -1
	}
	switch c.kind {
	case KindString:
		return strings.Compare(c.strs[i], c.strs[j])
	case KindFloat:
		switch {
		case c.nums[i] < c.nums[j]:
			return -1
		case c.nums[i] > c.nums[j]:
			return 1
		}
		return 0
	case KindTime:
		return c.times[i].Compare(c.times[j])
	default:
		return 0
	}
}
