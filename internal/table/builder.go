// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package table

import (
	"fmt"
	"math"
	"strconv"
	"time"
)

// Field declares a column name and kind for a Builder.
type Field struct {
	Name string
	Kind Kind
}

// Builder accumulates rows and produces a Table.
type Builder struct {
	name   string
	fields []Field
	strs   [][]string
	nums   [][]float64
	times  [][]time.Time
	valid  [][]bool
	rows   int
}

// NewBuilder creates a builder for the given schema.
func NewBuilder(name string, fields []Field) *Builder {
	n := len(fields)
	return &Builder{
		name:   name,
		fields: append([]Field(nil), fields...),
		strs:   make([][]string, n),
		nums:   make([][]float64, n),
		times:  make([][]time.Time, n),
		valid:  make([][]bool, n),
	}
}

// Append adds one row. Values are converted to each field's kind; nil is null.
func (b *Builder) Append(vals ...interface{}) error {
	if len(vals) != len(b.fields) {
		return fmt.Errorf("table %s: row has %d values, want %d", b.name, len(vals), len(b.fields))
	}
	for i, v := range vals {
		f := b.fields[i]
		ok := v != nil
		switch f.Kind {
		case KindString:
			s := ""
			if ok {
				s = toString(v)
			}
			b.strs[i] = append(b.strs[i], s)
		case KindFloat:
			x := 0.0
			if ok {
				var err error
				if x, err = toFloat(v); err != nil {
					return fmt.Errorf("table %s column %s row %d: %w", b.name, f.Name, b.rows, err)
				}
				ok = !math.IsNaN(x)
			}
			b.nums[i] = append(b.nums[i], x)
		case KindTime:
			var t time.Time
			if ok {
				var err error
				if t, err = toTime(v); err != nil {
					return fmt.Errorf("table %s column %s row %d: %w", b.name, f.Name, b.rows, err)
				}
				ok = !t.IsZero()
			}
			b.times[i] = append(b.times[i], t)
		}
		b.valid[i] = append(b.valid[i], ok)
	}
	b.rows++
	return nil
}

// Build returns the accumulated table.
func (b *Builder) Build() (*Table, error) {
	cols := make([]*Column, len(b.fields))
	for i, f := range b.fields {
		switch f.Kind {
		case KindString:
			cols[i] = NewStringColumn(f.Name, padStrings(b.strs[i], b.rows), padBools(b.valid[i], b.rows))
		case KindFloat:
			cols[i] = NewFloatColumn(f.Name, padFloats(b.nums[i], b.rows), padBools(b.valid[i], b.rows))
		case KindTime:
			cols[i] = NewTimeColumn(f.Name, padTimes(b.times[i], b.rows), padBools(b.valid[i], b.rows))
		default:
			return nil, fmt.Errorf("table %s: column %s has unknown kind %d", b.name, f.Name, f.Kind)
		}
	}
	return New(b.name, cols...)
}

// FromRows builds a table from a header and row values, inferring each
// column's kind from its first non-nil value. Columns with only nil values
// become string columns.
func FromRows(name string, header []string, rows [][]interface{}) (*Table, error) {
	fields := make([]Field, len(header))
	for j, h := range header {
		fields[j] = Field{Name: h, Kind: KindString}
		for _, r := range rows {
			if j >= len(r) || r[j] == nil {
				continue
			}
			fields[j].Kind = inferKind(r[j])
			break
		}
	}
	b := NewBuilder(name, fields)
	for _, r := range rows {
		if err := b.Append(r...); err != nil {
			return nil, err
		}
	}
	return b.Build()
}

// MustFromRows is like FromRows but panics on error. Intended for tests.
func MustFromRows(name string, header []string, rows [][]interface{}) *Table {
	t, err := FromRows(name, header, rows)
	if err != nil {
		panic(err)
	}
	return t
}

func inferKind(v interface{}) Kind {
	switch v.(type) {
	case float64, float32, int, int8, int16, int32, int64, uint, uint8, uint16, uint32, uint64:
		return KindFloat
	case time.Time:
		return KindTime
	default:
		return KindString
	}
}

func toString(v interface{}) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case time.Time:
		return x.Format("2006-01-02")
	case fmt.Stringer:
		return x.String()
	default:
		return fmt.Sprint(v)
	}
}

func toFloat(v interface{}) (float64, error) {
	switch x := v.(type) {
	case float64:
		return x, nil
	case float32:
		return float64(x), nil
	case int:
		return float64(x), nil
	case int8:
		return float64(x), nil
	case int16:
		return float64(x), nil
	case int32:
		return float64(x), nil
	case int64:
		return float64(x), nil
	case uint:
		return float64(x), nil
	case uint8:
		return float64(x), nil
	case uint16:
		return float64(x), nil
	case uint32:
		return float64(x), nil
	case uint64:
		return float64(x), nil
	case bool:
		if x {
			return 1, nil
		}
		return 0, nil
	case string:
		return strconv.ParseFloat(x, 64)
	default:
		return 0, fmt.Errorf("cannot convert %T to float", v)
	}
}

func toTime(v interface{}) (time.Time, error) {
	switch x := v.(type) {
	case time.Time:
		return x, nil
	case string:
		for _, layout := range dateLayouts {
			if t, err := time.Parse(layout, x); err == nil {
				return t, nil
			}
		}
		return time.Time{}, fmt.Errorf("cannot parse %q as time", x)
	default:
		return time.Time{}, fmt.Errorf("cannot convert %T to time", v)
	}
}

func padStrings(s []string, n int) []string {
	if len(s) < n {
		s = append(s, make([]string, n-len(s))...)
	}
	return s
}

func padFloats(s []float64, n int) []float64 {
	if len(s) < n {
		s = append(s, make([]float64, n-len(s))...)
	}
	return s
}

func padTimes(s []time.Time, n int) []time.Time {
	if len(s) < n {
		s = append(s, make([]time.Time, n-len(s))...)
	}
	return s
}

func padBools(s []bool, n int) []bool {
	if len(s) < n {
		s = append(s, make([]bool, n-len(s))...)
	}
	return s
}
