// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/goccy/go-json"

	"github.com/tomtom215/shelfcast/internal/forecast"
)

// ForecastQuery is the parsed query of GET /forecast.
type ForecastQuery struct {
	ProductID   string `validate:"required,max=128,identifier"`
	StoreID     string `validate:"required,max=128,identifier"`
	Horizon     int
	UseBaseline bool
	Version     string `validate:"max=64,identifier"`
}

// BatchForecastRequest is the body of POST /forecast/batch. Pairs with
// missing IDs are reported per pair rather than failing the request.
type BatchForecastRequest struct {
	Pairs   []forecast.Pair `json:"pairs" validate:"required,min=1,max=500"`
	Horizon int             `json:"horizon"`
}

// RecommendQuery is the parsed query of GET /recommend.
type RecommendQuery struct {
	CustomerID string `validate:"required,max=128,identifier"`
	TopK       int
	Version    string `validate:"max=64,identifier"`
}

// PopularQuery is the parsed query of GET /recommend/popular.
type PopularQuery struct {
	TopK    int
	StoreID string `validate:"max=128,identifier"`
	Version string `validate:"max=64,identifier"`
}

// CreateVersionRequest is the body of POST /versions.
type CreateVersionRequest struct {
	Path   string `json:"path" validate:"required,max=4096"`
	Source string `json:"source" validate:"max=256"`
}

// errBadParam reports an unparseable query parameter.
type errBadParam struct {
	name  string
	value string
}

func (e *errBadParam) Error() string {
	return fmt.Sprintf("invalid value %q for parameter %s", e.value, e.name)
}

func queryString(r *http.Request, name string) string {
	return strings.TrimSpace(r.URL.Query().Get(name))
}

func queryInt(r *http.Request, name string, def int) (int, error) {
	v := queryString(r, name)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &errBadParam{name: name, value: v}
	}
	return n, nil
}

func queryBool(r *http.Request, name string, def bool) (bool, error) {
	v := queryString(r, name)
	if v == "" {
		return def, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, &errBadParam{name: name, value: v}
	}
	return b, nil
}

// decodeJSON reads a bounded JSON body into dst.
func decodeJSON(w http.ResponseWriter, r *http.Request, limit int64, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, limit)
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fmt.Errorf("request body exceeds %d bytes", limit)
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}
