// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package training

import (
	"fmt"
	"io"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/events"
	"github.com/tomtom215/shelfcast/internal/features"
	"github.com/tomtom215/shelfcast/internal/forecast"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/storage"
	"github.com/tomtom215/shelfcast/internal/table"
)

func quietLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

// retailTables builds 30 days of sales for three products in two stores,
// bought by four customers, plus a product catalog.
func retailTables(withProducts bool) features.Tables {
	start := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	products := []string{"P1", "P2", "P3"}
	stores := []string{"S1", "S2"}
	customers := []string{"C1", "C2", "C3", "C4"}

	var items, trans [][]interface{}
	n := 0
	for d := 0; d < 30; d++ {
		date := start.AddDate(0, 0, d)
		for pi, p := range products {
			for si, s := range stores {
				id := fmt.Sprintf("T%05d", n)
				qty := float64(1 + (d+pi+si)%5)
				items = append(items, []interface{}{id, p, qty, 100.0 * float64(pi+1)})
				trans = append(trans, []interface{}{id, s, customers[(d+pi)%len(customers)], date})
				n++
			}
		}
	}

	tables := features.Tables{
		features.TableTransactionItems: table.MustFromRows(features.TableTransactionItems,
			[]string{"transaction_id", "product_id", "quantity", "unit_price"}, items),
		features.TableTransaction: table.MustFromRows(features.TableTransaction,
			[]string{"transaction_id", "store_id", "customer_id", "transaction_date"}, trans),
	}
	if withProducts {
		tables[features.TableProduct] = table.MustFromRows(features.TableProduct,
			[]string{"product_id", "product_name", "category_level1", "retail_price_jpy"},
			[][]interface{}{
				{"P1", "Green Tea", "drinks", 150.0},
				{"P2", "Rice Ball", "food", 180.0},
				{"P3", "Barley Tea", "drinks", 1200.0},
			})
	}
	return tables
}

func smallForecastConfig() forecast.Config {
	cfg := forecast.DefaultConfig()
	cfg.GBM.NumEstimators = 20
	cfg.GBM.MinDataInLeaf = 5
	return cfg
}

type testHarness struct {
	orch     *Orchestrator
	registry *Registry
	sub      *events.Subscription
}

func newHarness(t *testing.T, cfg Config, artifacts *storage.Store) *testHarness {
	t.Helper()
	h := &testHarness{registry: NewRegistry()}
	orch, err := NewOrchestrator(cfg, smallForecastConfig(), recommend.DefaultConfig(), Deps{
		Catalog:     NewCatalog(),
		Records:     NewMemoryRecordStore(),
		Registry:    h.registry,
		Broadcaster: events.NewBroadcaster(quietLogger(), nil),
		Artifacts:   artifacts,
	}, quietLogger())
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}
	h.sub = orch.Subscribe(256)
	h.orch = orch
	return h
}

// drain returns the progress events published since the last drain.
func (h *testHarness) drain() []events.ProgressEvent {
	var out []events.ProgressEvent
	for {
		select {
		case ev, ok := <-h.sub.C():
			if !ok {
				return out
			}
			out = append(out, ev)
		default:
			return out
		}
	}
}

func (h *testHarness) register(t *testing.T, tables features.Tables) string {
	t.Helper()
	v, err := h.orch.Catalog().Register(tables, "test")
	if err != nil {
		t.Fatalf("Register() error = %v", err)
	}
	return v.ID
}
