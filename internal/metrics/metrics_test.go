// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestRecordTrainingRun(t *testing.T) {
	tests := []struct {
		name   string
		model  string
		status string
	}{
		{"completed forecast", "forecast", "completed"},
		{"failed recommend", "recommend", "failed"},
		{"skipped recommend", "recommend", "skipped"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := TrainingRunsTotal.WithLabelValues(tt.model, tt.status)
			before := testutil.ToFloat64(c)
			RecordTrainingRun(tt.model, tt.status, 2*time.Second)
			if got := testutil.ToFloat64(c); got != before+1 {
				t.Errorf("runs = %v, want %v", got, before+1)
			}
		})
	}
}

func TestSetTrainingProgress(t *testing.T) {
	SetTrainingProgress("forecast", 85)
	if got := testutil.ToFloat64(TrainingProgress.WithLabelValues("forecast")); got != 85 {
		t.Errorf("progress = %v, want 85", got)
	}
}

func TestServingCounters(t *testing.T) {
	fc := ForecastRequestsTotal.WithLabelValues("baseline")
	before := testutil.ToFloat64(fc)
	RecordForecast("baseline")
	if got := testutil.ToFloat64(fc); got != before+1 {
		t.Errorf("forecast requests = %v, want %v", got, before+1)
	}

	rc := RecommendRequestsTotal.WithLabelValues("popular")
	before = testutil.ToFloat64(rc)
	RecordRecommendation("popular")
	if got := testutil.ToFloat64(rc); got != before+1 {
		t.Errorf("recommend requests = %v, want %v", got, before+1)
	}
}

func TestEventCounters(t *testing.T) {
	before := testutil.ToFloat64(EventsDroppedSubscribers)
	RecordDroppedSubscriber()
	if got := testutil.ToFloat64(EventsDroppedSubscribers); got != before+1 {
		t.Errorf("dropped = %v, want %v", got, before+1)
	}

	c := EventsForwardedTotal.WithLabelValues("rejected")
	before = testutil.ToFloat64(c)
	RecordForwardedEvent("rejected")
	if got := testutil.ToFloat64(c); got != before+1 {
		t.Errorf("forwarded = %v, want %v", got, before+1)
	}
}

func TestTrackActiveRequest(t *testing.T) {
	before := testutil.ToFloat64(APIActiveRequests)
	TrackActiveRequest(true)
	TrackActiveRequest(true)
	TrackActiveRequest(false)
	if got := testutil.ToFloat64(APIActiveRequests); got != before+1 {
		t.Errorf("active = %v, want %v", got, before+1)
	}
	TrackActiveRequest(false)
}

func TestRecordAPIRequest(t *testing.T) {
	RecordAPIRequest("GET", "/api/v1/forecast", 200, 15*time.Millisecond)
	if n := testutil.CollectAndCount(APIRequestDuration); n == 0 {
		t.Error("APIRequestDuration has no series after RecordAPIRequest")
	}
}

func TestRecordIngestRows(t *testing.T) {
	c := IngestRowsTotal.WithLabelValues("product")
	before := testutil.ToFloat64(c)
	RecordIngestRows("product", 12)
	if got := testutil.ToFloat64(c); got != before+12 {
		t.Errorf("rows = %v, want %v", got, before+12)
	}
}
