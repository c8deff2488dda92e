// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package api

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/auth"
	"github.com/tomtom215/shelfcast/internal/events"
	"github.com/tomtom215/shelfcast/internal/features"
	"github.com/tomtom215/shelfcast/internal/forecast"
	"github.com/tomtom215/shelfcast/internal/ingest"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/table"
	"github.com/tomtom215/shelfcast/internal/training"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func quietLogger() zerolog.Logger {
	return zerolog.New(io.Discard)
}

func retailTables() features.Tables {
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
				items = append(items, []interface{}{id, p, float64(1 + (d+pi+si)%5), 100.0 * float64(pi+1)})
				trans = append(trans, []interface{}{id, s, customers[(d+pi)%len(customers)], date})
				n++
			}
		}
	}
	return features.Tables{
		features.TableTransactionItems: table.MustFromRows(features.TableTransactionItems,
			[]string{"transaction_id", "product_id", "quantity", "unit_price"}, items),
		features.TableTransaction: table.MustFromRows(features.TableTransaction,
			[]string{"transaction_id", "store_id", "customer_id", "transaction_date"}, trans),
		features.TableProduct: table.MustFromRows(features.TableProduct,
			[]string{"product_id", "product_name", "category_level1", "retail_price_jpy"},
			[][]interface{}{
				{"P1", "Green Tea", "drinks", 150.0},
				{"P2", "Rice Ball", "food", 180.0},
				{"P3", "Barley Tea", "drinks", 1200.0},
			}),
	}
}

type fakeLoader struct {
	tables features.Tables
	err    error
	dirs   []string
}

func (f *fakeLoader) LoadDir(_ context.Context, dir string) (features.Tables, error) {
	f.dirs = append(f.dirs, dir)
	return f.tables, f.err
}

type testServer struct {
	handler http.Handler
	orch    *training.Orchestrator
	loader  *fakeLoader
	tokens  *auth.TokenManager
}

func newTestServer(t *testing.T, withAuth bool) *testServer {
	t.Helper()

	fc := forecast.DefaultConfig()
	fc.GBM.NumEstimators = 20
	fc.GBM.MinDataInLeaf = 5

	tc := training.DefaultConfig()
	tc.AutoTrain = false
	tc.QueueSize = 1
	tc.ArtifactDir = ""

	orch, err := training.NewOrchestrator(tc, fc, recommend.DefaultConfig(), training.Deps{
		Catalog:     training.NewCatalog(),
		Records:     training.NewMemoryRecordStore(),
		Registry:    training.NewRegistry(),
		Broadcaster: events.NewBroadcaster(quietLogger(), nil),
	}, quietLogger())
	if err != nil {
		t.Fatalf("NewOrchestrator() error = %v", err)
	}

	ts := &testServer{orch: orch, loader: &fakeLoader{tables: retailTables()}}
	deps := Deps{
		Orchestrator: orch,
		Loader:       ts.loader,
		Forecast:     fc,
		Recommend:    recommend.DefaultConfig(),
	}
	if withAuth {
		ac := auth.DefaultConfig()
		ac.Enabled = true
		ac.JWTSecret = testSecret
		tokens, err := auth.NewTokenManager(ac)
		if err != nil {
			t.Fatalf("NewTokenManager() error = %v", err)
		}
		enforcer, err := auth.NewEnforcer("")
		if err != nil {
			t.Fatalf("NewEnforcer() error = %v", err)
		}
		ts.tokens = tokens
		deps.Auth = auth.NewMiddleware(ac, tokens, enforcer, WriteAuthError, quietLogger())
	}

	cfg := DefaultConfig()
	cfg.RateLimitDisabled = true
	ts.handler = NewRouter(cfg, deps, quietLogger())
	return ts
}

func (ts *testServer) register(t *testing.T) string {
	t.Helper()
	v, err := ts.orch.RegisterVersion(retailTables(), "test")
	if err != nil {
		t.Fatalf("RegisterVersion() error = %v", err)
	}
	return v.ID
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
	Error   *struct {
		Code      string          `json:"code"`
		Message   string          `json:"message"`
		Details   json.RawMessage `json:"details"`
		RequestID string          `json:"request_id"`
	} `json:"error"`
	Meta *APIMeta `json:"meta"`
}

func (ts *testServer) do(t *testing.T, method, target, body, token string) (*httptest.ResponseRecorder, envelope) {
	t.Helper()
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)

	var env envelope
	if strings.HasPrefix(rec.Header().Get("Content-Type"), "application/json") {
		if err := json.Unmarshal(rec.Body.Bytes(), &env); err != nil {
			t.Fatalf("decode %s %s: %v (%s)", method, target, err, rec.Body.String())
		}
	}
	return rec, env
}

func expectError(t *testing.T, rec *httptest.ResponseRecorder, env envelope, status int, code string) {
	t.Helper()
	if rec.Code != status {
		t.Fatalf("status = %d, want %d (%s)", rec.Code, status, rec.Body.String())
	}
	if env.Success || env.Error == nil {
		t.Fatalf("expected error envelope, got %s", rec.Body.String())
	}
	if env.Error.Code != code {
		t.Errorf("error.code = %q, want %q", env.Error.Code, code)
	}
}

func TestHealth(t *testing.T) {
	ts := newTestServer(t, false)

	rec, env := ts.do(t, http.MethodGet, "/api/v1/health/live", "", "")
	if rec.Code != http.StatusOK || !env.Success {
		t.Fatalf("live = %d %s", rec.Code, rec.Body.String())
	}
	if env.Meta == nil || env.Meta.RequestID == "" {
		t.Error("meta.request_id missing")
	}
	if rec.Header().Get("X-Request-ID") != env.Meta.RequestID {
		t.Errorf("X-Request-ID = %q, want %q", rec.Header().Get("X-Request-ID"), env.Meta.RequestID)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/health/ready", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("ready = %d", rec.Code)
	}
	var st ReadyStatus
	if err := json.Unmarshal(env.Data, &st); err != nil {
		t.Fatal(err)
	}
	if !st.Ready || st.Versions != 0 {
		t.Errorf("ready = %+v", st)
	}
}

func TestHealthReady_Failing(t *testing.T) {
	ts := newTestServer(t, false)
	cfg := DefaultConfig()
	cfg.RateLimitDisabled = true
	ts.handler = NewRouter(cfg, Deps{
		Orchestrator: ts.orch,
		Ready:        func(context.Context) error { return errors.New("nats down") },
	}, quietLogger())

	rec, env := ts.do(t, http.MethodGet, "/api/v1/health/ready", "", "")
	expectError(t, rec, env, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestNotFound(t *testing.T) {
	ts := newTestServer(t, false)
	rec, env := ts.do(t, http.MethodGet, "/api/v1/nope", "", "")
	expectError(t, rec, env, http.StatusNotFound, ErrCodeNotFound)
	if env.Error.RequestID == "" {
		t.Error("error.request_id missing")
	}
}

func TestForecast_Flow(t *testing.T) {
	ts := newTestServer(t, false)

	rec, env := ts.do(t, http.MethodGet, "/api/v1/forecast?product_id=P1&store_id=S1", "", "")
	expectError(t, rec, env, http.StatusConflict, ErrCodeModelNotTrained)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/forecast/train?sync=true", "", "")
	expectError(t, rec, env, http.StatusNotFound, ErrCodeNoVersions)

	version := ts.register(t)
	rec, env = ts.do(t, http.MethodPost, "/api/v1/forecast/train?sync=true", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("train = %d %s", rec.Code, rec.Body.String())
	}
	var res training.RunResult
	if err := json.Unmarshal(env.Data, &res); err != nil {
		t.Fatal(err)
	}
	if res.Record.Status != training.StatusCompleted || res.Record.Version != version {
		t.Errorf("record = %+v", res.Record)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/forecast?product_id=P1&store_id=S1&horizon=7", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("forecast = %d %s", rec.Code, rec.Body.String())
	}
	var fr forecast.Result
	if err := json.Unmarshal(env.Data, &fr); err != nil {
		t.Fatal(err)
	}
	if fr.Horizon != 7 || len(fr.Predictions) != 7 || len(fr.Dates) != 7 {
		t.Errorf("forecast = %+v", fr)
	}
	if fr.Dates[0] != "2024-03-31" {
		t.Errorf("first date = %s, want 2024-03-31", fr.Dates[0])
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/forecast?product_id=P1&store_id=S1&use_baseline=true", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("baseline = %d", rec.Code)
	}
	if err := json.Unmarshal(env.Data, &fr); err != nil {
		t.Fatal(err)
	}
	if fr.Method != forecast.MethodBaseline || fr.Horizon != 14 {
		t.Errorf("baseline forecast method=%s horizon=%d", fr.Method, fr.Horizon)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/forecast?product_id=P1&store_id=S1&version="+version, "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("explicit version = %d", rec.Code)
	}
	rec, env = ts.do(t, http.MethodGet, "/api/v1/forecast?product_id=P1&store_id=S1&version=v-missing", "", "")
	expectError(t, rec, env, http.StatusConflict, ErrCodeModelNotTrained)
}

func TestForecast_Validation(t *testing.T) {
	ts := newTestServer(t, false)
	tests := []struct {
		name   string
		target string
		code   string
	}{
		{"missing product", "/api/v1/forecast?store_id=S1", ErrCodeValidationFailed},
		{"zero horizon", "/api/v1/forecast?product_id=P1&store_id=S1&horizon=0", ErrCodeValidationFailed},
		{"horizon too large", "/api/v1/forecast?product_id=P1&store_id=S1&horizon=91", ErrCodeValidationFailed},
		{"non-numeric horizon", "/api/v1/forecast?product_id=P1&store_id=S1&horizon=abc", ErrCodeBadRequest},
		{"bad bool", "/api/v1/forecast?product_id=P1&store_id=S1&use_baseline=maybe", ErrCodeBadRequest},
		{"control char in id", "/api/v1/forecast?product_id=P%071&store_id=S1", ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodGet, tt.target, "", "")
			expectError(t, rec, env, http.StatusBadRequest, tt.code)
		})
	}
}

func TestBatchForecast(t *testing.T) {
	ts := newTestServer(t, false)
	version := ts.register(t)
	if _, err := ts.orch.Run(context.Background(), version, training.ModelForecast); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	body := `{"pairs":[{"product_id":"P1","store_id":"S1"},{"product_id":"","store_id":"S1"}],"horizon":3}`
	rec, env := ts.do(t, http.MethodPost, "/api/v1/forecast/batch", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("batch = %d %s", rec.Code, rec.Body.String())
	}
	var resp BatchForecastResponse
	if err := json.Unmarshal(env.Data, &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Succeeded != 1 || resp.Failed != 1 || len(resp.Results) != 2 {
		t.Errorf("batch = %+v", resp)
	}
	if resp.Results[1].Error == "" {
		t.Error("pair with empty product_id should carry an error")
	}

	tests := []struct {
		name string
		body string
		code string
	}{
		{"empty pairs", `{"pairs":[]}`, ErrCodeValidationFailed},
		{"unknown field", `{"pairs":[{"product_id":"P1","store_id":"S1"}],"extra":1}`, ErrCodeBadRequest},
		{"bad json", `{"pairs":`, ErrCodeBadRequest},
		{"horizon too large", `{"pairs":[{"product_id":"P1","store_id":"S1"}],"horizon":500}`, ErrCodeValidationFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodPost, "/api/v1/forecast/batch", tt.body, "")
			expectError(t, rec, env, http.StatusBadRequest, tt.code)
		})
	}
}

func TestRecommend_Flow(t *testing.T) {
	ts := newTestServer(t, false)
	ts.register(t)

	rec, env := ts.do(t, http.MethodGet, "/api/v1/recommend?customer_id=C1", "", "")
	expectError(t, rec, env, http.StatusConflict, ErrCodeModelNotTrained)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/recommend/train?sync=true", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("train = %d %s", rec.Code, rec.Body.String())
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/recommend?customer_id=C1&top_k=2", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("recommend = %d %s", rec.Code, rec.Body.String())
	}
	var rr RecommendResponse
	if err := json.Unmarshal(env.Data, &rr); err != nil {
		t.Fatal(err)
	}
	if rr.CustomerID != "C1" || rr.Count != len(rr.Items) || rr.Count > 2 || rr.Count == 0 {
		t.Errorf("recommend = %+v", rr)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/recommend/popular?top_k=3", "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("popular = %d %s", rec.Code, rec.Body.String())
	}
	if err := json.Unmarshal(env.Data, &rr); err != nil {
		t.Fatal(err)
	}
	if rr.Count != 3 {
		t.Errorf("popular count = %d, want 3", rr.Count)
	}

	tests := []struct {
		name   string
		target string
	}{
		{"missing customer", "/api/v1/recommend"},
		{"top_k zero", "/api/v1/recommend?customer_id=C1&top_k=0"},
		{"top_k too large", "/api/v1/recommend?customer_id=C1&top_k=51"},
		{"popular top_k too large", "/api/v1/recommend/popular?top_k=51"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec, env := ts.do(t, http.MethodGet, tt.target, "", "")
			expectError(t, rec, env, http.StatusBadRequest, ErrCodeValidationFailed)
		})
	}
}

func TestTrain_Async(t *testing.T) {
	ts := newTestServer(t, false)
	version := ts.register(t)

	rec, env := ts.do(t, http.MethodPost, "/api/v1/forecast/train", "", "")
	if rec.Code != http.StatusAccepted {
		t.Fatalf("train = %d %s", rec.Code, rec.Body.String())
	}
	var acc TrainAccepted
	if err := json.Unmarshal(env.Data, &acc); err != nil {
		t.Fatal(err)
	}
	if acc.Version != version || acc.Model != training.ModelForecast || acc.Status != training.StatusPending {
		t.Errorf("accepted = %+v", acc)
	}

	// Queue size is one and no worker drains it.
	rec, env = ts.do(t, http.MethodPost, "/api/v1/recommend/train", "", "")
	expectError(t, rec, env, http.StatusServiceUnavailable, ErrCodeQueueFull)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/forecast/train?version=v-missing", "", "")
	expectError(t, rec, env, http.StatusNotFound, ErrCodeVersionNotFound)
}

func TestVersions(t *testing.T) {
	ts := newTestServer(t, false)

	rec, env := ts.do(t, http.MethodPost, "/api/v1/versions", `{"path":"/data/drop1"}`, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("create = %d %s", rec.Code, rec.Body.String())
	}
	var created VersionView
	if err := json.Unmarshal(env.Data, &created); err != nil {
		t.Fatal(err)
	}
	if created.Source != "/data/drop1" || created.Tables[features.TableProduct] != 3 {
		t.Errorf("created = %+v", created.VersionInfo)
	}
	if len(ts.loader.dirs) != 1 || ts.loader.dirs[0] != "/data/drop1" {
		t.Errorf("loader dirs = %v", ts.loader.dirs)
	}

	if _, err := ts.orch.Run(context.Background(), created.ID, training.ModelForecast); err != nil {
		t.Fatalf("Run() error = %v", err)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/versions/"+created.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Fatalf("get = %d", rec.Code)
	}
	var got VersionView
	if err := json.Unmarshal(env.Data, &got); err != nil {
		t.Fatal(err)
	}
	if !got.Current || len(got.CurrentFor) != 1 || got.CurrentFor[0] != training.ModelForecast {
		t.Errorf("current = %v %v", got.Current, got.CurrentFor)
	}
	if len(got.Training) != 2 {
		t.Fatalf("training = %+v, want a record per model", got.Training)
	}
	for _, r := range got.Training {
		want := training.StatusPending
		if r.Model == training.ModelForecast {
			want = training.StatusCompleted
		}
		if r.Status != want {
			t.Errorf("%s status = %s, want %s", r.Model, r.Status, want)
		}
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/versions", "", "")
	var list []VersionView
	if err := json.Unmarshal(env.Data, &list); err != nil {
		t.Fatal(err)
	}
	if rec.Code != http.StatusOK || len(list) != 1 {
		t.Errorf("list = %d %d", rec.Code, len(list))
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/training/"+created.ID, "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("records = %d", rec.Code)
	}

	rec, env = ts.do(t, http.MethodGet, "/api/v1/versions/v-missing", "", "")
	expectError(t, rec, env, http.StatusNotFound, ErrCodeVersionNotFound)
	rec, env = ts.do(t, http.MethodGet, "/api/v1/training/v-missing", "", "")
	expectError(t, rec, env, http.StatusNotFound, ErrCodeVersionNotFound)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/versions", `{}`, "")
	expectError(t, rec, env, http.StatusBadRequest, ErrCodeValidationFailed)

	ts.loader.err = fmt.Errorf("load dir: %w", ingest.ErrNoTables)
	rec, env = ts.do(t, http.MethodPost, "/api/v1/versions", `{"path":"/empty"}`, "")
	expectError(t, rec, env, http.StatusBadRequest, ErrCodeIngestFailed)
}

func TestResolveDataPath(t *testing.T) {
	root := t.TempDir()
	h := &Handler{cfg: Config{DataRoot: root}}
	tests := []struct {
		in      string
		want    string
		wantErr bool
	}{
		{"drop1", filepath.Join(root, "drop1"), false},
		{filepath.Join(root, "a", "b"), filepath.Join(root, "a", "b"), false},
		{"../etc", "", true},
		{"/etc", "", true},
		{"a/../../x", "", true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := h.resolveDataPath(tt.in)
			if (err != nil) != tt.wantErr {
				t.Fatalf("resolveDataPath(%q) error = %v, wantErr %v", tt.in, err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("resolveDataPath(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}

func TestAuth_MutatingRoutes(t *testing.T) {
	ts := newTestServer(t, true)
	viewer, err := ts.tokens.Issue("alice", auth.RoleViewer)
	if err != nil {
		t.Fatal(err)
	}
	trainer, err := ts.tokens.Issue("bob", auth.RoleTrainer)
	if err != nil {
		t.Fatal(err)
	}

	rec, env := ts.do(t, http.MethodPost, "/api/v1/versions", `{"path":"/d"}`, "")
	expectError(t, rec, env, http.StatusUnauthorized, ErrCodeUnauthorized)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/versions", `{"path":"/d"}`, "not-a-token")
	expectError(t, rec, env, http.StatusUnauthorized, ErrCodeUnauthorized)

	rec, env = ts.do(t, http.MethodPost, "/api/v1/versions", `{"path":"/d"}`, viewer)
	expectError(t, rec, env, http.StatusForbidden, ErrCodeForbidden)

	rec, _ = ts.do(t, http.MethodPost, "/api/v1/versions", `{"path":"/d"}`, trainer)
	if rec.Code != http.StatusCreated {
		t.Fatalf("trainer create = %d %s", rec.Code, rec.Body.String())
	}

	// Reads stay public.
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/versions", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("public read = %d", rec.Code)
	}
	rec, env = ts.do(t, http.MethodPost, "/api/v1/forecast/batch", `{"pairs":[{"product_id":"P1","store_id":"S1"}]}`, "")
	expectError(t, rec, env, http.StatusConflict, ErrCodeModelNotTrained)
}

func TestRateLimit(t *testing.T) {
	ts := newTestServer(t, false)
	cfg := DefaultConfig()
	cfg.RateLimitRequests = 2
	cfg.RateLimitWindow = time.Minute
	ts.handler = NewRouter(cfg, Deps{Orchestrator: ts.orch}, quietLogger())

	for i := 0; i < 2; i++ {
		rec, _ := ts.do(t, http.MethodGet, "/api/v1/versions", "", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("request %d = %d", i, rec.Code)
		}
	}
	rec, env := ts.do(t, http.MethodGet, "/api/v1/versions", "", "")
	expectError(t, rec, env, http.StatusTooManyRequests, ErrCodeTooManyRequests)

	// Health probes are not limited.
	rec, _ = ts.do(t, http.MethodGet, "/api/v1/health/live", "", "")
	if rec.Code != http.StatusOK {
		t.Errorf("health = %d", rec.Code)
	}
}

func TestCheckOrigin(t *testing.T) {
	tests := []struct {
		name    string
		allowed []string
		origin  string
		host    string
		want    bool
	}{
		{"no origin", nil, "", "api.local", false},
		{"same host", nil, "http://api.local", "api.local", true},
		{"other host", nil, "http://evil.local", "api.local", false},
		{"listed", []string{"https://ui.local"}, "https://ui.local", "api.local", true},
		{"not listed", []string{"https://ui.local"}, "https://evil.local", "api.local", false},
		{"wildcard", []string{"*"}, "https://any.local", "api.local", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/api/v1/ws", nil)
			r.Host = tt.host
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			if got := checkOrigin(tt.allowed)(r); got != tt.want {
				t.Errorf("checkOrigin() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestWebSocket_NoHub(t *testing.T) {
	ts := newTestServer(t, false)
	rec, env := ts.do(t, http.MethodGet, "/api/v1/ws", "", "")
	expectError(t, rec, env, http.StatusServiceUnavailable, ErrCodeServiceUnavailable)
}

func TestMetricsEndpoint(t *testing.T) {
	ts := newTestServer(t, false)
	ts.do(t, http.MethodGet, "/api/v1/health/live", "", "")
	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("metrics = %d", rec.Code)
	}
	if !bytes.Contains(rec.Body.Bytes(), []byte("shelfcast_api_requests_total")) {
		t.Error("metrics output missing shelfcast_api_requests_total")
	}
}

func TestSwaggerDoc(t *testing.T) {
	ts := newTestServer(t, false)
	req := httptest.NewRequest(http.MethodGet, "/swagger/doc.json", nil)
	rec := httptest.NewRecorder()
	ts.handler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("doc.json = %d", rec.Code)
	}
	for _, want := range []string{"Shelfcast API", "/forecast/batch", "BearerAuth"} {
		if !bytes.Contains(rec.Body.Bytes(), []byte(want)) {
			t.Errorf("doc.json missing %q", want)
		}
	}
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"default", func(*Config) {}, false},
		{"zero requests", func(c *Config) { c.RateLimitRequests = 0 }, true},
		{"zero requests disabled", func(c *Config) { c.RateLimitRequests = 0; c.RateLimitDisabled = true }, false},
		{"zero window", func(c *Config) { c.RateLimitWindow = 0 }, true},
		{"zero body", func(c *Config) { c.MaxBodyBytes = 0 }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.mutate(&cfg)
			if err := cfg.Validate(); (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}
