// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/tomtom215/shelfcast/internal/features"
	"github.com/tomtom215/shelfcast/internal/forecast"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/training"
	"github.com/tomtom215/shelfcast/internal/validation"
	"github.com/tomtom215/shelfcast/internal/websocket"
)

// Ingester loads a directory of source tables.
type Ingester interface {
	LoadDir(ctx context.Context, dir string) (features.Tables, error)
}

// Handler serves the API endpoints.
type Handler struct {
	cfg       Config
	orch      *training.Orchestrator
	loader    Ingester
	hub       *websocket.Hub
	fc        forecast.Config
	rc        *recommend.Config
	ready     func(context.Context) error
	startTime time.Time
	logger    zerolog.Logger
}

//nolint:gocritic // logger passed by value is acceptable for zerolog
func newHandler(cfg Config, deps Deps, logger zerolog.Logger) *Handler {
	rc := deps.Recommend
	if rc == nil {
		rc = recommend.DefaultConfig()
	}
	return &Handler{
		cfg:       cfg,
		orch:      deps.Orchestrator,
		loader:    deps.Loader,
		hub:       deps.Hub,
		fc:        deps.Forecast,
		rc:        rc,
		ready:     deps.Ready,
		startTime: time.Now(),
		logger:    logger.With().Str("component", "api").Logger(),
	}
}

// HealthLive reports that the process is up.
//
// @Summary Liveness probe
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse
// @Router /health/live [get]
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, r, http.StatusOK, map[string]interface{}{
		"alive":          true,
		"uptime_seconds": time.Since(h.startTime).Seconds(),
	})
}

// ReadyStatus is the body of the readiness probe.
type ReadyStatus struct {
	Ready      bool              `json:"ready"`
	Error      string            `json:"error,omitempty"`
	Versions   int               `json:"versions"`
	Current    map[string]string `json:"current"`
	QueueDepth int               `json:"queue_depth"`
	WSClients  int               `json:"ws_clients"`
}

// HealthReady reports readiness. It is 503 when the readiness check fails.
//
// @Summary Readiness probe
// @Tags Health
// @Produce json
// @Success 200 {object} APIResponse{data=ReadyStatus}
// @Failure 503 {object} APIResponse
// @Router /health/ready [get]
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	st := ReadyStatus{
		Ready:      true,
		Versions:   h.orch.Catalog().Len(),
		Current:    h.orch.Registry().CurrentVersions(),
		QueueDepth: h.orch.QueueLen(),
	}
	if h.hub != nil {
		st.WSClients = h.hub.ClientCount()
	}
	if h.ready != nil {
		if err := h.ready(r.Context()); err != nil {
			st.Ready = false
			st.Error = err.Error()
			respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "not ready", st)
			return
		}
	}
	respondJSON(w, r, http.StatusOK, st)
}

// VersionView is a data version with its training records.
type VersionView struct {
	training.VersionInfo
	CurrentFor []string          `json:"current_for,omitempty"`
	Training   []training.Record `json:"training"`
}

func (h *Handler) versionView(ctx context.Context, v *training.DataVersion, current map[string]string) (VersionView, error) {
	view := VersionView{VersionInfo: v.Info()}
	for _, model := range training.Models {
		if current[model] == v.ID {
			view.CurrentFor = append(view.CurrentFor, model)
		}
	}
	view.Current = len(view.CurrentFor) > 0
	records, err := h.orch.Records(ctx, v.ID)
	if err != nil {
		return view, err
	}
	if records == nil {
		records = []training.Record{}
	}
	view.Training = records
	return view, nil
}

// ListVersions returns every data version, oldest first.
//
// @Summary List data versions
// @Tags Versions
// @Produce json
// @Success 200 {object} APIResponse{data=[]VersionView}
// @Router /versions [get]
func (h *Handler) ListVersions(w http.ResponseWriter, r *http.Request) {
	current := h.orch.Registry().CurrentVersions()
	versions := h.orch.Catalog().List()
	out := make([]VersionView, 0, len(versions))
	for _, v := range versions {
		view, err := h.versionView(r.Context(), v, current)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		out = append(out, view)
	}
	respondJSON(w, r, http.StatusOK, out)
}

// GetVersion returns one data version.
//
// @Summary Get a data version
// @Tags Versions
// @Produce json
// @Param id path string true "Version ID"
// @Success 200 {object} APIResponse{data=VersionView}
// @Failure 404 {object} APIResponse
// @Router /versions/{id} [get]
func (h *Handler) GetVersion(w http.ResponseWriter, r *http.Request) {
	v, err := h.orch.Catalog().Get(urlParam(r, "id"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	view, err := h.versionView(r.Context(), v, h.orch.Registry().CurrentVersions())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusOK, view)
}

// CreateVersion ingests a directory and registers it as a new version.
//
// @Summary Ingest a data directory
// @Tags Versions
// @Accept json
// @Produce json
// @Param request body CreateVersionRequest true "Directory to ingest"
// @Success 201 {object} APIResponse{data=VersionView}
// @Failure 400 {object} APIResponse
// @Failure 401 {object} APIResponse
// @Security BearerAuth
// @Router /versions [post]
func (h *Handler) CreateVersion(w http.ResponseWriter, r *http.Request) {
	if h.loader == nil {
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeServiceUnavailable, "ingest is not configured", nil)
		return
	}
	var req CreateVersionRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if !validRequest(w, r, &req) {
		return
	}
	dir, err := h.resolveDataPath(req.Path)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error(), nil)
		return
	}

	tables, err := h.loader.LoadDir(r.Context(), dir)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	source := req.Source
	if source == "" {
		source = dir
	}
	v, err := h.orch.RegisterVersion(tables, source)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	view, err := h.versionView(r.Context(), v, h.orch.Registry().CurrentVersions())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	respondJSON(w, r, http.StatusCreated, view)
}

// resolveDataPath confines relative and absolute paths to DataRoot when it
// is set.
func (h *Handler) resolveDataPath(p string) (string, error) {
	if h.cfg.DataRoot == "" {
		return filepath.Clean(p), nil
	}
	root, err := filepath.Abs(h.cfg.DataRoot)
	if err != nil {
		return "", err
	}
	full := p
	if !filepath.IsAbs(full) {
		full = filepath.Join(root, full)
	}
	full = filepath.Clean(full)
	rel, err := filepath.Rel(root, full)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q is outside the data root", p)
	}
	return full, nil
}

// TrainingRecords returns the training records of a version.
//
// @Summary Training records of a version
// @Tags Training
// @Produce json
// @Param version path string true "Version ID"
// @Success 200 {object} APIResponse{data=[]training.Record}
// @Failure 404 {object} APIResponse
// @Router /training/{version} [get]
func (h *Handler) TrainingRecords(w http.ResponseWriter, r *http.Request) {
	v, err := h.orch.Catalog().Get(urlParam(r, "version"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	records, err := h.orch.Records(r.Context(), v.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if records == nil {
		records = []training.Record{}
	}
	respondJSON(w, r, http.StatusOK, records)
}

// TrainAccepted is the 202 body of an asynchronous train request.
type TrainAccepted struct {
	Version string          `json:"version"`
	Model   string          `json:"model"`
	Status  training.Status `json:"status"`
	Records string          `json:"records"`
}

// Train returns the handler for POST /{model}/train.
//
// @Summary Train a model
// @Description Queues training for a version, or runs it inline with sync=true.
// @Tags Training
// @Produce json
// @Param version query string false "Version ID, latest when empty"
// @Param sync query bool false "Run inline"
// @Success 200 {object} APIResponse{data=training.RunResult}
// @Success 202 {object} APIResponse{data=TrainAccepted}
// @Failure 404 {object} APIResponse
// @Failure 503 {object} APIResponse
// @Security BearerAuth
// @Router /forecast/train [post]
// @Router /recommend/train [post]
func (h *Handler) Train(model string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := queryBool(r, "sync", false)
		if err != nil {
			respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
			return
		}
		v, err := h.orch.Catalog().Resolve(queryString(r, "version"))
		if err != nil {
			writeServiceError(w, r, err)
			return
		}

		if !sync {
			if err := h.orch.Schedule(v.ID, model); err != nil {
				writeServiceError(w, r, err)
				return
			}
			respondJSON(w, r, http.StatusAccepted, TrainAccepted{
				Version: v.ID,
				Model:   model,
				Status:  training.StatusPending,
				Records: "/api/v1/training/" + v.ID,
			})
			return
		}

		res, err := h.orch.Run(r.Context(), v.ID, model)
		if err != nil {
			var se *training.StageError
			if errors.As(err, &se) {
				respondError(w, r, http.StatusInternalServerError, ErrCodeTrainingFailed, err.Error(), res)
				return
			}
			writeServiceError(w, r, err)
			return
		}
		respondJSON(w, r, http.StatusOK, res)
	}
}

// checkRange validates 1 <= v <= max, reporting the failure against name.
func (h *Handler) checkRange(w http.ResponseWriter, r *http.Request, name string, v, max int) bool {
	verr := validation.ValidateVar(name, v, fmt.Sprintf("min=1,max=%d", max))
	if verr == nil {
		return true
	}
	respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed,
		fmt.Sprintf("%s must be between 1 and %d", name, max), verr.Fields())
	return false
}
