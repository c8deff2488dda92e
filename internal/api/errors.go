// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package api

import (
	"errors"
	"io/fs"
	"net/http"

	"github.com/tomtom215/shelfcast/internal/forecast"
	"github.com/tomtom215/shelfcast/internal/ingest"
	"github.com/tomtom215/shelfcast/internal/logging"
	"github.com/tomtom215/shelfcast/internal/recommend"
	"github.com/tomtom215/shelfcast/internal/training"
	"github.com/tomtom215/shelfcast/internal/validation"
)

// validRequest validates req, writing a VALIDATION_FAILED response on
// failure.
func validRequest(w http.ResponseWriter, r *http.Request, req interface{}) bool {
	verr := validation.ValidateStruct(req)
	if verr == nil {
		return true
	}
	respondError(w, r, http.StatusBadRequest, ErrCodeValidationFailed, verr.Error(), verr.Fields())
	return false
}

// writeServiceError maps errors from the service packages to responses.
func writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		fcInvalid  *forecast.InvalidRequestError
		recInvalid *recommend.InvalidRequestError
		stageErr   *training.StageError
	)
	switch {
	case errors.As(err, &fcInvalid), errors.As(err, &recInvalid):
		respondError(w, r, http.StatusBadRequest, ErrCodeInvalidRequest, err.Error(), nil)
	case errors.Is(err, forecast.ErrNotTrained), errors.Is(err, recommend.ErrNotTrained):
		respondError(w, r, http.StatusConflict, ErrCodeModelNotTrained, err.Error(), nil)
	case errors.Is(err, training.ErrVersionNotFound):
		respondError(w, r, http.StatusNotFound, ErrCodeVersionNotFound, err.Error(), nil)
	case errors.Is(err, training.ErrNoVersions):
		respondError(w, r, http.StatusNotFound, ErrCodeNoVersions, err.Error(), nil)
	case errors.Is(err, training.ErrUnknownModel):
		respondError(w, r, http.StatusBadRequest, ErrCodeUnknownModel, err.Error(), nil)
	case errors.Is(err, training.ErrQueueFull):
		respondError(w, r, http.StatusServiceUnavailable, ErrCodeQueueFull, err.Error(), nil)
	case errors.Is(err, ingest.ErrNoTables), errors.Is(err, ingest.ErrUnsupportedFormat), errors.Is(err, fs.ErrNotExist):
		respondError(w, r, http.StatusBadRequest, ErrCodeIngestFailed, err.Error(), nil)
	case errors.As(err, &stageErr):
		respondError(w, r, http.StatusInternalServerError, ErrCodeTrainingFailed, err.Error(), nil)
	default:
		logging.Ctx(r.Context()).Error().Err(err).Str("path", r.URL.Path).Msg("request failed")
		respondError(w, r, http.StatusInternalServerError, ErrCodeInternalError, "internal server error", nil)
	}
}
