// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

package api

import (
	"net/http"

	"github.com/tomtom215/shelfcast/internal/forecast"
	"github.com/tomtom215/shelfcast/internal/metrics"
	"github.com/tomtom215/shelfcast/internal/recommend"
)

// Forecast serves GET /forecast.
//
// @Summary Forecast demand
// @Tags Forecast
// @Produce json
// @Param product_id query string true "Product ID"
// @Param store_id query string true "Store ID"
// @Param horizon query int false "Days ahead"
// @Param use_baseline query bool false "Use the moving-average baseline"
// @Param version query string false "Version ID"
// @Success 200 {object} APIResponse{data=forecast.Result}
// @Failure 400 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /forecast [get]
func (h *Handler) Forecast(w http.ResponseWriter, r *http.Request) {
	q := ForecastQuery{
		ProductID: queryString(r, "product_id"),
		StoreID:   queryString(r, "store_id"),
		Version:   queryString(r, "version"),
	}
	var err error
	if q.Horizon, err = queryInt(r, "horizon", h.fc.DefaultHorizon); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if q.UseBaseline, err = queryBool(r, "use_baseline", false); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if !validRequest(w, r, &q) {
		return
	}
	if !h.checkRange(w, r, "horizon", q.Horizon, h.fc.MaxHorizon) {
		return
	}

	p, err := h.orch.Registry().Forecaster(q.Version)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	res, err := p.Forecast(q.ProductID, q.StoreID, q.Horizon, q.UseBaseline)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	metrics.RecordForecast(res.Method)
	respondJSON(w, r, http.StatusOK, res)
}

// BatchForecastResponse is the body of a batch forecast.
type BatchForecastResponse struct {
	Horizon   int                    `json:"horizon"`
	Results   []forecast.BatchResult `json:"results"`
	Succeeded int                    `json:"succeeded"`
	Failed    int                    `json:"failed"`
}

// BatchForecast serves POST /forecast/batch. Individual pair failures are
// reported inline with a 200.
//
// @Summary Forecast many product/store pairs
// @Tags Forecast
// @Accept json
// @Produce json
// @Param request body BatchForecastRequest true "Pairs to forecast"
// @Success 200 {object} APIResponse{data=BatchForecastResponse}
// @Failure 400 {object} APIResponse
// @Router /forecast/batch [post]
func (h *Handler) BatchForecast(w http.ResponseWriter, r *http.Request) {
	var req BatchForecastRequest
	if err := decodeJSON(w, r, h.cfg.MaxBodyBytes, &req); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if !validRequest(w, r, &req) {
		return
	}
	if req.Horizon == 0 {
		req.Horizon = h.fc.DefaultHorizon
	}
	if !h.checkRange(w, r, "horizon", req.Horizon, h.fc.MaxHorizon) {
		return
	}

	p, err := h.orch.Registry().Forecaster(queryString(r, "version"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	resp := BatchForecastResponse{Horizon: req.Horizon, Results: p.BatchForecast(req.Pairs, req.Horizon)}
	for _, br := range resp.Results {
		if br.Error != "" {
			resp.Failed++
			continue
		}
		resp.Succeeded++
		metrics.RecordForecast(br.Method)
	}
	respondJSON(w, r, http.StatusOK, resp)
}

// RecommendResponse is the body of the recommendation endpoints.
type RecommendResponse struct {
	CustomerID string           `json:"customer_id,omitempty"`
	StoreID    string           `json:"store_id,omitempty"`
	Items      []recommend.Item `json:"items"`
	Count      int              `json:"count"`
}

// Recommend serves GET /recommend.
//
// @Summary Personalized recommendations
// @Tags Recommend
// @Produce json
// @Param customer_id query string true "Customer ID"
// @Param top_k query int false "List size"
// @Param version query string false "Version ID"
// @Success 200 {object} APIResponse{data=RecommendResponse}
// @Failure 400 {object} APIResponse
// @Failure 409 {object} APIResponse
// @Router /recommend [get]
func (h *Handler) Recommend(w http.ResponseWriter, r *http.Request) {
	q := RecommendQuery{
		CustomerID: queryString(r, "customer_id"),
		Version:    queryString(r, "version"),
	}
	var err error
	if q.TopK, err = queryInt(r, "top_k", h.rc.DefaultTopK); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if !validRequest(w, r, &q) {
		return
	}
	if !h.checkRange(w, r, "top_k", q.TopK, h.rc.MaxTopK) {
		return
	}

	rec, err := h.orch.Registry().Recommender(q.Version)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := rec.Recommend(q.CustomerID, q.TopK, 0)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	metrics.RecordRecommendation("personalized")
	respondJSON(w, r, http.StatusOK, RecommendResponse{CustomerID: q.CustomerID, Items: items, Count: len(items)})
}

// RecommendPopular serves GET /recommend/popular.
//
// @Summary Popular products
// @Tags Recommend
// @Produce json
// @Param top_k query int false "List size"
// @Param store_id query string false "Store ID"
// @Param version query string false "Version ID"
// @Success 200 {object} APIResponse{data=RecommendResponse}
// @Router /recommend/popular [get]
func (h *Handler) RecommendPopular(w http.ResponseWriter, r *http.Request) {
	q := PopularQuery{
		StoreID: queryString(r, "store_id"),
		Version: queryString(r, "version"),
	}
	var err error
	if q.TopK, err = queryInt(r, "top_k", h.rc.DefaultTopK); err != nil {
		respondError(w, r, http.StatusBadRequest, ErrCodeBadRequest, err.Error(), nil)
		return
	}
	if !validRequest(w, r, &q) {
		return
	}
	if !h.checkRange(w, r, "top_k", q.TopK, h.rc.MaxTopK) {
		return
	}

	rec, err := h.orch.Registry().Recommender(q.Version)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	items, err := rec.RecommendPopular(q.TopK, q.StoreID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	metrics.RecordRecommendation("popular")
	respondJSON(w, r, http.StatusOK, RecommendResponse{StoreID: q.StoreID, Items: items, Count: len(items)})
}
