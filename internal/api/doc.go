// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

/*
Package api exposes forecasting, recommendation and training over HTTP.

Routes (chi):

	GET  /api/v1/health/live
	GET  /api/v1/health/ready
	GET  /api/v1/versions
	GET  /api/v1/versions/{id}
	POST /api/v1/versions                  {"path": dir}          trainer
	GET  /api/v1/forecast                  ?product_id&store_id&horizon&use_baseline&version
	POST /api/v1/forecast/batch            {"pairs": [...], "horizon": n}
	POST /api/v1/forecast/train            ?version&sync          trainer
	GET  /api/v1/recommend                 ?customer_id&top_k&version
	GET  /api/v1/recommend/popular         ?top_k&store_id&version
	POST /api/v1/recommend/train           ?version&sync          trainer
	GET  /api/v1/training/{version}
	GET  /api/v1/ws
	GET  /metrics

Every JSON response uses one envelope:

	{"success": true, "data": ..., "meta": {"request_id": "...", "timestamp": "...", "duration_ms": 3}}
	{"success": false, "error": {"code": "MODEL_NOT_TRAINED", "message": "...", "request_id": "..."}}

Service errors map to status codes in one place (writeServiceError):
invalid requests are 400, unknown versions 404, untrained models 409, a
full training queue 503 and failed synchronous runs 500 with the training
record in error.details.
*/
package api
