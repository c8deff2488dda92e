// Shelfcast - Retail Demand Forecasting and Recommendation
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/shelfcast

// Package docs registers the Shelfcast OpenAPI document with swag. It is
// kept in sync with the @-annotations on the API handlers and served by
// http-swagger under /swagger/.
package docs

import "github.com/swaggo/swag"

const docTemplate = `{
    "schemes": {{ marshal .Schemes }},
    "swagger": "2.0",
    "info": {
        "description": "{{escape .Description}}",
        "title": "{{.Title}}",
        "contact": {
            "name": "GitHub Repository",
            "url": "https://github.com/tomtom215/shelfcast/issues"
        },
        "license": {
            "name": "AGPL-3.0-or-later",
            "url": "https://www.gnu.org/licenses/agpl-3.0.html"
        },
        "version": "{{.Version}}"
    },
    "host": "{{.Host}}",
    "basePath": "{{.BasePath}}",
    "paths": {
        "/health/live": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Liveness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/health/ready": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Health"],
                "summary": "Readiness probe",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.ReadyStatus"}}}]}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/versions": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Versions"],
                "summary": "List data versions",
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/api.VersionView"}}}}]}}
                }
            },
            "post": {
                "security": [{"BearerAuth": []}],
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Versions"],
                "summary": "Ingest a data directory",
                "parameters": [
                    {"description": "Directory to ingest", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.CreateVersionRequest"}}
                ],
                "responses": {
                    "201": {"description": "Created", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.VersionView"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "401": {"description": "Unauthorized", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/versions/{id}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Versions"],
                "summary": "Get a data version",
                "parameters": [
                    {"type": "string", "description": "Version ID", "name": "id", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.VersionView"}}}]}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/training/{version}": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Training"],
                "summary": "Training records of a version",
                "parameters": [
                    {"type": "string", "description": "Version ID", "name": "version", "in": "path", "required": true}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"type": "array", "items": {"$ref": "#/definitions/training.Record"}}}}]}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/forecast/train": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Queues training for a version, or runs it inline with sync=true.",
                "produces": ["application/json"],
                "tags": ["Training"],
                "summary": "Train a model",
                "parameters": [
                    {"type": "string", "description": "Version ID, latest when empty", "name": "version", "in": "query"},
                    {"type": "boolean", "description": "Run inline", "name": "sync", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/training.RunResult"}}}]}},
                    "202": {"description": "Accepted", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.TrainAccepted"}}}]}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/recommend/train": {
            "post": {
                "security": [{"BearerAuth": []}],
                "description": "Queues training for a version, or runs it inline with sync=true.",
                "produces": ["application/json"],
                "tags": ["Training"],
                "summary": "Train a model",
                "parameters": [
                    {"type": "string", "description": "Version ID, latest when empty", "name": "version", "in": "query"},
                    {"type": "boolean", "description": "Run inline", "name": "sync", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/training.RunResult"}}}]}},
                    "202": {"description": "Accepted", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.TrainAccepted"}}}]}},
                    "404": {"description": "Not Found", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/forecast": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Forecast"],
                "summary": "Forecast demand",
                "parameters": [
                    {"type": "string", "description": "Product ID", "name": "product_id", "in": "query", "required": true},
                    {"type": "string", "description": "Store ID", "name": "store_id", "in": "query", "required": true},
                    {"type": "integer", "description": "Days ahead", "name": "horizon", "in": "query"},
                    {"type": "boolean", "description": "Use the moving-average baseline", "name": "use_baseline", "in": "query"},
                    {"type": "string", "description": "Version ID", "name": "version", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/forecast.Result"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/forecast/batch": {
            "post": {
                "consumes": ["application/json"],
                "produces": ["application/json"],
                "tags": ["Forecast"],
                "summary": "Forecast many product/store pairs",
                "parameters": [
                    {"description": "Pairs to forecast", "name": "request", "in": "body", "required": true, "schema": {"$ref": "#/definitions/api.BatchForecastRequest"}}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.BatchForecastResponse"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/recommend": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Recommend"],
                "summary": "Personalized recommendations",
                "parameters": [
                    {"type": "string", "description": "Customer ID", "name": "customer_id", "in": "query", "required": true},
                    {"type": "integer", "description": "List size", "name": "top_k", "in": "query"},
                    {"type": "string", "description": "Version ID", "name": "version", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.RecommendResponse"}}}]}},
                    "400": {"description": "Bad Request", "schema": {"$ref": "#/definitions/api.APIResponse"}},
                    "409": {"description": "Conflict", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        },
        "/recommend/popular": {
            "get": {
                "produces": ["application/json"],
                "tags": ["Recommend"],
                "summary": "Popular products",
                "parameters": [
                    {"type": "integer", "description": "List size", "name": "top_k", "in": "query"},
                    {"type": "string", "description": "Store ID", "name": "store_id", "in": "query"},
                    {"type": "string", "description": "Version ID", "name": "version", "in": "query"}
                ],
                "responses": {
                    "200": {"description": "OK", "schema": {"allOf": [{"$ref": "#/definitions/api.APIResponse"}, {"type": "object", "properties": {"data": {"$ref": "#/definitions/api.RecommendResponse"}}}]}}
                }
            }
        },
        "/ws": {
            "get": {
                "tags": ["Training"],
                "summary": "Training progress stream",
                "responses": {
                    "101": {"description": "Switching Protocols"},
                    "503": {"description": "Service Unavailable", "schema": {"$ref": "#/definitions/api.APIResponse"}}
                }
            }
        }
    },
    "definitions": {
        "api.APIResponse": {
            "type": "object",
            "properties": {
                "success": {"type": "boolean"},
                "data": {},
                "error": {"$ref": "#/definitions/api.APIError"},
                "meta": {"$ref": "#/definitions/api.APIMeta"}
            }
        },
        "api.APIError": {
            "type": "object",
            "properties": {
                "code": {"type": "string"},
                "message": {"type": "string"},
                "details": {},
                "request_id": {"type": "string"}
            }
        },
        "api.APIMeta": {
            "type": "object",
            "properties": {
                "request_id": {"type": "string"},
                "timestamp": {"type": "string"},
                "duration_ms": {"type": "integer"}
            }
        },
        "api.ReadyStatus": {
            "type": "object",
            "properties": {
                "ready": {"type": "boolean"},
                "error": {"type": "string"},
                "versions": {"type": "integer"},
                "current": {"type": "object", "additionalProperties": {"type": "string"}},
                "queue_depth": {"type": "integer"},
                "ws_clients": {"type": "integer"}
            }
        },
        "api.VersionView": {
            "type": "object",
            "properties": {
                "id": {"type": "string"},
                "created_at": {"type": "string"},
                "source": {"type": "string"},
                "tables": {"type": "object", "additionalProperties": {"type": "integer"}},
                "current": {"type": "boolean"},
                "current_for": {"type": "array", "items": {"type": "string"}},
                "training": {"type": "array", "items": {"$ref": "#/definitions/training.Record"}}
            }
        },
        "api.CreateVersionRequest": {
            "type": "object",
            "required": ["path"],
            "properties": {
                "path": {"type": "string", "maxLength": 4096},
                "source": {"type": "string", "maxLength": 256}
            }
        },
        "api.TrainAccepted": {
            "type": "object",
            "properties": {
                "version": {"type": "string"},
                "model": {"type": "string"},
                "status": {"type": "string"},
                "records": {"type": "string"}
            }
        },
        "api.BatchForecastRequest": {
            "type": "object",
            "required": ["pairs"],
            "properties": {
                "pairs": {"type": "array", "maxItems": 500, "minItems": 1, "items": {"$ref": "#/definitions/forecast.Pair"}},
                "horizon": {"type": "integer"}
            }
        },
        "api.BatchForecastResponse": {
            "type": "object",
            "properties": {
                "horizon": {"type": "integer"},
                "results": {"type": "array", "items": {"$ref": "#/definitions/forecast.BatchResult"}},
                "succeeded": {"type": "integer"},
                "failed": {"type": "integer"}
            }
        },
        "api.RecommendResponse": {
            "type": "object",
            "properties": {
                "customer_id": {"type": "string"},
                "store_id": {"type": "string"},
                "items": {"type": "array", "items": {"$ref": "#/definitions/recommend.Item"}},
                "count": {"type": "integer"}
            }
        },
        "forecast.Pair": {
            "type": "object",
            "required": ["product_id", "store_id"],
            "properties": {
                "product_id": {"type": "string"},
                "store_id": {"type": "string"}
            }
        },
        "forecast.Result": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string"},
                "store_id": {"type": "string"},
                "method": {"type": "string"},
                "horizon": {"type": "integer"},
                "predictions": {"type": "array", "items": {"type": "number"}},
                "dates": {"type": "array", "items": {"type": "string"}},
                "total_forecast": {"type": "number"},
                "avg_daily_forecast": {"type": "number"}
            }
        },
        "forecast.BatchResult": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string"},
                "store_id": {"type": "string"},
                "method": {"type": "string"},
                "horizon": {"type": "integer"},
                "predictions": {"type": "array", "items": {"type": "number"}},
                "dates": {"type": "array", "items": {"type": "string"}},
                "total_forecast": {"type": "number"},
                "avg_daily_forecast": {"type": "number"},
                "error": {"type": "string"}
            }
        },
        "recommend.Item": {
            "type": "object",
            "properties": {
                "product_id": {"type": "string"},
                "score": {"type": "number"},
                "product_name": {"type": "string"},
                "category": {"type": "string"},
                "price": {"type": "number"}
            }
        },
        "training.Record": {
            "type": "object",
            "properties": {
                "version": {"type": "string"},
                "model": {"type": "string"},
                "status": {"type": "string", "enum": ["pending", "running", "completed", "failed", "skipped"]},
                "progress": {"type": "integer"},
                "stage": {"type": "string"},
                "metrics": {"type": "object", "additionalProperties": {"type": "number"}},
                "matrix_info": {"type": "object"},
                "warnings": {"type": "array", "items": {"type": "string"}},
                "error": {"type": "string"},
                "error_trace": {"type": "string"},
                "started_at": {"type": "string"},
                "finished_at": {"type": "string"},
                "updated_at": {"type": "string"}
            }
        },
        "training.RunResult": {
            "type": "object",
            "properties": {
                "record": {"$ref": "#/definitions/training.Record"},
                "metrics": {"type": "object"},
                "feature_importance": {"type": "array", "items": {"type": "object"}},
                "matrix_info": {"type": "object"},
                "summary": {"type": "object"}
            }
        }
    },
    "securityDefinitions": {
        "BearerAuth": {
            "description": "HS256 JWT issued with shelfcast -issue-token subject:role.",
            "type": "apiKey",
            "name": "Authorization",
            "in": "header"
        }
    }
}`

// SwaggerInfo holds exported Swagger Info so clients can modify it.
var SwaggerInfo = &swag.Spec{
	Version:          "1.0",
	Host:             "",
	BasePath:         "/api/v1",
	Schemes:          []string{"http", "https"},
	Title:            "Shelfcast API",
	Description:      "Retail demand forecasting and product recommendation.",
	InfoInstanceName: "swagger",
	SwaggerTemplate:  docTemplate,
	LeftDelim:        "{{",
	RightDelim:       "}}",
}

func init() {
	swag.Register(SwaggerInfo.InstanceName(), SwaggerInfo)
}
