package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
)

// measurementSchema describes a stored measurement document.
func measurementSchema() map[string]interface{} {
	return map[string]interface{}{
		"type": "object",
		"properties": map[string]interface{}{
			"id":        map[string]string{"type": "string", "description": "Epoch milliseconds of the reading as a decimal string"},
			"date":      map[string]string{"type": "string", "description": "Reading time as shown on the monitoring page"},
			"timestamp": map[string]interface{}{"type": "integer", "format": "int64"},
			"weight":    map[string]string{"type": "number"},
			"battery":   map[string]string{"type": "number"},
			"temp":      map[string]string{"type": "number"},
		},
	}
}

// OpenAPISpec returns the OpenAPI 3.0 specification for the beehive backend API
func OpenAPISpec(w http.ResponseWriter, r *http.Request) {
	spec := map[string]interface{}{
		"openapi": "3.0.0",
		"info": map[string]interface{}{
			"title":       "Behave Backend API",
			"description": "Beehive scale sync service: pulls the scale monitoring page and stores parsed measurements",
			"version":     "1.0.0",
		},
		"servers": []map[string]string{
			{"url": "http://localhost:8080", "description": "Local development server"},
		},
		"paths": map[string]interface{}{
			"/api/sync": map[string]interface{}{
				"post": map[string]interface{}{
					"summary":     "Trigger a sync run",
					"description": "Fetches the monitoring page, parses the measurement table and stores every parsed record",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Run completed",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"message": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
						"500": map[string]interface{}{
							"description": "Run failed",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"error": map[string]string{"type": "string"},
										},
									},
								},
							},
						},
					},
				},
				"get": map[string]interface{}{
					"summary":     "Trigger a sync run",
					"description": "Same as POST; provided for plain scheduler pings",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Run completed"},
						"500": map[string]interface{}{"description": "Run failed"},
					},
				},
			},
			"/api/sync/status": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Last sync run",
					"description": "Returns the result of the most recent sync run in this process",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Last run result",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"run_id":       map[string]string{"type": "string"},
											"outcome":      map[string]interface{}{"type": "string", "enum": []string{"success", "no_data", "failed"}},
											"record_count": map[string]string{"type": "integer"},
											"skipped_rows": map[string]string{"type": "integer"},
											"started_at":   map[string]string{"type": "string", "format": "date-time"},
											"finished_at":  map[string]string{"type": "string", "format": "date-time"},
											"duration_ms":  map[string]string{"type": "integer"},
											"error":        map[string]string{"type": "string"},
										},
									},
								},
							},
						},
						"404": map[string]interface{}{"description": "No run recorded yet"},
					},
				},
			},
			"/api/measurements": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "List stored measurements",
					"description": "Returns measurements newest first",
					"parameters": []map[string]interface{}{
						{
							"name":        "limit",
							"in":          "query",
							"description": "Maximum records to return (default: 100, max: 1000)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 100},
						},
						{
							"name":        "since",
							"in":          "query",
							"description": "Only measurements strictly after this epoch millisecond timestamp",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "format": "int64"},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Successful response",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": map[string]interface{}{
										"type": "object",
										"properties": map[string]interface{}{
											"data": map[string]interface{}{
												"type":  "array",
												"items": measurementSchema(),
											},
											"count": map[string]string{"type": "integer"},
										},
									},
								},
							},
						},
					},
				},
			},
			"/api/measurements/latest": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Latest measurement",
					"description": "Returns the most recent stored measurement",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Latest measurement",
							"content": map[string]interface{}{
								"application/json": map[string]interface{}{
									"schema": measurementSchema(),
								},
							},
						},
						"404": map[string]interface{}{"description": "Store is empty"},
					},
				},
			},
			"/api/measurements/summary": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Window summary",
					"description": "Aggregates weight, battery and temperature over a trailing window",
					"parameters": []map[string]interface{}{
						{
							"name":        "hours",
							"in":          "query",
							"description": "Window size in hours (default: 24, max: 720)",
							"required":    false,
							"schema":      map[string]interface{}{"type": "integer", "default": 24},
						},
					},
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Aggregated readings for the window",
						},
					},
				},
			},
			"/health": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Health check",
					"description": "Verifies the API and its backing store",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{"description": "Service healthy"},
						"503": map[string]interface{}{"description": "Backing store unreachable"},
					},
				},
			},
			"/metrics": map[string]interface{}{
				"get": map[string]interface{}{
					"summary":     "Prometheus metrics",
					"description": "Prometheus metrics endpoint for monitoring",
					"responses": map[string]interface{}{
						"200": map[string]interface{}{
							"description": "Prometheus metrics in text format",
							"content": map[string]interface{}{
								"text/plain": map[string]interface{}{
									"schema": map[string]string{"type": "string"},
								},
							},
						},
					},
				},
			},
		},
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(spec)
}

// RegisterDocsRoutes registers the API documentation routes
func RegisterDocsRoutes(router *mux.Router) {
	router.HandleFunc("/api/docs", SwaggerUI).Methods("GET")
	router.HandleFunc("/api/docs/openapi.json", OpenAPISpec).Methods("GET")
}
