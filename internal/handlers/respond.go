package handlers

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/pallagj/behave-backend/pkg/metrics"
)

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error string `json:"error"`
}

// MessageResponse represents a simple confirmation response
type MessageResponse struct {
	Message string `json:"message"`
}

// ListResponse wraps a collection payload
type ListResponse struct {
	Data  interface{} `json:"data"`
	Count int         `json:"count"`
}

// sendJSON sends a JSON response
func sendJSON(w http.ResponseWriter, data interface{}, statusCode int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(data)
}

// sendError sends an error response and records the request outcome
func sendError(w http.ResponseWriter, r *http.Request, collector *metrics.Collector, message string, statusCode int) {
	collector.RecordAPIRequest(r.URL.Path, r.Method, strconv.Itoa(statusCode))
	sendJSON(w, ErrorResponse{Error: message}, statusCode)
}
