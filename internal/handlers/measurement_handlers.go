package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"

	"github.com/pallagj/behave-backend/internal/repository"
	"github.com/pallagj/behave-backend/internal/services"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

// MeasurementHandler exposes read access to stored measurements
type MeasurementHandler struct {
	measurementService *services.MeasurementService
	logger             *logging.StructuredLogger
	metrics            *metrics.Collector
}

// NewMeasurementHandler creates a new measurement handler
func NewMeasurementHandler(measurementService *services.MeasurementService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *MeasurementHandler {
	return &MeasurementHandler{
		measurementService: measurementService,
		logger:             logger,
		metrics:            metricsCollector,
	}
}

// GetMeasurements handles GET /api/measurements
func (h *MeasurementHandler) GetMeasurements(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/measurements").Observe(time.Since(startTime).Seconds())
	}()

	limitStr := r.URL.Query().Get("limit")
	sinceStr := r.URL.Query().Get("since")

	limit := 100
	if limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 1000 {
			limit = l
		}
	}

	filter := repository.ListFilter{Limit: limit}

	if sinceStr != "" {
		since, err := strconv.ParseInt(sinceStr, 10, 64)
		if err != nil {
			sendError(w, r, h.metrics, "invalid since, expected epoch milliseconds", http.StatusBadRequest)
			return
		}
		filter.Since = &since
	}

	records, err := h.measurementService.GetMeasurements(ctx, filter)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_MEASUREMENTS_ERROR] Failed to get measurements", logging.Fields{
			"limit": limit,
			"since": sinceStr,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/measurements")
		sendError(w, r, h.metrics, "failed to retrieve measurements", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/measurements", "GET", "200")
	sendJSON(w, ListResponse{Data: records, Count: len(records)}, http.StatusOK)
}

// GetLatestMeasurement handles GET /api/measurements/latest
func (h *MeasurementHandler) GetLatestMeasurement(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	rec, err := h.measurementService.GetLatestMeasurement(ctx)

	var notFound *repository.NotFoundError
	if errors.As(err, &notFound) {
		sendError(w, r, h.metrics, "no measurements stored yet", http.StatusNotFound)
		return
	}
	if err != nil {
		h.logger.Error(ctx, "[API_GET_LATEST_ERROR] Failed to get latest measurement", logging.Fields{}, err)
		h.metrics.RecordAPIError("internal_error", "/api/measurements/latest")
		sendError(w, r, h.metrics, "failed to retrieve latest measurement", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/measurements/latest", "GET", "200")
	sendJSON(w, rec, http.StatusOK)
}

// GetSummary handles GET /api/measurements/summary
func (h *MeasurementHandler) GetSummary(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/measurements/summary").Observe(time.Since(startTime).Seconds())
	}()

	hours := 24
	if hoursStr := r.URL.Query().Get("hours"); hoursStr != "" {
		h2, err := strconv.Atoi(hoursStr)
		if err != nil || h2 < 1 || h2 > 720 {
			sendError(w, r, h.metrics, "invalid hours, expected integer between 1 and 720", http.StatusBadRequest)
			return
		}
		hours = h2
	}

	summary, err := h.measurementService.GetSummary(ctx, time.Duration(hours)*time.Hour)
	if err != nil {
		h.logger.Error(ctx, "[API_GET_SUMMARY_ERROR] Failed to calculate summary", logging.Fields{
			"hours": hours,
		}, err)
		h.metrics.RecordAPIError("internal_error", "/api/measurements/summary")
		sendError(w, r, h.metrics, "failed to calculate summary", http.StatusInternalServerError)
		return
	}

	h.metrics.RecordAPIRequest("/api/measurements/summary", "GET", "200")
	sendJSON(w, summary, http.StatusOK)
}

// HealthCheck handles GET /health
func (h *MeasurementHandler) HealthCheck(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	if err := h.measurementService.HealthCheck(ctx); err != nil {
		h.logger.Error(ctx, "[HEALTH_CHECK_ERROR] Store unreachable", logging.Fields{}, err)
		sendJSON(w, map[string]string{
			"status":    "unhealthy",
			"error":     err.Error(),
			"timestamp": time.Now().UTC().Format(time.RFC3339),
		}, http.StatusServiceUnavailable)
		return
	}

	h.logger.Debug(ctx, "[HEALTH_CHECK] Health check requested", logging.Fields{})
	sendJSON(w, map[string]string{
		"status":    "healthy",
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}, http.StatusOK)
}

// RegisterRoutes registers the measurement API routes
func (h *MeasurementHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/measurements", h.GetMeasurements).Methods("GET")
	router.HandleFunc("/api/measurements/latest", h.GetLatestMeasurement).Methods("GET")
	router.HandleFunc("/api/measurements/summary", h.GetSummary).Methods("GET")
	router.HandleFunc("/health", h.HealthCheck).Methods("GET")
}
