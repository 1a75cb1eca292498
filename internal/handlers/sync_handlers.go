package handlers

import (
	"fmt"
	"net/http"
	"time"

	"github.com/gorilla/mux"

	"github.com/pallagj/behave-backend/internal/services"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

// SyncHandler exposes the sync trigger endpoints
type SyncHandler struct {
	syncService *services.SyncService
	logger      *logging.StructuredLogger
	metrics     *metrics.Collector
}

// NewSyncHandler creates a new sync handler
func NewSyncHandler(syncService *services.SyncService, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SyncHandler {
	return &SyncHandler{
		syncService: syncService,
		logger:      logger,
		metrics:     metricsCollector,
	}
}

// TriggerSync handles POST /api/sync. GET is accepted too so plain
// scheduler pings can trigger a run.
func (h *SyncHandler) TriggerSync(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	startTime := time.Now()

	defer func() {
		h.metrics.APIRequestDuration.WithLabelValues("/api/sync").Observe(time.Since(startTime).Seconds())
	}()

	result, err := h.syncService.Run(ctx)
	if err != nil {
		h.metrics.RecordAPIError("sync_error", "/api/sync")
		sendError(w, r, h.metrics, err.Error(), http.StatusInternalServerError)
		return
	}

	message := fmt.Sprintf("Synced %d measurements.", result.RecordCount)
	if result.Outcome == services.OutcomeNoData {
		message = "No data found."
	}

	h.metrics.RecordAPIRequest("/api/sync", r.Method, "200")
	sendJSON(w, MessageResponse{Message: message}, http.StatusOK)
}

// SyncStatus handles GET /api/sync/status
func (h *SyncHandler) SyncStatus(w http.ResponseWriter, r *http.Request) {
	last := h.syncService.LastRun()
	if last == nil {
		sendError(w, r, h.metrics, "no sync run recorded yet", http.StatusNotFound)
		return
	}

	h.metrics.RecordAPIRequest("/api/sync/status", "GET", "200")
	sendJSON(w, last, http.StatusOK)
}

// RegisterRoutes registers the sync API routes
func (h *SyncHandler) RegisterRoutes(router *mux.Router) {
	router.HandleFunc("/api/sync", h.TriggerSync).Methods("GET", "POST")
	router.HandleFunc("/api/sync/status", h.SyncStatus).Methods("GET")
}
