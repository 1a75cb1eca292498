package services

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/pallagj/behave-backend/internal/parser"
	"github.com/pallagj/behave-backend/internal/repository"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

// PageFetcher retrieves the raw HTML of the monitoring page.
type PageFetcher interface {
	FetchPage(ctx context.Context) (string, error)
}

// SyncOutcome classifies how a sync run ended.
type SyncOutcome string

const (
	OutcomeSuccess SyncOutcome = "success"
	OutcomeNoData  SyncOutcome = "no_data"
	OutcomeFailed  SyncOutcome = "failed"
)

// SyncResult summarizes a single sync run.
type SyncResult struct {
	RunID       string      `json:"run_id"`
	Outcome     SyncOutcome `json:"outcome"`
	RecordCount int         `json:"record_count"`
	SkippedRows int         `json:"skipped_rows"`
	StartedAt   time.Time   `json:"started_at"`
	FinishedAt  time.Time   `json:"finished_at"`
	DurationMS  int64       `json:"duration_ms"`
	Error       string      `json:"error,omitempty"`
}

// SyncService runs the fetch-parse-store cycle against the scale
// monitoring page.
type SyncService struct {
	fetcher PageFetcher
	repo    repository.MeasurementRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector

	mu      sync.Mutex
	lastRun *SyncResult
}

// NewSyncService creates a new sync service
func NewSyncService(pageFetcher PageFetcher, repo repository.MeasurementRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *SyncService {
	return &SyncService{
		fetcher: pageFetcher,
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// Run performs one complete sync: fetch the page, parse the measurement
// table and write every parsed record to the store in a single batch.
// Unparseable rows are dropped and logged; they never abort the run.
func (s *SyncService) Run(ctx context.Context) (*SyncResult, error) {
	result := &SyncResult{
		RunID:     uuid.NewString(),
		StartedAt: time.Now().UTC(),
	}

	s.logger.Info(ctx, "[SYNC_START] Sync run started", logging.Fields{
		"run_id": result.RunID,
	})

	html, err := s.fetcher.FetchPage(ctx)
	if err != nil {
		return nil, s.fail(ctx, result, "fetch", err)
	}

	records, skipped := parser.Parse(html)
	result.SkippedRows = len(skipped)

	for _, skip := range skipped {
		s.metrics.RowsSkippedTotal.Inc()
		s.logger.Warn(ctx, "[SYNC_ROW_SKIPPED] Dropping unparseable row", logging.Fields{
			"run_id":    result.RunID,
			"row_index": skip.Index,
			"raw":       skip.Raw,
			"reason":    skip.Reason,
		})
	}

	if len(records) == 0 {
		s.finish(ctx, result, OutcomeNoData)
		return result, nil
	}

	if err := s.repo.SaveMeasurementsBatch(ctx, records); err != nil {
		return nil, s.fail(ctx, result, "store", err)
	}

	result.RecordCount = len(records)
	s.metrics.SyncRecordsTotal.Add(float64(len(records)))

	s.finish(ctx, result, OutcomeSuccess)
	return result, nil
}

// LastRun returns a copy of the most recent run result, or nil before the
// first run.
func (s *SyncService) LastRun() *SyncResult {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.lastRun == nil {
		return nil
	}
	copied := *s.lastRun
	return &copied
}

func (s *SyncService) finish(ctx context.Context, result *SyncResult, outcome SyncOutcome) {
	result.Outcome = outcome
	result.FinishedAt = time.Now().UTC()
	result.DurationMS = result.FinishedAt.Sub(result.StartedAt).Milliseconds()

	s.metrics.RecordSyncRun(string(outcome))
	s.metrics.SyncDuration.Observe(result.FinishedAt.Sub(result.StartedAt).Seconds())

	s.logger.Info(ctx, "[SYNC_COMPLETE] Sync run finished", logging.Fields{
		"run_id":       result.RunID,
		"outcome":      string(outcome),
		"record_count": result.RecordCount,
		"skipped_rows": result.SkippedRows,
		"duration_ms":  result.DurationMS,
	})

	s.setLastRun(result)
}

func (s *SyncService) fail(ctx context.Context, result *SyncResult, stage string, err error) error {
	result.Outcome = OutcomeFailed
	result.Error = err.Error()
	result.FinishedAt = time.Now().UTC()
	result.DurationMS = result.FinishedAt.Sub(result.StartedAt).Milliseconds()

	s.metrics.RecordSyncRun(string(OutcomeFailed))

	s.logger.Error(ctx, "[SYNC_FAILED] Sync run failed", logging.Fields{
		"run_id": result.RunID,
		"stage":  stage,
	}, err)

	s.setLastRun(result)
	return err
}

func (s *SyncService) setLastRun(result *SyncResult) {
	s.mu.Lock()
	defer s.mu.Unlock()

	copied := *result
	s.lastRun = &copied
}
