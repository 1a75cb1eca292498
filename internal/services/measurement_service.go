package services

import (
	"context"
	"time"

	"github.com/pallagj/behave-backend/internal/models"
	"github.com/pallagj/behave-backend/internal/repository"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

// MeasurementService handles read access to stored measurements.
type MeasurementService struct {
	repo    repository.MeasurementRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewMeasurementService creates a new measurement service
func NewMeasurementService(repo repository.MeasurementRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *MeasurementService {
	return &MeasurementService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// GetMeasurements retrieves measurements with filtering
func (s *MeasurementService) GetMeasurements(ctx context.Context, filter repository.ListFilter) ([]models.MeasurementRecord, error) {
	return s.repo.ListMeasurements(ctx, filter)
}

// GetLatestMeasurement retrieves the most recent measurement
func (s *MeasurementService) GetLatestMeasurement(ctx context.Context) (*models.MeasurementRecord, error) {
	return s.repo.LatestMeasurement(ctx)
}

// HealthCheck verifies the backing store is reachable
func (s *MeasurementService) HealthCheck(ctx context.Context) error {
	return s.repo.HealthCheck(ctx)
}

// ReadingStats holds min, max and average for one sensor reading.
type ReadingStats struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
	Avg float64 `json:"avg"`
}

// MeasurementSummary aggregates the measurements of a recent time window.
type MeasurementSummary struct {
	WindowHours float64      `json:"window_hours"`
	Count       int          `json:"count"`
	Weight      ReadingStats `json:"weight"`
	Battery     ReadingStats `json:"battery"`
	Temp        ReadingStats `json:"temp"`
	// WeightChange is newest minus oldest weight inside the window; a
	// positive value during the day usually means nectar flow.
	WeightChange float64 `json:"weight_change"`
	From         int64   `json:"from,omitempty"`
	To           int64   `json:"to,omitempty"`
}

// GetSummary aggregates all measurements inside the trailing window.
func (s *MeasurementService) GetSummary(ctx context.Context, window time.Duration) (*MeasurementSummary, error) {
	startTime := time.Now()

	since := time.Now().Add(-window).UnixMilli()
	records, err := s.repo.ListMeasurements(ctx, repository.ListFilter{Since: &since})
	if err != nil {
		return nil, err
	}

	summary := summarize(records, window)

	s.logger.Debug(ctx, "[SUMMARY_CALC] Summary calculated", logging.Fields{
		"window_hours": summary.WindowHours,
		"count":        summary.Count,
		"duration_ms":  time.Since(startTime).Milliseconds(),
	})

	return summary, nil
}

// summarize reduces records (ordered newest first) into a summary.
func summarize(records []models.MeasurementRecord, window time.Duration) *MeasurementSummary {
	summary := &MeasurementSummary{
		WindowHours: window.Hours(),
		Count:       len(records),
	}

	if len(records) == 0 {
		return summary
	}

	newest := records[0]
	oldest := records[len(records)-1]

	summary.From = oldest.Timestamp
	summary.To = newest.Timestamp
	summary.WeightChange = newest.Weight - oldest.Weight

	var weightSum, batterySum, tempSum float64
	summary.Weight = ReadingStats{Min: newest.Weight, Max: newest.Weight}
	summary.Battery = ReadingStats{Min: newest.Battery, Max: newest.Battery}
	summary.Temp = ReadingStats{Min: newest.Temp, Max: newest.Temp}

	for _, rec := range records {
		weightSum += rec.Weight
		batterySum += rec.Battery
		tempSum += rec.Temp

		if rec.Weight < summary.Weight.Min {
			summary.Weight.Min = rec.Weight
		}
		if rec.Weight > summary.Weight.Max {
			summary.Weight.Max = rec.Weight
		}
		if rec.Battery < summary.Battery.Min {
			summary.Battery.Min = rec.Battery
		}
		if rec.Battery > summary.Battery.Max {
			summary.Battery.Max = rec.Battery
		}
		if rec.Temp < summary.Temp.Min {
			summary.Temp.Min = rec.Temp
		}
		if rec.Temp > summary.Temp.Max {
			summary.Temp.Max = rec.Temp
		}
	}

	n := float64(len(records))
	summary.Weight.Avg = weightSum / n
	summary.Battery.Avg = batterySum / n
	summary.Temp.Avg = tempSum / n

	return summary
}
