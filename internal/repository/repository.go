package repository

import (
	"context"
	"fmt"

	"github.com/pallagj/behave-backend/internal/models"
)

// MeasurementRepository provides data access for scale measurements.
// Implementations exist for Cloud Firestore and PostgreSQL.
type MeasurementRepository interface {
	// SaveMeasurementsBatch writes all records in one batch. Existing
	// records with the same id are merged, never duplicated. The batch
	// applies whole or not at all.
	SaveMeasurementsBatch(ctx context.Context, records []models.MeasurementRecord) error

	// ListMeasurements returns records newest first.
	ListMeasurements(ctx context.Context, filter ListFilter) ([]models.MeasurementRecord, error)

	// LatestMeasurement returns the most recent record, or NotFoundError
	// when the store is empty.
	LatestMeasurement(ctx context.Context) (*models.MeasurementRecord, error)

	// HealthCheck verifies the backing store is reachable.
	HealthCheck(ctx context.Context) error
}

// ListFilter defines filters for querying measurements
type ListFilter struct {
	// Limit caps the number of records returned; zero means no cap.
	Limit int
	// Since restricts results to timestamps strictly greater than the
	// given epoch milliseconds.
	Since *int64
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
