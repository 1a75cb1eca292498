package repository

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"

	"github.com/pallagj/behave-backend/internal/models"
	"github.com/pallagj/behave-backend/pkg/database"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

// firestoreRepository stores measurements in Cloud Firestore under
// artifacts/{appID}/public_data/beehive_data, with one document per
// measurement in a readings subcollection keyed by the record id.
type firestoreRepository struct {
	db      *database.FirestoreDB
	appID   string
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewFirestoreRepository creates a Firestore-backed measurement repository.
func NewFirestoreRepository(db *database.FirestoreDB, appID string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) MeasurementRepository {
	return &firestoreRepository{
		db:      db,
		appID:   appID,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// readings resolves the subcollection holding the measurement documents.
// Firestore paths alternate collection and document segments, so the
// container document beehive_data carries the keyed records one level
// below it.
func (r *firestoreRepository) readings() *firestore.CollectionRef {
	return r.db.Client().
		Collection("artifacts").Doc(r.appID).
		Collection("public_data").Doc("beehive_data").
		Collection("readings")
}

// SaveMeasurementsBatch writes all records in a single atomic batch,
// merging into any documents that already exist.
func (r *firestoreRepository) SaveMeasurementsBatch(ctx context.Context, records []models.MeasurementRecord) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.StoreBatchSize.Observe(float64(len(records)))
		r.metrics.StoreWriteDuration.WithLabelValues("firestore").Observe(duration.Seconds())
		r.logger.Debug(ctx, "[REPO_BATCH_WRITE] Batch write completed", logging.Fields{
			"backend":     "firestore",
			"count":       len(records),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	// BulkWriter is not atomic; a WriteBatch applies whole or not at all.
	batch := r.db.Client().Batch()
	col := r.readings()

	for i := range records {
		rec := &records[i]
		batch.Set(col.Doc(rec.ID), measurementDoc(rec), firestore.MergeAll)
	}

	if _, err := batch.Commit(ctx); err != nil {
		r.metrics.RecordStoreError("batch_commit")
		return fmt.Errorf("failed to commit measurement batch: %w", err)
	}

	return nil
}

// measurementDoc flattens a record into the stored document shape.
// MergeAll requires map data rather than a struct.
func measurementDoc(rec *models.MeasurementRecord) map[string]interface{} {
	return map[string]interface{}{
		"id":        rec.ID,
		"date":      rec.Date,
		"timestamp": rec.Timestamp,
		"weight":    rec.Weight,
		"battery":   rec.Battery,
		"temp":      rec.Temp,
	}
}

// ListMeasurements retrieves measurements ordered newest first.
func (r *firestoreRepository) ListMeasurements(ctx context.Context, filter ListFilter) ([]models.MeasurementRecord, error) {
	q := r.readings().Query.OrderBy("timestamp", firestore.Desc)

	if filter.Since != nil {
		q = q.Where("timestamp", ">", *filter.Since)
	}
	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var records []models.MeasurementRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			r.metrics.RecordStoreError("query")
			return nil, fmt.Errorf("failed to list measurements: %w", err)
		}

		var rec models.MeasurementRecord
		if err := doc.DataTo(&rec); err != nil {
			r.metrics.RecordStoreError("decode")
			return nil, fmt.Errorf("failed to decode measurement %s: %w", doc.Ref.ID, err)
		}
		records = append(records, rec)
	}

	return records, nil
}

// LatestMeasurement retrieves the most recent measurement.
func (r *firestoreRepository) LatestMeasurement(ctx context.Context) (*models.MeasurementRecord, error) {
	iter := r.readings().Query.OrderBy("timestamp", firestore.Desc).Limit(1).Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err == iterator.Done {
		return nil, &NotFoundError{Resource: "measurement", ID: "latest"}
	}
	if err != nil {
		r.metrics.RecordStoreError("query")
		return nil, fmt.Errorf("failed to get latest measurement: %w", err)
	}

	var rec models.MeasurementRecord
	if err := doc.DataTo(&rec); err != nil {
		r.metrics.RecordStoreError("decode")
		return nil, fmt.Errorf("failed to decode measurement %s: %w", doc.Ref.ID, err)
	}

	return &rec, nil
}

// HealthCheck performs a repository health check
func (r *firestoreRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
