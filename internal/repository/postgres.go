package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/pallagj/behave-backend/internal/models"
	"github.com/pallagj/behave-backend/pkg/database"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

// postgresRepository mirrors the measurement store into PostgreSQL for
// deployments that cannot reach Firestore.
type postgresRepository struct {
	db      *database.PostgresDB
	appID   string
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewPostgresRepository creates a PostgreSQL-backed measurement repository.
func NewPostgresRepository(db *database.PostgresDB, appID string, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) MeasurementRepository {
	return &postgresRepository{
		db:      db,
		appID:   appID,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// SaveMeasurementsBatch upserts all records in a single transaction.
func (r *postgresRepository) SaveMeasurementsBatch(ctx context.Context, records []models.MeasurementRecord) error {
	if len(records) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		duration := time.Since(timer)
		r.metrics.StoreBatchSize.Observe(float64(len(records)))
		r.metrics.StoreWriteDuration.WithLabelValues("postgres").Observe(duration.Seconds())
		r.logger.Debug(ctx, "[REPO_BATCH_WRITE] Batch write completed", logging.Fields{
			"backend":     "postgres",
			"count":       len(records),
			"duration_ms": duration.Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO beehive_measurements (
			app_id, id, date_text, ts, weight, battery, temp
		)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (app_id, id) DO UPDATE SET
			date_text = EXCLUDED.date_text,
			ts = EXCLUDED.ts,
			weight = EXCLUDED.weight,
			battery = EXCLUDED.battery,
			temp = EXCLUDED.temp,
			updated_at = now()
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for i := range records {
		rec := &records[i]
		_, err := stmt.ExecContext(ctx,
			r.appID,
			rec.ID,
			rec.Date,
			rec.Timestamp,
			rec.Weight,
			rec.Battery,
			rec.Temp,
		)
		if err != nil {
			r.metrics.RecordStoreError("batch_exec")
			return fmt.Errorf("failed to upsert measurement %s: %w", rec.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		r.metrics.RecordStoreError("batch_commit")
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// ListMeasurements retrieves measurements ordered newest first.
func (r *postgresRepository) ListMeasurements(ctx context.Context, filter ListFilter) ([]models.MeasurementRecord, error) {
	query := `
		SELECT id, date_text, ts, weight, battery, temp
		FROM beehive_measurements
		WHERE app_id = $1
	`
	args := []interface{}{r.appID}
	argNum := 2

	if filter.Since != nil {
		query += fmt.Sprintf(" AND ts > $%d", argNum)
		args = append(args, *filter.Since)
		argNum++
	}

	query += " ORDER BY ts DESC"

	if filter.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, filter.Limit)
	}

	var records []models.MeasurementRecord
	err := r.db.SelectContext(ctx, "list_measurements", &records, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list measurements: %w", err)
	}

	return records, nil
}

// LatestMeasurement retrieves the most recent measurement.
func (r *postgresRepository) LatestMeasurement(ctx context.Context) (*models.MeasurementRecord, error) {
	query := `
		SELECT id, date_text, ts, weight, battery, temp
		FROM beehive_measurements
		WHERE app_id = $1
		ORDER BY ts DESC
		LIMIT 1
	`

	var rec models.MeasurementRecord
	err := r.db.GetContext(ctx, "latest_measurement", &rec, query, r.appID)

	if err == sql.ErrNoRows {
		return nil, &NotFoundError{Resource: "measurement", ID: "latest"}
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest measurement: %w", err)
	}

	return &rec, nil
}

// HealthCheck performs a repository health check
func (r *postgresRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}
