package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/pallagj/behave-backend/internal/models"
	"github.com/pallagj/behave-backend/pkg/database"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

func newMockRepository(t *testing.T) (MeasurementRepository, sqlmock.Sqlmock) {
	t.Helper()

	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	sqlxDB := sqlx.NewDb(db, "sqlmock")
	t.Cleanup(func() { sqlxDB.Close() })

	collector := metrics.NewCollectorWith("test", prometheus.NewRegistry())
	pg := database.NewPostgresDBWithDB(sqlxDB, logging.NewNopLogger(), collector)

	return NewPostgresRepository(pg, "hive-01", logging.NewNopLogger(), collector), mock
}

func sampleRecords() []models.MeasurementRecord {
	return []models.MeasurementRecord{
		{
			ID:        "1710487800000",
			Date:      "2024.03.15. 08:30:00",
			Timestamp: 1710487800000,
			Weight:    25.5,
			Battery:   3.9,
			Temp:      12.5,
		},
		{
			ID:        "1710488700000",
			Date:      "2024.03.15. 08:45:00",
			Timestamp: 1710488700000,
			Weight:    25.7,
			Battery:   3.9,
			Temp:      12.8,
		},
	}
}

func TestPostgresRepository_SaveMeasurementsBatch(t *testing.T) {
	repo, mock := newMockRepository(t)
	records := sampleRecords()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO beehive_measurements")
	for _, rec := range records {
		prep.ExpectExec().
			WithArgs("hive-01", rec.ID, rec.Date, rec.Timestamp, rec.Weight, rec.Battery, rec.Temp).
			WillReturnResult(sqlmock.NewResult(0, 1))
	}
	mock.ExpectCommit()

	if err := repo.SaveMeasurementsBatch(context.Background(), records); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_SaveMeasurementsBatch_Empty(t *testing.T) {
	repo, mock := newMockRepository(t)

	if err := repo.SaveMeasurementsBatch(context.Background(), nil); err != nil {
		t.Fatalf("unexpected error for empty batch: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("empty batch should not touch the database: %v", err)
	}
}

func TestPostgresRepository_SaveMeasurementsBatch_RollsBackOnFailure(t *testing.T) {
	repo, mock := newMockRepository(t)
	records := sampleRecords()

	mock.ExpectBegin()
	prep := mock.ExpectPrepare("INSERT INTO beehive_measurements")
	prep.ExpectExec().
		WithArgs("hive-01", records[0].ID, records[0].Date, records[0].Timestamp, records[0].Weight, records[0].Battery, records[0].Temp).
		WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()

	err := repo.SaveMeasurementsBatch(context.Background(), records)
	if err == nil {
		t.Fatal("expected error when exec fails")
	}
	if !strings.Contains(err.Error(), "failed to upsert measurement") {
		t.Errorf("unexpected error text: %v", err)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_ListMeasurements(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"id", "date_text", "ts", "weight", "battery", "temp"}).
		AddRow("1710488700000", "2024.03.15. 08:45:00", int64(1710488700000), 25.7, 3.9, 12.8).
		AddRow("1710487800000", "2024.03.15. 08:30:00", int64(1710487800000), 25.5, 3.9, 12.5)

	mock.ExpectQuery("SELECT id, date_text, ts, weight, battery, temp FROM beehive_measurements WHERE app_id =").
		WithArgs("hive-01").
		WillReturnRows(rows)

	records, err := repo.ListMeasurements(context.Background(), ListFilter{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 2 {
		t.Fatalf("expected 2 records, got %d", len(records))
	}
	if records[0].ID != "1710488700000" {
		t.Errorf("expected newest record first, got %s", records[0].ID)
	}
	if records[1].Weight != 25.5 {
		t.Errorf("expected weight 25.5, got %v", records[1].Weight)
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_ListMeasurements_SinceAndLimit(t *testing.T) {
	repo, mock := newMockRepository(t)

	since := int64(1710487800000)
	rows := sqlmock.NewRows([]string{"id", "date_text", "ts", "weight", "battery", "temp"}).
		AddRow("1710488700000", "2024.03.15. 08:45:00", int64(1710488700000), 25.7, 3.9, 12.8)

	mock.ExpectQuery("AND ts >").
		WithArgs("hive-01", since, 10).
		WillReturnRows(rows)

	records, err := repo.ListMeasurements(context.Background(), ListFilter{Limit: 10, Since: &since})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(records) != 1 {
		t.Fatalf("expected 1 record, got %d", len(records))
	}

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("unmet expectations: %v", err)
	}
}

func TestPostgresRepository_LatestMeasurement(t *testing.T) {
	repo, mock := newMockRepository(t)

	rows := sqlmock.NewRows([]string{"id", "date_text", "ts", "weight", "battery", "temp"}).
		AddRow("1710488700000", "2024.03.15. 08:45:00", int64(1710488700000), 25.7, 3.9, 12.8)

	mock.ExpectQuery("ORDER BY ts DESC LIMIT 1").
		WithArgs("hive-01").
		WillReturnRows(rows)

	rec, err := repo.LatestMeasurement(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.ID != "1710488700000" {
		t.Errorf("expected latest record, got %s", rec.ID)
	}
	if rec.Temp != 12.8 {
		t.Errorf("expected temp 12.8, got %v", rec.Temp)
	}
}

func TestPostgresRepository_LatestMeasurement_Empty(t *testing.T) {
	repo, mock := newMockRepository(t)

	mock.ExpectQuery("ORDER BY ts DESC LIMIT 1").
		WithArgs("hive-01").
		WillReturnError(sql.ErrNoRows)

	_, err := repo.LatestMeasurement(context.Background())

	var notFound *NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
	if notFound.Resource != "measurement" {
		t.Errorf("unexpected resource: %s", notFound.Resource)
	}
}
