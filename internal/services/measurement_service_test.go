package services

import (
	"context"
	"errors"
	"math"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/pallagj/behave-backend/internal/models"
	"github.com/pallagj/behave-backend/internal/repository"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

func newTestMeasurementService(repo repository.MeasurementRepository) *MeasurementService {
	collector := metrics.NewCollectorWith("test", prometheus.NewRegistry())
	return NewMeasurementService(repo, logging.NewNopLogger(), collector)
}

func seedRecord(repo *fakeMeasurementRepo, ts int64, weight, battery, temp float64) {
	id := strconv.FormatInt(ts, 10)
	repo.docs[id] = models.MeasurementRecord{
		ID:        id,
		Date:      time.UnixMilli(ts).Format("2006.01.02. 15:04:05"),
		Timestamp: ts,
		Weight:    weight,
		Battery:   battery,
		Temp:      temp,
	}
}

func almostEqual(a, b float64) bool {
	return math.Abs(a-b) < 1e-9
}

func TestMeasurementService_GetMeasurements(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now().UnixMilli()
	for i := 0; i < 5; i++ {
		seedRecord(repo, now-int64(i)*60_000, 25.0+float64(i), 3.9, 12.0)
	}

	service := newTestMeasurementService(repo)

	records, err := service.GetMeasurements(context.Background(), repository.ListFilter{Limit: 3})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if len(records) != 3 {
		t.Fatalf("expected 3 records, got %d", len(records))
	}
	if records[0].Timestamp < records[1].Timestamp || records[1].Timestamp < records[2].Timestamp {
		t.Error("expected records ordered newest first")
	}
}

func TestMeasurementService_GetLatestMeasurement(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now().UnixMilli()
	seedRecord(repo, now-120_000, 25.0, 3.9, 12.0)
	seedRecord(repo, now-60_000, 25.4, 3.9, 12.3)

	service := newTestMeasurementService(repo)

	rec, err := service.GetLatestMeasurement(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if rec.Timestamp != now-60_000 {
		t.Errorf("expected the newest record, got ts %d", rec.Timestamp)
	}
}

func TestMeasurementService_GetLatestMeasurement_Empty(t *testing.T) {
	service := newTestMeasurementService(newFakeRepo())

	_, err := service.GetLatestMeasurement(context.Background())

	var notFound *repository.NotFoundError
	if !errors.As(err, &notFound) {
		t.Fatalf("expected NotFoundError, got %v", err)
	}
}

func TestMeasurementService_GetSummary(t *testing.T) {
	repo := newFakeRepo()
	now := time.Now()

	// Three readings inside the 24h window, one well outside it.
	seedRecord(repo, now.Add(-1*time.Hour).UnixMilli(), 26.0, 3.8, 14.0)
	seedRecord(repo, now.Add(-2*time.Hour).UnixMilli(), 25.5, 3.9, 13.0)
	seedRecord(repo, now.Add(-3*time.Hour).UnixMilli(), 25.0, 4.0, 12.0)
	seedRecord(repo, now.Add(-48*time.Hour).UnixMilli(), 30.0, 4.1, 5.0)

	service := newTestMeasurementService(repo)

	summary, err := service.GetSummary(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Count != 3 {
		t.Fatalf("expected 3 records in window, got %d", summary.Count)
	}
	if summary.WindowHours != 24 {
		t.Errorf("expected 24h window, got %v", summary.WindowHours)
	}

	if !almostEqual(summary.Weight.Min, 25.0) || !almostEqual(summary.Weight.Max, 26.0) {
		t.Errorf("unexpected weight range: %+v", summary.Weight)
	}
	if !almostEqual(summary.Weight.Avg, 25.5) {
		t.Errorf("expected weight avg 25.5, got %v", summary.Weight.Avg)
	}
	if !almostEqual(summary.Temp.Avg, 13.0) {
		t.Errorf("expected temp avg 13.0, got %v", summary.Temp.Avg)
	}
	if !almostEqual(summary.WeightChange, 1.0) {
		t.Errorf("expected weight change +1.0 over window, got %v", summary.WeightChange)
	}
	if summary.From >= summary.To {
		t.Errorf("expected From before To, got %d >= %d", summary.From, summary.To)
	}
}

func TestMeasurementService_GetSummary_Empty(t *testing.T) {
	service := newTestMeasurementService(newFakeRepo())

	summary, err := service.GetSummary(context.Background(), 24*time.Hour)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if summary.Count != 0 {
		t.Errorf("expected empty summary, got count %d", summary.Count)
	}
	if summary.Weight.Min != 0 || summary.Weight.Max != 0 || summary.Weight.Avg != 0 {
		t.Errorf("expected zero stats for empty window, got %+v", summary.Weight)
	}
	if summary.From != 0 || summary.To != 0 {
		t.Errorf("expected no window bounds, got %d..%d", summary.From, summary.To)
	}
}

func TestMeasurementService_GetSummary_ListFailure(t *testing.T) {
	repo := newFakeRepo()
	repo.failList = errors.New("backend down")

	service := newTestMeasurementService(repo)

	if _, err := service.GetSummary(context.Background(), time.Hour); err == nil {
		t.Fatal("expected error when listing fails")
	}
}

func TestMeasurementService_HealthCheck(t *testing.T) {
	repo := newFakeRepo()
	service := newTestMeasurementService(repo)

	if err := service.HealthCheck(context.Background()); err != nil {
		t.Errorf("expected healthy store, got %v", err)
	}

	repo.healthErr = errors.New("connection refused")
	if err := service.HealthCheck(context.Background()); err == nil {
		t.Error("expected health check failure to propagate")
	}
}
