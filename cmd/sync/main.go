package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/pallagj/behave-backend/internal/config"
	"github.com/pallagj/behave-backend/internal/fetcher"
	"github.com/pallagj/behave-backend/internal/repository"
	"github.com/pallagj/behave-backend/internal/services"
	"github.com/pallagj/behave-backend/pkg/database"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Parse command-line flags
	sourceURL := flag.String("source", "", "Override the monitoring page URL")
	flag.Parse()

	// Load configuration
	cfg := config.LoadConfig()
	if *sourceURL != "" {
		cfg.Source.URL = *sourceURL
	}
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := newLogger("behave-sync", cfg)

	ctx := context.Background()
	logger.Info(ctx, "[SYNC_RUNNER_START] Starting one-shot sync", logging.Fields{
		"version":    version,
		"app_id":     cfg.AppID,
		"backend":    cfg.Store.Backend,
		"source_url": cfg.Source.URL,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("behave")

	// Initialize store
	repo, closeStore, err := newRepository(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[SYNC_RUNNER_ERROR] Failed to initialize store", logging.Fields{
			"backend": cfg.Store.Backend,
		}, err)
	}
	defer closeStore()

	// Run one sync cycle
	pageFetcher := fetcher.NewClient(cfg.Source.URL, logger, metricsCollector)
	syncService := services.NewSyncService(pageFetcher, repo, logger, metricsCollector)

	result, err := syncService.Run(ctx)
	if err != nil {
		logger.Fatal(ctx, "[SYNC_RUNNER_ERROR] Sync failed", logging.Fields{}, err)
	}

	// Print results
	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("SYNC COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Run ID:        %s\n", result.RunID)
	fmt.Printf("Outcome:       %s\n", result.Outcome)
	fmt.Printf("Records Saved: %d\n", result.RecordCount)
	fmt.Printf("Rows Skipped:  %d\n", result.SkippedRows)
	fmt.Printf("Duration:      %dms\n", result.DurationMS)

	logger.Info(ctx, "[SYNC_RUNNER_COMPLETE] Sync finished", logging.Fields{
		"run_id":       result.RunID,
		"outcome":      string(result.Outcome),
		"record_count": result.RecordCount,
		"skipped_rows": result.SkippedRows,
		"duration_ms":  result.DurationMS,
	})
}

func newLogger(service string, cfg *config.Config) *logging.StructuredLogger {
	level := logging.ParseLevel(cfg.Logging.Level)
	if cfg.Logging.File != "" {
		return logging.NewRotatingLogger(service, version, level, cfg.Logging.File)
	}
	return logging.NewStructuredLogger(service, version, level)
}

// newRepository builds the measurement store for the configured backend
// and returns a closer for it.
func newRepository(ctx context.Context, cfg *config.Config, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (repository.MeasurementRepository, func() error, error) {
	if cfg.Store.Backend == config.BackendPostgres {
		db, err := database.NewPostgresDB(&database.PostgresConfig{
			Host:            cfg.Database.Host,
			Port:            cfg.Database.Port,
			User:            cfg.Database.User,
			Password:        cfg.Database.Password,
			Database:        cfg.Database.Database,
			SSLMode:         cfg.Database.SSLMode,
			MaxOpenConns:    cfg.Database.MaxOpenConns,
			MaxIdleConns:    cfg.Database.MaxIdleConns,
			ConnMaxLifetime: cfg.Database.ConnMaxLifetime,
			ConnMaxIdleTime: cfg.Database.ConnMaxIdleTime,
		}, logger, metricsCollector)
		if err != nil {
			return nil, nil, err
		}
		return repository.NewPostgresRepository(db, cfg.AppID, logger, metricsCollector), db.Close, nil
	}

	fsDB, err := database.NewFirestoreDB(ctx, &database.FirestoreConfig{
		ProjectID:       cfg.Firestore.ProjectID,
		CredentialsJSON: cfg.Firestore.CredentialsJSON,
	}, logger, metricsCollector)
	if err != nil {
		return nil, nil, err
	}
	return repository.NewFirestoreRepository(fsDB, cfg.AppID, logger, metricsCollector), fsDB.Close, nil
}
