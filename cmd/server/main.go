package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/pallagj/behave-backend/internal/config"
	"github.com/pallagj/behave-backend/internal/fetcher"
	"github.com/pallagj/behave-backend/internal/handlers"
	"github.com/pallagj/behave-backend/internal/repository"
	"github.com/pallagj/behave-backend/internal/services"
	"github.com/pallagj/behave-backend/pkg/database"
	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

const version = "1.0.0"

func main() {
	// Load configuration
	cfg := config.LoadConfig()
	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger
	logger := newLogger("behave-api", cfg)

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting beehive sync API server", logging.Fields{
		"version":     version,
		"app_id":      cfg.AppID,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"backend":     cfg.Store.Backend,
		"source_url":  cfg.Source.URL,
	})

	// Initialize metrics collector
	metricsCollector := metrics.NewCollector("behave")

	// Initialize store
	repo, closeStore, err := newRepository(ctx, cfg, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to initialize store", logging.Fields{
			"backend": cfg.Store.Backend,
		}, err)
	}
	defer closeStore()

	// Initialize services
	pageFetcher := fetcher.NewClient(cfg.Source.URL, logger, metricsCollector)
	syncService := services.NewSyncService(pageFetcher, repo, logger, metricsCollector)
	measurementService := services.NewMeasurementService(repo, logger, metricsCollector)

	// Initialize handlers
	syncHandler := handlers.NewSyncHandler(syncService, logger, metricsCollector)
	measurementHandler := handlers.NewMeasurementHandler(measurementService, logger, metricsCollector)

	// Setup router
	router := mux.NewRouter()
	router.Use(handlers.RequestIDMiddleware)

	// Register routes
	syncHandler.RegisterRoutes(router)
	measurementHandler.RegisterRoutes(router)
	handlers.RegisterDocsRoutes(router)

	// Prometheus metrics endpoint
	router.Handle("/metrics", promhttp.Handler())

	// Create HTTP server
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Start server in goroutine
	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	// Graceful shutdown with timeout
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
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
