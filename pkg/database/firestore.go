package database

import (
	"context"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/pallagj/behave-backend/pkg/logging"
	"github.com/pallagj/behave-backend/pkg/metrics"
)

// FirestoreConfig holds Cloud Firestore connection configuration
type FirestoreConfig struct {
	// ProjectID may be empty, in which case it is resolved from the
	// credential.
	ProjectID       string
	CredentialsJSON string
}

// FirestoreDB wraps a firestore.Client shared by the whole process.
type FirestoreDB struct {
	client  *firestore.Client
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

var (
	firestoreOnce    sync.Once
	firestoreShared  *FirestoreDB
	firestoreInitErr error
)

// NewFirestoreDB returns the process-wide Firestore handle, creating it on
// the first call. The underlying SDK rejects repeated app initialization,
// so later calls always get the result of the first one.
func NewFirestoreDB(ctx context.Context, cfg *FirestoreConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*FirestoreDB, error) {
	firestoreOnce.Do(func() {
		firestoreShared, firestoreInitErr = openFirestore(ctx, cfg, logger, metricsCollector)
	})
	return firestoreShared, firestoreInitErr
}

func openFirestore(ctx context.Context, cfg *FirestoreConfig, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) (*FirestoreDB, error) {
	var opts []option.ClientOption
	if cfg.CredentialsJSON != "" {
		opts = append(opts, option.WithCredentialsJSON([]byte(cfg.CredentialsJSON)))
	}

	projectID := cfg.ProjectID
	if projectID == "" {
		projectID = firestore.DetectProjectID
	}

	client, err := firestore.NewClient(ctx, projectID, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create firestore client: %w", err)
	}

	logger.Info(ctx, "[DB_INIT] Firestore client established", logging.Fields{
		"project_id": projectID,
	})

	return &FirestoreDB{
		client:  client,
		logger:  logger,
		metrics: metricsCollector,
	}, nil
}

// Client returns the underlying firestore.Client.
func (f *FirestoreDB) Client() *firestore.Client {
	return f.client
}

// Close releases the underlying client.
func (f *FirestoreDB) Close() error {
	f.logger.Info(context.Background(), "[DB_CLOSE] Closing Firestore client", nil)
	return f.client.Close()
}

// HealthCheck verifies connectivity with a single lightweight read.
// Firestore has no ping, so a missing probe document still counts as
// healthy.
func (f *FirestoreDB) HealthCheck(ctx context.Context) error {
	checkCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()

	_, err := f.client.Collection("healthz").Doc("probe").Get(checkCtx)
	if err != nil && status.Code(err) != codes.NotFound {
		f.metrics.RecordDBError("health_check")
		return fmt.Errorf("firestore health check failed: %w", err)
	}

	return nil
}
