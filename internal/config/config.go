// Package config loads runtime configuration from the environment. A
// local .env file is honored when present so the binaries can run
// outside of a managed deployment.
package config

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	// BackendFirestore stores measurements in Cloud Firestore.
	BackendFirestore = "firestore"
	// BackendPostgres stores measurements in PostgreSQL.
	BackendPostgres = "postgres"

	// DefaultSourceURL is the scale monitoring page polled when SOURCE_URL
	// is not set.
	DefaultSourceURL = "http://www.kaptarmonitor.hu/merleg.html"
)

// Config holds the full runtime configuration for all binaries.
type Config struct {
	AppID     string
	Source    SourceConfig
	Store     StoreConfig
	Firestore FirestoreConfig
	Database  DatabaseConfig
	Server    ServerConfig
	Logging   LoggingConfig
}

// SourceConfig describes the upstream monitoring page.
type SourceConfig struct {
	URL string
}

// StoreConfig selects the storage backend.
type StoreConfig struct {
	Backend string
}

// FirestoreConfig holds Cloud Firestore connection settings.
type FirestoreConfig struct {
	// ProjectID is optional; when empty the project is taken from the
	// credential itself.
	ProjectID       string
	CredentialsJSON string
}

// DatabaseConfig holds PostgreSQL connection settings.
type DatabaseConfig struct {
	Host            string
	Port            int
	User            string
	Password        string
	Database        string
	SSLMode         string
	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	ConnMaxIdleTime time.Duration
}

// ServerConfig holds HTTP server settings.
type ServerConfig struct {
	Host         string
	Port         int
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	IdleTimeout  time.Duration
}

// LoggingConfig holds logger settings.
type LoggingConfig struct {
	Level string
	// File enables rotated file output when non-empty.
	File string
}

// LoadConfig reads configuration from the environment, applying defaults
// for everything that is not security sensitive.
func LoadConfig() *Config {
	// Best effort: a missing .env simply means the environment is already set.
	_ = godotenv.Load()

	v := viper.New()
	v.AutomaticEnv()

	v.SetDefault("source_url", DefaultSourceURL)
	v.SetDefault("store_backend", BackendFirestore)

	v.SetDefault("db_host", "localhost")
	v.SetDefault("db_port", 5432)
	v.SetDefault("db_user", "postgres")
	v.SetDefault("db_password", "postgres")
	v.SetDefault("db_name", "behave")
	v.SetDefault("db_sslmode", "disable")
	v.SetDefault("db_max_open_conns", 25)
	v.SetDefault("db_max_idle_conns", 5)
	v.SetDefault("db_conn_max_lifetime", 5*time.Minute)
	v.SetDefault("db_conn_max_idle_time", 90*time.Second)

	v.SetDefault("server_host", "0.0.0.0")
	v.SetDefault("server_port", 8080)
	v.SetDefault("server_read_timeout", 15*time.Second)
	v.SetDefault("server_write_timeout", 30*time.Second)
	v.SetDefault("server_idle_timeout", 60*time.Second)

	v.SetDefault("log_level", "info")

	return &Config{
		AppID: v.GetString("app_id"),
		Source: SourceConfig{
			URL: v.GetString("source_url"),
		},
		Store: StoreConfig{
			Backend: v.GetString("store_backend"),
		},
		Firestore: FirestoreConfig{
			ProjectID:       v.GetString("firestore_project_id"),
			CredentialsJSON: v.GetString("google_credentials_json"),
		},
		Database: DatabaseConfig{
			Host:            v.GetString("db_host"),
			Port:            v.GetInt("db_port"),
			User:            v.GetString("db_user"),
			Password:        v.GetString("db_password"),
			Database:        v.GetString("db_name"),
			SSLMode:         v.GetString("db_sslmode"),
			MaxOpenConns:    v.GetInt("db_max_open_conns"),
			MaxIdleConns:    v.GetInt("db_max_idle_conns"),
			ConnMaxLifetime: v.GetDuration("db_conn_max_lifetime"),
			ConnMaxIdleTime: v.GetDuration("db_conn_max_idle_time"),
		},
		Server: ServerConfig{
			Host:         v.GetString("server_host"),
			Port:         v.GetInt("server_port"),
			ReadTimeout:  v.GetDuration("server_read_timeout"),
			WriteTimeout: v.GetDuration("server_write_timeout"),
			IdleTimeout:  v.GetDuration("server_idle_timeout"),
		},
		Logging: LoggingConfig{
			Level: v.GetString("log_level"),
			File:  v.GetString("log_file"),
		},
	}
}

// Validate reports every configuration problem at once rather than
// stopping at the first one.
func (c *Config) Validate() error {
	var result *multierror.Error

	if strings.TrimSpace(c.AppID) == "" {
		result = multierror.Append(result, fmt.Errorf("APP_ID is required"))
	}

	if c.Source.URL == "" {
		result = multierror.Append(result, fmt.Errorf("SOURCE_URL must not be empty"))
	}

	switch c.Store.Backend {
	case BackendFirestore:
		if c.Firestore.CredentialsJSON == "" {
			result = multierror.Append(result, fmt.Errorf("GOOGLE_CREDENTIALS_JSON is required for the firestore backend"))
		} else if !json.Valid([]byte(c.Firestore.CredentialsJSON)) {
			result = multierror.Append(result, fmt.Errorf("GOOGLE_CREDENTIALS_JSON is not valid JSON"))
		}
	case BackendPostgres:
		if c.Database.Host == "" {
			result = multierror.Append(result, fmt.Errorf("DB_HOST is required for the postgres backend"))
		}
		if c.Database.User == "" {
			result = multierror.Append(result, fmt.Errorf("DB_USER is required for the postgres backend"))
		}
		if c.Database.Database == "" {
			result = multierror.Append(result, fmt.Errorf("DB_NAME is required for the postgres backend"))
		}
	default:
		result = multierror.Append(result, fmt.Errorf("STORE_BACKEND must be %q or %q, got %q",
			BackendFirestore, BackendPostgres, c.Store.Backend))
	}

	if c.Server.Port < 1 || c.Server.Port > 65535 {
		result = multierror.Append(result, fmt.Errorf("SERVER_PORT %d is out of range", c.Server.Port))
	}

	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
	default:
		result = multierror.Append(result, fmt.Errorf("LOG_LEVEL %q is not one of debug, info, warn, error", c.Logging.Level))
	}

	return result.ErrorOrNil()
}
