package main

import (
	"errors"
	"flag"
	"fmt"
	"net/url"
	"os"

	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres"
	_ "github.com/golang-migrate/migrate/v4/source/file"

	"github.com/pallagj/behave-backend/internal/config"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	source := flag.String("source", "file://migrations", "Migration source URL")
	flag.Parse()

	// Load configuration
	cfg := config.LoadConfig()

	dsn := fmt.Sprintf(
		"postgres://%s:%s@%s:%d/%s?sslmode=%s",
		url.QueryEscape(cfg.Database.User),
		url.QueryEscape(cfg.Database.Password),
		cfg.Database.Host,
		cfg.Database.Port,
		cfg.Database.Database,
		cfg.Database.SSLMode,
	)

	m, err := migrate.New(*source, dsn)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize migrations: %v\n", err)
		os.Exit(1)
	}
	defer m.Close()

	fmt.Printf("Running migrations: %s\n", *direction)

	switch *direction {
	case "up":
		err = m.Up()
	case "down":
		err = m.Down()
	default:
		fmt.Fprintf(os.Stderr, "Unknown direction: %s\n", *direction)
		os.Exit(1)
	}

	if errors.Is(err, migrate.ErrNoChange) {
		fmt.Println("No migrations to apply")
		return
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to run migrations: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migrations completed successfully")
}
