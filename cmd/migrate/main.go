package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"github.com/prometheus/client_golang/prometheus"

	"discharge-volume/internal/config"
	"discharge-volume/pkg/database"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if !cfg.Database.Enabled() {
		fmt.Fprintln(os.Stderr, "No database configured, set database.driver or DB_DRIVER")
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("discharge-volume-migrate", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	db, err := database.Open(cfg.Database, logger, metrics.NewCollector("discharge_volume_migrate", prometheus.NewRegistry()))
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to connect to database: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Printf("Running %s migration on %s\n", *direction, cfg.Database.Driver)

	if err := db.Migrate(context.Background(), *direction); err != nil {
		fmt.Fprintf(os.Stderr, "Failed to execute migration: %v\n", err)
		os.Exit(1)
	}

	fmt.Println("Migration completed successfully")
}
