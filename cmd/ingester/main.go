package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"

	"discharge-volume/internal/config"
	"discharge-volume/internal/lookup"
	"discharge-volume/internal/repository"
	"discharge-volume/internal/services"
	"discharge-volume/pkg/database"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

func main() {
	dataDir := flag.String("data-dir", "./uvf_data", "Directory containing UVF files")
	pattern := flag.String("pattern", "*.uvf", "Glob pattern of the files to ingest")
	metricsFile := flag.String("metrics-file", "", "Write Prometheus metrics of this run to a textfile")
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

	logger := logging.NewStructuredLogger("discharge-volume-ingester", "1.0.0", logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx := logging.WithRequestID(context.Background(), uuid.NewString())
	logger.Info(ctx, "[INGESTER_START] Starting UVF directory ingestion", logging.Fields{
		"version":     "1.0.0",
		"data_dir":    *dataDir,
		"pattern":     *pattern,
		"table":       cfg.Series.Table,
		"table_label": cfg.Series.TableLabel,
	})

	registry := prometheus.NewRegistry()
	metricsCollector := metrics.NewCollector("discharge_volume_ingester", registry)

	db, err := database.Open(cfg.Database, logger, metricsCollector)
	if err != nil {
		logger.Fatal(ctx, "[INGESTER_ERROR] Failed to connect to database", logging.Fields{}, err)
	}
	defer db.Close()

	if db.Driver() == database.DriverSQLite {
		if err := db.Migrate(ctx, "up"); err != nil {
			logger.Fatal(ctx, "[INGESTER_ERROR] Failed to migrate database", logging.Fields{}, err)
		}
	}

	ingestionService := services.NewIngestionService(logger, metricsCollector)

	var table *lookup.Table
	if cfg.Series.Table != "" {
		table, err = ingestionService.LoadTable(ctx, cfg.Series.Table)
		if err != nil {
			logger.Fatal(ctx, "[INGESTER_ERROR] Failed to load lookup table", logging.Fields{
				"table": cfg.Series.Table,
			}, err)
		}
	}

	volumeRepo := repository.NewVolumeRepository(db, logger, metricsCollector)
	volumeService := services.NewVolumeService(volumeRepo, logger, metricsCollector)
	batchService := services.NewBatchService(ingestionService, volumeService, logger, metricsCollector)

	result, err := batchService.IngestDirectory(ctx, *dataDir, *pattern, table, cfg.Series.TableLabel)
	if err != nil {
		logger.Fatal(ctx, "[INGESTION_ERROR] Ingestion failed", logging.Fields{
			"data_dir": *dataDir,
		}, err)
	}

	fmt.Println(strings.Repeat("=", 80))
	fmt.Println("INGESTION COMPLETE")
	fmt.Println(strings.Repeat("=", 80))
	fmt.Printf("Total Files:        %d\n", result.TotalFiles)
	fmt.Printf("Processed Files:    %d\n", result.ProcessedFiles)
	fmt.Printf("Empty Files:        %d\n", result.EmptyFiles)
	fmt.Printf("Samples:            %d\n", result.Samples)
	fmt.Printf("Skipped Lines:      %d\n", result.SkippedLines)
	fmt.Printf("Hydrologic Years:   %d\n", result.YearsStored)
	fmt.Printf("Days:               %d\n", result.DaysStored)
	fmt.Printf("Duration:           %v\n", result.Duration)

	if len(result.Errors) > 0 {
		fmt.Printf("\nErrors (%d):\n", len(result.Errors))
		for i, errMsg := range result.Errors {
			if i < 10 {
				fmt.Printf("  - %s\n", errMsg)
			}
		}
		if len(result.Errors) > 10 {
			fmt.Printf("  ... and %d more errors\n", len(result.Errors)-10)
		}
	}

	if *metricsFile != "" {
		if err := prometheus.WriteToTextfile(*metricsFile, registry); err != nil {
			logger.Error(ctx, "[METRICS_WRITE_ERROR] Failed to write metrics file", logging.Fields{
				"metrics_file": *metricsFile,
			}, err)
		}
	}

	logger.Info(ctx, "[INGESTER_COMPLETE] Ingestion completed", logging.Fields{
		"processed_files":  result.ProcessedFiles,
		"errors":           len(result.Errors),
		"duration_seconds": result.Duration.Seconds(),
	})

	if len(result.Errors) > 0 {
		db.Close()
		logger.Sync()
		os.Exit(1)
	}
}
