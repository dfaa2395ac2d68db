package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"discharge-volume/internal/config"
	"discharge-volume/internal/handlers"
	"discharge-volume/internal/lookup"
	"discharge-volume/internal/repository"
	"discharge-volume/internal/services"
	"discharge-volume/pkg/database"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

const version = "1.0.0"

func main() {
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	if err := cfg.Validate(); err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}

	if cfg.Series.Path == "" {
		fmt.Fprintln(os.Stderr, "series.path (or SERIES_PATH) is required")
		os.Exit(1)
	}

	logger := logging.NewStructuredLogger("discharge-volume-api", version, logging.ParseLevel(cfg.Logging.Level))
	defer logger.Sync()

	ctx := context.Background()
	logger.Info(ctx, "[STARTUP] Starting discharge volume API server", logging.Fields{
		"version":     version,
		"server_host": cfg.Server.Host,
		"server_port": cfg.Server.Port,
		"series_path": cfg.Series.Path,
		"table_path":  cfg.Series.Table,
		"db_driver":   cfg.Database.Driver,
	})

	metricsCollector := metrics.NewCollector("discharge_volume", prometheus.DefaultRegisterer)

	var repo repository.VolumeRepository
	if cfg.Database.Enabled() {
		db, err := database.Open(cfg.Database, logger, metricsCollector)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to connect to database", logging.Fields{}, err)
		}
		defer db.Close()

		// in-memory SQLite starts empty on every run
		if db.Driver() == database.DriverSQLite {
			if err := db.Migrate(ctx, "up"); err != nil {
				logger.Fatal(ctx, "[STARTUP_ERROR] Failed to apply schema", logging.Fields{}, err)
			}
		}

		repo = repository.NewVolumeRepository(db, logger, metricsCollector)
	}

	ingestionService := services.NewIngestionService(logger, metricsCollector)
	volumeService := services.NewVolumeService(repo, logger, metricsCollector)

	var table *lookup.Table
	if cfg.Series.Table != "" {
		table, err = ingestionService.LoadTable(ctx, cfg.Series.Table)
		if err != nil {
			logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load lookup table", logging.Fields{
				"table_path": cfg.Series.Table,
			}, err)
		}
	}

	series, result, err := ingestionService.LoadSeries(ctx, cfg.Series.Path, table)
	if err != nil {
		logger.Fatal(ctx, "[STARTUP_ERROR] Failed to load series", logging.Fields{
			"series_path": cfg.Series.Path,
		}, err)
	}

	dataset := &services.Dataset{
		SeriesID:   result.SeriesID,
		TableLabel: cfg.Series.TableLabel,
		Series:     series,
	}

	volumeHandler := handlers.NewVolumeHandler(volumeService, dataset, logger, metricsCollector)

	router := mux.NewRouter()
	router.Use(handlers.RequestLogging(logger))

	volumeHandler.RegisterRoutes(router)
	handlers.RegisterDocsRoutes(router)

	router.Handle("/metrics", promhttp.Handler())

	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	go func() {
		logger.Info(ctx, "[SERVER_START] HTTP server listening", logging.Fields{
			"address": server.Addr,
		})

		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Fatal(ctx, "[SERVER_ERROR] Server failed", logging.Fields{}, err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	logger.Info(ctx, "[SHUTDOWN] Shutting down server...", logging.Fields{})

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		logger.Error(ctx, "[SHUTDOWN_ERROR] Server forced to shutdown", logging.Fields{}, err)
	}

	logger.Info(ctx, "[SHUTDOWN_COMPLETE] Server stopped", logging.Fields{})
}
