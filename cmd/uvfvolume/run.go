package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"discharge-volume/internal/config"
	"discharge-volume/internal/lookup"
	"discharge-volume/internal/report"
	"discharge-volume/internal/repository"
	"discharge-volume/internal/services"
	"discharge-volume/internal/volume"
	"discharge-volume/pkg/database"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

type mode int

const (
	modeVolume mode = iota
	modeHydroYear
	modeExtremes
)

func (m mode) String() string {
	switch m {
	case modeVolume:
		return "volume"
	case modeHydroYear:
		return "hydro_year"
	default:
		return "extremes"
	}
}

// app bundles what a single run needs
type app struct {
	cfg       *config.Config
	opts      *options
	out       io.Writer
	logger    *logging.StructuredLogger
	metrics   *metrics.Collector
	registry  *prometheus.Registry
	ingestion *services.IngestionService
}

func run(cmd *cobra.Command, opts *options, m mode, args []string) error {
	uvfPath := args[0]

	start, err := report.ParseDateTime(args[1])
	if err != nil {
		return err
	}
	end, err := report.ParseDateTime(args[2])
	if err != nil {
		return err
	}

	cfg, err := config.LoadConfig()
	if err != nil {
		return fmt.Errorf("failed to load configuration: %w", err)
	}
	if opts.logLevel != "" {
		cfg.Logging.Level = opts.logLevel
	}
	if opts.outputDir != "" {
		cfg.Output.Dir = opts.outputDir
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}

	logger := logging.NewStructuredLogger("uvfvolume", version, logging.ParseLevel(cfg.Logging.Level))
	logger.SetOutput(cmd.ErrOrStderr())
	defer logger.Sync()

	registry := prometheus.NewRegistry()
	collector := metrics.NewCollector("uvfvolume", registry)

	a := &app{
		cfg:       cfg,
		opts:      opts,
		out:       cmd.OutOrStdout(),
		logger:    logger,
		metrics:   collector,
		registry:  registry,
		ingestion: services.NewIngestionService(logger, collector),
	}

	ctx := logging.WithRequestID(cmd.Context(), uuid.NewString())
	logger.Info(ctx, "[RUN_START] Starting computation", logging.Fields{
		"mode":      m.String(),
		"uvf_file":  uvfPath,
		"start":     start,
		"end":       end,
		"persist":   opts.persist,
		"output_to": cfg.Output.Dir,
	})

	runErr := a.execute(ctx, m, uvfPath, start, end)

	if opts.metricsFile != "" {
		if err := prometheus.WriteToTextfile(opts.metricsFile, registry); err != nil {
			logger.Error(ctx, "[METRICS_WRITE_ERROR] Failed to write metrics file", logging.Fields{
				"metrics_file": opts.metricsFile,
			}, err)
			if runErr == nil {
				runErr = fmt.Errorf("failed to write metrics file: %w", err)
			}
		}
	}

	return runErr
}

func (a *app) execute(ctx context.Context, m mode, uvfPath string, start, end time.Time) error {
	table, label, err := a.loadTable(ctx)
	if err != nil {
		return err
	}

	series, result, err := a.ingestion.LoadSeries(ctx, uvfPath, table)
	if errors.Is(err, volume.ErrNoData) {
		fmt.Fprintln(a.out, "No valid data read from file.")
		return nil
	}
	if err != nil {
		return err
	}

	ds := &services.Dataset{
		SeriesID:   result.SeriesID,
		TableLabel: label,
		Series:     series,
	}

	svc, closeRepo, err := a.volumeService(ctx)
	if err != nil {
		return err
	}
	defer closeRepo()

	switch m {
	case modeVolume:
		return a.writeVolume(ctx, svc, ds, start, end)
	case modeHydroYear:
		return a.writeHydroYears(ctx, svc, ds, start, end)
	default:
		return a.writeExtremes(ctx, svc, ds, start, end)
	}
}

func (a *app) loadTable(ctx context.Context) (*lookup.Table, string, error) {
	path, label := a.opts.tableEntnahme, "entnahme"
	if a.opts.tableBelassen != "" {
		path, label = a.opts.tableBelassen, "belassen"
	}
	if path == "" {
		return nil, "", nil
	}

	table, err := a.ingestion.LoadTable(ctx, path)
	if err != nil {
		return nil, "", err
	}
	return table, label, nil
}

// volumeService wires a repository only when results are to be persisted
func (a *app) volumeService(ctx context.Context) (*services.VolumeService, func(), error) {
	noop := func() {}
	if !a.opts.persist {
		return services.NewVolumeService(nil, a.logger, a.metrics), noop, nil
	}

	if !a.cfg.Database.Enabled() {
		return nil, noop, errors.New("--persist needs a database, set database.driver or DB_DRIVER")
	}

	db, err := database.Open(a.cfg.Database, a.logger, a.metrics)
	if err != nil {
		return nil, noop, err
	}

	if db.Driver() == database.DriverSQLite {
		if err := db.Migrate(ctx, "up"); err != nil {
			db.Close()
			return nil, noop, err
		}
	}

	repo := repository.NewVolumeRepository(db, a.logger, a.metrics)
	return services.NewVolumeService(repo, a.logger, a.metrics), func() { db.Close() }, nil
}

func (a *app) writeVolume(ctx context.Context, svc *services.VolumeService, ds *services.Dataset, start, end time.Time) error {
	result := svc.Volume(ctx, ds, start, end)

	name := report.FileName(ds.SeriesID, ds.TableLabel, report.ModeVolume, start, end)
	path, err := report.WriteFile(a.cfg.Output.Dir, name, func(w io.Writer) error {
		return report.WriteIntervalVolume(w, start, end, result.VolumeM3)
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(a.out, report.IntervalLine(start, end, result.VolumeM3))
	fmt.Fprintf(a.out, "Wrote interval volume to: %s\n", path)
	return nil
}

func (a *app) writeHydroYears(ctx context.Context, svc *services.VolumeService, ds *services.Dataset, start, end time.Time) error {
	years := svc.HydrologicYears(ctx, ds, start, end)
	if len(years) == 0 {
		fmt.Fprintln(a.out, "No overlapping hydrologic years between given interval and data.")
		return nil
	}

	name := report.FileName(ds.SeriesID, ds.TableLabel, report.ModeHydroYears, start, end)
	path, err := report.WriteFile(a.cfg.Output.Dir, name, func(w io.Writer) error {
		return report.WriteHydrologicYears(w, years)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote hydrologic yearly volumes to: %s\n", path)

	if a.opts.persist {
		if err := svc.StoreYearVolumes(ctx, ds, years); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Stored %d hydrologic years\n", len(years))
	}
	return nil
}

func (a *app) writeExtremes(ctx context.Context, svc *services.VolumeService, ds *services.Dataset, start, end time.Time) error {
	days := svc.DailyExtremes(ctx, ds, start, end)
	if len(days) == 0 {
		fmt.Fprintln(a.out, "No data in the given interval.")
		return nil
	}

	name := report.FileName(ds.SeriesID, ds.TableLabel, report.ModeExtremes, start, end)
	path, err := report.WriteFile(a.cfg.Output.Dir, name, func(w io.Writer) error {
		return report.WriteDailyExtremes(w, days)
	})
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Wrote daily extremes to: %s\n", path)

	if a.opts.persist {
		if err := svc.StoreDayExtremes(ctx, ds, days); err != nil {
			return err
		}
		fmt.Fprintf(a.out, "Stored %d days\n", len(days))
	}
	return nil
}

func exitCode(err error) int {
	if err == nil {
		return 0
	}
	fmt.Fprintln(os.Stderr, "Error:", err)
	return 1
}
