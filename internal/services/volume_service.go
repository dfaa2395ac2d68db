package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"discharge-volume/internal/models"
	"discharge-volume/internal/repository"
	"discharge-volume/internal/volume"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

// ErrPersistenceDisabled is returned by storage operations when no
// repository is configured
var ErrPersistenceDisabled = errors.New("persistence is not configured")

// Dataset is a loaded series together with the identity used for
// persistence and metrics
type Dataset struct {
	SeriesID   string
	TableLabel string
	Series     *volume.Series
}

// IntervalVolume is the result of a single interval integration
type IntervalVolume struct {
	Requested volume.Interval
	Effective volume.Interval
	Overlaps  bool
	VolumeM3  float64
}

// VolumeService runs volume and extremes computations over a Dataset
type VolumeService struct {
	repo    repository.VolumeRepository
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
	now     func() time.Time
}

// NewVolumeService creates a new volume service. repo may be nil when
// results are not persisted.
func NewVolumeService(repo repository.VolumeRepository, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *VolumeService {
	return &VolumeService{
		repo:    repo,
		logger:  logger,
		metrics: metricsCollector,
		now:     func() time.Time { return time.Now().UTC() },
	}
}

// PersistenceEnabled reports whether a repository is configured
func (s *VolumeService) PersistenceEnabled() bool {
	return s.repo != nil
}

// Volume integrates ds over [start, end]. Overlaps is false when the
// request does not intersect the data; VolumeM3 is 0 in that case.
func (s *VolumeService) Volume(ctx context.Context, ds *Dataset, start, end time.Time) *IntervalVolume {
	timer := s.metrics.NewTimer(s.metrics.ComputationDuration.WithLabelValues("volume"))
	defer timer.ObserveDuration()

	result := &IntervalVolume{
		Requested: volume.Interval{Start: start, End: end},
	}

	effective, ok := volume.Normalize(ds.Series, start, end)
	if !ok {
		s.metrics.RecordComputation("volume", "empty")
		s.logger.Info(ctx, "[VOLUME_EMPTY] Interval does not overlap data", logging.Fields{
			"series_id": ds.SeriesID,
			"start":     start,
			"end":       end,
		})
		return result
	}

	result.Effective = effective
	result.Overlaps = true
	result.VolumeM3 = volume.Integrate(ds.Series, start, end)

	s.metrics.RecordComputation("volume", "ok")
	s.metrics.LastVolumeM3.WithLabelValues(ds.SeriesID, ds.TableLabel).Set(result.VolumeM3)
	s.logger.Info(ctx, "[VOLUME_COMPUTED] Interval volume computed", logging.Fields{
		"series_id":       ds.SeriesID,
		"table_label":     ds.TableLabel,
		"effective_start": effective.Start,
		"effective_end":   effective.End,
		"volume_m3":       result.VolumeM3,
	})

	return result
}

// HydrologicYears splits [start, end] into hydrologic years and integrates
// each of them
func (s *VolumeService) HydrologicYears(ctx context.Context, ds *Dataset, start, end time.Time) []models.YearVolume {
	timer := s.metrics.NewTimer(s.metrics.ComputationDuration.WithLabelValues("hydro_year"))
	defer timer.ObserveDuration()

	years := volume.SplitHydrologicYears(ds.Series, start, end)

	outcome := "ok"
	if len(years) == 0 {
		outcome = "empty"
	}
	s.metrics.RecordComputation("hydro_year", outcome)

	s.logger.Info(ctx, "[HYDRO_YEARS_COMPUTED] Hydrologic year volumes computed", logging.Fields{
		"series_id":   ds.SeriesID,
		"table_label": ds.TableLabel,
		"years":       len(years),
	})

	return years
}

// DailyExtremes returns the per-day min/max of ds within [start, end]
func (s *VolumeService) DailyExtremes(ctx context.Context, ds *Dataset, start, end time.Time) []models.DayExtreme {
	timer := s.metrics.NewTimer(s.metrics.ComputationDuration.WithLabelValues("extremes"))
	defer timer.ObserveDuration()

	days := volume.DailyExtremes(ds.Series, start, end)

	outcome := "ok"
	if len(days) == 0 {
		outcome = "empty"
	}
	s.metrics.RecordComputation("extremes", outcome)

	s.logger.Info(ctx, "[EXTREMES_COMPUTED] Daily extremes computed", logging.Fields{
		"series_id":   ds.SeriesID,
		"table_label": ds.TableLabel,
		"days":        len(days),
	})

	return days
}

// StoreYearVolumes upserts hydrologic-year volumes for ds
func (s *VolumeService) StoreYearVolumes(ctx context.Context, ds *Dataset, years []models.YearVolume) error {
	if s.repo == nil {
		return ErrPersistenceDisabled
	}

	now := s.now()
	rows := make([]*models.StoredYearVolume, 0, len(years))
	for _, y := range years {
		rows = append(rows, &models.StoredYearVolume{
			SeriesID:      ds.SeriesID,
			TableLabel:    ds.TableLabel,
			Year:          y.Year,
			IntervalStart: y.IntervalStart,
			IntervalEnd:   y.IntervalEnd,
			VolumeM3:      y.VolumeM3,
			CreatedAt:     now,
			UpdatedAt:     now,
		})
	}

	if err := s.repo.UpsertYearVolumes(ctx, rows); err != nil {
		return fmt.Errorf("failed to store year volumes: %w", err)
	}

	s.logger.Info(ctx, "[HYDRO_YEARS_STORED] Hydrologic year volumes stored", logging.Fields{
		"series_id":   ds.SeriesID,
		"table_label": ds.TableLabel,
		"count":       len(rows),
	})
	return nil
}

// StoreDayExtremes upserts daily extremes for ds
func (s *VolumeService) StoreDayExtremes(ctx context.Context, ds *Dataset, days []models.DayExtreme) error {
	if s.repo == nil {
		return ErrPersistenceDisabled
	}

	now := s.now()
	rows := make([]*models.StoredDayExtreme, 0, len(days))
	for _, d := range days {
		rows = append(rows, &models.StoredDayExtreme{
			SeriesID:   ds.SeriesID,
			TableLabel: ds.TableLabel,
			Day:        d.Date,
			MinValue:   d.Min,
			MaxValue:   d.Max,
			CreatedAt:  now,
			UpdatedAt:  now,
		})
	}

	if err := s.repo.UpsertDayExtremes(ctx, rows); err != nil {
		return fmt.Errorf("failed to store day extremes: %w", err)
	}

	s.logger.Info(ctx, "[EXTREMES_STORED] Daily extremes stored", logging.Fields{
		"series_id":   ds.SeriesID,
		"table_label": ds.TableLabel,
		"count":       len(rows),
	})
	return nil
}

// StoredYearVolumes lists persisted hydrologic-year volumes
func (s *VolumeService) StoredYearVolumes(ctx context.Context, filter repository.YearVolumeFilter) ([]*models.StoredYearVolume, int, error) {
	if s.repo == nil {
		return nil, 0, ErrPersistenceDisabled
	}
	return s.repo.GetYearVolumes(ctx, filter)
}

// StoredYearVolume fetches one persisted hydrologic-year volume
func (s *VolumeService) StoredYearVolume(ctx context.Context, seriesID, tableLabel string, year int) (*models.StoredYearVolume, error) {
	if s.repo == nil {
		return nil, ErrPersistenceDisabled
	}
	return s.repo.GetYearVolume(ctx, seriesID, tableLabel, year)
}

// StoredDayExtremes lists persisted daily extremes
func (s *VolumeService) StoredDayExtremes(ctx context.Context, filter repository.DayExtremeFilter) ([]*models.StoredDayExtreme, int, error) {
	if s.repo == nil {
		return nil, 0, ErrPersistenceDisabled
	}
	return s.repo.GetDayExtremes(ctx, filter)
}

// HealthCheck checks the repository when one is configured
func (s *VolumeService) HealthCheck(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	return s.repo.HealthCheck(ctx)
}
