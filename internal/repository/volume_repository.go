package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"discharge-volume/internal/models"
	"discharge-volume/pkg/database"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

// VolumeRepository provides data access for computed volumes and extremes
type VolumeRepository interface {
	// Hydrologic-year volumes
	UpsertYearVolumes(ctx context.Context, rows []*models.StoredYearVolume) error
	GetYearVolume(ctx context.Context, seriesID, tableLabel string, year int) (*models.StoredYearVolume, error)
	GetYearVolumes(ctx context.Context, filter YearVolumeFilter) ([]*models.StoredYearVolume, int, error)

	// Daily extremes
	UpsertDayExtremes(ctx context.Context, rows []*models.StoredDayExtreme) error
	GetDayExtremes(ctx context.Context, filter DayExtremeFilter) ([]*models.StoredDayExtreme, int, error)

	// Utility operations
	HealthCheck(ctx context.Context) error
}

// YearVolumeFilter defines filters for querying stored hydrologic-year volumes
type YearVolumeFilter struct {
	SeriesID   *string
	TableLabel *string
	Year       *int
	Limit      int
	Offset     int
}

// DayExtremeFilter defines filters for querying stored daily extremes
type DayExtremeFilter struct {
	SeriesID   *string
	TableLabel *string
	StartDay   *time.Time
	EndDay     *time.Time
	Limit      int
	Offset     int
}

// volumeRepository implements VolumeRepository
type volumeRepository struct {
	db      *database.DB
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// NewVolumeRepository creates a new volume repository
func NewVolumeRepository(db *database.DB, logger *logging.StructuredLogger, metricsCollector *metrics.Collector) VolumeRepository {
	return &volumeRepository{
		db:      db,
		logger:  logger,
		metrics: metricsCollector,
	}
}

// UpsertYearVolumes writes rows in a single transaction, replacing any row
// with the same series, table label and year
func (r *volumeRepository) UpsertYearVolumes(ctx context.Context, rows []*models.StoredYearVolume) error {
	if len(rows) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.logger.Debug(ctx, "[REPO_UPSERT_YEARS] Year volumes upserted", logging.Fields{
			"count":       len(rows),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, r.db.Rebind(`
		INSERT INTO hydro_year_volumes (
			series_id, table_label, year,
			interval_start, interval_end, volume_m3,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (series_id, table_label, year) DO UPDATE SET
			interval_start = excluded.interval_start,
			interval_end = excluded.interval_end,
			volume_m3 = excluded.volume_m3,
			updated_at = excluded.updated_at
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.SeriesID,
			row.TableLabel,
			row.Year,
			row.IntervalStart,
			row.IntervalEnd,
			row.VolumeM3,
			row.CreatedAt,
			row.UpdatedAt,
		)
		if err != nil {
			r.metrics.RecordDBError("exec_error")
			return fmt.Errorf("failed to upsert year volume %d: %w", row.Year, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetYearVolume retrieves one stored hydrologic-year volume
func (r *volumeRepository) GetYearVolume(ctx context.Context, seriesID, tableLabel string, year int) (*models.StoredYearVolume, error) {
	query := r.db.Rebind(`
		SELECT id, series_id, table_label, year,
		       interval_start, interval_end, volume_m3,
		       created_at, updated_at
		FROM hydro_year_volumes
		WHERE series_id = ? AND table_label = ? AND year = ?
	`)

	var row models.StoredYearVolume
	err := r.db.GetContext(ctx, "get_year_volume", &row, query, seriesID, tableLabel, year)

	if errors.Is(err, sql.ErrNoRows) {
		return nil, &NotFoundError{
			Resource: "hydro_year_volume",
			ID:       fmt.Sprintf("%s:%s:%d", seriesID, tableLabel, year),
		}
	}

	if err != nil {
		return nil, fmt.Errorf("failed to get year volume: %w", err)
	}

	return &row, nil
}

// GetYearVolumes retrieves stored hydrologic-year volumes with filtering and pagination
func (r *volumeRepository) GetYearVolumes(ctx context.Context, filter YearVolumeFilter) ([]*models.StoredYearVolume, int, error) {
	query := `
		SELECT id, series_id, table_label, year,
		       interval_start, interval_end, volume_m3,
		       created_at, updated_at
		FROM hydro_year_volumes
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.SeriesID != nil {
		query += " AND series_id = ?"
		args = append(args, *filter.SeriesID)
	}

	if filter.TableLabel != nil {
		query += " AND table_label = ?"
		args = append(args, *filter.TableLabel)
	}

	if filter.Year != nil {
		query += " AND year = ?"
		args = append(args, *filter.Year)
	}

	countQuery := r.db.Rebind("SELECT COUNT(*) FROM (" + query + ") AS count_query")
	var totalCount int
	if err := r.db.GetContext(ctx, "count_year_volumes", &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count year volumes: %w", err)
	}

	query += " ORDER BY year, series_id, table_label"
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	var rows []*models.StoredYearVolume
	if err := r.db.SelectContext(ctx, "get_year_volumes", &rows, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get year volumes: %w", err)
	}

	return rows, totalCount, nil
}

// UpsertDayExtremes writes rows in a single transaction, replacing any row
// with the same series, table label and day
func (r *volumeRepository) UpsertDayExtremes(ctx context.Context, rows []*models.StoredDayExtreme) error {
	if len(rows) == 0 {
		return nil
	}

	timer := time.Now()
	defer func() {
		r.logger.Debug(ctx, "[REPO_UPSERT_EXTREMES] Daily extremes upserted", logging.Fields{
			"count":       len(rows),
			"duration_ms": time.Since(timer).Milliseconds(),
		})
	}()

	tx, err := r.db.BeginTx(ctx)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PreparexContext(ctx, r.db.Rebind(`
		INSERT INTO daily_extremes (
			series_id, table_label, day,
			min_value, max_value,
			created_at, updated_at
		)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (series_id, table_label, day) DO UPDATE SET
			min_value = excluded.min_value,
			max_value = excluded.max_value,
			updated_at = excluded.updated_at
	`))
	if err != nil {
		return fmt.Errorf("failed to prepare statement: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		_, err := stmt.ExecContext(ctx,
			row.SeriesID,
			row.TableLabel,
			row.Day,
			row.MinValue,
			row.MaxValue,
			row.CreatedAt,
			row.UpdatedAt,
		)
		if err != nil {
			r.metrics.RecordDBError("exec_error")
			return fmt.Errorf("failed to upsert day extreme %s: %w", row.Day.Format("2006-01-02"), err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}

// GetDayExtremes retrieves stored daily extremes with filtering and pagination
func (r *volumeRepository) GetDayExtremes(ctx context.Context, filter DayExtremeFilter) ([]*models.StoredDayExtreme, int, error) {
	query := `
		SELECT id, series_id, table_label, day,
		       min_value, max_value,
		       created_at, updated_at
		FROM daily_extremes
		WHERE 1=1
	`
	args := []interface{}{}

	if filter.SeriesID != nil {
		query += " AND series_id = ?"
		args = append(args, *filter.SeriesID)
	}

	if filter.TableLabel != nil {
		query += " AND table_label = ?"
		args = append(args, *filter.TableLabel)
	}

	if filter.StartDay != nil {
		query += " AND day >= ?"
		args = append(args, *filter.StartDay)
	}

	if filter.EndDay != nil {
		query += " AND day <= ?"
		args = append(args, *filter.EndDay)
	}

	countQuery := r.db.Rebind("SELECT COUNT(*) FROM (" + query + ") AS count_query")
	var totalCount int
	if err := r.db.GetContext(ctx, "count_day_extremes", &totalCount, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("failed to count day extremes: %w", err)
	}

	query += " ORDER BY day, series_id, table_label"
	query, args = paginate(query, args, filter.Limit, filter.Offset)

	var rows []*models.StoredDayExtreme
	if err := r.db.SelectContext(ctx, "get_day_extremes", &rows, r.db.Rebind(query), args...); err != nil {
		return nil, 0, fmt.Errorf("failed to get day extremes: %w", err)
	}

	return rows, totalCount, nil
}

// HealthCheck performs a repository health check
func (r *volumeRepository) HealthCheck(ctx context.Context) error {
	return r.db.HealthCheck(ctx)
}

// paginate appends LIMIT/OFFSET; a non-positive limit returns every row
func paginate(query string, args []interface{}, limit, offset int) (string, []interface{}) {
	if limit <= 0 {
		return query, args
	}
	return query + " LIMIT ? OFFSET ?", append(args, limit, offset)
}

// NotFoundError represents a resource not found error
type NotFoundError struct {
	Resource string
	ID       string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s not found: %s", e.Resource, e.ID)
}

func (e *NotFoundError) IsTransient() bool {
	return false
}
