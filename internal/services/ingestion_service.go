package services

import (
	"bufio"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"
	"time"

	"discharge-volume/internal/lookup"
	"discharge-volume/internal/models"
	"discharge-volume/internal/volume"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

// Reasons a UVF line is skipped
const (
	SkipBlank            = "blank"
	SkipNotMeasurement   = "not_measurement"
	SkipInvalidTimestamp = "invalid_timestamp"
	SkipInvalidValue     = "invalid_value"
	SkipNegativeValue    = "negative_value"
)

// IngestionService loads UVF discharge files and lookup tables
type IngestionService struct {
	logger  *logging.StructuredLogger
	metrics *metrics.Collector
}

// IngestionResult contains loading statistics
type IngestionResult struct {
	SeriesID     string
	FilePath     string
	TotalLines   int
	Samples      int
	SkippedLines map[string]int
	TableApplied bool
	Duration     time.Duration
}

// Skipped returns the total number of skipped lines
func (r *IngestionResult) Skipped() int {
	total := 0
	for _, n := range r.SkippedLines {
		total += n
	}
	return total
}

// NewIngestionService creates a new ingestion service
func NewIngestionService(logger *logging.StructuredLogger, metricsCollector *metrics.Collector) *IngestionService {
	return &IngestionService{
		logger:  logger,
		metrics: metricsCollector,
	}
}

// SeriesID derives a series identifier from a file path: its base name
// without extension
func SeriesID(path string) string {
	name := filepath.Base(path)
	return strings.TrimSuffix(name, filepath.Ext(name))
}

// LoadSeries reads a UVF file into a Series. When table is non-nil every
// accepted value is remapped through it. Lines that are not valid
// measurements are skipped and counted; volume.ErrNoData is returned when no
// line survives.
func (s *IngestionService) LoadSeries(ctx context.Context, path string, table *lookup.Table) (*volume.Series, *IngestionResult, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open series file: %w", err)
	}
	defer file.Close()

	series, result, err := s.ReadSeries(ctx, file, table)
	if result != nil {
		result.SeriesID = SeriesID(path)
		result.FilePath = path
	}
	if err != nil {
		return nil, result, err
	}

	s.logger.Info(ctx, "[INGEST_COMPLETE] Series loaded", logging.Fields{
		"file_path":     path,
		"series_id":     result.SeriesID,
		"total_lines":   result.TotalLines,
		"samples":       result.Samples,
		"skipped_lines": result.Skipped(),
		"table_applied": result.TableApplied,
		"duration_ms":   result.Duration.Milliseconds(),
		"stage":         "COMPLETE",
	})

	return series, result, nil
}

// ReadSeries parses UVF content from r. See LoadSeries.
func (s *IngestionService) ReadSeries(ctx context.Context, r io.Reader, table *lookup.Table) (*volume.Series, *IngestionResult, error) {
	startTime := time.Now()
	defer func() {
		s.metrics.IngestionDuration.Observe(time.Since(startTime).Seconds())
	}()

	result := &IngestionResult{
		SkippedLines: make(map[string]int),
		TableApplied: table != nil,
	}

	var samples []models.Sample

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		if err := ctx.Err(); err != nil {
			return nil, result, err
		}

		result.TotalLines++
		s.metrics.IngestionLinesTotal.Inc()

		sample, reason := parseLine(scanner.Text())
		if reason != "" {
			result.SkippedLines[reason]++
			s.metrics.RecordSkippedLine(reason)
			continue
		}

		if table != nil {
			sample.Value = table.Evaluate(sample.Value)
			s.metrics.TableLookupsTotal.Inc()
		}
		samples = append(samples, *sample)
	}

	if err := scanner.Err(); err != nil {
		return nil, result, fmt.Errorf("error reading series: %w", err)
	}

	// files are normally chronological; ties keep file order
	sort.SliceStable(samples, func(i, j int) bool {
		return samples[i].Time.Before(samples[j].Time)
	})

	result.Samples = len(samples)
	s.metrics.IngestionSamplesTotal.Add(float64(len(samples)))
	result.Duration = time.Since(startTime)

	if len(samples) == 0 {
		s.logger.Warn(ctx, "[INGEST_EMPTY] No valid samples found", logging.Fields{
			"total_lines":   result.TotalLines,
			"skipped_lines": result.SkippedLines,
		})
		return nil, result, volume.ErrNoData
	}

	series, err := volume.NewSeries(samples)
	if err != nil {
		return nil, result, fmt.Errorf("failed to build series: %w", err)
	}

	return series, result, nil
}

// parseLine turns one UVF line into a sample. A non-empty reason means the
// line was skipped.
// Format: YYMMDDHHMM<value>
func parseLine(line string) (*models.Sample, string) {
	line = strings.TrimSpace(line)
	if line == "" {
		return nil, SkipBlank
	}
	if len(line) < 11 || !models.IsDigits(line[:10]) {
		return nil, SkipNotMeasurement
	}

	record := &models.RawUVFRecord{
		Timestamp: line[:10],
		Value:     strings.TrimSpace(line[10:]),
	}

	sample, err := record.ToSample()
	if err != nil {
		var verr *models.ValidationError
		if !errors.As(err, &verr) {
			return nil, SkipInvalidValue
		}
		switch {
		case verr.Field == "timestamp":
			return nil, SkipInvalidTimestamp
		case strings.HasPrefix(verr.Message, "negative"):
			return nil, SkipNegativeValue
		default:
			return nil, SkipInvalidValue
		}
	}

	return sample, ""
}

// LoadTable reads a two-column lookup table: ';' separated, decimal commas,
// empty rows ignored, extra columns ignored.
func (s *IngestionService) LoadTable(ctx context.Context, path string) (*lookup.Table, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open table file: %w", err)
	}
	defer file.Close()

	table, err := ReadTable(file)
	if err != nil {
		return nil, fmt.Errorf("failed to load table %s: %w", path, err)
	}

	xmin, xmax := table.Domain()
	s.logger.Info(ctx, "[TABLE_LOADED] Lookup table loaded", logging.Fields{
		"file_path": path,
		"rows":      table.Len(),
		"x_min":     xmin,
		"x_max":     xmax,
	})

	return table, nil
}

// ReadTable parses lookup table content from r. See LoadTable.
func ReadTable(r io.Reader) (*lookup.Table, error) {
	reader := csv.NewReader(r)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var pairs []lookup.Pair
	for {
		row, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read table row: %w", err)
		}
		if isEmptyRow(row) {
			continue
		}

		line, _ := reader.FieldPos(0)
		if len(row) < 2 {
			return nil, fmt.Errorf("line %d: expected 2 columns, got %d", line, len(row))
		}

		x, err := ParseDecimalComma(row[0])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid x: %w", line, err)
		}
		y, err := ParseDecimalComma(row[1])
		if err != nil {
			return nil, fmt.Errorf("line %d: invalid y: %w", line, err)
		}

		pairs = append(pairs, lookup.Pair{X: x, Y: y})
	}

	return lookup.Build(pairs)
}

// ParseDecimalComma parses a number written with a decimal comma ("0,1")
func ParseDecimalComma(s string) (float64, error) {
	v, err := strconv.ParseFloat(strings.ReplaceAll(strings.TrimSpace(s), ",", "."), 64)
	if err != nil {
		return 0, err
	}
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("non-finite value %q", s)
	}
	return v, nil
}

func isEmptyRow(row []string) bool {
	for _, field := range row {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}
