package models

import (
	"math"
	"strconv"
	"strings"
	"time"
)

// Sample is a single discharge reading in m³/s
type Sample struct {
	Time  time.Time `json:"time"`
	Value float64   `json:"value"`
}

// RawUVFRecord represents a single measurement line of a UVF file
// Format: YYMMDDHHMM<value>
type RawUVFRecord struct {
	Timestamp string // YYMMDDHHMM
	Value     string // rest of the line, trimmed
}

// ToSample converts a RawUVFRecord into a Sample.
// Two-digit years >= 50 map to 19xx, everything else to 20xx.
func (r *RawUVFRecord) ToSample() (*Sample, error) {
	if len(r.Timestamp) != 10 || !IsDigits(r.Timestamp) {
		return nil, &ValidationError{
			Field:   "timestamp",
			Value:   r.Timestamp,
			Message: "invalid timestamp, expected YYMMDDHHMM",
		}
	}

	fields := make([]int, 5)
	for i := range fields {
		n, err := strconv.Atoi(r.Timestamp[i*2 : i*2+2])
		if err != nil {
			return nil, &ValidationError{
				Field:   "timestamp",
				Value:   r.Timestamp,
				Message: "invalid timestamp, expected YYMMDDHHMM",
			}
		}
		fields[i] = n
	}

	year := 2000 + fields[0]
	if fields[0] >= 50 {
		year = 1900 + fields[0]
	}
	month, day, hour, minute := fields[1], fields[2], fields[3], fields[4]

	ts := time.Date(year, time.Month(month), day, hour, minute, 0, 0, time.UTC)
	// time.Date normalizes out-of-range fields; a round trip catches 31.02. and 25:00
	if ts.Year() != year || int(ts.Month()) != month || ts.Day() != day ||
		ts.Hour() != hour || ts.Minute() != minute {
		return nil, &ValidationError{
			Field:   "timestamp",
			Value:   r.Timestamp,
			Message: "invalid calendar date",
		}
	}

	q, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
	if err != nil {
		return nil, &ValidationError{
			Field:   "value",
			Value:   r.Value,
			Message: "invalid discharge value",
		}
	}
	if math.IsNaN(q) || math.IsInf(q, 0) {
		return nil, &ValidationError{
			Field:   "value",
			Value:   r.Value,
			Message: "discharge value must be finite",
		}
	}
	if q < 0 {
		return nil, &ValidationError{
			Field:   "value",
			Value:   r.Value,
			Message: "negative discharge value",
		}
	}

	return &Sample{Time: ts, Value: q}, nil
}

// IsDigits reports whether s is non-empty and consists of ASCII digits only
func IsDigits(s string) bool {
	if s == "" {
		return false
	}
	for i := 0; i < len(s); i++ {
		if s[i] < '0' || s[i] > '9' {
			return false
		}
	}
	return true
}

// YearVolume is the volume of one hydrologic year clipped to a query interval
type YearVolume struct {
	Year          int       `json:"year"`
	IntervalStart time.Time `json:"interval_start"`
	IntervalEnd   time.Time `json:"interval_end"`
	VolumeM3      float64   `json:"volume_m3"`
}

// DayExtreme holds the smallest and largest reading of one calendar day
type DayExtreme struct {
	Date time.Time `json:"date"`
	Min  float64   `json:"min"`
	Max  float64   `json:"max"`
}

// StoredYearVolume is a persisted hydrologic-year volume
type StoredYearVolume struct {
	ID            int64     `json:"id" db:"id"`
	SeriesID      string    `json:"series_id" db:"series_id"`
	TableLabel    string    `json:"table_label" db:"table_label"`
	Year          int       `json:"year" db:"year"`
	IntervalStart time.Time `json:"interval_start" db:"interval_start"`
	IntervalEnd   time.Time `json:"interval_end" db:"interval_end"`
	VolumeM3      float64   `json:"volume_m3" db:"volume_m3"`
	CreatedAt     time.Time `json:"created_at" db:"created_at"`
	UpdatedAt     time.Time `json:"updated_at" db:"updated_at"`
}

// StoredDayExtreme is a persisted daily min/max
type StoredDayExtreme struct {
	ID         int64     `json:"id" db:"id"`
	SeriesID   string    `json:"series_id" db:"series_id"`
	TableLabel string    `json:"table_label" db:"table_label"`
	Day        time.Time `json:"day" db:"day"`
	MinValue   float64   `json:"min_value" db:"min_value"`
	MaxValue   float64   `json:"max_value" db:"max_value"`
	CreatedAt  time.Time `json:"created_at" db:"created_at"`
	UpdatedAt  time.Time `json:"updated_at" db:"updated_at"`
}

// ValidationError represents a data validation error
type ValidationError struct {
	Field   string
	Value   string
	Message string
}

func (e *ValidationError) Error() string {
	return e.Message
}

// IsTransient returns false as validation errors are permanent
func (e *ValidationError) IsTransient() bool {
	return false
}
