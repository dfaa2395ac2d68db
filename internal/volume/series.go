// Package volume integrates discharge time series into water volumes.
//
// A Series is read as a right-continuous step function: each sample's value
// holds until the next sample's timestamp. Volumes are value (m³/s) times
// elapsed seconds, summed over the steps that fall inside a query interval.
// Query intervals are clipped to the series' own span; nothing outside the
// observed coverage is ever extrapolated.
package volume

import (
	"errors"
	"fmt"
	"time"

	"gonum.org/v1/gonum/floats"

	"discharge-volume/internal/models"
)

var (
	// ErrNoData is returned when a series would contain no samples
	ErrNoData = errors.New("no data")

	// ErrUnordered is returned when sample timestamps decrease
	ErrUnordered = errors.New("samples are not ordered by time")
)

// Series is an immutable, non-empty sequence of samples with non-decreasing
// timestamps. Ties are kept in the order they were supplied.
type Series struct {
	samples []models.Sample
}

// NewSeries copies samples into a Series
func NewSeries(samples []models.Sample) (*Series, error) {
	if len(samples) == 0 {
		return nil, ErrNoData
	}

	for i := 1; i < len(samples); i++ {
		if samples[i].Time.Before(samples[i-1].Time) {
			return nil, fmt.Errorf("%w: sample %d at %s precedes sample %d at %s",
				ErrUnordered, i, samples[i].Time.Format(time.RFC3339), i-1, samples[i-1].Time.Format(time.RFC3339))
		}
	}

	owned := make([]models.Sample, len(samples))
	copy(owned, samples)
	return &Series{samples: owned}, nil
}

// Len returns the number of samples
func (s *Series) Len() int {
	return len(s.samples)
}

// At returns the i-th sample
func (s *Series) At(i int) models.Sample {
	return s.samples[i]
}

// First returns the earliest sample
func (s *Series) First() models.Sample {
	return s.samples[0]
}

// Last returns the latest sample
func (s *Series) Last() models.Sample {
	return s.samples[len(s.samples)-1]
}

// Span returns the closed coverage [first.Time, last.Time]
func (s *Series) Span() Interval {
	return Interval{Start: s.First().Time, End: s.Last().Time}
}

// Samples returns a copy of the samples
func (s *Series) Samples() []models.Sample {
	out := make([]models.Sample, len(s.samples))
	copy(out, s.samples)
	return out
}

// SpanVolume returns Σ value[i]·(t[i+1]−t[i]) over all consecutive samples,
// i.e. the volume of the whole series in m³.
func (s *Series) SpanVolume() float64 {
	n := len(s.samples)
	if n < 2 {
		return 0
	}

	values := make([]float64, n-1)
	seconds := make([]float64, n-1)
	for i := 0; i < n-1; i++ {
		values[i] = s.samples[i].Value
		seconds[i] = s.samples[i+1].Time.Sub(s.samples[i].Time).Seconds()
	}
	return floats.Dot(values, seconds)
}
