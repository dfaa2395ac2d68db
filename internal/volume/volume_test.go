package volume

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/floats/scalar"

	"discharge-volume/internal/models"
)

var t0 = time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)

func at(minutes int) time.Time {
	return t0.Add(time.Duration(minutes) * time.Minute)
}

func mustSeries(t *testing.T, samples ...models.Sample) *Series {
	t.Helper()
	s, err := NewSeries(samples)
	require.NoError(t, err)
	return s
}

// irregular returns a series with uneven spacing and varying values
func irregular(t *testing.T) *Series {
	return mustSeries(t,
		models.Sample{Time: at(0), Value: 1.5},
		models.Sample{Time: at(5), Value: 2.25},
		models.Sample{Time: at(7), Value: 0},
		models.Sample{Time: at(30), Value: 4},
		models.Sample{Time: at(31), Value: 3.5},
		models.Sample{Time: at(120), Value: 0.75},
		models.Sample{Time: at(121), Value: 9},
	)
}

func TestNewSeries(t *testing.T) {
	_, err := NewSeries(nil)
	assert.True(t, errors.Is(err, ErrNoData))

	_, err = NewSeries([]models.Sample{{Time: at(5)}, {Time: at(0)}})
	assert.True(t, errors.Is(err, ErrUnordered))

	in := []models.Sample{{Time: at(0), Value: 1}, {Time: at(0), Value: 2}, {Time: at(3), Value: 3}}
	s, err := NewSeries(in)
	require.NoError(t, err)
	in[0].Value = 100

	assert.Equal(t, 3, s.Len())
	assert.Equal(t, 1.0, s.First().Value)
	assert.Equal(t, 2.0, s.At(1).Value)
	assert.Equal(t, 3.0, s.Last().Value)
	assert.Equal(t, Interval{Start: at(0), End: at(3)}, s.Span())
	assert.Equal(t, 3*time.Minute, s.Span().Duration())

	copied := s.Samples()
	copied[2].Value = -1
	assert.Equal(t, 3.0, s.Last().Value)
}

func TestNormalize(t *testing.T) {
	s := mustSeries(t,
		models.Sample{Time: at(0), Value: 1},
		models.Sample{Time: at(60), Value: 1},
	)

	tests := []struct {
		name       string
		start, end time.Time
		want       Interval
		wantOK     bool
	}{
		{name: "zero width", start: at(10), end: at(10)},
		{name: "inside", start: at(10), end: at(20), want: Interval{at(10), at(20)}, wantOK: true},
		{name: "reversed", start: at(20), end: at(10), want: Interval{at(10), at(20)}, wantOK: true},
		{name: "ends at data start", start: at(-30), end: at(0)},
		{name: "starts at data end", start: at(60), end: at(90)},
		{name: "entirely before", start: at(-90), end: at(-30)},
		{name: "entirely after", start: at(90), end: at(120)},
		{name: "clips start", start: at(-30), end: at(30), want: Interval{at(0), at(30)}, wantOK: true},
		{name: "clips end", start: at(30), end: at(600), want: Interval{at(30), at(60)}, wantOK: true},
		{name: "clips both", start: at(-600), end: at(600), want: Interval{at(0), at(60)}, wantOK: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Normalize(s, tt.start, tt.end)
			assert.Equal(t, tt.wantOK, ok)
			if tt.wantOK {
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestNormalize_SingleSampleSeries(t *testing.T) {
	s := mustSeries(t, models.Sample{Time: at(0), Value: 5})

	_, ok := Normalize(s, at(-10), at(10))
	assert.False(t, ok)
	assert.Equal(t, 0.0, Integrate(s, at(-10), at(10)))
}

func TestIntegrate_StepScenario(t *testing.T) {
	s := mustSeries(t,
		models.Sample{Time: at(0), Value: 10},
		models.Sample{Time: at(5), Value: 20},
		models.Sample{Time: at(10), Value: 0},
	)

	assert.Equal(t, 9000.0, Integrate(s, at(0), at(10)))
	assert.Equal(t, 9000.0, Integrate(s, at(10), at(0)))
	assert.Equal(t, 9000.0, s.SpanVolume())
}

func TestIntegrate_AnchorBeforeStart(t *testing.T) {
	s := mustSeries(t,
		models.Sample{Time: at(0), Value: 10},
		models.Sample{Time: at(10), Value: 20},
		models.Sample{Time: at(20), Value: 0},
	)

	// 10 m³/s for 5 minutes, then 20 m³/s for 5 minutes
	assert.Equal(t, 9000.0, Integrate(s, at(5), at(15)))
	// inside a single step
	assert.Equal(t, 20.0*120, Integrate(s, at(12), at(14)))
}

func TestIntegrate_EndOnSampleIgnoresItsValue(t *testing.T) {
	s := mustSeries(t,
		models.Sample{Time: at(0), Value: 1},
		models.Sample{Time: at(1), Value: 1000},
		models.Sample{Time: at(2), Value: 0},
	)

	assert.Equal(t, 60.0, Integrate(s, at(0), at(1)))
}

func TestIntegrate_ZeroWidth(t *testing.T) {
	s := irregular(t)
	for _, m := range []int{-10, 0, 6, 31, 121, 500} {
		assert.Equal(t, 0.0, Integrate(s, at(m), at(m)))
	}
}

func TestIntegrate_Disjoint(t *testing.T) {
	s := mustSeries(t,
		models.Sample{Time: time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC), Value: 3},
		models.Sample{Time: time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC), Value: 4},
	)

	got := Integrate(s,
		time.Date(1999, 1, 1, 0, 0, 0, 0, time.UTC),
		time.Date(1999, 6, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0.0, got)

	got = Integrate(s,
		time.Date(2000, 1, 2, 0, 0, 0, 0, time.UTC),
		time.Date(2001, 1, 1, 0, 0, 0, 0, time.UTC))
	assert.Equal(t, 0.0, got)
}

func TestIntegrate_FullSpanMatchesStepSum(t *testing.T) {
	s := irregular(t)

	want := 0.0
	for i := 0; i < s.Len()-1; i++ {
		want += s.At(i).Value * s.At(i + 1).Time.Sub(s.At(i).Time).Seconds()
	}

	assert.InDelta(t, want, Integrate(s, s.First().Time, s.Last().Time), 1e-9)
	assert.InDelta(t, want, s.SpanVolume(), 1e-9)
	// a request wider than the data clips to the full span
	assert.InDelta(t, want, Integrate(s, at(-1000), at(1000)), 1e-9)
}

func TestIntegrate_DirectionSymmetry(t *testing.T) {
	s := irregular(t)
	for a := -5; a <= 125; a += 3 {
		for b := -5; b <= 125; b += 7 {
			assert.Equal(t, Integrate(s, at(a), at(b)), Integrate(s, at(b), at(a)), "a=%d b=%d", a, b)
		}
	}
}

func TestIntegrate_Additivity(t *testing.T) {
	s := irregular(t)
	for a := 0; a <= 121; a += 4 {
		for b := a + 1; b <= 121; b += 5 {
			for c := b + 1; c <= 121; c += 6 {
				left := Integrate(s, at(a), at(b))
				right := Integrate(s, at(b), at(c))
				whole := Integrate(s, at(a), at(c))
				assert.True(t, scalar.EqualWithinAbsOrRel(left+right, whole, 1e-9, 1e-12),
					"a=%d b=%d c=%d: %v + %v != %v", a, b, c, left, right, whole)
			}
		}
	}
}

func TestIntegrate_ClippingIdempotence(t *testing.T) {
	s := irregular(t)
	span := s.Span()
	for _, q := range [][2]int{{-50, 10}, {20, 400}, {-1, 122}, {-500, 500}} {
		a, b := at(q[0]), at(q[1])
		clipped := Integrate(s, maxTime(a, span.Start), minTime(b, span.End))
		assert.Equal(t, clipped, Integrate(s, a, b), "query %v", q)
	}
}

func TestIntegrate_SubMinuteBoundaries(t *testing.T) {
	s := mustSeries(t,
		models.Sample{Time: at(0), Value: 2},
		models.Sample{Time: at(1), Value: 4},
	)

	assert.Equal(t, 2.0*30, Integrate(s, at(0), at(0).Add(30*time.Second)))
	assert.Equal(t, 2.0*1, Integrate(s, at(0).Add(59*time.Second), at(5)))
}

func TestIntegrate_TiedTimestamps(t *testing.T) {
	s := mustSeries(t,
		models.Sample{Time: at(0), Value: 1},
		models.Sample{Time: at(10), Value: 5},
		models.Sample{Time: at(10), Value: 7},
		models.Sample{Time: at(20), Value: 0},
	)

	// the last sample at a shared instant holds, whether the walk crosses
	// the tie or starts on it
	assert.Equal(t, 1.0*600+7.0*600, Integrate(s, at(0), at(20)))
	assert.Equal(t, 7.0*600, Integrate(s, at(10), at(20)))
	assert.Equal(t, 1.0*600+7.0*600, s.SpanVolume())
	assert.Equal(t, Integrate(s, at(0), at(10))+Integrate(s, at(10), at(20)), Integrate(s, at(0), at(20)))
}

func TestHydrologicYear(t *testing.T) {
	tests := []struct {
		in   time.Time
		want int
	}{
		{time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC), 1996},
		{time.Date(1996, 10, 31, 23, 59, 59, 0, time.UTC), 1996},
		{time.Date(1996, 11, 1, 0, 0, 0, 0, time.UTC), 1997},
		{time.Date(1996, 12, 31, 12, 0, 0, 0, time.UTC), 1997},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, HydrologicYear(tt.in), tt.in.String())
	}

	start, end := HydrologicYearBounds(1997)
	assert.Equal(t, time.Date(1996, 11, 1, 0, 0, 0, 0, time.UTC), start)
	assert.Equal(t, time.Date(1997, 10, 31, 23, 59, 59, 0, time.UTC), end)
}

func TestSplitHydrologicYears_Coverage(t *testing.T) {
	const q = 2.0
	s := mustSeries(t,
		models.Sample{Time: time.Date(1995, 6, 1, 0, 0, 0, 0, time.UTC), Value: q},
		models.Sample{Time: time.Date(1999, 6, 1, 0, 0, 0, 0, time.UTC), Value: q},
	)

	start := time.Date(1996, 3, 15, 6, 0, 0, 0, time.UTC)
	end := time.Date(1998, 2, 1, 0, 0, 0, 0, time.UTC)

	results := SplitHydrologicYears(s, end, start)
	require.Len(t, results, 3)

	assert.Equal(t, []int{1996, 1997, 1998}, []int{results[0].Year, results[1].Year, results[2].Year})
	assert.Equal(t, start, results[0].IntervalStart)
	assert.Equal(t, end, results[len(results)-1].IntervalEnd)

	sum := 0.0
	for i, r := range results {
		yearStart, yearEnd := HydrologicYearBounds(r.Year)
		assert.False(t, r.IntervalStart.Before(yearStart))
		assert.False(t, r.IntervalEnd.After(yearEnd))
		assert.True(t, r.IntervalStart.Before(r.IntervalEnd))
		if i > 0 {
			// consecutive pieces are separated by the one-second boundary gap
			assert.Equal(t, time.Second, r.IntervalStart.Sub(results[i-1].IntervalEnd))
		}
		assert.InDelta(t, q*r.IntervalEnd.Sub(r.IntervalStart).Seconds(), r.VolumeM3, 1e-6)
		sum += r.VolumeM3
	}

	gaps := float64(len(results) - 1)
	assert.InDelta(t, Integrate(s, start, end)-q*gaps, sum, 1e-6)
}

func TestSplitHydrologicYears_EmptyIntersections(t *testing.T) {
	s := mustSeries(t,
		models.Sample{Time: time.Date(2010, 1, 1, 0, 0, 0, 0, time.UTC), Value: 1},
		models.Sample{Time: time.Date(2010, 1, 2, 0, 0, 0, 0, time.UTC), Value: 1},
	)

	assert.Empty(t, SplitHydrologicYears(s, at(0), at(0)))

	// starts on the last second of a year: that year's piece would be empty
	yearEnd := time.Date(2005, 10, 31, 23, 59, 59, 0, time.UTC)
	results := SplitHydrologicYears(s, yearEnd, time.Date(2005, 12, 1, 0, 0, 0, 0, time.UTC))
	require.Len(t, results, 1)
	assert.Equal(t, 2006, results[0].Year)

	// years overlapping the request but not the data are reported with zero volume
	assert.Equal(t, 0.0, results[0].VolumeM3)
}

func TestSplitHydrologicYears_WithinOneYear(t *testing.T) {
	s := irregular(t)
	results := SplitHydrologicYears(s, at(-5), at(200))
	require.Len(t, results, 1)
	assert.Equal(t, 2000, results[0].Year)
	assert.Equal(t, Integrate(s, at(-5), at(200)), results[0].VolumeM3)
}

func TestDailyExtremes(t *testing.T) {
	day := func(d, h int) time.Time { return time.Date(2001, 3, d, h, 0, 0, 0, time.UTC) }
	s := mustSeries(t,
		models.Sample{Time: day(1, 0), Value: 5},
		models.Sample{Time: day(1, 12), Value: 2},
		models.Sample{Time: day(1, 23), Value: 8},
		models.Sample{Time: day(2, 6), Value: 1},
		models.Sample{Time: day(4, 0), Value: 3},
		models.Sample{Time: day(4, 6), Value: 7},
		models.Sample{Time: day(4, 12), Value: 0.5},
	)

	got := DailyExtremes(s, day(1, 1), day(4, 6))
	want := []models.DayExtreme{
		{Date: day(1, 0), Min: 2, Max: 8},
		{Date: day(2, 0), Min: 1, Max: 1},
		{Date: day(4, 0), Min: 3, Max: 7},
	}
	assert.Equal(t, want, got)

	assert.Equal(t, want, DailyExtremes(s, day(4, 6), day(1, 1)))
	assert.Empty(t, DailyExtremes(s, day(5, 0), day(9, 0)))
	assert.Empty(t, DailyExtremes(s, day(2, 7), day(3, 23)))

	// no clipping: a request wider than the data sees every sample
	all := DailyExtremes(s, day(1, 0).AddDate(-1, 0, 0), day(4, 0).AddDate(1, 0, 0))
	require.Len(t, all, 3)
	assert.Equal(t, models.DayExtreme{Date: day(4, 0), Min: 0.5, Max: 7}, all[2])
}

// The extremes scanner treats end as inclusive while the integrator never
// uses the value of a sample sitting exactly on end.
func TestEndBoundaryAsymmetry(t *testing.T) {
	s := mustSeries(t,
		models.Sample{Time: at(0), Value: 1},
		models.Sample{Time: at(10), Value: 50},
		models.Sample{Time: at(20), Value: 1},
	)

	extremes := DailyExtremes(s, at(0), at(10))
	require.Len(t, extremes, 1)
	assert.Equal(t, 50.0, extremes[0].Max)

	assert.Equal(t, 1.0*600, Integrate(s, at(0), at(10)))
}
