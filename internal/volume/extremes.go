package volume

import (
	"time"

	"gonum.org/v1/gonum/floats"

	"discharge-volume/internal/models"
)

// DailyExtremes returns the min and max sample value of every calendar day
// that has at least one sample inside [start, end].
//
// Unlike Integrate, both ends are inclusive and the request is not clipped to
// the series span: a sample exactly at end is part of its day's extremes.
func DailyExtremes(s *Series, start, end time.Time) []models.DayExtreme {
	start, end = ordered(start, end)

	var (
		results []models.DayExtreme
		day     time.Time
		values  []float64
	)

	flush := func() {
		if len(values) == 0 {
			return
		}
		results = append(results, models.DayExtreme{
			Date: day,
			Min:  floats.Min(values),
			Max:  floats.Max(values),
		})
		values = values[:0]
	}

	for _, smp := range s.samples {
		if smp.Time.Before(start) {
			continue
		}
		if smp.Time.After(end) {
			break
		}

		d := dayOf(smp.Time)
		if len(values) > 0 && !d.Equal(day) {
			flush()
		}
		day = d
		values = append(values, smp.Value)
	}
	flush()

	return results
}
