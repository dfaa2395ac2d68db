package volume

import (
	"sort"
	"time"
)

// Integrate returns the volume in m³ between start and end. The argument order
// does not matter. Intervals outside the series span yield 0.
func Integrate(s *Series, start, end time.Time) float64 {
	iv, ok := Normalize(s, start, end)
	if !ok {
		return 0.0
	}

	// anchor: last sample at or before the interval start. It exists because
	// Normalize clips Start to the first timestamp.
	anchor := sort.Search(len(s.samples), func(i int) bool {
		return s.samples[i].Time.After(iv.Start)
	}) - 1

	current := iv.Start
	held := s.samples[anchor].Value
	total := 0.0

	// samples sharing a timestamp add zero-length steps, so the last of
	// them holds going forward
	for _, smp := range s.samples[anchor+1:] {
		if !smp.Time.Before(iv.End) {
			total += held * iv.End.Sub(current).Seconds()
			return total
		}

		total += held * smp.Time.Sub(current).Seconds()
		current, held = smp.Time, smp.Value
	}

	return total
}
