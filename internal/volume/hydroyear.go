package volume

import (
	"time"

	"discharge-volume/internal/models"
)

// SplitHydrologicYears partitions [start, end] into hydrologic years and
// integrates each non-empty piece. Years that do not intersect the request
// are omitted. Results are in ascending year order.
//
// Each year ends at 23:59:59 on 31 Oct, so the last second before 01 Nov is
// not attributed to any year.
func SplitHydrologicYears(s *Series, start, end time.Time) []models.YearVolume {
	start, end = ordered(start, end)

	var results []models.YearVolume
	for year := HydrologicYear(start); year <= HydrologicYear(end); year++ {
		yearStart, yearEnd := HydrologicYearBounds(year)

		from := maxTime(start, yearStart)
		to := minTime(end, yearEnd)
		if !from.Before(to) {
			continue
		}

		results = append(results, models.YearVolume{
			Year:          year,
			IntervalStart: from,
			IntervalEnd:   to,
			VolumeM3:      Integrate(s, from, to),
		})
	}

	return results
}
