package volume

import "time"

// HydrologicYear returns the hydrologic year t belongs to. Year N runs from
// 01 Nov N−1 through 31 Oct N.
func HydrologicYear(t time.Time) int {
	if t.Month() <= time.October {
		return t.Year()
	}
	return t.Year() + 1
}

// HydrologicYearBounds returns 01 Nov N−1 00:00:00 and 31 Oct N 23:59:59
func HydrologicYearBounds(year int) (time.Time, time.Time) {
	return time.Date(year-1, time.November, 1, 0, 0, 0, 0, time.UTC),
		time.Date(year, time.October, 31, 23, 59, 59, 0, time.UTC)
}

// dayOf truncates t to midnight of its calendar day
func dayOf(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, t.Location())
}

func maxTime(a, b time.Time) time.Time {
	if a.After(b) {
		return a
	}
	return b
}

func minTime(a, b time.Time) time.Time {
	if a.Before(b) {
		return a
	}
	return b
}
