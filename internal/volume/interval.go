package volume

import "time"

// Interval is a pair of instants. Start and End are not necessarily ordered
// when supplied by callers; Normalize returns them ordered and clipped.
type Interval struct {
	Start time.Time
	End   time.Time
}

// Duration returns End − Start
func (iv Interval) Duration() time.Duration {
	return iv.End.Sub(iv.Start)
}

// ordered swaps start and end if they are reversed
func ordered(start, end time.Time) (time.Time, time.Time) {
	if start.After(end) {
		return end, start
	}
	return start, end
}

// Normalize canonicalizes [start, end] against the span of s. The returned
// interval satisfies span.Start <= Start < End <= span.End; ok is false when
// nothing of the request overlaps the data.
func Normalize(s *Series, start, end time.Time) (Interval, bool) {
	if start.Equal(end) {
		return Interval{}, false
	}
	start, end = ordered(start, end)

	span := s.Span()
	if !end.After(span.Start) || !start.Before(span.End) {
		return Interval{}, false
	}

	if start.Before(span.Start) {
		start = span.Start
	}
	if end.After(span.End) {
		end = span.End
	}

	if !start.Before(end) {
		return Interval{}, false
	}

	return Interval{Start: start, End: end}, true
}
