// Package report renders computation results as the semicolon separated,
// decimal comma text files used by the hydrology office.
package report

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

const (
	dateLayout     = "02.01.2006"
	dateTimeLayout = "02.01.2006 15:04"
	tagLayout      = "200601021504"
)

// inputLayouts are tried in order by ParseDateTime
var inputLayouts = []string{
	"2006-01-02",
	"2006-01-02T15",
	"2006-01-02T15:04",
	"2006-01-02T15:04:05",
	"2006-01-02T15:04:05.999999999",
}

// ParseDateTime parses a date or date-time argument such as 1975-11-01,
// 1975-11-01T06:00 or "1975-11-01 06:00". Seconds are optional.
// The result carries no zone and is returned in UTC.
func ParseDateTime(s string) (time.Time, error) {
	s = strings.TrimSpace(s)
	if strings.Contains(s, " ") && !strings.Contains(s, "T") {
		s = strings.Replace(s, " ", "T", 1)
	}

	for _, layout := range inputLayouts {
		if t, err := time.ParseInLocation(layout, s, time.UTC); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD or YYYY-MM-DDTHH:MM[:SS]", s)
}

// FormatDecimal renders v as the shortest decimal that round-trips, always
// with a fractional part ("9000,0") and with a decimal comma. Very large and
// very small magnitudes use exponent notation ("1,5e-05").
func FormatDecimal(v float64) string {
	var s string

	exp := 0
	if v != 0 {
		e := strconv.FormatFloat(v, 'e', -1, 64)
		exp, _ = strconv.Atoi(e[strings.IndexByte(e, 'e')+1:])
	}

	if exp < -4 || exp >= 16 {
		s = strconv.FormatFloat(v, 'e', -1, 64)
	} else {
		s = strconv.FormatFloat(v, 'f', -1, 64)
		if !strings.Contains(s, ".") {
			s += ".0"
		}
	}

	return strings.Replace(s, ".", ",", 1)
}

// FileName builds the output file name
// <base>[_<label>]_<mode>_<YYYYMMDDHHMM>_<YYYYMMDDHHMM>.txt
func FileName(base, label, mode string, start, end time.Time) string {
	parts := []string{base}
	if label != "" {
		parts = append(parts, label)
	}
	parts = append(parts, mode, start.Format(tagLayout), end.Format(tagLayout))
	return strings.Join(parts, "_") + ".txt"
}
