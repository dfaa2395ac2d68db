package report

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discharge-volume/internal/models"
)

func TestFormatDecimal(t *testing.T) {
	tests := []struct {
		in   float64
		want string
	}{
		{0, "0,0"},
		{9000, "9000,0"},
		{0.1, "0,1"},
		{2.5, "2,5"},
		{5794105.091568004, "5794105,091568004"},
		{0.0001, "0,0001"},
		{0.000015, "1,5e-05"},
		{1e16, "1e+16"},
		{123456789012345.6, "123456789012345,6"},
	}

	for _, tt := range tests {
		t.Run(tt.want, func(t *testing.T) {
			assert.Equal(t, tt.want, FormatDecimal(tt.in))
		})
	}
}

func TestParseDateTime(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Time
		wantErr bool
	}{
		{in: "1975-11-01", want: time.Date(1975, 11, 1, 0, 0, 0, 0, time.UTC)},
		{in: "1975-11-01T06:00", want: time.Date(1975, 11, 1, 6, 0, 0, 0, time.UTC)},
		{in: " 1975-11-01 06:30 ", want: time.Date(1975, 11, 1, 6, 30, 0, 0, time.UTC)},
		{in: "1975-11-01T06:30:15", want: time.Date(1975, 11, 1, 6, 30, 15, 0, time.UTC)},
		{in: "1975-11-01T06", want: time.Date(1975, 11, 1, 6, 0, 0, 0, time.UTC)},
		{in: "01.11.1975", wantErr: true},
		{in: "1975-02-30", wantErr: true},
		{in: "", wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseDateTime(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFileName(t *testing.T) {
	start := time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(1996, 12, 31, 6, 30, 0, 0, time.UTC)

	assert.Equal(t, "pegel_volume_199601010000_199612310630.txt",
		FileName("pegel", "", ModeVolume, start, end))
	assert.Equal(t, "pegel_entnahme_hydro_yearly_volumes_199601010000_199612310630.txt",
		FileName("pegel", "entnahme", ModeHydroYears, start, end))
}

func TestWriteIntervalVolume(t *testing.T) {
	var buf bytes.Buffer
	start := time.Date(2000, 1, 1, 0, 0, 0, 0, time.UTC)
	require.NoError(t, WriteIntervalVolume(&buf, start, start.Add(30*time.Minute), 9000))

	assert.Equal(t, "Interval 01.01.2000 00:00 – 01.01.2000 00:30 → 9000,0 m³\n", buf.String())
}

func TestWriteHydrologicYears(t *testing.T) {
	var buf bytes.Buffer
	years := []models.YearVolume{
		{
			Year:          1996,
			IntervalStart: time.Date(1996, 1, 1, 0, 0, 0, 0, time.UTC),
			IntervalEnd:   time.Date(1996, 10, 31, 23, 59, 59, 0, time.UTC),
			VolumeM3:      1234.5,
		},
		{
			Year:          1997,
			IntervalStart: time.Date(1996, 11, 1, 0, 0, 0, 0, time.UTC),
			IntervalEnd:   time.Date(1996, 12, 31, 0, 0, 0, 0, time.UTC),
			VolumeM3:      0,
		},
	}
	require.NoError(t, WriteHydrologicYears(&buf, years))

	want := hydroYearsUsage +
		"Hydrologisches Jahr;Von;Bis;Volumen [m³]\n" +
		"1996;01.01.1996;31.10.1996;1234,5\n" +
		"1997;01.11.1996;31.12.1996;0,0\n"
	assert.Equal(t, want, buf.String())
}

func TestWriteDailyExtremes(t *testing.T) {
	var buf bytes.Buffer
	days := []models.DayExtreme{
		{Date: time.Date(2021, 3, 1, 0, 0, 0, 0, time.UTC), Min: 0.5, Max: 12},
		{Date: time.Date(2021, 3, 2, 0, 0, 0, 0, time.UTC), Min: 1, Max: 1},
	}
	require.NoError(t, WriteDailyExtremes(&buf, days))

	assert.Equal(t,
		"Datum;Min_q[m³/s];Max_q[m³/s]\n01.03.2021;0,5;12,0\n02.03.2021;1,0;1,0\n",
		buf.String())
}

func TestWriteFile(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")

	path, err := WriteFile(dir, "x.txt", func(w io.Writer) error {
		return WriteIntervalVolume(w, time.Time{}, time.Time{}, 1)
	})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "x.txt"), path)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "→ 1,0 m³")
}
