package report

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"time"

	"discharge-volume/internal/models"
)

// File name modes
const (
	ModeVolume     = "volume"
	ModeHydroYears = "hydro_yearly_volumes"
	ModeExtremes   = "extremes"
)

const hydroYearsUsage = "Dieses Werkzeug berechnet hydrologische Jahresvolumen aus UVF-Dateien.\n" +
	"Für gesamte Volumenangaben von <datum> bis <datum> bitte nutzen Sie das Kommando \"volume\".\n" +
	"Beispiel:\n" +
	"Eingabe: uvfvolume volume datei.uvf 1996-01-01 1996-12-31\n" +
	"Ausgabe: Interval 01.01.1996 00:00 – 31.12.1996 00:00 → 5794105,091568004 m³\n" +
	"-------------------------------\n"

// IntervalLine renders the single result line of an interval volume
func IntervalLine(start, end time.Time, volumeM3 float64) string {
	return fmt.Sprintf("Interval %s – %s → %s m³",
		start.Format(dateTimeLayout), end.Format(dateTimeLayout), FormatDecimal(volumeM3))
}

// WriteIntervalVolume writes the interval volume line
func WriteIntervalVolume(w io.Writer, start, end time.Time, volumeM3 float64) error {
	_, err := fmt.Fprintln(w, IntervalLine(start, end, volumeM3))
	return err
}

// WriteHydrologicYears writes one line per hydrologic year after a short
// usage header
func WriteHydrologicYears(w io.Writer, years []models.YearVolume) error {
	bw := bufio.NewWriter(w)

	bw.WriteString(hydroYearsUsage)
	bw.WriteString("Hydrologisches Jahr;Von;Bis;Volumen [m³]\n")
	for _, y := range years {
		fmt.Fprintf(bw, "%d;%s;%s;%s\n",
			y.Year,
			y.IntervalStart.Format(dateLayout),
			y.IntervalEnd.Format(dateLayout),
			FormatDecimal(y.VolumeM3),
		)
	}

	return bw.Flush()
}

// WriteDailyExtremes writes one line per calendar day
func WriteDailyExtremes(w io.Writer, days []models.DayExtreme) error {
	bw := bufio.NewWriter(w)

	bw.WriteString("Datum;Min_q[m³/s];Max_q[m³/s]\n")
	for _, d := range days {
		fmt.Fprintf(bw, "%s;%s;%s\n",
			d.Date.Format(dateLayout),
			FormatDecimal(d.Min),
			FormatDecimal(d.Max),
		)
	}

	return bw.Flush()
}

// WriteFile creates dir/name and fills it through write. It returns the
// path of the written file.
func WriteFile(dir, name string, write func(io.Writer) error) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("failed to create %s: %w", path, err)
	}

	if err := write(f); err != nil {
		f.Close()
		return "", fmt.Errorf("failed to write %s: %w", path, err)
	}
	if err := f.Close(); err != nil {
		return "", fmt.Errorf("failed to close %s: %w", path, err)
	}

	return path, nil
}
