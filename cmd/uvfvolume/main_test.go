package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discharge-volume/internal/config"
	"discharge-volume/internal/repository"
	"discharge-volume/pkg/database"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

const uvf = `*Z
$sb Mess-Groesse: Q
0001010000 2.0
0001010010 5.0
0001010020 1.0
0001010040 0.0
`

type fixture struct {
	dir    string
	uvf    string
	outDir string
}

func setup(t *testing.T) fixture {
	t.Helper()
	dir := t.TempDir()

	for _, k := range []string{
		"LOG_LEVEL", "SERVER_HOST", "SERVER_PORT", "DB_DRIVER", "DB_HOST", "DB_PORT",
		"DB_USER", "DB_PASSWORD", "DB_NAME", "DB_SSLMODE", "DB_PATH",
		"SERIES_PATH", "SERIES_TABLE", "SERIES_TABLE_LABEL", "OUTPUT_DIR",
	} {
		t.Setenv(k, "")
	}

	cfgPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(cfgPath, []byte("logging:\n  level: error\n"), 0o644))
	t.Setenv("CONFIG_PATH", cfgPath)

	uvfPath := filepath.Join(dir, "pegel.uvf")
	require.NoError(t, os.WriteFile(uvfPath, []byte(uvf), 0o644))

	return fixture{dir: dir, uvf: uvfPath, outDir: filepath.Join(dir, "out")}
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return stdout.String(), err
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestVolumeCommand(t *testing.T) {
	f := setup(t)

	out, err := execute(t, "volume", f.uvf, "2000-01-01T00:05", "2000-01-01 00:30", "--output-dir", f.outDir)
	require.NoError(t, err)

	line := "Interval 01.01.2000 00:05 – 01.01.2000 00:30 → 4200,0 m³"
	assert.Contains(t, out, line)

	path := filepath.Join(f.outDir, "pegel_volume_200001010005_200001010030.txt")
	assert.Contains(t, out, "Wrote interval volume to: "+path)
	assert.Equal(t, line+"\n", readFile(t, path))
}

func TestVolumeCommand_WithTable(t *testing.T) {
	f := setup(t)

	table := filepath.Join(f.dir, "entnahme.csv")
	require.NoError(t, os.WriteFile(table, []byte("0;0\n10;5\n"), 0o644))

	out, err := execute(t, "volume", f.uvf, "2000-01-01", "2000-01-02",
		"--table-entnahme", table, "--output-dir", f.outDir)
	require.NoError(t, err)

	// halved values: 1*600 + 2,5*600 + 0,5*1200
	assert.Contains(t, out, "→ 2700,0 m³")
	_, err = os.Stat(filepath.Join(f.outDir, "pegel_entnahme_volume_200001010000_200001020000.txt"))
	assert.NoError(t, err)
}

func TestTablesAreMutuallyExclusive(t *testing.T) {
	f := setup(t)

	_, err := execute(t, "volume", f.uvf, "2000-01-01", "2000-01-02",
		"--table-entnahme", "a.csv", "--table-belassen", "b.csv")
	assert.Error(t, err)
}

func TestHydroYearCommand(t *testing.T) {
	f := setup(t)

	out, err := execute(t, "hydro-year", f.uvf, "1999-06-01", "2000-06-01", "--output-dir", f.outDir)
	require.NoError(t, err)

	path := filepath.Join(f.outDir, "pegel_hydro_yearly_volumes_199906010000_200006010000.txt")
	assert.Contains(t, out, path)

	content := readFile(t, path)
	assert.Contains(t, content, "Hydrologisches Jahr;Von;Bis;Volumen [m³]\n")
	// 1999 does not overlap the data and is reported as zero
	assert.Contains(t, content, "1999;01.06.1999;31.10.1999;0,0\n")
	assert.Contains(t, content, "2000;01.11.1999;01.06.2000;5400,0\n")
}

func TestHydroYearCommand_NoOverlap(t *testing.T) {
	f := setup(t)

	out, err := execute(t, "hydro-year", f.uvf, "2000-01-01", "2000-01-01", "--output-dir", f.outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No overlapping hydrologic years")

	_, err = os.Stat(f.outDir)
	assert.True(t, os.IsNotExist(err))
}

func TestExtremesCommand(t *testing.T) {
	f := setup(t)

	out, err := execute(t, "extremes", f.uvf, "2000-01-01", "2000-01-01T00:40", "--output-dir", f.outDir)
	require.NoError(t, err)

	path := filepath.Join(f.outDir, "pegel_extremes_200001010000_200001010040.txt")
	assert.Contains(t, out, path)
	assert.Equal(t, "Datum;Min_q[m³/s];Max_q[m³/s]\n01.01.2000;0,0;5,0\n", readFile(t, path))

	out, err = execute(t, "extremes", f.uvf, "2001-01-01", "2001-02-01", "--output-dir", f.outDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No data in the given interval.")
}

func TestNoData(t *testing.T) {
	f := setup(t)

	empty := filepath.Join(f.dir, "empty.uvf")
	require.NoError(t, os.WriteFile(empty, []byte("*Z\n\n"), 0o644))

	out, err := execute(t, "volume", empty, "2000-01-01", "2000-01-02", "--output-dir", f.outDir)
	require.NoError(t, err)
	assert.Equal(t, "No valid data read from file.\n", out)
}

func TestBadArguments(t *testing.T) {
	f := setup(t)

	_, err := execute(t, "volume", f.uvf, "01.01.2000", "2000-01-02")
	assert.Error(t, err)

	_, err = execute(t, "volume", f.uvf, "2000-01-01")
	assert.Error(t, err)

	_, err = execute(t, "volume", filepath.Join(f.dir, "missing.uvf"), "2000-01-01", "2000-01-02", "--output-dir", f.outDir)
	assert.Error(t, err)
}

func TestPersistAndMetricsFile(t *testing.T) {
	f := setup(t)
	dbPath := filepath.Join(f.dir, "volumes.db")
	t.Setenv("DB_DRIVER", "sqlite")
	t.Setenv("DB_PATH", dbPath)

	metricsPath := filepath.Join(f.dir, "run.prom")
	out, err := execute(t, "hydro-year", f.uvf, "1999-11-01", "2000-01-02",
		"--persist", "--output-dir", f.outDir, "--metrics-file", metricsPath)
	require.NoError(t, err)
	assert.Contains(t, out, "Stored 1 hydrologic years")

	prom := readFile(t, metricsPath)
	assert.True(t, strings.Contains(prom, "uvfvolume_ingestion_samples_total 4"))

	logger := logging.NewNopLogger()
	collector := metrics.NewCollector("test", prometheus.NewRegistry())
	db, err := database.Open(config.DatabaseConfig{Driver: database.DriverSQLite, Path: dbPath, MaxOpenConns: 1}, logger, collector)
	require.NoError(t, err)
	defer db.Close()

	row, err := repository.NewVolumeRepository(db, logger, collector).GetYearVolume(context.Background(), "pegel", "", 2000)
	require.NoError(t, err)
	assert.Equal(t, 5400.0, row.VolumeM3)
}

func TestPersistWithoutDatabase(t *testing.T) {
	f := setup(t)

	_, err := execute(t, "extremes", f.uvf, "2000-01-01", "2000-01-02", "--persist", "--output-dir", f.outDir)
	assert.Error(t, err)
}
