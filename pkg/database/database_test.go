package database

import (
	"context"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"discharge-volume/internal/config"
	"discharge-volume/pkg/logging"
	"discharge-volume/pkg/metrics"
)

func openMemory(t *testing.T) *DB {
	t.Helper()
	db, err := Open(config.DatabaseConfig{
		Driver:       DriverSQLite,
		Path:         ":memory:",
		MaxOpenConns: 1,
		MaxIdleConns: 1,
	}, logging.NewNopLogger(), metrics.NewCollector("test", prometheus.NewRegistry()))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestDSN(t *testing.T) {
	dsn, err := DSN(config.DatabaseConfig{
		Driver: DriverPostgres, Host: "db", Port: 5432, User: "u", Password: "p", Database: "d", SSLMode: "disable",
	})
	require.NoError(t, err)
	assert.Equal(t, "host=db port=5432 user=u password=p dbname=d sslmode=disable", dsn)

	dsn, err = DSN(config.DatabaseConfig{Driver: DriverSQLite, Path: "/tmp/x.db"})
	require.NoError(t, err)
	assert.Equal(t, "/tmp/x.db", dsn)

	_, err = DSN(config.DatabaseConfig{Driver: DriverSQLite})
	assert.Error(t, err)

	_, err = DSN(config.DatabaseConfig{Driver: "mysql"})
	assert.Error(t, err)
}

func TestOpen_SQLiteMigrateRoundTrip(t *testing.T) {
	db := openMemory(t)
	ctx := context.Background()

	require.NoError(t, db.HealthCheck(ctx))
	require.NoError(t, db.Migrate(ctx, "up"))
	// idempotent
	require.NoError(t, db.Migrate(ctx, "up"))

	var count int
	require.NoError(t, db.GetContext(ctx, "count", &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('hydro_year_volumes', 'daily_extremes')"))
	assert.Equal(t, 2, count)

	require.NoError(t, db.Migrate(ctx, "down"))
	require.NoError(t, db.GetContext(ctx, "count", &count,
		"SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name IN ('hydro_year_volumes', 'daily_extremes')"))
	assert.Equal(t, 0, count)

	assert.Error(t, db.Migrate(ctx, "sideways"))
}

func TestRebind(t *testing.T) {
	db := openMemory(t)
	assert.Equal(t, "SELECT ? FROM t", db.Rebind("SELECT ? FROM t"))
	assert.Equal(t, DriverSQLite, db.Driver())
}

func TestClose_Twice(t *testing.T) {
	db, err := Open(config.DatabaseConfig{Driver: DriverSQLite, Path: ":memory:", MaxOpenConns: 1},
		logging.NewNopLogger(), metrics.NewCollector("test", prometheus.NewRegistry()))
	require.NoError(t, err)

	require.NoError(t, db.Close())
	assert.NotPanics(t, func() { _ = db.Close() })
}
