package db

import (
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hydroscan-data/coverage.report/internal/swath"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := NewDB(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func TestRecordBatchAndSummary(t *testing.T) {
	d := openTestDB(t)

	id, err := d.RecordBatch(swath.BatchResult{
		Converted: 2, Restored: 1, Failed: 1, Elapsed: 1500 * time.Millisecond,
	})
	require.NoError(t, err)
	require.NotEmpty(t, id)

	batches, err := d.Batches(10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, id, batches[0].BatchID)
	assert.Equal(t, 2, batches[0].Converted)
	assert.Equal(t, 1, batches[0].Restored)
	assert.Equal(t, 1, batches[0].Failed)
	assert.Equal(t, int64(1500), batches[0].ElapsedMs)
	assert.Equal(t, 0, batches[0].Detections)
}

func TestRecordDetections(t *testing.T) {
	d := openTestDB(t)

	id, err := d.RecordBatch(swath.BatchResult{Converted: 1})
	require.NoError(t, err)

	records := []swath.DetectionRecord{
		{Filename: "a.kmall", Format: swath.FormatKmall, Timestamp: 100,
			YPort: -50, ZPort: 30, YStbd: 50, ZStbd: 31, BytesSinceLastPing: 1000},
		{Filename: "a.kmall", Format: swath.FormatKmall, Timestamp: 101,
			YPort: math.NaN(), ZPort: math.NaN(), YStbd: math.NaN(), ZStbd: math.NaN(),
			BSPort: math.NaN(), BSStbd: math.NaN(), AnglePort: math.NaN(), AngleStbd: math.NaN(),
			Placeholder: true},
	}
	require.NoError(t, d.RecordDetections(id, records))

	batches, err := d.Batches(10)
	require.NoError(t, err)
	require.Len(t, batches, 1)
	assert.Equal(t, 2, batches[0].Detections)
}

func TestTrendBinsRoundTrip(t *testing.T) {
	d := openTestDB(t)

	id, err := d.RecordBatch(swath.BatchResult{Converted: 1})
	require.NoError(t, err)

	bins := []swath.TrendBin{
		{CenterDepth: 50, MeanAbsWidth: 120, Count: 40},
		{CenterDepth: 150, MeanAbsWidth: 200, Count: 25},
	}
	require.NoError(t, d.RecordTrendBins(id, bins))

	got, err := d.TrendBins(id)
	require.NoError(t, err)
	assert.Equal(t, bins, got)

	// Other batches stay isolated.
	other, err := d.TrendBins("no-such-batch")
	require.NoError(t, err)
	assert.Empty(t, other)
}

func TestRateSamplesRoundTrip(t *testing.T) {
	d := openTestDB(t)

	id, err := d.RecordBatch(swath.BatchResult{Converted: 1})
	require.NoError(t, err)

	samples := []swath.DataRateSample{
		{Timestamp: 100, RateMBph: 0.36, TotalMBph: 0.54, IntervalS: 10, Role: swath.RoleFirst},
		{Timestamp: 100.5, RateMBph: math.NaN(), TotalMBph: math.NaN(), IntervalS: math.NaN(), Role: swath.RoleSecond},
	}
	require.NoError(t, d.RecordRateSamples(id, samples))

	got, err := d.RateSamples(id)
	require.NoError(t, err)
	require.Len(t, got, 2)

	assert.Equal(t, samples[0], got[0])
	assert.Equal(t, swath.RoleSecond, got[1].Role)
	assert.True(t, math.IsNaN(got[1].RateMBph), "NULL rate should come back as NaN")
	assert.True(t, math.IsNaN(got[1].IntervalS), "NULL interval should come back as NaN")
}

func TestMigrateUpAndDown(t *testing.T) {
	dir := t.TempDir()
	d, err := NewDB(filepath.Join(dir, "migrate.db"))
	require.NoError(t, err)
	defer d.Close()

	migrationsDir := filepath.Join("..", "..", "db", "migrations")

	require.NoError(t, d.MigrateUp(migrationsDir))
	// Idempotent: a second up is a no-change.
	require.NoError(t, d.MigrateUp(migrationsDir))

	version, dirty, err := d.MigrateVersion(migrationsDir)
	require.NoError(t, err)
	assert.Equal(t, uint(1), version)
	assert.False(t, dirty)

	require.NoError(t, d.MigrateDown(migrationsDir))
}
