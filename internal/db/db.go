// Package db persists analysis results to SQLite: one row per load batch
// plus the extracted detections, coverage trend bins and data-rate samples
// produced from it.
package db

import (
	"database/sql"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/hydroscan-data/coverage.report/internal/swath"
)

type DB struct {
	*sql.DB
}

func NewDB(path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	_, err = db.Exec(`
		CREATE TABLE IF NOT EXISTS batches (
			batch_id          TEXT PRIMARY KEY,
			converted         BIGINT,
			restored          BIGINT,
			failed            BIGINT,
			elapsed_ms        BIGINT,
			loaded_at         TIMESTAMP DEFAULT CURRENT_TIMESTAMP
		);
		CREATE TABLE IF NOT EXISTS detections (
			batch_id          TEXT,
			filename          TEXT,
			format            TEXT,
			timestamp         DOUBLE,
			y_port            DOUBLE,
			z_port            DOUBLE,
			bs_port           DOUBLE,
			angle_port        DOUBLE,
			y_stbd            DOUBLE,
			z_stbd            DOUBLE,
			bs_stbd           DOUBLE,
			angle_stbd        DOUBLE,
			ping_mode         TEXT,
			swath_mode        TEXT,
			frequency         DOUBLE,
			placeholder       INTEGER,
			archive           INTEGER,
			bytes_since_last  BIGINT,
			FOREIGN KEY(batch_id) REFERENCES batches(batch_id)
		);
		CREATE TABLE IF NOT EXISTS trend_bins (
			batch_id          TEXT,
			center_depth      DOUBLE,
			mean_abs_width    DOUBLE,
			sounding_count    BIGINT,
			FOREIGN KEY(batch_id) REFERENCES batches(batch_id)
		);
		CREATE TABLE IF NOT EXISTS rate_samples (
			batch_id          TEXT,
			timestamp         DOUBLE,
			rate_mbph         DOUBLE,
			total_mbph        DOUBLE,
			interval_s        DOUBLE,
			role              TEXT,
			FOREIGN KEY(batch_id) REFERENCES batches(batch_id)
		);
	`)
	if err != nil {
		return nil, err
	}

	return &DB{db}, nil
}

// RecordBatch stores a load tally and returns its generated batch id.
func (db *DB) RecordBatch(res swath.BatchResult) (string, error) {
	id := uuid.NewString()
	_, err := db.Exec(
		`INSERT INTO batches (batch_id, converted, restored, failed, elapsed_ms)
		 VALUES (?, ?, ?, ?, ?)`,
		id, res.Converted, res.Restored, res.Failed, res.Elapsed.Milliseconds(),
	)
	if err != nil {
		return "", err
	}
	return id, nil
}

// RecordDetections bulk-inserts a table snapshot under one batch id.
func (db *DB) RecordDetections(batchID string, records []swath.DetectionRecord) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	stmt, err := tx.Prepare(
		`INSERT INTO detections (
			batch_id, filename, format, timestamp,
			y_port, z_port, bs_port, angle_port,
			y_stbd, z_stbd, bs_stbd, angle_stbd,
			ping_mode, swath_mode, frequency, placeholder, archive, bytes_since_last
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		tx.Rollback()
		return err
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.Exec(
			batchID, r.Filename, r.Format.String(), r.Timestamp,
			nullable(r.YPort), nullable(r.ZPort), nullable(r.BSPort), nullable(r.AnglePort),
			nullable(r.YStbd), nullable(r.ZStbd), nullable(r.BSStbd), nullable(r.AngleStbd),
			r.PingMode, r.SwathMode, r.Frequency, r.Placeholder, r.Archive, r.BytesSinceLastPing,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecordTrendBins stores one batch's coverage trend.
func (db *DB) RecordTrendBins(batchID string, bins []swath.TrendBin) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	for _, b := range bins {
		_, err := tx.Exec(
			`INSERT INTO trend_bins (batch_id, center_depth, mean_abs_width, sounding_count)
			 VALUES (?, ?, ?, ?)`,
			batchID, b.CenterDepth, b.MeanAbsWidth, b.Count,
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// RecordRateSamples stores one batch's data-rate series.
func (db *DB) RecordRateSamples(batchID string, samples []swath.DataRateSample) error {
	tx, err := db.Begin()
	if err != nil {
		return err
	}
	for _, s := range samples {
		_, err := tx.Exec(
			`INSERT INTO rate_samples (batch_id, timestamp, rate_mbph, total_mbph, interval_s, role)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			batchID, s.Timestamp, nullable(s.RateMBph), nullable(s.TotalMBph),
			nullable(s.IntervalS), string(s.Role),
		)
		if err != nil {
			tx.Rollback()
			return err
		}
	}
	return tx.Commit()
}

// BatchSummary is the stored tally for one load batch.
type BatchSummary struct {
	BatchID    string    `json:"batch_id"`
	Converted  int       `json:"converted"`
	Restored   int       `json:"restored"`
	Failed     int       `json:"failed"`
	ElapsedMs  int64     `json:"elapsed_ms"`
	LoadedAt   time.Time `json:"loaded_at"`
	Detections int       `json:"detections"`
}

// Batches returns recent load batches with their detection counts, newest
// first.
func (db *DB) Batches(limit int) ([]BatchSummary, error) {
	rows, err := db.Query(
		`SELECT b.batch_id, b.converted, b.restored, b.failed, b.elapsed_ms, b.loaded_at,
		        (SELECT COUNT(*) FROM detections d WHERE d.batch_id = b.batch_id)
		 FROM batches b ORDER BY b.loaded_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var batches []BatchSummary
	for rows.Next() {
		var b BatchSummary
		if err := rows.Scan(&b.BatchID, &b.Converted, &b.Restored, &b.Failed,
			&b.ElapsedMs, &b.LoadedAt, &b.Detections); err != nil {
			return nil, err
		}
		batches = append(batches, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return batches, nil
}

// TrendBins returns the stored trend for one batch, shallowest bin first.
func (db *DB) TrendBins(batchID string) ([]swath.TrendBin, error) {
	rows, err := db.Query(
		`SELECT center_depth, mean_abs_width, sounding_count
		 FROM trend_bins WHERE batch_id = ? ORDER BY center_depth`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bins []swath.TrendBin
	for rows.Next() {
		var b swath.TrendBin
		if err := rows.Scan(&b.CenterDepth, &b.MeanAbsWidth, &b.Count); err != nil {
			return nil, err
		}
		bins = append(bins, b)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return bins, nil
}

// RateSamples returns the stored data-rate series for one batch in time
// order. NULL columns come back as NaN, matching the in-memory convention.
func (db *DB) RateSamples(batchID string) ([]swath.DataRateSample, error) {
	rows, err := db.Query(
		`SELECT timestamp, rate_mbph, total_mbph, interval_s, role
		 FROM rate_samples WHERE batch_id = ? ORDER BY timestamp`, batchID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var samples []swath.DataRateSample
	for rows.Next() {
		var s swath.DataRateSample
		var rate, total, interval sql.NullFloat64
		var role string
		if err := rows.Scan(&s.Timestamp, &rate, &total, &interval, &role); err != nil {
			return nil, err
		}
		s.RateMBph = fromNullable(rate)
		s.TotalMBph = fromNullable(total)
		s.IntervalS = fromNullable(interval)
		s.Role = swath.CycleRole(role)
		samples = append(samples, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return samples, nil
}

// nullable maps NaN to SQL NULL; SQLite has no NaN representation.
func nullable(v float64) sql.NullFloat64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: v, Valid: true}
}

func fromNullable(v sql.NullFloat64) float64 {
	if !v.Valid {
		return math.NaN()
	}
	return v.Float64
}
