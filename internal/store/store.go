// Package store archives pipeline runs to sqlite: the cleaned rows, the
// per-run fill counts, and the seasonal summaries, so successive runs over
// revised inputs can be compared.
package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/kavery/weatherpipe/internal/models"
	"github.com/kavery/weatherpipe/internal/stats"
)

type Store struct {
	db *sql.DB
}

func New(db *sql.DB) *Store {
	return &Store{db: db}
}

// Run is one archived pipeline execution.
type Run struct {
	ID         int64
	StartedAt  time.Time
	SourcePath string
	RowCount   int
	Load       models.LoadStats
	Fill       models.FillReport
}

// InsertRun records a completed run and returns its id.
func (s *Store) InsertRun(r Run) (int64, error) {
	res, err := s.db.Exec(`
		INSERT INTO runs (started_at, source_path, row_count, rows_dropped, temperature_filled, rainfall_filled, humidity_filled)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.StartedAt, r.SourcePath, r.RowCount, r.Load.RowsDropped, r.Fill.TemperatureFilled, r.Fill.RainfallFilled, r.Fill.HumidityFilled)
	if err != nil {
		return 0, fmt.Errorf("insert run: %w", err)
	}
	return res.LastInsertId()
}

// InsertRecords archives the cleaned table for a run.
func (s *Store) InsertRecords(runID int64, table models.Table) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO records (run_id, date, temperature, rainfall, humidity)
		VALUES (?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare insert records: %w", err)
	}
	defer stmt.Close()

	for _, rec := range table {
		if _, err := stmt.Exec(runID, rec.Date.Format("2006-01-02"), rec.Temperature.Float64, rec.Rainfall.Float64, rec.Humidity.Float64); err != nil {
			return fmt.Errorf("insert record %s: %w", rec.Date.Format("2006-01-02"), err)
		}
	}
	return tx.Commit()
}

// InsertSeasonalSummaries archives one column's seasonal buckets for a run.
func (s *Store) InsertSeasonalSummaries(runID int64, col stats.Column, buckets []stats.Bucket) error {
	for _, b := range buckets {
		_, err := s.db.Exec(`
			INSERT INTO seasonal_summaries (run_id, season, column_name, mean, stddev, min, max, sum, count)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
			ON CONFLICT(run_id, season, column_name) DO UPDATE SET
				mean = excluded.mean,
				stddev = excluded.stddev,
				min = excluded.min,
				max = excluded.max,
				sum = excluded.sum,
				count = excluded.count
		`, runID, string(b.Season), string(col), b.Summary.Mean, b.Summary.StdDev, b.Summary.Min, b.Summary.Max, b.Summary.Sum, b.Summary.Count)
		if err != nil {
			return fmt.Errorf("insert seasonal summary %s/%s: %w", b.Season, col, err)
		}
	}
	return nil
}

// GetRecords returns the archived cleaned rows for a run in date order.
func (s *Store) GetRecords(runID int64) (models.Table, error) {
	rows, err := s.db.Query(`
		SELECT date, temperature, rainfall, humidity
		FROM records
		WHERE run_id = ?
		ORDER BY id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("query records: %w", err)
	}
	defer rows.Close()

	var table models.Table
	for rows.Next() {
		var (
			dateStr string
			rec     models.Record
		)
		if err := rows.Scan(&dateStr, &rec.Temperature.Float64, &rec.Rainfall.Float64, &rec.Humidity.Float64); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.Date, err = time.Parse("2006-01-02", dateStr)
		if err != nil {
			return nil, fmt.Errorf("parse archived date %q: %w", dateStr, err)
		}
		rec.Temperature.Valid = true
		rec.Rainfall.Valid = true
		rec.Humidity.Valid = true
		table = append(table, rec)
	}
	return table, rows.Err()
}

// LatestRun returns the most recent archived run, or nil when the archive
// is empty.
func (s *Store) LatestRun() (*Run, error) {
	row := s.db.QueryRow(`
		SELECT id, started_at, source_path, row_count, rows_dropped, temperature_filled, rainfall_filled, humidity_filled
		FROM runs
		ORDER BY id DESC
		LIMIT 1
	`)

	var r Run
	err := row.Scan(&r.ID, &r.StartedAt, &r.SourcePath, &r.RowCount, &r.Load.RowsDropped, &r.Fill.TemperatureFilled, &r.Fill.RainfallFilled, &r.Fill.HumidityFilled)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("query latest run: %w", err)
	}
	return &r, nil
}
