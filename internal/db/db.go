// Package db records analysis history in sqlite: every line analysis served
// by the API and every calibration load, so past profiles can be revisited
// without re-decoding video.
package db

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"
)

type DB struct {
	*sql.DB
}

// NewDB opens (or creates) the sqlite database at path and brings the schema
// up to date.
func NewDB(path string) (*DB, error) {
	sqlDB, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	db := &DB{sqlDB}
	if err := db.migrateUp(); err != nil {
		sqlDB.Close()
		return nil, err
	}
	return db, nil
}

// Analysis is one recorded line analysis. Temperature columns are °C and nil
// when the profile had no valid samples.
type Analysis struct {
	ID          string    `json:"id"`
	VideoPath   string    `json:"video_path"`
	Frame       int       `json:"frame"`
	X1          int       `json:"x1"`
	Y1          int       `json:"y1"`
	X2          int       `json:"x2"`
	Y2          int       `json:"y2"`
	SampleCount int       `json:"sample_count"`
	ValidCount  int       `json:"valid_count"`
	MinC        *float64  `json:"min_c"`
	MaxC        *float64  `json:"max_c"`
	MeanC       *float64  `json:"mean_c"`
	P50C        *float64  `json:"p50_c"`
	P95C        *float64  `json:"p95_c"`
	CreatedAt   time.Time `json:"created_at"`
}

// Calibration is one recorded calibration load.
type Calibration struct {
	ID         string    `json:"id"`
	CSVPath    string    `json:"csv_path"`
	EntryCount int       `json:"entry_count"`
	CreatedAt  time.Time `json:"created_at"`
}

// RecordAnalysis inserts an analysis row, assigning its ID and timestamp.
func (db *DB) RecordAnalysis(a *Analysis) error {
	a.ID = uuid.NewString()
	a.CreatedAt = time.Now().UTC()

	_, err := db.Exec(`
		INSERT INTO analyses (
			id, video_path, frame, x1, y1, x2, y2,
			sample_count, valid_count, min_c, max_c, mean_c, p50_c, p95_c,
			created_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		a.ID, a.VideoPath, a.Frame, a.X1, a.Y1, a.X2, a.Y2,
		a.SampleCount, a.ValidCount, a.MinC, a.MaxC, a.MeanC, a.P50C, a.P95C,
		a.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("failed to record analysis: %w", err)
	}
	return nil
}

// ListAnalyses returns the most recent analyses, newest first.
func (db *DB) ListAnalyses(limit int) ([]Analysis, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := db.Query(`
		SELECT id, video_path, frame, x1, y1, x2, y2,
		       sample_count, valid_count, min_c, max_c, mean_c, p50_c, p95_c,
		       created_at
		FROM analyses
		ORDER BY created_at DESC, rowid DESC
		LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query analyses: %w", err)
	}
	defer rows.Close()

	var out []Analysis
	for rows.Next() {
		var a Analysis
		if err := rows.Scan(
			&a.ID, &a.VideoPath, &a.Frame, &a.X1, &a.Y1, &a.X2, &a.Y2,
			&a.SampleCount, &a.ValidCount, &a.MinC, &a.MaxC, &a.MeanC, &a.P50C, &a.P95C,
			&a.CreatedAt,
		); err != nil {
			return nil, fmt.Errorf("failed to scan analysis: %w", err)
		}
		out = append(out, a)
	}
	return out, rows.Err()
}

// RecordCalibration inserts a calibration-load row.
func (db *DB) RecordCalibration(csvPath string, entryCount int) error {
	_, err := db.Exec(`
		INSERT INTO calibrations (id, csv_path, entry_count, created_at)
		VALUES (?, ?, ?, ?)`,
		uuid.NewString(), csvPath, entryCount, time.Now().UTC(),
	)
	if err != nil {
		return fmt.Errorf("failed to record calibration: %w", err)
	}
	return nil
}

// LatestCalibration returns the most recently loaded calibration, or nil
// when none has been recorded.
func (db *DB) LatestCalibration() (*Calibration, error) {
	var c Calibration
	err := db.QueryRow(`
		SELECT id, csv_path, entry_count, created_at
		FROM calibrations
		ORDER BY created_at DESC, rowid DESC
		LIMIT 1`).Scan(&c.ID, &c.CSVPath, &c.EntryCount, &c.CreatedAt)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to query latest calibration: %w", err)
	}
	return &c, nil
}
