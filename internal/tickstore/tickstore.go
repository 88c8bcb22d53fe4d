package tickstore

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"time"

	_ "modernc.org/sqlite"

	"radfield/server/internal/radiation"
)

// Row is one persisted pass summary.
type Row struct {
	Tick          uint64  `json:"tick"`
	At            string  `json:"at"`
	ElapsedUs     int64   `json:"elapsedUs"`
	Sources       int     `json:"sources"`
	Receivers     int     `json:"receivers"`
	RaysTraced    int     `json:"raysTraced"`
	RaysReached   int     `json:"raysReached"`
	TotalExposure float64 `json:"totalExposure"`
}

// Store persists per-tick pass summaries to sqlite for offline inspection.
// Telemetry only: no world state, no receiver exposure per entity.
type Store struct {
	db *sql.DB
}

const schema = `
CREATE TABLE IF NOT EXISTS passes (
	tick INTEGER PRIMARY KEY,
	at TEXT NOT NULL,
	elapsed_us INTEGER NOT NULL,
	sources INTEGER NOT NULL,
	receivers INTEGER NOT NULL,
	rays_traced INTEGER NOT NULL,
	rays_reached INTEGER NOT NULL,
	total_exposure REAL NOT NULL
);`

// Open creates the database file and schema as needed.
func Open(path string) (*Store, error) {
	if path == "" {
		return nil, fmt.Errorf("tickstore: empty db path")
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("tickstore: create schema: %w", err)
	}
	return &Store{db: db}, nil
}

// RecordPass upserts the summary for a tick.
func (s *Store) RecordPass(report radiation.Report, at time.Time) error {
	if s == nil || s.db == nil {
		return nil
	}
	total := 0.0
	for _, exposure := range report.Exposure {
		total += exposure
	}
	_, err := s.db.Exec(
		`INSERT OR REPLACE INTO passes
		 (tick, at, elapsed_us, sources, receivers, rays_traced, rays_reached, total_exposure)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		report.Tick,
		at.UTC().Format(time.RFC3339Nano),
		report.Elapsed.Microseconds(),
		report.SourceCount,
		report.ReceiverCount,
		report.RaysTraced,
		report.RaysReached,
		total,
	)
	return err
}

// RecentPasses returns up to limit summaries, newest first.
func (s *Store) RecentPasses(limit int) ([]Row, error) {
	if s == nil || s.db == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.Query(
		`SELECT tick, at, elapsed_us, sources, receivers, rays_traced, rays_reached, total_exposure
		 FROM passes ORDER BY tick DESC LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []Row
	for rows.Next() {
		var r Row
		if err := rows.Scan(&r.Tick, &r.At, &r.ElapsedUs, &r.Sources, &r.Receivers, &r.RaysTraced, &r.RaysReached, &r.TotalExposure); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

// Close releases the database handle.
func (s *Store) Close() error {
	if s == nil || s.db == nil {
		return nil
	}
	return s.db.Close()
}
