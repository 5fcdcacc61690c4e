// Package stats persists per-wave render statistics in SQLite.
package stats

import (
	"context"
	"database/sql"
	"fmt"
	"io"
	"time"

	"github.com/df07/go-wavefront-raytracer/pkg/renderer"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sugawarayuuta/sonnet"
)

const schema = `
CREATE TABLE IF NOT EXISTS waves (
	render_id   TEXT    NOT NULL,
	wave        INTEGER NOT NULL,
	sample      INTEGER NOT NULL,
	first_pixel INTEGER NOT NULL,
	num_pixels  INTEGER NOT NULL,
	iterations  INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	recorded_at TEXT    NOT NULL,
	PRIMARY KEY (render_id, wave)
);
CREATE TABLE IF NOT EXISTS stage_runs (
	render_id   TEXT    NOT NULL,
	wave        INTEGER NOT NULL,
	seq         INTEGER NOT NULL,
	iteration   INTEGER NOT NULL,
	kernel      TEXT    NOT NULL,
	queue_size  INTEGER NOT NULL,
	group_count INTEGER NOT NULL,
	threads     INTEGER NOT NULL,
	duration_ns INTEGER NOT NULL,
	PRIMARY KEY (render_id, wave, seq)
);`

// Store records waves into a SQLite database
type Store struct {
	db *sql.DB
}

// Wave is one stored wave
type Wave struct {
	Wave       int           `json:"wave"`
	Sample     int           `json:"sample"`
	FirstPixel int           `json:"first_pixel"`
	NumPixels  int           `json:"num_pixels"`
	Iterations int           `json:"iterations"`
	Duration   time.Duration `json:"duration_ns"`
}

// StageSummary aggregates every dispatch of one kernel in a render
type StageSummary struct {
	Kernel     string        `json:"kernel"`
	Runs       int           `json:"runs"`
	QueueTotal int           `json:"queue_total"` // Requested threads over all runs
	Threads    int           `json:"threads"`     // Dispatched threads over all runs
	Duration   time.Duration `json:"duration_ns"`
}

// Report is the exported statistics of one render
type Report struct {
	RenderID string         `json:"render_id"`
	Waves    []Wave         `json:"waves"`
	Stages   []StageSummary `json:"stages"`
}

// Open opens or creates the database at path
func Open(path string) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open stats database: %w", err)
	}
	// A single connection keeps in-memory databases shared between queries
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create stats tables: %w", err)
	}
	return &Store{db: db}, nil
}

// Close closes the database
func (s *Store) Close() error {
	return s.db.Close()
}

// RecordWave stores a wave and its stage runs in one transaction
func (s *Store) RecordWave(ctx context.Context, wave renderer.WaveStats) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO waves (render_id, wave, sample, first_pixel, num_pixels, iterations, duration_ns, recorded_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		wave.RenderID, wave.Wave, wave.Sample, wave.FirstPixel, wave.NumPixels, wave.Iterations,
		wave.Duration.Nanoseconds(), time.Now().UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("failed to insert wave %d: %w", wave.Wave, err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO stage_runs (render_id, wave, seq, iteration, kernel, queue_size, group_count, threads, duration_ns)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	for seq, run := range wave.Stages {
		_, err := stmt.ExecContext(ctx, wave.RenderID, wave.Wave, seq, run.Iteration, run.Kernel,
			run.QueueSize, run.Groups, run.Threads, run.Duration.Nanoseconds())
		if err != nil {
			return fmt.Errorf("failed to insert stage run %d of wave %d: %w", seq, wave.Wave, err)
		}
	}

	return tx.Commit()
}

// Waves returns the waves of a render in execution order
func (s *Store) Waves(ctx context.Context, renderID string) ([]Wave, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT wave, sample, first_pixel, num_pixels, iterations, duration_ns
		 FROM waves WHERE render_id = ? ORDER BY wave`, renderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var waves []Wave
	for rows.Next() {
		var w Wave
		var ns int64
		if err := rows.Scan(&w.Wave, &w.Sample, &w.FirstPixel, &w.NumPixels, &w.Iterations, &ns); err != nil {
			return nil, err
		}
		w.Duration = time.Duration(ns)
		waves = append(waves, w)
	}
	return waves, rows.Err()
}

// StageRuns returns one summary per kernel of a render, sorted by kernel name
func (s *Store) StageRuns(ctx context.Context, renderID string) ([]StageSummary, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT kernel, COUNT(*), SUM(queue_size), SUM(threads), SUM(duration_ns)
		 FROM stage_runs WHERE render_id = ? GROUP BY kernel ORDER BY kernel`, renderID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stages []StageSummary
	for rows.Next() {
		var st StageSummary
		var ns int64
		if err := rows.Scan(&st.Kernel, &st.Runs, &st.QueueTotal, &st.Threads, &ns); err != nil {
			return nil, err
		}
		st.Duration = time.Duration(ns)
		stages = append(stages, st)
	}
	return stages, rows.Err()
}

// ExportJSON writes the report of a render to w
func (s *Store) ExportJSON(ctx context.Context, w io.Writer, renderID string) error {
	waves, err := s.Waves(ctx, renderID)
	if err != nil {
		return fmt.Errorf("failed to read waves: %w", err)
	}
	stages, err := s.StageRuns(ctx, renderID)
	if err != nil {
		return fmt.Errorf("failed to read stage runs: %w", err)
	}

	data, err := sonnet.Marshal(Report{RenderID: renderID, Waves: waves, Stages: stages})
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}
