package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/banshee-data/racetime/internal/cache"
	"github.com/banshee-data/racetime/internal/dva"
)

// RunRecord is the stored summary of one run.
type RunRecord struct {
	RunID               string      `json:"run_id"`
	InputKey            string      `json:"input_key"`
	VehicleMass         float64     `json:"vehicle_mass"`
	FrictionCoefficient float64     `json:"friction_coefficient"`
	Summary             dva.Summary `json:"summary"`
	CreatedAt           time.Time   `json:"created_at"`
}

var _ cache.Store = (*DB)(nil)

// Put records res under key and returns its run id. Storing a key twice
// returns the id of the first run.
func (db *DB) Put(ctx context.Context, key cache.Key, p dva.Params, res *dva.Result) (string, error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return "", err
	}
	defer tx.Rollback()

	var existing string
	err = tx.QueryRowContext(ctx, `SELECT run_id FROM dva_runs WHERE input_key = ?`, key.String()).Scan(&existing)
	switch {
	case err == nil:
		return existing, nil
	case !errors.Is(err, sql.ErrNoRows):
		return "", fmt.Errorf("failed to look up run: %w", err)
	}

	runID := uuid.NewString()
	_, err = tx.ExecContext(ctx,
		`INSERT INTO dva_runs (
			run_id, input_key, vehicle_mass, friction_coefficient,
			top_speed_kmph, top_speed_mps, end_time, sample_count, created_unix_nanos
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		runID, key.String(), p.VehicleMass, p.FrictionCoefficient,
		res.Summary.TopSpeed, res.Summary.TopSpeedMPS, res.Summary.EndTime, res.Summary.Samples,
		db.clock.Now().UnixNano(),
	)
	if err != nil {
		return "", fmt.Errorf("failed to insert run: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx,
		`INSERT INTO dva_samples (run_id, seq, continuous_time, acceleration, speed, distance)
		 VALUES (?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()
	for i, s := range res.Samples {
		if _, err := stmt.ExecContext(ctx, runID, i, s.ContinuousTime, s.Acceleration, s.Speed, s.Distance); err != nil {
			return "", fmt.Errorf("failed to insert sample %d: %w", i, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return runID, nil
}

// Get returns the run stored under key, or cache.ErrNotFound.
func (db *DB) Get(ctx context.Context, key cache.Key) (string, *dva.Result, error) {
	rec, err := db.runWhere(ctx, "input_key = ?", key.String())
	if err != nil {
		return "", nil, err
	}
	samples, err := db.samples(ctx, rec.RunID)
	if err != nil {
		return "", nil, err
	}
	return rec.RunID, &dva.Result{Samples: samples, Summary: rec.Summary}, nil
}

// Run returns the stored summary and samples for runID.
func (db *DB) Run(ctx context.Context, runID string) (*RunRecord, []dva.DerivedSample, error) {
	rec, err := db.runWhere(ctx, "run_id = ?", runID)
	if err != nil {
		return nil, nil, err
	}
	samples, err := db.samples(ctx, runID)
	if err != nil {
		return nil, nil, err
	}
	return rec, samples, nil
}

// RecentRuns returns up to limit run summaries, newest first.
func (db *DB) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	if limit <= 0 {
		limit = 100
	}
	rows, err := db.QueryContext(ctx, `SELECT run_id, input_key, vehicle_mass, friction_coefficient,
			top_speed_kmph, top_speed_mps, end_time, sample_count, created_unix_nanos
		FROM dva_runs ORDER BY created_unix_nanos DESC, run_id LIMIT ?`, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []RunRecord
	for rows.Next() {
		rec, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		runs = append(runs, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return runs, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRun(row rowScanner) (*RunRecord, error) {
	var (
		rec     RunRecord
		created int64
	)
	if err := row.Scan(
		&rec.RunID,
		&rec.InputKey,
		&rec.VehicleMass,
		&rec.FrictionCoefficient,
		&rec.Summary.TopSpeed,
		&rec.Summary.TopSpeedMPS,
		&rec.Summary.EndTime,
		&rec.Summary.Samples,
		&created,
	); err != nil {
		return nil, err
	}
	rec.CreatedAt = time.Unix(0, created).UTC()
	return &rec, nil
}

func (db *DB) runWhere(ctx context.Context, where string, arg any) (*RunRecord, error) {
	row := db.QueryRowContext(ctx, `SELECT run_id, input_key, vehicle_mass, friction_coefficient,
			top_speed_kmph, top_speed_mps, end_time, sample_count, created_unix_nanos
		FROM dva_runs WHERE `+where, arg)
	rec, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, cache.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read run: %w", err)
	}
	return rec, nil
}

func (db *DB) samples(ctx context.Context, runID string) ([]dva.DerivedSample, error) {
	rows, err := db.QueryContext(ctx, `SELECT continuous_time, acceleration, speed, distance
		FROM dva_samples WHERE run_id = ? ORDER BY seq`, runID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	samples := []dva.DerivedSample{}
	for rows.Next() {
		var s dva.DerivedSample
		if err := rows.Scan(&s.ContinuousTime, &s.Acceleration, &s.Speed, &s.Distance); err != nil {
			return nil, err
		}
		samples = append(samples, s)
	}
	return samples, rows.Err()
}
