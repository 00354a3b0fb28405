package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/runger/rfmseg/internal/persona"
	"github.com/runger/rfmseg/internal/pipeline"
)

// ErrRunNotFound is returned when no matching analysis run exists.
var ErrRunNotFound = errors.New("analysis run not found")

// NewRunID returns a fresh identifier for an analysis run.
func NewRunID() string {
	return uuid.New().String()
}

// SaveRun persists a run record together with its full segment table in one
// transaction. Either everything lands or nothing does; a partially stored
// run is never observable.
func (s *SQLiteStore) SaveRun(ctx context.Context, run *Run, rows []pipeline.Row) error {
	if run == nil {
		return errors.New("run cannot be nil")
	}
	if run.RunID == "" {
		return errors.New("run_id is required")
	}
	if len(rows) == 0 {
		return errors.New("refusing to save a run without segments")
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin save: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO analysis_runs (
			run_id, started_at_unix_ms, finished_at_unix_ms, status_filter,
			k, restarts, seed, customers, wss, converged
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		run.RunID,
		run.StartedAtUnixMs,
		run.FinishedAtUnixMs,
		run.StatusFilter,
		run.K,
		run.Restarts,
		run.Seed,
		run.Customers,
		run.WSS,
		boolToInt(run.Converged),
	)
	if err != nil {
		return fmt.Errorf("failed to insert run: %w", err)
	}

	for _, r := range rows {
		_, err := tx.ExecContext(ctx, `
			INSERT INTO segments (run_id, customer_id, recency, frequency, monetary, cluster, persona)
			VALUES (?, ?, ?, ?, ?, ?, ?)
		`, run.RunID, r.CustomerID, r.Recency, r.Frequency, r.Monetary, r.Cluster, string(r.Persona))
		if err != nil {
			return fmt.Errorf("failed to insert segment for %s: %w", r.CustomerID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit run: %w", err)
	}
	return nil
}

// GetRun retrieves one run by id.
func (s *SQLiteStore) GetRun(ctx context.Context, runID string) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at_unix_ms, finished_at_unix_ms, status_filter,
		       k, restarts, seed, customers, wss, converged
		FROM analysis_runs WHERE run_id = ?
	`, runID)
	return scanRun(row)
}

// LatestRun retrieves the most recently finished run.
// Returns ErrRunNotFound when the store has no runs yet.
func (s *SQLiteStore) LatestRun(ctx context.Context) (*Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, started_at_unix_ms, finished_at_unix_ms, status_filter,
		       k, restarts, seed, customers, wss, converged
		FROM analysis_runs
		ORDER BY finished_at_unix_ms DESC, run_id DESC
		LIMIT 1
	`)
	return scanRun(row)
}

func scanRun(row *sql.Row) (*Run, error) {
	var run Run
	var converged int
	err := row.Scan(
		&run.RunID,
		&run.StartedAtUnixMs,
		&run.FinishedAtUnixMs,
		&run.StatusFilter,
		&run.K,
		&run.Restarts,
		&run.Seed,
		&run.Customers,
		&run.WSS,
		&converged,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrRunNotFound
		}
		return nil, fmt.Errorf("failed to get run: %w", err)
	}
	run.Converged = converged != 0
	return &run, nil
}

// QuerySegments returns a run's full output table, ordered by monetary
// value descending like the pipeline emits it.
func (s *SQLiteStore) QuerySegments(ctx context.Context, runID string) ([]pipeline.Row, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT customer_id, recency, frequency, monetary, cluster, persona
		FROM segments
		WHERE run_id = ?
		ORDER BY monetary DESC, customer_id ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query segments: %w", err)
	}
	defer rows.Close()

	var out []pipeline.Row
	for rows.Next() {
		var r pipeline.Row
		var p string
		if err := rows.Scan(&r.CustomerID, &r.Recency, &r.Frequency, &r.Monetary, &r.Cluster, &p); err != nil {
			return nil, fmt.Errorf("failed to scan segment: %w", err)
		}
		r.Persona = persona.Persona(p)
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read segments: %w", err)
	}
	return out, nil
}

// ClusterSummaries aggregates a run's segments into one row per cluster.
func (s *SQLiteStore) ClusterSummaries(ctx context.Context, runID string) ([]persona.ClusterSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT cluster,
		       COUNT(*) AS size,
		       AVG(recency) AS mean_recency,
		       AVG(frequency) AS mean_frequency,
		       AVG(monetary) AS mean_monetary,
		       MAX(persona) AS persona
		FROM segments
		WHERE run_id = ?
		GROUP BY cluster
		ORDER BY cluster ASC
	`, runID)
	if err != nil {
		return nil, fmt.Errorf("failed to query cluster summaries: %w", err)
	}
	defer rows.Close()

	var out []persona.ClusterSummary
	for rows.Next() {
		var s persona.ClusterSummary
		var p string
		if err := rows.Scan(&s.Cluster, &s.Size, &s.MeanRecency, &s.MeanFrequency, &s.MeanMonetary, &p); err != nil {
			return nil, fmt.Errorf("failed to scan cluster summary: %w", err)
		}
		s.Persona = persona.Persona(p)
		out = append(out, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to read cluster summaries: %w", err)
	}
	return out, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
