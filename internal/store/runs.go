package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite"

	"github.com/jobtrail/jobtrail/internal/model"
)

// RunStore persists the per-run history (stage, counts, outcome) in a local
// sqlite database, using modernc.org/sqlite.
type RunStore struct {
	db *sql.DB
}

// NewRunStore opens (or creates) the run-history database at path and
// configures WAL mode.
func NewRunStore(path string) (*RunStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, eris.Wrap(err, "runs: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close()
			return nil, eris.Wrapf(err, "runs: exec %s", pragma)
		}
	}
	return &RunStore{db: db}, nil
}

const runsMigration = `
CREATE TABLE IF NOT EXISTS runs (
	id          TEXT PRIMARY KEY,
	stage       TEXT NOT NULL,
	status      TEXT NOT NULL DEFAULT 'running',
	counts      TEXT,
	error       TEXT,
	started_at  DATETIME NOT NULL,
	finished_at DATETIME
);

CREATE INDEX IF NOT EXISTS idx_runs_stage ON runs(stage);
CREATE INDEX IF NOT EXISTS idx_runs_started_at ON runs(started_at);
`

// Migrate creates the schema if it does not exist.
func (s *RunStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, runsMigration)
	return eris.Wrap(err, "runs: migrate")
}

// Close closes the underlying database.
func (s *RunStore) Close() error {
	return s.db.Close()
}

// CreateRun records the start of a stage invocation.
func (s *RunStore) CreateRun(ctx context.Context, stage string) (*model.Run, error) {
	run := &model.Run{
		ID:        uuid.New().String(),
		Stage:     stage,
		Status:    model.RunStatusRunning,
		StartedAt: time.Now().UTC(),
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, stage, status, started_at) VALUES (?, ?, ?, ?)`,
		run.ID, run.Stage, string(run.Status), run.StartedAt,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runs: insert run")
	}
	return run, nil
}

// CompleteRun records the outcome and counts of a run. A non-empty errMsg
// marks the run failed.
func (s *RunStore) CompleteRun(ctx context.Context, runID string, counts model.RunCounts, errMsg string) error {
	status := model.RunStatusComplete
	if errMsg != "" {
		status = model.RunStatusFailed
	}
	countsJSON, err := json.Marshal(counts)
	if err != nil {
		return eris.Wrap(err, "runs: marshal counts")
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, counts = ?, error = ?, finished_at = ? WHERE id = ?`,
		string(status), string(countsJSON), errMsg, time.Now().UTC(), runID,
	)
	if err != nil {
		return eris.Wrapf(err, "runs: complete run %s", runID)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "runs: rows affected")
	}
	if n == 0 {
		return eris.Errorf("runs: run %s not found", runID)
	}
	return nil
}

// ListRuns returns the most recent runs, newest first.
func (s *RunStore) ListRuns(ctx context.Context, limit int) ([]model.Run, error) {
	if limit <= 0 {
		limit = 20
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, stage, status, counts, error, started_at, finished_at
		 FROM runs ORDER BY started_at DESC LIMIT ?`, limit,
	)
	if err != nil {
		return nil, eris.Wrap(err, "runs: list")
	}
	defer rows.Close()

	var runs []model.Run
	for rows.Next() {
		var (
			run        model.Run
			status     string
			countsJSON sql.NullString
			errMsg     sql.NullString
			finishedAt sql.NullTime
		)
		if err := rows.Scan(&run.ID, &run.Stage, &status, &countsJSON, &errMsg, &run.StartedAt, &finishedAt); err != nil {
			return nil, eris.Wrap(err, "runs: scan")
		}
		run.Status = model.RunStatus(status)
		if countsJSON.Valid && countsJSON.String != "" {
			if err := json.Unmarshal([]byte(countsJSON.String), &run.Counts); err != nil {
				return nil, eris.Wrap(err, "runs: unmarshal counts")
			}
		}
		run.Error = errMsg.String
		if finishedAt.Valid {
			run.FinishedAt = finishedAt.Time
		}
		runs = append(runs, run)
	}
	return runs, eris.Wrap(rows.Err(), "runs: iterate")
}
