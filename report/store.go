package report

import (
	"context"
	"database/sql"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/kbukum/getfnative/errors"
)

const schema = `
CREATE TABLE IF NOT EXISTS runs (
	run_id       TEXT PRIMARY KEY,
	created_at   TIMESTAMP NOT NULL,
	input        TEXT NOT NULL,
	frame        INTEGER NOT NULL,
	kernel       TEXT NOT NULL,
	mode         TEXT NOT NULL,
	base_width   INTEGER NOT NULL,
	base_height  INTEGER NOT NULL,
	total        INTEGER NOT NULL,
	completed    INTEGER NOT NULL,
	duration_ms  BIGINT NOT NULL,
	best_height  DOUBLE,
	best_error   DOUBLE,
	failure      TEXT
);
CREATE TABLE IF NOT EXISTS samples (
	run_id       TEXT NOT NULL,
	idx          INTEGER NOT NULL,
	src_height   DOUBLE NOT NULL,
	error        DOUBLE NOT NULL,
	PRIMARY KEY (run_id, idx),
	FOREIGN KEY (run_id) REFERENCES runs(run_id) ON DELETE CASCADE
);
CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);
`

// Run is one stored sweep.
type Run struct {
	ID         uuid.UUID
	CreatedAt  time.Time
	Input      string
	Frame      int
	Kernel     string
	Mode       string
	BaseWidth  int
	BaseHeight int
	Total      int
	Completed  int
	Duration   time.Duration
	// Best is nil when no candidate completed.
	Best *Point
	// Failure is the terminal error message of a partial run.
	Failure string
}

// Store keeps sweep history in SQLite.
type Store struct {
	db *sql.DB
}

// OpenStore opens or creates the database at path.
func OpenStore(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.StorageFailed(err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, errors.StorageFailed(err)
	}
	// One connection keeps the pragmas below in effect for every statement.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON; PRAGMA busy_timeout = 5000;`); err != nil {
		_ = db.Close()
		return nil, errors.StorageFailed(err)
	}
	if _, err := db.Exec(schema); err != nil {
		_ = db.Close()
		return nil, errors.StorageFailed(err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error {
	return s.db.Close()
}

// Save stores a run and its curve in one transaction.
func (s *Store) Save(ctx context.Context, run Run, curve Curve) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return errors.StorageFailed(err)
	}
	defer func() { _ = tx.Rollback() }()

	var bestHeight, bestError sql.NullFloat64
	if run.Best != nil {
		bestHeight = sql.NullFloat64{Float64: run.Best.Height, Valid: true}
		bestError = sql.NullFloat64{Float64: run.Best.Value, Valid: true}
	}
	var failure sql.NullString
	if run.Failure != "" {
		failure = sql.NullString{String: run.Failure, Valid: true}
	}

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (run_id, created_at, input, frame, kernel, mode, base_width, base_height,
			total, completed, duration_ms, best_height, best_error, failure)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID.String(), run.CreatedAt.UTC(), run.Input, run.Frame, run.Kernel, run.Mode,
		run.BaseWidth, run.BaseHeight, run.Total, run.Completed, run.Duration.Milliseconds(),
		bestHeight, bestError, failure,
	)
	if err != nil {
		return errors.StorageFailed(err)
	}

	stmt, err := tx.PrepareContext(ctx, `INSERT INTO samples (run_id, idx, src_height, error) VALUES (?, ?, ?, ?)`)
	if err != nil {
		return errors.StorageFailed(err)
	}
	defer stmt.Close()
	for i := 0; i < curve.Len(); i++ {
		if _, err := stmt.ExecContext(ctx, run.ID.String(), i, curve.Heights[i], curve.Values[i]); err != nil {
			return errors.StorageFailed(err)
		}
	}

	if err := tx.Commit(); err != nil {
		return errors.StorageFailed(err)
	}
	return nil
}

// Runs lists the most recent runs, newest first.
func (s *Store) Runs(ctx context.Context, limit int) ([]Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, created_at, input, frame, kernel, mode, base_width, base_height,
			total, completed, duration_ms, best_height, best_error, failure
		FROM runs ORDER BY created_at DESC LIMIT ?`, limit)
	if err != nil {
		return nil, errors.StorageFailed(err)
	}
	defer rows.Close()

	var out []Run
	for rows.Next() {
		var (
			r                     Run
			id                    string
			durationMs            int64
			bestHeight, bestError sql.NullFloat64
			failure               sql.NullString
		)
		if err := rows.Scan(&id, &r.CreatedAt, &r.Input, &r.Frame, &r.Kernel, &r.Mode,
			&r.BaseWidth, &r.BaseHeight, &r.Total, &r.Completed, &durationMs,
			&bestHeight, &bestError, &failure); err != nil {
			return nil, errors.StorageFailed(err)
		}
		if r.ID, err = uuid.Parse(id); err != nil {
			return nil, errors.StorageFailed(err)
		}
		r.Duration = time.Duration(durationMs) * time.Millisecond
		if bestHeight.Valid && bestError.Valid {
			r.Best = &Point{Height: bestHeight.Float64, Value: bestError.Float64}
		}
		r.Failure = failure.String
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.StorageFailed(err)
	}
	return out, nil
}

// Curve loads the stored samples of a run.
func (s *Store) Curve(ctx context.Context, id uuid.UUID) (Curve, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT src_height, error FROM samples WHERE run_id = ? ORDER BY idx`, id.String())
	if err != nil {
		return Curve{}, errors.StorageFailed(err)
	}
	defer rows.Close()

	var c Curve
	for rows.Next() {
		var h, v float64
		if err := rows.Scan(&h, &v); err != nil {
			return Curve{}, errors.StorageFailed(err)
		}
		c.Heights = append(c.Heights, h)
		c.Values = append(c.Values, v)
	}
	if err := rows.Err(); err != nil {
		return Curve{}, errors.StorageFailed(err)
	}
	return c, nil
}
