package storage

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// pool is the part of *pgxpool.Pool the store uses.
type pool interface {
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	Close()
}

// PostgresStore records runs in the readalloc_runs table.
type PostgresStore struct {
	pool pool
}

// NewPostgresStore connects to databaseURL and creates the table if needed.
func NewPostgresStore(ctx context.Context, databaseURL string) (*PostgresStore, error) {
	p, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := p.Ping(ctx); err != nil {
		p.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	s := &PostgresStore{pool: p}
	if err := s.EnsureSchema(ctx); err != nil {
		p.Close()
		return nil, err
	}
	return s, nil
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

const schema = `
CREATE TABLE IF NOT EXISTS readalloc_runs (
	run_id       UUID PRIMARY KEY,
	created_at   TIMESTAMPTZ NOT NULL,
	kind         TEXT NOT NULL,
	sharpe       BOOLEAN NOT NULL,
	total_budget DOUBLE PRECISION NOT NULL,
	proportion   DOUBLE PRECISION NOT NULL,
	fiction      DOUBLE PRECISION NOT NULL,
	help         DOUBLE PRECISION NOT NULL,
	reading      DOUBLE PRECISION NOT NULL,
	success      BOOLEAN NOT NULL,
	iterations   INTEGER NOT NULL,
	evaluations  INTEGER NOT NULL,
	message      TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS readalloc_runs_created_at_idx ON readalloc_runs (created_at DESC);`

// EnsureSchema creates the runs table and its index.
func (s *PostgresStore) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

const runColumns = `run_id, created_at, kind, sharpe, total_budget, proportion,
	fiction, help, reading, success, iterations, evaluations, message`

func (s *PostgresStore) SaveRun(ctx context.Context, run *Run) error {
	_, err := s.pool.Exec(ctx, `
		INSERT INTO readalloc_runs (`+runColumns+`)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)`,
		run.ID, run.CreatedAt, run.Kind, run.Sharpe, run.TotalBudget, run.Proportion,
		run.Fiction, run.Help, run.Reading, run.Success, run.Iterations, run.Evaluations, run.Message,
	)
	if err != nil {
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	query := `SELECT ` + runColumns + ` FROM readalloc_runs ORDER BY created_at DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT $1`
		args = append(args, limit)
	}

	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	runs := []*Run{}
	for rows.Next() {
		r := &Run{}
		if err := rows.Scan(
			&r.ID, &r.CreatedAt, &r.Kind, &r.Sharpe, &r.TotalBudget, &r.Proportion,
			&r.Fiction, &r.Help, &r.Reading, &r.Success, &r.Iterations, &r.Evaluations, &r.Message,
		); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	return runs, nil
}
