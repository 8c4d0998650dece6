package ingest

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository persists import runs.
type Repository interface {
	// CreateRun stores a new run and returns its generated id.
	CreateRun(ctx context.Context, run *Run) (string, error)
	UpdateRun(ctx context.Context, run *Run) error
	GetRun(ctx context.Context, id string) (Run, error)
}

// PostgresRepo stores runs in the import_runs table.
type PostgresRepo struct {
	db      *pgxpool.Pool
	timeout time.Duration
}

func NewPostgresRepo(db *pgxpool.Pool, timeout time.Duration) *PostgresRepo {
	return &PostgresRepo{db: db, timeout: timeout}
}

const runColumns = `id::text, author, started_at, finished_at, status, fetched, created, updated, skipped, error`

func (r *PostgresRepo) CreateRun(ctx context.Context, run *Run) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	id := uuid.NewString()
	_, err := r.db.Exec(ctx,
		`INSERT INTO import_runs (id, author, status, started_at) VALUES ($1, $2, $3, $4)`,
		id, run.Author, run.Status, run.StartedAt,
	)
	if err != nil {
		return "", fmt.Errorf("insert import run: %w", err)
	}
	return id, nil
}

func (r *PostgresRepo) UpdateRun(ctx context.Context, run *Run) error {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	tag, err := r.db.Exec(ctx, `
		UPDATE import_runs
		SET finished_at = $2, status = $3, fetched = $4, created = $5, updated = $6, skipped = $7, error = $8
		WHERE id = $1`,
		run.ID, run.FinishedAt, run.Status, run.Fetched, run.Created, run.Updated, run.Skipped, run.Error,
	)
	if err != nil {
		return fmt.Errorf("update import run %s: %w", run.ID, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrRunNotFound
	}
	return nil
}

func (r *PostgresRepo) GetRun(ctx context.Context, id string) (Run, error) {
	if _, err := uuid.Parse(id); err != nil {
		return Run{}, ErrRunNotFound
	}

	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var run Run
	err := r.db.QueryRow(ctx, `SELECT `+runColumns+` FROM import_runs WHERE id = $1`, id).Scan(
		&run.ID, &run.Author, &run.StartedAt, &run.FinishedAt, &run.Status,
		&run.Fetched, &run.Created, &run.Updated, &run.Skipped, &run.Error,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return Run{}, ErrRunNotFound
	}
	return run, err
}
