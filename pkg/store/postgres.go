package store

import (
	"context"
	stdsql "database/sql"
	"embed"
	"errors"
	"fmt"
	"time"

	"github.com/golang-migrate/migrate/v4"
	"github.com/golang-migrate/migrate/v4/database/postgres"
	"github.com/golang-migrate/migrate/v4/source/iofs"
	_ "github.com/jackc/pgx/v5/stdlib" // Register pgx driver for database/sql

	"github.com/codeready-toolchain/searchctl/pkg/scenario"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// Postgres is a Store backed by PostgreSQL.
type Postgres struct {
	db *stdsql.DB
}

// Open connects using cfg, applies pending migrations and returns the store.
func Open(ctx context.Context, cfg Config) (*Postgres, error) {
	db, err := stdsql.Open("pgx", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	p, err := NewPostgresFromDB(db, cfg.Database)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return p, nil
}

// NewPostgresFromDB wraps an open connection (useful for testing) and applies
// pending migrations to it.
func NewPostgresFromDB(db *stdsql.DB, database string) (*Postgres, error) {
	if err := runMigrations(db, database); err != nil {
		return nil, fmt.Errorf("failed to run migrations: %w", err)
	}
	return &Postgres{db: db}, nil
}

// runMigrations applies the embedded migrations with golang-migrate.
func runMigrations(db *stdsql.DB, database string) error {
	driver, err := postgres.WithInstance(db, &postgres.Config{})
	if err != nil {
		return fmt.Errorf("failed to create postgres driver: %w", err)
	}
	sourceDriver, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return fmt.Errorf("failed to create migration source: %w", err)
	}

	m, err := migrate.NewWithInstance("iofs", sourceDriver, database, driver)
	if err != nil {
		return fmt.Errorf("failed to create migrate instance: %w", err)
	}
	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return fmt.Errorf("failed to apply migrations: %w", err)
	}

	// m.Close would also close db through the database driver.
	if err := sourceDriver.Close(); err != nil {
		return fmt.Errorf("failed to close migration source: %w", err)
	}
	return nil
}

// DB returns the underlying connection for health checks.
func (p *Postgres) DB() *stdsql.DB {
	return p.db
}

// Close closes the connection pool.
func (p *Postgres) Close() error {
	return p.db.Close()
}

// SaveRun implements Store. Steps are upserted by index.
func (p *Postgres) SaveRun(ctx context.Context, run *scenario.Run) error {
	tx, err := p.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO runs (id, scenario, status, started_at, finished_at)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (id) DO UPDATE SET status = EXCLUDED.status, finished_at = EXCLUDED.finished_at`,
		run.ID, run.Scenario, string(run.Status), run.StartedAt, nullTime(run.FinishedAt))
	if err != nil {
		return fmt.Errorf("save run %s: %w", run.ID, err)
	}

	for _, s := range run.Steps {
		_, err = tx.ExecContext(ctx, `
			INSERT INTO run_steps (run_id, step_index, name, status, detail, error, started_at, finished_at)
			VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
			ON CONFLICT (run_id, step_index) DO UPDATE SET
				name = EXCLUDED.name, status = EXCLUDED.status, detail = EXCLUDED.detail,
				error = EXCLUDED.error, started_at = EXCLUDED.started_at, finished_at = EXCLUDED.finished_at`,
			run.ID, s.Index, s.Name, string(s.Status), s.Detail, s.Error, nullTime(s.StartedAt), nullTime(s.FinishedAt))
		if err != nil {
			return fmt.Errorf("save step %d of run %s: %w", s.Index, run.ID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run %s: %w", run.ID, err)
	}
	return nil
}

// GetRun implements Store.
func (p *Postgres) GetRun(ctx context.Context, id string) (*scenario.Run, error) {
	row := p.db.QueryRowContext(ctx,
		`SELECT id, scenario, status, started_at, finished_at FROM runs WHERE id::text = $1`, id)
	run, err := scanRun(row)
	if errors.Is(err, stdsql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRunNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("get run %s: %w", id, err)
	}

	rows, err := p.db.QueryContext(ctx, `
		SELECT step_index, name, status, detail, error, started_at, finished_at
		FROM run_steps WHERE run_id = $1 ORDER BY step_index`, run.ID)
	if err != nil {
		return nil, fmt.Errorf("get steps of run %s: %w", id, err)
	}
	defer rows.Close()

	run.Steps = []scenario.StepResult{}
	for rows.Next() {
		var (
			s                 scenario.StepResult
			status            string
			started, finished stdsql.NullTime
		)
		if err := rows.Scan(&s.Index, &s.Name, &status, &s.Detail, &s.Error, &started, &finished); err != nil {
			return nil, fmt.Errorf("scan step of run %s: %w", id, err)
		}
		s.Status = scenario.Status(status)
		s.StartedAt, s.FinishedAt = timeOf(started), timeOf(finished)
		run.Steps = append(run.Steps, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("read steps of run %s: %w", id, err)
	}
	return run, nil
}

// ListRuns implements Store.
func (p *Postgres) ListRuns(ctx context.Context, limit int) ([]*scenario.Run, error) {
	rows, err := p.db.QueryContext(ctx, `
		SELECT id, scenario, status, started_at, finished_at
		FROM runs ORDER BY started_at DESC LIMIT $1`, normalizeLimit(limit))
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var out []*scenario.Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		out = append(out, run)
	}
	return out, rows.Err()
}

// DeleteRunsBefore implements Pruner. Steps go with their run (ON DELETE CASCADE).
func (p *Postgres) DeleteRunsBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res, err := p.db.ExecContext(ctx,
		`DELETE FROM runs WHERE started_at < $1 AND status <> $2`, cutoff, string(scenario.StatusRunning))
	if err != nil {
		return 0, fmt.Errorf("delete runs: %w", err)
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(s scanner) (*scenario.Run, error) {
	var (
		run      scenario.Run
		status   string
		finished stdsql.NullTime
	)
	if err := s.Scan(&run.ID, &run.Scenario, &status, &run.StartedAt, &finished); err != nil {
		return nil, err
	}
	run.Status = scenario.Status(status)
	run.FinishedAt = timeOf(finished)
	return &run, nil
}

func nullTime(t time.Time) stdsql.NullTime {
	return stdsql.NullTime{Time: t, Valid: !t.IsZero()}
}

func timeOf(t stdsql.NullTime) time.Time {
	if !t.Valid {
		return time.Time{}
	}
	return t.Time
}
