package store

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/aet/internal/pipeline"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const postgresSchema = `
CREATE TABLE IF NOT EXISTS trackers (
	source_id TEXT PRIMARY KEY,
	updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
);

CREATE TABLE IF NOT EXISTS tracker_rows (
	source_id TEXT NOT NULL REFERENCES trackers(source_id) ON DELETE CASCADE,
	row_num INTEGER NOT NULL,
	cells TEXT[] NOT NULL,
	PRIMARY KEY (source_id, row_num)
);

CREATE TABLE IF NOT EXISTS consolidated_rows (
	row_num INTEGER PRIMARY KEY,
	program TEXT NOT NULL,
	grade TEXT NOT NULL,
	subject TEXT NOT NULL,
	lesson_code TEXT NOT NULL,
	level TEXT NOT NULL,
	cells TEXT[] NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_runs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	started_at TIMESTAMPTZ NOT NULL,
	duration_ms BIGINT NOT NULL,
	row_count INTEGER NOT NULL,
	error_code TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT ''
);

CREATE INDEX IF NOT EXISTS refresh_runs_started_at_idx ON refresh_runs (started_at DESC);
`

// consolidatedColumns is the COPY column order used by ReplaceTable.
var consolidatedColumns = []string{"row_num", "program", "grade", "subject", "lesson_code", "level", "cells"}

// Postgres is the pgx-backed store.
type Postgres struct {
	pool *pgxpool.Pool
}

// OpenPostgres connects a pool sized from opts and verifies it with a ping.
func OpenPostgres(ctx context.Context, opts Options) (*Postgres, error) {
	poolConfig, err := pgxpool.ParseConfig(opts.URL)
	if err != nil {
		return nil, fmt.Errorf("parse database URL: %w", err)
	}

	if opts.MaxConns > 0 {
		poolConfig.MaxConns = int32(opts.MaxConns)
	}
	if opts.MinConns > 0 {
		poolConfig.MinConns = int32(opts.MinConns)
	}
	if opts.MaxConnLifetime > 0 {
		poolConfig.MaxConnLifetime = opts.MaxConnLifetime
	}
	if opts.MaxConnIdleTime > 0 {
		poolConfig.MaxConnIdleTime = opts.MaxConnIdleTime
	}

	pool, err := pgxpool.NewWithConfig(ctx, poolConfig)
	if err != nil {
		return nil, fmt.Errorf("connect to database: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// NewPostgres wraps an existing pool.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) Migrate(ctx context.Context) error {
	if _, err := p.pool.Exec(ctx, postgresSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (p *Postgres) FetchSourceRows(ctx context.Context, sourceID string) ([]pipeline.Row, error) {
	var exists bool
	err := p.pool.QueryRow(ctx,
		`SELECT EXISTS (SELECT 1 FROM trackers WHERE source_id = $1)`, sourceID,
	).Scan(&exists)
	if err != nil {
		return nil, fmt.Errorf("lookup tracker: %w", err)
	}
	if !exists {
		return nil, errSourceNotFound(sourceID)
	}

	rows, err := p.pool.Query(ctx,
		`SELECT cells FROM tracker_rows WHERE source_id = $1 ORDER BY row_num`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("query tracker rows: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (pipeline.Row, error) {
		var cells []string
		err := r.Scan(&cells)
		return pipeline.Row(cells), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan tracker rows: %w", err)
	}
	return out, nil
}

func (p *Postgres) PutSourceRows(ctx context.Context, sourceID string, rows []pipeline.Row) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx,
			`INSERT INTO trackers (source_id) VALUES ($1)
			 ON CONFLICT (source_id) DO UPDATE SET updated_at = now()`, sourceID); err != nil {
			return fmt.Errorf("register tracker: %w", err)
		}
		if _, err := tx.Exec(ctx, `DELETE FROM tracker_rows WHERE source_id = $1`, sourceID); err != nil {
			return fmt.Errorf("clear tracker rows: %w", err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"tracker_rows"},
			[]string{"source_id", "row_num", "cells"},
			pgx.CopyFromSlice(len(rows), func(i int) ([]any, error) {
				return []any{sourceID, i + 1, []string(rows[i])}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy tracker rows: %w", err)
		}
		return nil
	})
}

// ReplaceTable deletes the committed table and copies t in its place within
// one transaction.
func (p *Postgres) ReplaceTable(ctx context.Context, t *pipeline.Table) error {
	return pgx.BeginFunc(ctx, p.pool, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM consolidated_rows`); err != nil {
			return fmt.Errorf("clear consolidated rows: %w", err)
		}

		_, err := tx.CopyFrom(ctx,
			pgx.Identifier{"consolidated_rows"},
			consolidatedColumns,
			pgx.CopyFromSlice(t.Len(), func(i int) ([]any, error) {
				row := t.Rows[i]
				return []any{
					i + 1,
					row[pipeline.ColProgram],
					row[pipeline.ColGrade],
					row[pipeline.ColSubject],
					row[pipeline.ColLessonCode],
					row[pipeline.ColLevel],
					[]string(row),
				}, nil
			}),
		)
		if err != nil {
			return fmt.Errorf("copy consolidated rows: %w", err)
		}
		return nil
	})
}

func (p *Postgres) ReadTable(ctx context.Context) (*pipeline.Table, error) {
	rows, err := p.pool.Query(ctx, `SELECT cells FROM consolidated_rows ORDER BY row_num`)
	if err != nil {
		return nil, fmt.Errorf("query consolidated rows: %w", err)
	}

	out, err := pgx.CollectRows(rows, func(r pgx.CollectableRow) (pipeline.Row, error) {
		var cells []string
		err := r.Scan(&cells)
		return pipeline.Row(cells), err
	})
	if err != nil {
		return nil, fmt.Errorf("scan consolidated rows: %w", err)
	}
	return &pipeline.Table{Rows: out}, nil
}

func (p *Postgres) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := p.pool.Exec(ctx,
		`INSERT INTO refresh_runs (id, status, started_at, duration_ms, row_count, error_code, error_message)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		rec.ID, rec.Status, rec.StartedAt, rec.Duration.Milliseconds(), rec.Rows, rec.ErrorCode, rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (p *Postgres) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := p.pool.Query(ctx,
		`SELECT id, status, started_at, duration_ms, row_count, error_code, error_message
		 FROM refresh_runs ORDER BY started_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}

	return pgx.CollectRows(rows, func(r pgx.CollectableRow) (RunRecord, error) {
		var rec RunRecord
		var durationMs int64
		err := r.Scan(&rec.ID, &rec.Status, &rec.StartedAt, &durationMs, &rec.Rows, &rec.ErrorCode, &rec.ErrorMessage)
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		return rec, err
	})
}

func (p *Postgres) Close() error {
	p.pool.Close()
	return nil
}
