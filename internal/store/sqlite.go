package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/JonMunkholm/aet/internal/pipeline"
	_ "modernc.org/sqlite"
)

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS trackers (
	source_id TEXT PRIMARY KEY,
	updated_at TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS tracker_rows (
	source_id TEXT NOT NULL REFERENCES trackers(source_id) ON DELETE CASCADE,
	row_num INTEGER NOT NULL,
	cells TEXT NOT NULL,
	PRIMARY KEY (source_id, row_num)
);

CREATE TABLE IF NOT EXISTS consolidated_rows (
	row_num INTEGER PRIMARY KEY,
	program TEXT NOT NULL,
	grade TEXT NOT NULL,
	subject TEXT NOT NULL,
	lesson_code TEXT NOT NULL,
	level TEXT NOT NULL,
	cells TEXT NOT NULL
);

CREATE TABLE IF NOT EXISTS refresh_runs (
	id TEXT PRIMARY KEY,
	status TEXT NOT NULL,
	started_at INTEGER NOT NULL, -- unix nanoseconds
	duration_ms INTEGER NOT NULL,
	row_count INTEGER NOT NULL,
	error_code TEXT NOT NULL DEFAULT '',
	error_message TEXT NOT NULL DEFAULT ''
);
`

// SQLite is the embedded store. Cells are stored as JSON arrays.
type SQLite struct {
	db *sql.DB
}

// OpenSQLite opens (or creates) the database at path.
// Use ":memory:" for a throwaway database.
func OpenSQLite(path string) (*SQLite, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// An in-memory database exists per connection.
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`PRAGMA foreign_keys = ON`); err != nil {
		db.Close()
		return nil, fmt.Errorf("enable foreign keys: %w", err)
	}
	return &SQLite{db: db}, nil
}

func (s *SQLite) Migrate(ctx context.Context) error {
	if _, err := s.db.ExecContext(ctx, sqliteSchema); err != nil {
		return fmt.Errorf("migrate: %w", err)
	}
	return nil
}

func (s *SQLite) FetchSourceRows(ctx context.Context, sourceID string) ([]pipeline.Row, error) {
	var n int
	if err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM trackers WHERE source_id = ?`, sourceID).Scan(&n); err != nil {
		return nil, fmt.Errorf("lookup tracker: %w", err)
	}
	if n == 0 {
		return nil, errSourceNotFound(sourceID)
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT cells FROM tracker_rows WHERE source_id = ? ORDER BY row_num`, sourceID)
	if err != nil {
		return nil, fmt.Errorf("query tracker rows: %w", err)
	}
	return scanCells(rows)
}

func (s *SQLite) PutSourceRows(ctx context.Context, sourceID string, rows []pipeline.Row) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO trackers (source_id, updated_at) VALUES (?, ?)
			 ON CONFLICT (source_id) DO UPDATE SET updated_at = excluded.updated_at`,
			sourceID, time.Now().UTC().Format(time.RFC3339Nano)); err != nil {
			return fmt.Errorf("register tracker: %w", err)
		}
		if _, err := tx.ExecContext(ctx, `DELETE FROM tracker_rows WHERE source_id = ?`, sourceID); err != nil {
			return fmt.Errorf("clear tracker rows: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx, `INSERT INTO tracker_rows (source_id, row_num, cells) VALUES (?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, row := range rows {
			cells, err := json.Marshal([]string(row))
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, sourceID, i+1, string(cells)); err != nil {
				return fmt.Errorf("insert tracker row %d: %w", i+1, err)
			}
		}
		return nil
	})
}

// ReplaceTable swaps the consolidated table within one transaction.
func (s *SQLite) ReplaceTable(ctx context.Context, t *pipeline.Table) error {
	return s.inTx(ctx, func(tx *sql.Tx) error {
		if _, err := tx.ExecContext(ctx, `DELETE FROM consolidated_rows`); err != nil {
			return fmt.Errorf("clear consolidated rows: %w", err)
		}

		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO consolidated_rows (row_num, program, grade, subject, lesson_code, level, cells)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return err
		}
		defer stmt.Close()

		for i, row := range t.Rows {
			cells, err := json.Marshal([]string(row))
			if err != nil {
				return err
			}
			if _, err := stmt.ExecContext(ctx, i+1,
				row[pipeline.ColProgram],
				row[pipeline.ColGrade],
				row[pipeline.ColSubject],
				row[pipeline.ColLessonCode],
				row[pipeline.ColLevel],
				string(cells),
			); err != nil {
				return fmt.Errorf("insert consolidated row %d: %w", i+1, err)
			}
		}
		return nil
	})
}

func (s *SQLite) ReadTable(ctx context.Context) (*pipeline.Table, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT cells FROM consolidated_rows ORDER BY row_num`)
	if err != nil {
		return nil, fmt.Errorf("query consolidated rows: %w", err)
	}
	out, err := scanCells(rows)
	if err != nil {
		return nil, err
	}
	return &pipeline.Table{Rows: out}, nil
}

func (s *SQLite) RecordRun(ctx context.Context, rec RunRecord) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO refresh_runs (id, status, started_at, duration_ms, row_count, error_code, error_message)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.Status, rec.StartedAt.UnixNano(),
		rec.Duration.Milliseconds(), rec.Rows, rec.ErrorCode, rec.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("record run: %w", err)
	}
	return nil
}

func (s *SQLite) RecentRuns(ctx context.Context, limit int) ([]RunRecord, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, status, started_at, duration_ms, row_count, error_code, error_message
		 FROM refresh_runs ORDER BY started_at DESC, rowid DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query runs: %w", err)
	}
	defer rows.Close()

	var out []RunRecord
	for rows.Next() {
		var rec RunRecord
		var startedAt, durationMs int64
		if err := rows.Scan(&rec.ID, &rec.Status, &startedAt, &durationMs, &rec.Rows, &rec.ErrorCode, &rec.ErrorMessage); err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		rec.StartedAt = time.Unix(0, startedAt).UTC()
		rec.Duration = time.Duration(durationMs) * time.Millisecond
		out = append(out, rec)
	}
	return out, rows.Err()
}

func (s *SQLite) Close() error {
	return s.db.Close()
}

func (s *SQLite) inTx(ctx context.Context, fn func(*sql.Tx) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback() // No-op if already committed

	if err := fn(tx); err != nil {
		return err
	}
	return tx.Commit()
}

func scanCells(rows *sql.Rows) ([]pipeline.Row, error) {
	defer rows.Close()

	var out []pipeline.Row
	for rows.Next() {
		var raw string
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan cells: %w", err)
		}
		var cells []string
		if err := json.Unmarshal([]byte(raw), &cells); err != nil {
			return nil, fmt.Errorf("decode cells: %w", err)
		}
		out = append(out, pipeline.Row(cells))
	}
	return out, rows.Err()
}
