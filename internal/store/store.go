// Package store persists tracker rows, the consolidated table and the
// refresh history.
//
// Two backends share one contract: Postgres (pgx, used in production) and
// SQLite (modernc.org/sqlite, used for local runs and tests). Both replace
// the consolidated table inside a single transaction.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/JonMunkholm/aet/internal/pipeline"
)

// Status labels recorded for each refresh, as shown on the status page.
const (
	StatusSucceeded = "Last Update"
	StatusFailed    = "Last Failed Updated"
)

// RunRecord is one refresh attempt.
type RunRecord struct {
	ID           string        `json:"id"`
	Status       string        `json:"status"`
	StartedAt    time.Time     `json:"startedAt"`
	Duration     time.Duration `json:"duration"`
	Rows         int           `json:"rows"`
	ErrorCode    string        `json:"errorCode,omitempty"`
	ErrorMessage string        `json:"errorMessage,omitempty"`
}

// Succeeded reports whether the run committed a table.
func (r RunRecord) Succeeded() bool {
	return r.Status == StatusSucceeded
}

// Store is implemented by every backend.
type Store interface {
	pipeline.SourceFetcher
	pipeline.TableStore

	// Migrate creates the schema if it does not exist.
	Migrate(ctx context.Context) error

	// PutSourceRows registers a source and replaces its tracker rows.
	PutSourceRows(ctx context.Context, sourceID string, rows []pipeline.Row) error

	// RecordRun appends a refresh attempt to the history.
	RecordRun(ctx context.Context, rec RunRecord) error

	// RecentRuns returns up to limit runs, newest first.
	RecentRuns(ctx context.Context, limit int) ([]RunRecord, error)

	Close() error
}

// Open returns the backend named by driver ("postgres" or "sqlite").
func Open(ctx context.Context, driver string, opts Options) (Store, error) {
	switch driver {
	case "postgres":
		return OpenPostgres(ctx, opts)
	case "sqlite":
		return OpenSQLite(opts.SQLitePath)
	default:
		return nil, fmt.Errorf("unknown store driver: %s", driver)
	}
}

// Options configures a backend.
type Options struct {
	URL             string
	MaxConns        int
	MinConns        int
	MaxConnLifetime time.Duration
	MaxConnIdleTime time.Duration
	SQLitePath      string
}

// errSourceNotFound wraps pipeline.ErrSourceNotFound with the source ID.
func errSourceNotFound(sourceID string) error {
	return fmt.Errorf("%w: %s", pipeline.ErrSourceNotFound, sourceID)
}
