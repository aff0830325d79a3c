package pipeline

import (
	"context"
	"fmt"
	"log/slog"
)

// TableStore persists the consolidated table.
type TableStore interface {
	// ReplaceTable atomically replaces the committed table with t.
	ReplaceTable(ctx context.Context, t *Table) error
	// ReadTable returns the committed table.
	ReadTable(ctx context.Context) (*Table, error)
}

// Stats summarizes one pipeline run.
type Stats struct {
	Sources        int
	SkippedSources int
	Rows           int
	Classified     int // rows with a non-empty level
}

// Build runs the four stages in memory and returns the transformed table.
// Nothing is persisted.
func Build(ctx context.Context, fetcher SourceFetcher, sources []Source) (*Table, Stats, error) {
	t := NewTable()
	included, err := Aggregate(ctx, fetcher, sources, t)
	if err != nil {
		return nil, Stats{}, err
	}

	grades, err := NormalizeGrades(t)
	if err != nil {
		return nil, Stats{}, err
	}
	if err := CondenseSubjects(t, grades); err != nil {
		return nil, Stats{}, err
	}
	levels, err := ClassifyLevels(t)
	if err != nil {
		return nil, Stats{}, err
	}

	stats := Stats{Sources: len(sources), Rows: t.Len()}
	stats.SkippedSources = len(sources) - included
	for _, l := range levels {
		if l != "" {
			stats.Classified++
		}
	}
	return t, stats, nil
}

// Run builds the consolidated table and commits it to store. The store is
// only written after every stage has succeeded.
func Run(ctx context.Context, fetcher SourceFetcher, store TableStore, sources []Source) (Stats, error) {
	t, stats, err := Build(ctx, fetcher, sources)
	if err != nil {
		return Stats{}, err
	}

	if err := store.ReplaceTable(ctx, t); err != nil {
		return Stats{}, fmt.Errorf("commit consolidated table: %w", err)
	}

	slog.Info("pipeline complete",
		"sources", stats.Sources,
		"skipped_sources", stats.SkippedSources,
		"rows", stats.Rows,
		"classified", stats.Classified,
	)
	return stats, nil
}
