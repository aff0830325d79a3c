package pipeline

import (
	"context"
	"log/slog"
)

// Source identifies one program's error tracker.
type Source struct {
	ID      string `yaml:"id" json:"id"`
	Program string `yaml:"program" json:"program"`
}

// SourceFetcher reads the data rows (no header) of one source.
// It returns an empty slice, not an error, when the source has no data.
type SourceFetcher interface {
	FetchSourceRows(ctx context.Context, sourceID string) ([]Row, error)
}

// effectiveRows returns the leading rows whose key column is non-empty.
func effectiveRows(rows []Row) []Row {
	n := 0
	for n < len(rows) && len(rows[n]) > 0 && rows[n][0] != "" {
		n++
	}
	return rows[:n]
}

// Aggregate clears dst and fills it with every effective row of every
// source, in catalog order, each prefixed with its program label.
// Sources with no effective rows are skipped. It returns the number of
// sources that contributed rows.
func Aggregate(ctx context.Context, fetcher SourceFetcher, sources []Source, dst *Table) (int, error) {
	dst.Clear()

	included := 0
	for _, src := range sources {
		if err := ctx.Err(); err != nil {
			return included, err
		}
		logger := slog.Default().With("source", src.ID, "program", src.Program)

		rows, err := fetcher.FetchSourceRows(ctx, src.ID)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return included, ctxErr
			}
			return included, &SourceError{SourceID: src.ID, Program: src.Program, Err: err}
		}

		rows = effectiveRows(rows)
		if len(rows) == 0 {
			logger.Debug("source has no data rows, skipping")
			continue
		}

		tagged := make([]Row, len(rows))
		for i, row := range rows {
			if len(row) < SourceWidth {
				return included, &RowError{Program: src.Program, Line: i + 1, Width: len(row)}
			}
			out := make(Row, 0, TableWidth)
			out = append(out, src.Program)
			out = append(out, row[:SourceWidth]...)
			tagged[i] = out
		}

		dst.Append(tagged...)
		included++
		logger.Debug("source aggregated", "rows", len(tagged))
	}

	return included, nil
}
