package pipeline

import (
	"errors"
	"fmt"
)

var (
	// ErrSourceUnavailable means a cataloged source could not be read.
	ErrSourceUnavailable = errors.New("source unavailable")

	// ErrSourceNotFound is returned by fetchers for an unregistered source.
	ErrSourceNotFound = errors.New("source not found")

	// ErrMalformedRow means a data row is narrower than the tracker layout.
	ErrMalformedRow = errors.New("malformed row")
)

// SourceError reports a source that could not be read.
type SourceError struct {
	SourceID string
	Program  string
	Err      error
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("%s: %s (%s): %v", ErrSourceUnavailable, e.Program, e.SourceID, e.Err)
}

// Unwrap exposes both the sentinel and the underlying cause to errors.Is.
func (e *SourceError) Unwrap() []error {
	return []error{ErrSourceUnavailable, e.Err}
}

// RowError reports a row that does not fit the tracker layout.
type RowError struct {
	Program string
	Line    int // 1-based data row within the source
	Width   int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("%s: %s row %d has %d cells, want %d", ErrMalformedRow, e.Program, e.Line, e.Width, SourceWidth)
}

func (e *RowError) Unwrap() error {
	return ErrMalformedRow
}
