package store

import (
	"bufio"
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/JonMunkholm/aet/internal/pipeline"
)

// utf8BOM is prepended by spreadsheet exports on Windows.
var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// CSVSource reads each tracker from <Dir>/<sourceID>.csv.
// The first record of every file is the header and is dropped.
type CSVSource struct {
	Dir string
}

// FetchSourceRows implements pipeline.SourceFetcher. A missing file is
// reported as pipeline.ErrSourceNotFound.
func (c CSVSource) FetchSourceRows(ctx context.Context, sourceID string) ([]pipeline.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	f, err := os.Open(filepath.Join(c.Dir, sourceID+".csv"))
	if errors.Is(err, os.ErrNotExist) {
		return nil, errSourceNotFound(sourceID)
	}
	if err != nil {
		return nil, fmt.Errorf("open tracker: %w", err)
	}
	defer f.Close()

	return ReadTrackerCSV(f)
}

// ReadTrackerCSV parses a tracker export, skipping a leading BOM and the
// header record. Records may have differing widths; width is checked by the
// aggregator.
func ReadTrackerCSV(r io.Reader) ([]pipeline.Row, error) {
	br := bufio.NewReader(r)
	if head, err := br.Peek(len(utf8BOM)); err == nil && bytes.Equal(head, utf8BOM) {
		br.Discard(len(utf8BOM))
	}

	cr := csv.NewReader(br)
	cr.FieldsPerRecord = -1
	cr.LazyQuotes = true

	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("parse tracker csv: %w", err)
	}
	if len(records) <= 1 {
		return nil, nil
	}

	rows := make([]pipeline.Row, len(records)-1)
	for i, rec := range records[1:] {
		rows[i] = pipeline.Row(rec)
	}
	return rows, nil
}
