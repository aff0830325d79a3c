package pipeline

import "fmt"

// Column layout of a consolidated row. Source rows are the tracker columns
// A..Q; the aggregate prepends the program label, shifting them right by one.
const (
	SourceWidth = 17
	TableWidth  = SourceWidth + 1

	ColProgram    = 0
	ColGrade      = 6
	ColSubject    = 7
	ColLessonCode = 8
	ColLevel      = 17
)

// Row is one record, addressed by column position.
type Row []string

// Table is the consolidated dataset. All rows have TableWidth cells.
type Table struct {
	Rows []Row
}

// NewTable returns an empty table.
func NewTable() *Table {
	return &Table{}
}

// Len returns the number of rows.
func (t *Table) Len() int {
	return len(t.Rows)
}

// Append adds rows to the end of the table.
func (t *Table) Append(rows ...Row) {
	t.Rows = append(t.Rows, rows...)
}

// Column returns a copy of one column, one value per row.
func (t *Table) Column(col int) []string {
	out := make([]string, len(t.Rows))
	for i, row := range t.Rows {
		if col < len(row) {
			out[i] = row[col]
		}
	}
	return out
}

// SetColumn overwrites one column positionally without touching the others.
// values must have exactly one entry per row.
func (t *Table) SetColumn(col int, values []string) error {
	if len(values) != len(t.Rows) {
		return fmt.Errorf("set column %d: got %d values for %d rows", col, len(values), len(t.Rows))
	}
	if col < 0 || col >= TableWidth {
		return fmt.Errorf("set column %d: out of range", col)
	}
	for i, v := range values {
		t.Rows[i][col] = v
	}
	return nil
}

// Clear blanks every cell and drops all rows. Rows previously returned by
// the table observe the blanking.
func (t *Table) Clear() {
	for _, row := range t.Rows {
		for c := range row {
			row[c] = ""
		}
	}
	t.Rows = nil
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	out := &Table{Rows: make([]Row, len(t.Rows))}
	for i, row := range t.Rows {
		out.Rows[i] = append(Row(nil), row...)
	}
	return out
}
