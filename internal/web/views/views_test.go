package views

import (
	"bytes"
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestStatusPage(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data := StatusData{
		Now:     now,
		Sources: 11,
		Rows:    12345,
		Programs: []ProgramCount{
			{Program: "BayelsaPRIME", Rows: 12000},
			{Program: "<script>", Rows: 345},
		},
		Runs: []Run{
			{Status: "Last Failed Updated", StartedAt: now.Add(-2 * time.Hour), UpdateTime: "Sun, March 1, 2026, 08:00:00 AM UTC",
				ErrorCode: "SRC001", Message: "A program's error tracker could not be read."},
			{Status: "Last Update", StartedAt: now.Add(-4 * time.Hour), Succeeded: true, Rows: 12345},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, StatusPage(data).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, "12,345 rows from 2 of 11 programs")
	assert.Contains(t, html, `<p class="failed"><strong>Last Failed Updated:</strong> Sun, March 1, 2026, 08:00:00 AM UTC (2 hours ago)</p>`)
	assert.Contains(t, html, "(SRC001)")
	assert.Contains(t, html, "&lt;script&gt;")
	assert.NotContains(t, html, "<script>")
}

func TestStatusPage_NoRuns(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, StatusPage(StatusData{Sources: 11}).Render(context.Background(), &buf))
	assert.Contains(t, buf.String(), "No refresh has run yet.")
}

func TestErrorAlert(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, ErrorAlert("Refresh already running", "Wait & retry", "RUN001").Render(context.Background(), &buf))

	html := buf.String()
	assert.Contains(t, html, "Refresh already running")
	assert.Contains(t, html, "Wait &amp; retry")
	assert.Contains(t, html, "Code: RUN001")
}

func TestStatusPage_RunRows(t *testing.T) {
	now := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	data := StatusData{
		Now:     now,
		Sources: 1,
		Runs: []Run{
			{Status: "Last Update", StartedAt: now, UpdateTime: "Sun, March 1, 2026, 10:00:00 AM UTC",
				Duration: 1250 * time.Millisecond, Rows: 1200, Succeeded: true},
			{Status: "Last Failed Updated", UpdateTime: "Sun, March 1, 2026, 08:00:00 AM UTC",
				ErrorCode: "ROW001", Message: "A tracker row is malformed & was rejected."},
		},
	}

	var buf bytes.Buffer
	require.NoError(t, StatusPage(data).Render(context.Background(), &buf))
	html := buf.String()

	assert.Contains(t, html, `<tr class="ok"><td>Last Update</td><td>Sun, March 1, 2026, 10:00:00 AM UTC</td><td>1250 ms</td><td>1,200</td><td></td></tr>`)
	assert.Contains(t, html, `<tr class="failed"><td>Last Failed Updated</td>`)
	assert.Contains(t, html, "A tracker row is malformed &amp; was rejected. (ROW001)")
	assert.Contains(t, html, `<form method="post" action="/api/refresh">`)
}
