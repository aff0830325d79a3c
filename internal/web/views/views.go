// Package views renders the HTML status page.
//
// Components live in status.templ; run `templ generate` after editing it.
package views

import (
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
)

// Run is one refresh as shown on the page.
type Run struct {
	ID         string
	Status     string
	StartedAt  time.Time
	UpdateTime string // preformatted in the configured time zone
	Duration   time.Duration
	Rows       int
	Succeeded  bool
	ErrorCode  string
	Message    string
}

// ProgramCount is the number of consolidated rows from one program.
type ProgramCount struct {
	Program string
	Rows    int
}

// StatusData is everything the status page shows.
type StatusData struct {
	Now      time.Time
	Sources  int
	Rows     int
	Programs []ProgramCount
	Runs     []Run // newest first
}

func statusClass(succeeded bool) string {
	if succeeded {
		return "ok"
	}
	return "failed"
}

func comma(n int) string {
	return humanize.Comma(int64(n))
}

func ago(then, now time.Time) string {
	return humanize.RelTime(then, now, "ago", "from now")
}

func millis(d time.Duration) string {
	return strconv.FormatInt(d.Milliseconds(), 10)
}

func runError(r Run) string {
	if r.ErrorCode == "" {
		return ""
	}
	return r.Message + " (" + r.ErrorCode + ")"
}
