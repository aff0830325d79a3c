package web

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/JonMunkholm/aet/internal/logging"
	"github.com/JonMunkholm/aet/internal/pipeline"
	"github.com/JonMunkholm/aet/internal/refresh"
	"github.com/JonMunkholm/aet/internal/store"
	"github.com/JonMunkholm/aet/internal/web/views"
)

const (
	defaultRowLimit = 100
	maxRowLimit     = 1000
)

type runView struct {
	ID         string    `json:"id"`
	Status     string    `json:"status"`
	StartedAt  time.Time `json:"startedAt"`
	UpdateTime string    `json:"updateTime"`
	DurationMs int64     `json:"durationMs"`
	Rows       int       `json:"rows"`
	Succeeded  bool      `json:"succeeded"`
	ErrorCode  string    `json:"errorCode,omitempty"`
	Message    string    `json:"message,omitempty"`
	Action     string    `json:"action,omitempty"`
}

type programCount struct {
	Program string `json:"program"`
	Rows    int    `json:"rows"`
}

type statusResponse struct {
	Sources     int            `json:"sources"`
	Rows        int            `json:"rows"`
	Programs    []programCount `json:"programs"`
	LastRun     *runView       `json:"lastRun,omitempty"`
	LastSuccess *runView       `json:"lastSuccess,omitempty"`
	Runs        []runView      `json:"runs"`
}

type consolidatedRow struct {
	Program    string   `json:"program"`
	Grade      string   `json:"grade"`
	Subject    string   `json:"subject"`
	LessonCode string   `json:"lessonCode"`
	Level      string   `json:"level"`
	Cells      []string `json:"cells"`
}

type rowsResponse struct {
	Total  int               `json:"total"`
	Offset int               `json:"offset"`
	Limit  int               `json:"limit"`
	Rows   []consolidatedRow `json:"rows"`
}

type refreshResponse struct {
	ID         string `json:"id"`
	Status     string `json:"status"`
	DurationMs int64  `json:"durationMs"`
	Sources    int    `json:"sources"`
	Skipped    int    `json:"skippedSources"`
	Rows       int    `json:"rows"`
	Classified int    `json:"classified"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleStatus reports the committed table and recent refreshes.
func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	status, err := s.buildStatus(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, status)
}

func (s *Server) handleStatusPage(w http.ResponseWriter, r *http.Request) {
	status, err := s.buildStatus(r)
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	data := views.StatusData{
		Now:     s.now(),
		Sources: status.Sources,
		Rows:    status.Rows,
	}
	for _, p := range status.Programs {
		data.Programs = append(data.Programs, views.ProgramCount{Program: p.Program, Rows: p.Rows})
	}
	for _, run := range status.Runs {
		data.Runs = append(data.Runs, views.Run{
			ID:         run.ID,
			Status:     run.Status,
			StartedAt:  run.StartedAt,
			UpdateTime: run.UpdateTime,
			Duration:   time.Duration(run.DurationMs) * time.Millisecond,
			Rows:       run.Rows,
			Succeeded:  run.Succeeded,
			ErrorCode:  run.ErrorCode,
			Message:    run.Message,
		})
	}

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := views.StatusPage(data).Render(r.Context(), w); err != nil {
		logging.FromContext(r.Context()).Error("render status page", "error", err)
	}
}

func (s *Server) buildStatus(r *http.Request) (statusResponse, error) {
	ctx := r.Context()

	table, err := s.store.ReadTable(ctx)
	if err != nil {
		return statusResponse{}, err
	}
	runs, err := s.store.RecentRuns(ctx, s.opts.HistoryLimit)
	if err != nil {
		return statusResponse{}, err
	}

	resp := statusResponse{
		Sources:  len(s.refresher.Sources()),
		Rows:     table.Len(),
		Programs: countPrograms(table),
		Runs:     make([]runView, 0, len(runs)),
	}
	for _, rec := range runs {
		resp.Runs = append(resp.Runs, s.toRunView(rec))
	}
	if len(resp.Runs) > 0 {
		resp.LastRun = &resp.Runs[0]
	}
	for i := range resp.Runs {
		if resp.Runs[i].Succeeded {
			resp.LastSuccess = &resp.Runs[i]
			break
		}
	}
	return resp, nil
}

func (s *Server) toRunView(rec store.RunRecord) runView {
	msg := pipeline.MessageForCode(rec.ErrorCode)
	return runView{
		ID:         rec.ID,
		Status:     rec.Status,
		StartedAt:  rec.StartedAt,
		UpdateTime: rec.StartedAt.In(s.opts.Location).Format(refresh.UpdateTimeLayout),
		DurationMs: rec.Duration.Milliseconds(),
		Rows:       rec.Rows,
		Succeeded:  rec.Succeeded(),
		ErrorCode:  rec.ErrorCode,
		Message:    msg.Message,
		Action:     msg.Action,
	}
}

// countPrograms returns row counts per program in first-seen order.
func countPrograms(t *pipeline.Table) []programCount {
	var out []programCount
	index := make(map[string]int)
	for _, row := range t.Rows {
		program := row[pipeline.ColProgram]
		i, ok := index[program]
		if !ok {
			i = len(out)
			index[program] = i
			out = append(out, programCount{Program: program})
		}
		out[i].Rows++
	}
	return out
}

// handleRows pages through the committed table.
// Query: program (exact match), offset, limit (default 100, max 1000).
func (s *Server) handleRows(w http.ResponseWriter, r *http.Request) {
	table, err := s.store.ReadTable(r.Context())
	if err != nil {
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	program := strings.TrimSpace(r.URL.Query().Get("program"))
	offset := parseIntParam(r, "offset", 0)
	limit := parseIntParam(r, "limit", defaultRowLimit)
	if limit < 1 {
		limit = defaultRowLimit
	}
	limit = min(limit, maxRowLimit)

	var matched []pipeline.Row
	for _, row := range table.Rows {
		if program == "" || row[pipeline.ColProgram] == program {
			matched = append(matched, row)
		}
	}

	resp := rowsResponse{Total: len(matched), Offset: offset, Limit: limit, Rows: []consolidatedRow{}}
	if offset < len(matched) {
		end := min(offset+limit, len(matched))
		for _, row := range matched[offset:end] {
			resp.Rows = append(resp.Rows, consolidatedRow{
				Program:    row[pipeline.ColProgram],
				Grade:      row[pipeline.ColGrade],
				Subject:    row[pipeline.ColSubject],
				LessonCode: row[pipeline.ColLessonCode],
				Level:      row[pipeline.ColLevel],
				Cells:      row,
			})
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

// handleRefresh runs one refresh synchronously under its own deadline, since
// the route sits outside the read-only timeout group. Browser form posts are
// redirected back to the status page, where the outcome is shown.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), s.opts.RefreshTimeout)
	defer cancel()

	res, err := s.refresher.Run(ctx)
	if isFormPost(r) {
		http.Redirect(w, r, "/", http.StatusSeeOther)
		return
	}

	switch {
	case errors.Is(err, refresh.ErrRunInProgress):
		s.respondError(w, r, err, http.StatusConflict)
		return
	case err != nil:
		s.respondError(w, r, err, http.StatusInternalServerError)
		return
	}

	writeJSON(w, http.StatusOK, refreshResponse{
		ID:         res.ID,
		Status:     res.Status,
		DurationMs: res.Duration.Milliseconds(),
		Sources:    res.Stats.Sources,
		Skipped:    res.Stats.SkippedSources,
		Rows:       res.Stats.Rows,
		Classified: res.Stats.Classified,
	})
}

// parseIntParam parses a non-negative integer query parameter.
func parseIntParam(r *http.Request, name string, defaultVal int) int {
	val := r.URL.Query().Get(name)
	if val == "" {
		return defaultVal
	}
	i, err := strconv.Atoi(val)
	if err != nil || i < 0 {
		return defaultVal
	}
	return i
}

func isFormPost(r *http.Request) bool {
	ct := r.Header.Get("Content-Type")
	return strings.HasPrefix(ct, "application/x-www-form-urlencoded") || strings.HasPrefix(ct, "multipart/form-data")
}
