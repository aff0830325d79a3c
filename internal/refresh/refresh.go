// Package refresh runs the consolidation pipeline as a recorded, notified
// update of the dashboard.
//
// A refresh builds the consolidated table, commits it, appends a run record
// ("Last Update" or "Last Failed Updated") and sends a success or failure
// message. Only one refresh runs at a time.
package refresh

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/JonMunkholm/aet/internal/logging"
	"github.com/JonMunkholm/aet/internal/notify"
	"github.com/JonMunkholm/aet/internal/pipeline"
	"github.com/JonMunkholm/aet/internal/store"
	"github.com/google/uuid"
)

// ErrRunInProgress is returned when a refresh is requested while another
// one is still running.
var ErrRunInProgress = errors.New("refresh already running")

// Notification subjects.
const (
	SubjectSucceeded = "Successful AET Update"
	SubjectFailed    = "Unsuccessful AET Update"
)

// UpdateTimeLayout formats the update time in notifications and on the
// status page, e.g. "Sun, March 1, 2026, 08:00:00 AM UTC".
const UpdateTimeLayout = "Mon, January 2, 2006, 03:04:05 PM MST"

// Store is the persistence a refresh needs.
type Store interface {
	pipeline.TableStore
	RecordRun(ctx context.Context, rec store.RunRecord) error
}

// RunResult describes one refresh attempt.
type RunResult struct {
	ID        string
	Status    string
	StartedAt time.Time
	Duration  time.Duration
	Stats     pipeline.Stats
	Err       error
}

// Succeeded reports whether the consolidated table was committed.
func (r RunResult) Succeeded() bool {
	return r.Status == store.StatusSucceeded
}

// Options tunes a Service.
type Options struct {
	// FrequencyHours is quoted in failure messages as the retry delay.
	FrequencyHours int
	// Location is used to format update times. Defaults to UTC.
	Location *time.Location
	// ScheduledTimeout bounds each scheduled refresh; zero means no limit.
	ScheduledTimeout time.Duration
}

// Service runs refreshes. The zero value is not usable; use NewService.
type Service struct {
	fetcher  pipeline.SourceFetcher
	store    Store
	notifier notify.Notifier
	sources  []pipeline.Source
	opts     Options

	mu  sync.Mutex
	now func() time.Time
}

// NewService wires a refresh service. A nil notifier falls back to logging.
func NewService(fetcher pipeline.SourceFetcher, st Store, sources []pipeline.Source, n notify.Notifier, opts Options) *Service {
	if n == nil {
		n = notify.LogNotifier{}
	}
	if opts.Location == nil {
		opts.Location = time.UTC
	}
	return &Service{
		fetcher:  fetcher,
		store:    st,
		notifier: n,
		sources:  sources,
		opts:     opts,
		now:      time.Now,
	}
}

// Sources returns the catalog this service consolidates.
func (s *Service) Sources() []pipeline.Source {
	return append([]pipeline.Source(nil), s.sources...)
}

// Run performs one refresh. The returned error is the pipeline failure, if
// any; failures to record or notify are logged but do not fail the run.
func (s *Service) Run(ctx context.Context) (RunResult, error) {
	if !s.mu.TryLock() {
		return RunResult{}, ErrRunInProgress
	}
	defer s.mu.Unlock()

	res := RunResult{ID: uuid.NewString(), StartedAt: s.now()}
	logger := logging.WithFields(ctx, "run_id", res.ID)
	logger.Info("refresh started", "sources", len(s.sources))

	stats, err := pipeline.Run(ctx, s.fetcher, s.store, s.sources)
	res.Duration = s.now().Sub(res.StartedAt)
	res.Stats = stats
	res.Err = err

	rec := store.RunRecord{
		ID:        res.ID,
		StartedAt: res.StartedAt,
		Duration:  res.Duration,
		Rows:      stats.Rows,
	}
	var subject, body string
	if err != nil {
		res.Status = store.StatusFailed
		rec.ErrorCode = pipeline.MapError(err).Code
		rec.ErrorMessage = err.Error()
		subject, body = SubjectFailed, s.failureMessage(err)
		logger.Error("refresh failed", "error", err, "code", rec.ErrorCode, "duration_ms", res.Duration.Milliseconds())
	} else {
		res.Status = store.StatusSucceeded
		subject, body = SubjectSucceeded, s.successMessage(res)
		logger.Info("refresh complete", "rows", stats.Rows, "duration_ms", res.Duration.Milliseconds())
	}
	rec.Status = res.Status

	// The run is recorded even if ctx was cancelled mid-run.
	recordCtx := context.WithoutCancel(ctx)
	if rerr := s.store.RecordRun(recordCtx, rec); rerr != nil {
		logger.Error("failed to record refresh", "error", rerr)
	}
	if nerr := s.notifier.Notify(recordCtx, subject, body); nerr != nil {
		logger.Warn("failed to send notification", "error", nerr)
	}

	return res, err
}

func (s *Service) successMessage(res RunResult) string {
	return fmt.Sprintf("Successful Update of Global Academic Error Dashboard.\n\nUpdate Time: %s\n\nExecution Time: %d milliseconds",
		res.StartedAt.In(s.opts.Location).Format(UpdateTimeLayout),
		res.Duration.Milliseconds(),
	)
}

func (s *Service) failureMessage(err error) string {
	return fmt.Sprintf("Unsuccessful Update of Global Academic Error Dashboard.\n\nError Message: %v (Code: %s)\n\nWill try again in %d Hour(s).",
		err,
		pipeline.MapError(err).Code,
		s.opts.FrequencyHours,
	)
}
