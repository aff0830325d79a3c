package refresh

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/JonMunkholm/aet/internal/pipeline"
	"github.com/JonMunkholm/aet/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// ============================================================================
// Test doubles
// ============================================================================

type stubFetcher struct {
	rows    map[string][]pipeline.Row
	err     error
	started chan struct{}
	release chan struct{}
}

func (f *stubFetcher) FetchSourceRows(ctx context.Context, sourceID string) ([]pipeline.Row, error) {
	if f.started != nil {
		close(f.started)
		f.started = nil
		<-f.release
	}
	if f.err != nil {
		return nil, f.err
	}
	return f.rows[sourceID], nil
}

type memStore struct {
	mu         sync.Mutex
	table      *pipeline.Table
	runs       []store.RunRecord
	replaceErr error
}

func (m *memStore) ReplaceTable(_ context.Context, t *pipeline.Table) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.replaceErr != nil {
		return m.replaceErr
	}
	m.table = t.Clone()
	return nil
}

func (m *memStore) ReadTable(context.Context) (*pipeline.Table, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.table == nil {
		return pipeline.NewTable(), nil
	}
	return m.table.Clone(), nil
}

func (m *memStore) RecordRun(_ context.Context, rec store.RunRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, rec)
	return nil
}

type message struct{ subject, body string }

type recordingNotifier struct {
	mu   sync.Mutex
	sent []message
	err  error
}

func (n *recordingNotifier) Notify(_ context.Context, subject, body string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.sent = append(n.sent, message{subject, body})
	return n.err
}

func trackerRow(key, grade, subject, code string) pipeline.Row {
	row := make(pipeline.Row, pipeline.SourceWidth)
	row[0] = key
	row[pipeline.ColGrade-1] = grade
	row[pipeline.ColSubject-1] = subject
	row[pipeline.ColLessonCode-1] = code
	return row
}

var testSources = []pipeline.Source{
	{ID: "bay", Program: "BayelsaPRIME"},
	{ID: "edo", Program: "EdoBEST"},
}

// fixedClock returns start on the first call and start+step afterwards.
func fixedClock(start time.Time, step time.Duration) func() time.Time {
	calls := 0
	return func() time.Time {
		calls++
		if calls == 1 {
			return start
		}
		return start.Add(step)
	}
}

// ============================================================================
// Run
// ============================================================================

func TestRun_Success(t *testing.T) {
	fetcher := &stubFetcher{rows: map[string][]pipeline.Row{
		"bay": {trackerRow("e1", "Grade 5", "Science", "LCN2_C")},
		"edo": {trackerRow("e2", "Class 8", "Math", "LAL1")},
	}}
	st := &memStore{}
	n := &recordingNotifier{}

	svc := NewService(fetcher, st, testSources, n, Options{FrequencyHours: 2})
	start := time.Date(2026, 3, 1, 8, 0, 0, 0, time.UTC)
	svc.now = fixedClock(start, 1250*time.Millisecond)

	res, err := svc.Run(context.Background())
	require.NoError(t, err)

	assert.True(t, res.Succeeded())
	assert.NotEmpty(t, res.ID)
	assert.Equal(t, 2, res.Stats.Rows)
	assert.Equal(t, 1250*time.Millisecond, res.Duration)

	require.NotNil(t, st.table)
	assert.Equal(t, "Science (P4+)", st.table.Rows[0][pipeline.ColSubject])
	assert.Equal(t, "Maths", st.table.Rows[1][pipeline.ColSubject])

	require.Len(t, st.runs, 1)
	assert.Equal(t, store.StatusSucceeded, st.runs[0].Status)
	assert.Equal(t, res.ID, st.runs[0].ID)
	assert.Equal(t, 2, st.runs[0].Rows)
	assert.Empty(t, st.runs[0].ErrorCode)

	require.Len(t, n.sent, 1)
	assert.Equal(t, SubjectSucceeded, n.sent[0].subject)
	assert.Equal(t,
		"Successful Update of Global Academic Error Dashboard.\n\nUpdate Time: Sun, March 1, 2026, 08:00:00 AM UTC\n\nExecution Time: 1250 milliseconds",
		n.sent[0].body)
}

func TestRun_FailureKeepsPreviousTable(t *testing.T) {
	previous := &pipeline.Table{Rows: []pipeline.Row{make(pipeline.Row, pipeline.TableWidth)}}
	previous.Rows[0][pipeline.ColProgram] = "EdoBEST"

	st := &memStore{table: previous}
	n := &recordingNotifier{}
	fetcher := &stubFetcher{err: errors.New("quota exceeded")}

	svc := NewService(fetcher, st, testSources, n, Options{FrequencyHours: 2})

	res, err := svc.Run(context.Background())
	require.Error(t, err)
	assert.True(t, errors.Is(err, pipeline.ErrSourceUnavailable))
	assert.False(t, res.Succeeded())
	assert.Equal(t, store.StatusFailed, res.Status)

	got, _ := st.ReadTable(context.Background())
	assert.Equal(t, "EdoBEST", got.Rows[0][pipeline.ColProgram])

	require.Len(t, st.runs, 1)
	assert.Equal(t, store.StatusFailed, st.runs[0].Status)
	assert.Equal(t, "SRC001", st.runs[0].ErrorCode)
	assert.Contains(t, st.runs[0].ErrorMessage, "quota exceeded")

	require.Len(t, n.sent, 1)
	assert.Equal(t, SubjectFailed, n.sent[0].subject)
	assert.Contains(t, n.sent[0].body, "Unsuccessful Update of Global Academic Error Dashboard.")
	assert.Contains(t, n.sent[0].body, "quota exceeded")
	assert.Contains(t, n.sent[0].body, "Will try again in 2 Hour(s).")
}

func TestRun_NotifyErrorDoesNotFailRun(t *testing.T) {
	st := &memStore{}
	n := &recordingNotifier{err: errors.New("relay down")}
	svc := NewService(&stubFetcher{}, st, testSources, n, Options{})

	res, err := svc.Run(context.Background())
	require.NoError(t, err)
	assert.True(t, res.Succeeded())
	assert.Len(t, st.runs, 1)
}

func TestRun_RejectsConcurrentRefresh(t *testing.T) {
	fetcher := &stubFetcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
	}
	started := fetcher.started
	svc := NewService(fetcher, &memStore{}, testSources, &recordingNotifier{}, Options{})

	done := make(chan error, 1)
	go func() {
		_, err := svc.Run(context.Background())
		done <- err
	}()

	<-started
	_, err := svc.Run(context.Background())
	assert.ErrorIs(t, err, ErrRunInProgress)
	assert.Equal(t, "RUN001", pipeline.MapError(err).Code)

	close(fetcher.release)
	require.NoError(t, <-done)

	// The lock is released once the first run finishes.
	_, err = svc.Run(context.Background())
	assert.NoError(t, err)
}

func TestRun_CommitFailureIsRecorded(t *testing.T) {
	st := &memStore{replaceErr: errors.New("write tcp: connection reset by peer")}
	svc := NewService(&stubFetcher{}, st, testSources, &recordingNotifier{}, Options{})

	_, err := svc.Run(context.Background())
	require.Error(t, err)
	require.Len(t, st.runs, 1)
	assert.Equal(t, "DB005", st.runs[0].ErrorCode)
}

func TestSources_ReturnsCopy(t *testing.T) {
	svc := NewService(&stubFetcher{}, &memStore{}, testSources, nil, Options{})

	got := svc.Sources()
	got[0].Program = "changed"
	assert.Equal(t, "BayelsaPRIME", svc.Sources()[0].Program)
}

// ============================================================================
// Scheduler
// ============================================================================

func TestStartScheduler_RunsImmediatelyAndStops(t *testing.T) {
	st := &memStore{}
	svc := NewService(&stubFetcher{}, st, testSources, &recordingNotifier{}, Options{})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		svc.StartScheduler(ctx, time.Hour, true)
		close(done)
	}()

	require.Eventually(t, func() bool {
		st.mu.Lock()
		defer st.mu.Unlock()
		return len(st.runs) == 1
	}, time.Second, 10*time.Millisecond)

	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("scheduler did not stop")
	}
}
