package application

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/JonMunkholm/aet/internal/config"
	"github.com/JonMunkholm/aet/internal/notify"
	"github.com/JonMunkholm/aet/internal/pipeline"
	"github.com/JonMunkholm/aet/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	dir := t.TempDir()
	return &config.Config{
		Database: config.DatabaseConfig{Driver: "sqlite", SQLitePath: filepath.Join(dir, "aet.db")},
		Sources:  config.SourcesConfig{Kind: "database"},
		Refresh:  config.RefreshConfig{FrequencyHours: 2, TimeZone: "UTC"},
	}
}

func csvLine(cells ...string) string {
	return strings.Join(cells, ",") + "\n"
}

func TestNew_DefaultCatalog(t *testing.T) {
	app, err := New(context.Background(), testConfig(t))
	require.NoError(t, err)
	defer app.Close()

	assert.Len(t, app.Sources, 11)
	assert.IsType(t, notify.LogNotifier{}, mustNotifier(t, config.NotifyConfig{}))
}

func TestNew_CSVSourcesEndToEnd(t *testing.T) {
	cfg := testConfig(t)
	csvDir := t.TempDir()
	cfg.Sources.Kind = "csv"
	cfg.Sources.CSVDir = csvDir

	catalogPath := filepath.Join(t.TempDir(), "catalog.yaml")
	require.NoError(t, os.WriteFile(catalogPath, []byte(`
sources:
  - id: kenya
    program: Bridge Kenya
  - id: edo
    program: EdoBEST
`), 0o600))
	cfg.Sources.CatalogFile = catalogPath

	row := make([]string, pipeline.SourceWidth)
	row[0] = "e1"
	row[pipeline.ColGrade-1] = "Grade 4"
	row[pipeline.ColSubject-1] = "KPSEA Prep English"
	row[pipeline.ColLessonCode-1] = "LEL3"
	header := make([]string, pipeline.SourceWidth)
	for i := range header {
		header[i] = "h"
	}
	require.NoError(t, os.WriteFile(filepath.Join(csvDir, "kenya.csv"), []byte(csvLine(header...)+csvLine(row...)), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(csvDir, "edo.csv"), []byte(csvLine(header...)), 0o600))

	ctx := context.Background()
	app, err := New(ctx, cfg)
	require.NoError(t, err)
	defer app.Close()

	res, err := app.Refresh.Run(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Stats.Rows)
	assert.Equal(t, 1, res.Stats.SkippedSources)

	table, err := app.Store.ReadTable(ctx)
	require.NoError(t, err)
	require.Equal(t, 1, table.Len())
	got := table.Rows[0]
	assert.Equal(t, "Bridge Kenya", got[pipeline.ColProgram])
	assert.Equal(t, "Primary 4", got[pipeline.ColGrade])
	assert.Equal(t, "KPSEA Prep", got[pipeline.ColSubject])
	assert.Equal(t, "Reading Level E", got[pipeline.ColLevel])

	runs, err := app.Store.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.StatusSucceeded, runs[0].Status)
}

func TestNew_MissingCSVFails(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources.Kind = "csv"
	cfg.Sources.CSVDir = t.TempDir()

	ctx := context.Background()
	app, err := New(ctx, cfg)
	require.NoError(t, err)
	defer app.Close()

	_, err = app.Refresh.Run(ctx)
	require.Error(t, err)
	assert.ErrorIs(t, err, pipeline.ErrSourceNotFound)

	runs, err := app.Store.RecentRuns(ctx, 5)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, store.StatusFailed, runs[0].Status)
	assert.Equal(t, "SRC002", runs[0].ErrorCode)
}

func TestNew_BadCatalog(t *testing.T) {
	cfg := testConfig(t)
	cfg.Sources.CatalogFile = filepath.Join(t.TempDir(), "missing.yaml")

	_, err := New(context.Background(), cfg)
	assert.Error(t, err)
}

func TestNewNotifier_SMTP(t *testing.T) {
	n := mustNotifier(t, config.NotifyConfig{
		SMTPHost:   "mail.example.org",
		SMTPPort:   587,
		From:       "aet@example.org",
		Recipients: []string{"ops@example.org"},
	})
	assert.IsType(t, &notify.SMTPNotifier{}, n)

	_, err := newNotifier(config.NotifyConfig{SMTPHost: "mail.example.org"})
	assert.Error(t, err)
}

func mustNotifier(t *testing.T, cfg config.NotifyConfig) notify.Notifier {
	t.Helper()
	n, err := newNotifier(cfg)
	require.NoError(t, err)
	return n
}
