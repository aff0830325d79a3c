// Package application wires configuration into the store, source catalog,
// notifier and refresh service shared by the server and the CLI.
package application

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/JonMunkholm/aet/internal/catalog"
	"github.com/JonMunkholm/aet/internal/config"
	"github.com/JonMunkholm/aet/internal/notify"
	"github.com/JonMunkholm/aet/internal/pipeline"
	"github.com/JonMunkholm/aet/internal/refresh"
	"github.com/JonMunkholm/aet/internal/store"
)

// App holds the long-lived components.
type App struct {
	Config  *config.Config
	Store   store.Store
	Sources []pipeline.Source
	Refresh *refresh.Service
}

// New opens the store, runs migrations, loads the catalog and builds the
// refresh service. The caller must Close the returned App.
func New(ctx context.Context, cfg *config.Config) (*App, error) {
	sources, err := catalog.Load(cfg.Sources.CatalogFile)
	if err != nil {
		return nil, err
	}

	loc, err := time.LoadLocation(cfg.Refresh.TimeZone)
	if err != nil {
		return nil, fmt.Errorf("load time zone: %w", err)
	}

	notifier, err := newNotifier(cfg.Notify)
	if err != nil {
		return nil, err
	}

	driver := strings.ToLower(cfg.Database.Driver)
	st, err := store.Open(ctx, driver, store.Options{
		URL:             cfg.Database.URL,
		MaxConns:        cfg.Database.MaxConns,
		MinConns:        cfg.Database.MinConns,
		MaxConnLifetime: cfg.Database.MaxConnLifetime,
		MaxConnIdleTime: cfg.Database.MaxConnIdleTime,
		SQLitePath:      cfg.Database.SQLitePath,
	})
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	slog.Info("store ready", "driver", driver)

	fetcher := newFetcher(cfg.Sources, st)
	svc := refresh.NewService(fetcher, st, sources, notifier, refresh.Options{
		FrequencyHours:   cfg.Refresh.FrequencyHours,
		Location:         loc,
		ScheduledTimeout: cfg.Refresh.Timeout,
	})

	slog.Info("catalog loaded",
		"sources", len(sources),
		"source_kind", cfg.Sources.Kind,
		"catalog_file", cfg.Sources.CatalogFile,
	)

	return &App{Config: cfg, Store: st, Sources: sources, Refresh: svc}, nil
}

// Close releases the store.
func (a *App) Close() error {
	return a.Store.Close()
}

// newFetcher reads tracker rows from CSV exports or from the store.
func newFetcher(cfg config.SourcesConfig, st store.Store) pipeline.SourceFetcher {
	if strings.ToLower(cfg.Kind) == "csv" {
		return store.CSVSource{Dir: cfg.CSVDir}
	}
	return st
}

// newNotifier sends mail when an SMTP host is configured and logs otherwise.
func newNotifier(cfg config.NotifyConfig) (notify.Notifier, error) {
	if cfg.SMTPHost == "" {
		return notify.LogNotifier{}, nil
	}
	return notify.NewSMTPNotifier(notify.SMTPConfig{
		Host:       cfg.SMTPHost,
		Port:       cfg.SMTPPort,
		Username:   cfg.SMTPUsername,
		Password:   cfg.SMTPPassword,
		From:       cfg.From,
		Recipients: cfg.Recipients,
	})
}
