package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/JonMunkholm/aet/internal/application"
	"github.com/JonMunkholm/aet/internal/config"
	"github.com/JonMunkholm/aet/internal/logging"
	"github.com/JonMunkholm/aet/internal/web"
	"github.com/joho/godotenv"
)

func main() {
	// Load .env file if it exists (Overload overwrites existing env vars)
	if err := godotenv.Overload(); err != nil {
		slog.Info("no .env file found, using environment variables")
	} else {
		slog.Info("loaded .env file (overwriting existing env vars)")
	}

	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", "error", err)
		os.Exit(1)
	}

	logging.Setup(cfg.Logging.Level, cfg.Logging.Format)
	slog.Info("configuration loaded", "config", cfg.String())

	ctx := context.Background()
	app, err := application.New(ctx, cfg)
	if err != nil {
		slog.Error("failed to start", "error", err)
		os.Exit(1)
	}
	defer app.Close()

	loc, _ := time.LoadLocation(cfg.Refresh.TimeZone) // checked by config.Validate

	server := web.NewServer(app.Refresh, app.Store, web.Options{
		ReadTimeout:    cfg.Server.ReadTimeout,
		WriteTimeout:   cfg.Server.WriteTimeout,
		IdleTimeout:    cfg.Server.IdleTimeout,
		RequestTimeout: cfg.Server.RequestTimeout,
		RefreshTimeout: cfg.Refresh.Timeout,
		RateLimit:      cfg.Rate.Enabled,
		RequestsPerMin: cfg.Rate.RequestsPerMinute,
		RateBurst:      cfg.Rate.Burst,
		Location:       loc,
	})

	// Cancellable context for background jobs
	jobCtx, cancelJobs := context.WithCancel(context.Background())
	defer cancelJobs()

	if cfg.Refresh.ScheduleEnabled {
		go app.Refresh.StartScheduler(jobCtx, cfg.Refresh.Interval(), cfg.Refresh.RunOnStart)
	} else if cfg.Refresh.RunOnStart {
		go func() {
			runCtx, cancel := context.WithTimeout(jobCtx, cfg.Refresh.Timeout)
			defer cancel()
			app.Refresh.Run(runCtx)
		}()
	}

	// Graceful shutdown
	go func() {
		sigCh := make(chan os.Signal, 1)
		signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
		<-sigCh

		slog.Info("shutting down...")
		cancelJobs()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()

		if err := server.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown error", "error", err)
		}
	}()

	if err := server.Start(cfg.Server.Addr()); err != nil {
		slog.Info("server stopped", "error", err)
	}
}
