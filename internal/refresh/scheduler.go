package refresh

import (
	"context"
	"errors"
	"log/slog"
	"time"
)

// StartScheduler runs a refresh every interval until ctx is cancelled.
// When runNow is set the first refresh starts immediately. A tick that finds
// a refresh already running (for example one triggered over HTTP) is skipped.
func (s *Service) StartScheduler(ctx context.Context, interval time.Duration, runNow bool) {
	slog.Info("refresh scheduler started", "interval", interval.String(), "run_now", runNow)

	if runNow {
		s.scheduledRun(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			slog.Info("refresh scheduler stopped")
			return
		case <-ticker.C:
			s.scheduledRun(ctx)
		}
	}
}

// scheduledRun performs one refresh. Failures are already recorded and
// notified by Run, so they are only logged here.
func (s *Service) scheduledRun(ctx context.Context) {
	if s.opts.ScheduledTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.ScheduledTimeout)
		defer cancel()
	}

	_, err := s.Run(ctx)
	switch {
	case errors.Is(err, ErrRunInProgress):
		slog.Info("scheduled refresh skipped, another refresh is running")
	case err != nil:
		slog.Debug("scheduled refresh failed", "error", err)
	}
}
