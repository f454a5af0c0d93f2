// Package scheduler runs the periodic share follow-ups: expiring overdue
// shares, sending reminders and purging abandoned temp uploads.
package scheduler

import (
	"context"
	"log/slog"
	"time"

	"esignapi/internal/service"
)

// DefaultInterval is used when Interval is not positive.
const DefaultInterval = time.Hour

// Scheduler ticks every Interval until Stop. Now is used as the reference
// time of a run and defaults to time.Now in Loc.
type Scheduler struct {
	Share    service.ShareService
	Docs     service.DocumentService
	Interval time.Duration
	// TempTTL is how long an unshared upload survives; zero disables purging.
	TempTTL time.Duration
	Loc     *time.Location
	Log     *slog.Logger
	Now     func() time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Start runs once immediately and then on every tick.
func (s *Scheduler) Start(ctx context.Context) {
	ctx, s.cancel = context.WithCancel(ctx)
	s.done = make(chan struct{})
	go s.loop(ctx)
	s.logger().Info("scheduler_started", slog.Duration("interval", s.interval()))
}

// Stop cancels the loop and waits for the current run to finish.
func (s *Scheduler) Stop() {
	if s.cancel != nil {
		s.cancel()
		<-s.done
	}
	s.logger().Info("scheduler_stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer close(s.done)

	s.RunOnce(ctx)

	ticker := time.NewTicker(s.interval())
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

func (s *Scheduler) interval() time.Duration {
	if s.Interval <= 0 {
		return DefaultInterval
	}
	return s.Interval
}

// RunOnce performs one pass. Failures are logged and never stop the loop.
func (s *Scheduler) RunOnce(ctx context.Context) {
	log := s.logger()
	now := s.now()

	if n, err := s.Share.ExpireDue(ctx, now); err != nil {
		log.Error("scheduler_expire_failed", slog.Any("error", err), slog.Int64("expired", n))
	} else if n > 0 {
		log.Info("scheduler_expired", slog.Int64("members", n))
	}

	if n, err := s.Share.RemindDue(ctx, now); err != nil {
		log.Error("scheduler_remind_failed", slog.Any("error", err), slog.Int("reminded", n))
	} else if n > 0 {
		log.Info("scheduler_reminded", slog.Int("members", n))
	}

	if s.Docs == nil || s.TempTTL <= 0 {
		return
	}
	if n, err := s.Docs.PurgeTemp(ctx, now.Add(-s.TempTTL)); err != nil {
		log.Error("scheduler_purge_failed", slog.Any("error", err), slog.Int("purged", n))
	} else if n > 0 {
		log.Info("scheduler_purged", slog.Int("documents", n))
	}
}

func (s *Scheduler) now() time.Time {
	if s.Now != nil {
		return s.Now()
	}
	if s.Loc != nil {
		return time.Now().In(s.Loc)
	}
	return time.Now()
}

func (s *Scheduler) logger() *slog.Logger {
	if s.Log != nil {
		return s.Log
	}
	return slog.Default()
}
