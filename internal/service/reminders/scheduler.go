package reminders

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

type SchedulerConfig struct {
	// Schedule is a five-field cron expression. Empty disables the job.
	Schedule string
	// Timeout bounds one run. Zero means 5m.
	Timeout  time.Duration
	ReplyTo  string
	Location *time.Location
	Logger   *slog.Logger
}

// Scheduler runs RemindAll on a cron schedule.
type Scheduler struct {
	cron    *cron.Cron
	svc     *Service
	timeout time.Duration
	replyTo string
	log     *slog.Logger
}

// NewScheduler returns nil when cfg.Schedule is empty. A nil Scheduler's
// Start and Stop are no-ops.
func NewScheduler(svc *Service, cfg SchedulerConfig) (*Scheduler, error) {
	if cfg.Schedule == "" {
		return nil, nil
	}
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 5 * time.Minute
	}
	log := cfg.Logger
	if log == nil {
		log = slog.Default()
	}

	s := &Scheduler{
		cron:    cron.New(cron.WithLocation(cfg.Location)),
		svc:     svc,
		timeout: cfg.Timeout,
		replyTo: cfg.ReplyTo,
		log:     log.With(slog.String("component", "reminders.scheduler")),
	}
	if _, err := s.cron.AddFunc(cfg.Schedule, s.run); err != nil {
		return nil, fmt.Errorf("reminders: invalid schedule %q: %w", cfg.Schedule, err)
	}
	return s, nil
}

func (s *Scheduler) run() {
	ctx, cancel := context.WithTimeout(context.Background(), s.timeout)
	defer cancel()

	if _, err := s.svc.RemindAll(ctx, s.replyTo); err != nil {
		s.log.Error("balance reminder run failed", slog.Any("err", err))
	}
}

func (s *Scheduler) Start() {
	if s == nil {
		return
	}
	s.cron.Start()
	s.log.Info("reminder scheduler started", slog.Time("next_run", s.cron.Entries()[0].Next))
}

// Stop stops scheduling and waits for a running job until ctx is done.
func (s *Scheduler) Stop(ctx context.Context) {
	if s == nil {
		return
	}
	select {
	case <-s.cron.Stop().Done():
		s.log.Info("reminder scheduler stopped")
	case <-ctx.Done():
		s.log.Warn("reminder scheduler stop timed out")
	}
}
