// Package cron provides scheduled background jobs using robfig/cron.
package cron

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/FACorreiaa/payslip-overview/internal/domain/payslip/service"
)

// DefaultReprocessSchedule runs reprocessing daily at 3:00 AM.
const DefaultReprocessSchedule = "0 3 * * *"

const reprocessTimeout = 30 * time.Minute

// Reprocessor re-parses stored payslips written by an older parser.
type Reprocessor interface {
	Reprocess(ctx context.Context) (*service.ReprocessSummary, error)
}

// Scheduler manages background scheduled jobs using robfig/cron.
type Scheduler struct {
	cron     *cron.Cron
	svc      Reprocessor
	schedule string
	logger   *slog.Logger

	// running guards against overlapping reprocess runs.
	running sync.Mutex
}

// NewScheduler creates a new job scheduler. An empty schedule selects
// DefaultReprocessSchedule.
func NewScheduler(svc Reprocessor, schedule string, logger *slog.Logger) *Scheduler {
	if schedule == "" {
		schedule = DefaultReprocessSchedule
	}
	// Create cron with seconds disabled (standard 5-field format)
	c := cron.New(cron.WithLogger(cron.VerbosePrintfLogger(slog.NewLogLogger(logger.Handler(), slog.LevelDebug))))

	return &Scheduler{
		cron:     c,
		svc:      svc,
		schedule: schedule,
		logger:   logger,
	}
}

// Start begins scheduled jobs.
func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(s.schedule, s.reprocessStale)
	if err != nil {
		return err
	}

	s.cron.Start()
	s.logger.Info("cron scheduler started",
		slog.Int("jobs", len(s.cron.Entries())),
		slog.String("reprocess_schedule", s.schedule),
	)
	return nil
}

// Stop gracefully stops all scheduled jobs.
func (s *Scheduler) Stop() context.Context {
	s.logger.Info("cron scheduler stopping")
	return s.cron.Stop()
}

// RunNow triggers reprocessing in the background, for startup catch-up.
func (s *Scheduler) RunNow() {
	go s.reprocessStale()
}

// reprocessStale re-parses rows left behind by an older parser version.
func (s *Scheduler) reprocessStale() {
	if !s.running.TryLock() {
		s.logger.Info("reprocessing already running, skipping")
		return
	}
	defer s.running.Unlock()

	ctx, cancel := context.WithTimeout(context.Background(), reprocessTimeout)
	defer cancel()

	s.logger.Info("starting stale payslip reprocessing")

	sum, err := s.svc.Reprocess(ctx)
	if err != nil {
		s.logger.Error("failed to reprocess payslips", slog.Any("error", err))
		return
	}

	s.logger.Info("stale payslip reprocessing completed",
		slog.Int("reprocessed", sum.Reprocessed),
		slog.Int("skipped", sum.Skipped),
		slog.Int("failed", sum.Failed),
	)
}
