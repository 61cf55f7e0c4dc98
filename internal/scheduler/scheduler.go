package scheduler

import (
	"context"
	"time"

	"github.com/go-co-op/gocron"
	"go.uber.org/zap"

	"github.com/i474232898/station-health/internal/collector"
)

// ArchiveHandler consumes archive events.
type ArchiveHandler interface {
	HandleArchive(ctx context.Context, ev collector.ArchiveEvent) error
}

// Scheduler emits one archive event per interval. Runs never overlap.
type Scheduler struct {
	scheduler    *gocron.Scheduler
	handler      ArchiveHandler
	interval     time.Duration
	cycleTimeout time.Duration
	logger       *zap.Logger
}

// New creates a new Scheduler.
func New(handler ArchiveHandler, interval, cycleTimeout time.Duration, logger *zap.Logger) *Scheduler {
	s := gocron.NewScheduler(time.UTC)
	s.SingletonModeAll()
	return &Scheduler{
		scheduler:    s,
		handler:      handler,
		interval:     interval,
		cycleTimeout: cycleTimeout,
		logger:       logger,
	}
}

// Start schedules the archive job and starts the underlying scheduler.
func (s *Scheduler) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 5 * time.Minute
	}

	_, err := s.scheduler.Every(interval).WaitForSchedule().Do(func() {
		s.Run(time.Now().UTC().Truncate(interval), interval)
	})
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("scheduler started", zap.Duration("interval", interval))
	return nil
}

// Run handles one archive event synchronously.
func (s *Scheduler) Run(at time.Time, interval time.Duration) {
	ctx, cancel := context.WithTimeout(context.Background(), s.cycleTimeout)
	defer cancel()

	ev := collector.ArchiveEvent{DateTime: at, Interval: interval}
	if err := s.handler.HandleArchive(ctx, ev); err != nil {
		s.logger.Error("archive cycle failed", zap.Time("event_time", at), zap.Error(err))
	}
}

// Stop stops the scheduler and cancels any future jobs.
func (s *Scheduler) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}
