package collector

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/i474232898/station-health/internal/health"
	"github.com/i474232898/station-health/internal/metrics"
)

// ArchiveEvent announces a new archive period.
type ArchiveEvent struct {
	DateTime time.Time
	Interval time.Duration
}

type recordCollector interface {
	Collect(ctx context.Context, now, last time.Time) health.Record
}

// Service turns archive events into saved records and enforces retention.
type Service struct {
	collector recordCollector
	store     health.Store
	publisher health.Publisher
	maxAge    time.Duration
	logger    *zap.Logger
	now       func() time.Time

	mu   sync.Mutex
	last time.Time
}

// NewService creates a Service. publisher may be nil. A maxAge of zero
// disables pruning.
func NewService(c recordCollector, store health.Store, publisher health.Publisher, maxAge time.Duration, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		collector: c,
		store:     store,
		publisher: publisher,
		maxAge:    maxAge,
		logger:    logger,
		now:       time.Now,
	}
}

// HandleArchive collects and saves one record, then prunes old ones.
// Events that are older than their own interval are skipped.
func (s *Service) HandleArchive(ctx context.Context, ev ArchiveEvent) error {
	now := s.now().Add(500 * time.Millisecond).Truncate(time.Second)
	log := s.logger.With(zap.String("cycle_id", uuid.NewString()))

	if delta := now.Sub(ev.DateTime); ev.Interval > 0 && delta > ev.Interval {
		metrics.Cycles.WithLabelValues("skipped").Inc()
		log.Info("skipping record: time difference too big",
			zap.Duration("delta", delta),
			zap.Duration("interval", ev.Interval))
		return nil
	}

	s.mu.Lock()
	last := s.last
	s.mu.Unlock()

	rec := s.collector.Collect(ctx, now, last)

	if err := s.store.AddRecord(ctx, rec); err != nil {
		metrics.Cycles.WithLabelValues("failed").Inc()
		return fmt.Errorf("save record %d: %w", rec.DateTime, err)
	}

	s.mu.Lock()
	s.last = rec.Time()
	s.mu.Unlock()

	metrics.Cycles.WithLabelValues("saved").Inc()
	metrics.LastRecord.Set(float64(rec.DateTime))
	metrics.FieldsPopulated.Set(float64(rec.Populated()))
	log.Info("saved record",
		zap.Int64("dateTime", rec.DateTime),
		zap.Int64("interval", rec.Interval),
		zap.Int("fields", rec.Populated()))

	if s.publisher != nil {
		if err := s.publisher.Publish(ctx, rec); err != nil {
			metrics.PublishFailures.Inc()
			log.Warn("publish record failed", zap.Error(err))
		}
	}

	if s.maxAge > 0 {
		s.prune(ctx, log, now.Add(-s.maxAge))
	}
	return nil
}

// prune deletes records older than cutoff. Failures are logged only.
func (s *Service) prune(ctx context.Context, log *zap.Logger, cutoff time.Time) {
	n, err := s.store.DeleteBefore(ctx, cutoff.Unix())
	if err != nil {
		metrics.PruneFailures.Inc()
		log.Error("prune data error", zap.Time("cutoff", cutoff), zap.Error(err))
		return
	}
	if n > 0 {
		log.Debug("pruned records", zap.Int64("deleted", n), zap.Time("cutoff", cutoff))
	}
}

// Last returns the dateTime of the last saved record, in UTC.
func (s *Service) Last() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// GetLatest delegates to the underlying store.
func (s *Service) GetLatest(ctx context.Context) (health.Record, error) {
	return s.store.Latest(ctx)
}

// GetRange delegates to the underlying store.
func (s *Service) GetRange(ctx context.Context, from, to time.Time) ([]health.Record, error) {
	return s.store.Range(ctx, from.Unix(), to.Unix())
}
