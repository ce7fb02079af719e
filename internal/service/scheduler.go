package service

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/zerosrv/internal/metrics"
)

// Scheduler defaults.
const (
	DefaultFastClientInterval = 10 * time.Minute
	DefaultQueueCheckInterval = time.Minute
	DefaultEmptyQueueCooldown = 30 * time.Minute
)

// SchedulerConfig sets the periodic job intervals.
type SchedulerConfig struct {
	FastClientInterval time.Duration
	QueueCheckInterval time.Duration
	EmptyQueueCooldown time.Duration
}

// Scheduler runs the coordinator's periodic jobs: fast client refresh and
// queue repopulation once the queue has been empty for a cooldown.
type Scheduler struct {
	queue     *MatchQueue
	pending   PendingLister
	fast      *FastClientTracker
	champion  Champion
	metrics   *metrics.Metrics
	collector *metrics.Collector
	cfg       SchedulerConfig
	logger    *slog.Logger

	mu        sync.Mutex
	lastCheck time.Time
}

// NewScheduler creates a scheduler.
func NewScheduler(
	queue *MatchQueue,
	pending PendingLister,
	fast *FastClientTracker,
	champ Champion,
	m *metrics.Metrics,
	collector *metrics.Collector,
	cfg SchedulerConfig,
	logger *slog.Logger,
) *Scheduler {
	if cfg.FastClientInterval <= 0 {
		cfg.FastClientInterval = DefaultFastClientInterval
	}
	if cfg.QueueCheckInterval <= 0 {
		cfg.QueueCheckInterval = DefaultQueueCheckInterval
	}
	if cfg.EmptyQueueCooldown <= 0 {
		cfg.EmptyQueueCooldown = DefaultEmptyQueueCooldown
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Scheduler{
		queue:     queue,
		pending:   pending,
		fast:      fast,
		champion:  champ,
		metrics:   m,
		collector: collector,
		cfg:       cfg,
		logger:    logger,
	}
}

// Start warms the champion cache, refreshes fast clients and fills the
// queue. Failures are logged; the periodic jobs retry them.
func (s *Scheduler) Start(ctx context.Context) {
	if hash, err := s.champion.Resolve(ctx); err != nil {
		s.logger.Error("failed to resolve champion at startup", "error", err)
	} else {
		s.logger.Info("current champion", "hash", hash)
	}
	s.refreshFastClients(ctx)
	s.repopulate(ctx, time.Now())
}

// Run blocks running the periodic jobs until ctx is done.
func (s *Scheduler) Run(ctx context.Context) {
	fastTicker := time.NewTicker(s.cfg.FastClientInterval)
	defer fastTicker.Stop()
	queueTicker := time.NewTicker(s.cfg.QueueCheckInterval)
	defer queueTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-fastTicker.C:
			s.refreshFastClients(ctx)
		case now := <-queueTicker.C:
			s.CheckQueue(ctx, now)
		}
	}
}

// CheckQueue repopulates an empty queue if the cooldown since the last
// repopulation elapsed. It reports whether a repopulation ran.
func (s *Scheduler) CheckQueue(ctx context.Context, now time.Time) bool {
	if s.queue.Len() > 0 {
		return false
	}
	s.mu.Lock()
	due := now.Sub(s.lastCheck) >= s.cfg.EmptyQueueCooldown
	s.mu.Unlock()
	if !due {
		return false
	}
	s.repopulate(ctx, now)
	return true
}

func (s *Scheduler) repopulate(ctx context.Context, now time.Time) {
	s.mu.Lock()
	s.lastCheck = now
	s.mu.Unlock()

	done := s.collector.Time(metrics.OpRepopulate)
	err := s.queue.Repopulate(ctx, s.pending)
	done(err)
	if err != nil {
		s.logger.Error("failed to repopulate match queue", "error", err)
		return
	}
	s.metrics.PendingMatches.Set(float64(s.queue.Len()))
}

func (s *Scheduler) refreshFastClients(ctx context.Context) {
	done := s.collector.Time(metrics.OpRefreshClient)
	err := s.fast.Refresh(ctx)
	done(err)
	if err != nil {
		s.logger.Error("failed to refresh fast clients", "error", err)
		return
	}
	s.metrics.FastClients.Set(float64(s.fast.Count()))
}
