package service

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/raphaelgruber/zerosrv/internal/models"
)

// Fast client defaults.
const (
	DefaultSampleWindow     = time.Hour
	DefaultSampleLimit      = 10000
	DefaultMinClientSamples = 3
	maxSampleDuration       = 24 * time.Hour
)

// SampleLister loads recent self-play speed samples.
type SampleLister interface {
	ListGameSamples(ctx context.Context, since time.Time, limit int) ([]models.GameSample, error)
}

// FastClientConfig tunes FastClientTracker.
type FastClientConfig struct {
	Window     time.Duration
	Limit      int
	MinSamples int
}

// FastClientTracker keeps the set of workers fast enough to receive match
// games: those whose average move rate is in the top quartile.
type FastClientTracker struct {
	store  SampleLister
	cfg    FastClientConfig
	logger *slog.Logger
	now    func() time.Time

	mu   sync.RWMutex
	fast map[string]bool
}

// NewFastClientTracker creates a tracker. Nobody is fast until Refresh runs.
func NewFastClientTracker(store SampleLister, cfg FastClientConfig, logger *slog.Logger) *FastClientTracker {
	if cfg.Window <= 0 {
		cfg.Window = DefaultSampleWindow
	}
	if cfg.Limit <= 0 {
		cfg.Limit = DefaultSampleLimit
	}
	if cfg.MinSamples <= 0 {
		cfg.MinSamples = DefaultMinClientSamples
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &FastClientTracker{
		store:  store,
		cfg:    cfg,
		logger: logger,
		now:    time.Now,
		fast:   map[string]bool{},
	}
}

// Refresh recomputes the fast set. On error the previous set is kept.
func (t *FastClientTracker) Refresh(ctx context.Context) error {
	samples, err := t.store.ListGameSamples(ctx, t.now().Add(-t.cfg.Window), t.cfg.Limit)
	if err != nil {
		return fmt.Errorf("refresh fast clients: %w", err)
	}

	fast := fastClients(samples, t.cfg.MinSamples)

	t.mu.Lock()
	t.fast = fast
	t.mu.Unlock()

	t.logger.Info("fast clients refreshed", "samples", len(samples), "fast", len(fast))
	return nil
}

// IsFast reports whether client may receive match games.
func (t *FastClientTracker) IsFast(client string) bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.fast[client]
}

// Count returns the number of fast clients.
func (t *FastClientTracker) Count() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.fast)
}

// fastClients averages each client's moves per minute and keeps clients at
// or above the third quartile of those averages.
func fastClients(samples []models.GameSample, minSamples int) map[string]bool {
	rates := make(map[string][]float64)
	for _, s := range samples {
		started := models.Seed(s.RandomSeed).Issued()
		d := s.Created.Sub(started)
		if d <= 0 || d > maxSampleDuration {
			continue
		}
		rates[s.ClientID] = append(rates[s.ClientID], float64(s.MovesCount)/d.Minutes())
	}

	avg := make(map[string]float64, len(rates))
	for client, rs := range rates {
		if len(rs) < minSamples {
			continue
		}
		var sum float64
		for _, r := range rs {
			sum += r
		}
		avg[client] = sum / float64(len(rs))
	}

	fast := make(map[string]bool)
	if len(avg) == 0 {
		return fast
	}

	all := make([]float64, 0, len(avg))
	for _, r := range avg {
		all = append(all, r)
	}
	slices.Sort(all)
	q3 := quantile(all, 0.75)

	for client, r := range avg {
		if r >= q3 {
			fast[client] = true
		}
	}
	return fast
}

// quantile interpolates linearly between the closest ranks of sorted.
func quantile(sorted []float64, p float64) float64 {
	if len(sorted) == 1 {
		return sorted[0]
	}
	pos := p * float64(len(sorted)-1)
	lo := int(math.Floor(pos))
	if lo >= len(sorted)-1 {
		return sorted[len(sorted)-1]
	}
	frac := pos - float64(lo)
	return sorted[lo] + frac*(sorted[lo+1]-sorted[lo])
}
