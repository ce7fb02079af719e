package service

import (
	"context"
	"log/slog"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/raphaelgruber/zerosrv/internal/metrics"
	"github.com/raphaelgruber/zerosrv/internal/models"
	"github.com/raphaelgruber/zerosrv/internal/verify"
)

// OpponentStore persists champion placeholder resolutions.
type OpponentStore interface {
	SetMatchOpponent(ctx context.Context, id, network2 string) error
}

// DispatchConfig holds what every task carries.
type DispatchConfig struct {
	ClientVersion string
	LeelazVersion string
	// SelfPlay are the self-play search options.
	SelfPlay models.MatchOptions
	// NoResignProbability is the chance a self-play task disables resignation.
	NoResignProbability float64
}

// DefaultSelfPlayOptions are the options self-play games run with.
func DefaultSelfPlayOptions() models.MatchOptions {
	return models.MatchOptions{Visits: 3200, ResignationPercent: 10, Noise: true, RandomCnt: 30}
}

// Dispatcher decides per worker request whether to hand out a match game
// or a self-play game.
type Dispatcher struct {
	queue    *MatchQueue
	fast     *FastClientTracker
	champion Champion
	verifier *verify.Verifier
	store    OpponentStore
	listing  *MatchListing
	metrics  *metrics.Metrics
	cfg      DispatchConfig
	logger   *slog.Logger

	now   func() time.Time
	float func() float64

	// pending tracks opponent writes still in flight.
	pending sync.WaitGroup
}

// NewDispatcher creates a dispatcher.
func NewDispatcher(
	queue *MatchQueue,
	fast *FastClientTracker,
	champ Champion,
	verifier *verify.Verifier,
	store OpponentStore,
	listing *MatchListing,
	m *metrics.Metrics,
	cfg DispatchConfig,
	logger *slog.Logger,
) *Dispatcher {
	if logger == nil {
		logger = slog.Default()
	}
	return &Dispatcher{
		queue:    queue,
		fast:     fast,
		champion: champ,
		verifier: verifier,
		store:    store,
		listing:  listing,
		metrics:  m,
		cfg:      cfg,
		logger:   logger,
		now:      time.Now,
		float:    rand.Float64,
	}
}

// Dispatch builds the next task for client. allowMatch is false when the
// worker opted out of match games.
func (d *Dispatcher) Dispatch(ctx context.Context, client string, allowMatch bool) (*models.Task, error) {
	best, err := d.champion.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	now := d.now()
	seed := models.NewSeed(now)

	if allowMatch && d.queue.Len() > 0 && d.fast.IsFast(client) {
		if claim, ok := d.queue.Claim(now, best, seed); ok {
			return d.matchTask(client, claim, seed), nil
		}
	}
	return d.selfPlayTask(client, best, seed), nil
}

func (d *Dispatcher) matchTask(client string, claim *Claim, seed models.Seed) *models.Task {
	m := claim.Match
	id := matchID(&m)

	if claim.OpponentResolved {
		d.pending.Go(func() {
			ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
			defer cancel()
			if err := d.store.SetMatchOpponent(ctx, id, m.Opponent()); err != nil {
				retry := d.queue.UnresolveOpponent(id, m.Opponent())
				d.logger.Error("failed to persist match opponent",
					"match_id", id, "network2", m.Opponent(), "retry_on_next_claim", retry, "error", err)
				return
			}
			d.logger.Info("match opponent set to champion", "match_id", id, "network2", m.Opponent())
			d.listing.Invalidate()
		})
	}

	task := &models.Task{
		Cmd:                   models.CmdMatch,
		RequiredClientVersion: d.cfg.ClientVersion,
		LeelazVersion:         d.cfg.LeelazVersion,
		RandomSeed:            seed.String(),
		Options:               m.Options.Wire(),
		OptionsHash:           d.verifier.Stamp(m.OptionsHash, seed.String(), claim.WhiteHash, claim.BlackHash),
		WhiteHash:             claim.WhiteHash,
		BlackHash:             claim.BlackHash,
	}

	d.metrics.TasksDispatched.WithLabelValues(models.CmdMatch).Inc()
	d.metrics.PendingMatches.Set(float64(d.queue.Len()))
	d.logger.Info("dispatched match task",
		"client", client,
		"match_id", id,
		"network1", models.ShortHash(m.Network1),
		"network2", models.ShortHash(m.Opponent()),
		"seed", task.RandomSeed)
	return task
}

func (d *Dispatcher) selfPlayTask(client, best string, seed models.Seed) *models.Task {
	opts := d.cfg.SelfPlay
	if d.float() < d.cfg.NoResignProbability {
		opts.ResignationPercent = 0
	}

	task := &models.Task{
		Cmd:                   models.CmdSelfPlay,
		RequiredClientVersion: d.cfg.ClientVersion,
		LeelazVersion:         d.cfg.LeelazVersion,
		RandomSeed:            seed.String(),
		Options:               opts.Wire(),
		OptionsHash:           opts.Hash(),
		Hash:                  best,
	}

	d.metrics.TasksDispatched.WithLabelValues(models.CmdSelfPlay).Inc()
	d.logger.Debug("dispatched self-play task", "client", client, "hash", models.ShortHash(best))
	return task
}

// Wait blocks until background opponent writes have finished.
func (d *Dispatcher) Wait() {
	d.pending.Wait()
}
