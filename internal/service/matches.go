package service

import (
	"context"
	"log/slog"

	"github.com/raphaelgruber/zerosrv/internal/db"
	"github.com/raphaelgruber/zerosrv/internal/models"
)

// MatchDefaults are applied to match requests that leave fields unset.
type MatchDefaults struct {
	Visits             int     `yaml:"visits"`
	ResignationPercent float64 `yaml:"resignation_percent"`
	Noise              bool    `yaml:"noise"`
	RandomCnt          int     `yaml:"randomcnt"`
	NumberToPlay       int     `yaml:"number_to_play"`
}

// DefaultMatchDefaults returns the stock match settings.
func DefaultMatchDefaults() MatchDefaults {
	return MatchDefaults{Visits: 3200, ResignationPercent: 10, NumberToPlay: 400}
}

// MatchRequest asks for a new match. An empty Network2 plays against
// whichever network is champion when the first game is handed out.
type MatchRequest struct {
	Network1           string `validate:"required"`
	Network2           string
	Visits             int `validate:"gte=0"`
	Playouts           int `validate:"gte=0"`
	ResignationPercent *float64
	Noise              *bool
	RandomCnt          *int `validate:"omitempty,gte=0"`
	NumberToPlay       int  `validate:"gte=0"`
	IsTest             bool
}

// MatchCreator persists new matches.
type MatchCreator interface {
	CreateMatch(ctx context.Context, in db.MatchInput) (*models.Match, error)
}

// MatchService creates matches and queues them.
type MatchService struct {
	store    MatchCreator
	queue    *MatchQueue
	listing  *MatchListing
	defaults MatchDefaults
	logger   *slog.Logger
}

// NewMatchService creates a match service.
func NewMatchService(store MatchCreator, queue *MatchQueue, listing *MatchListing, defaults MatchDefaults, logger *slog.Logger) *MatchService {
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchService{store: store, queue: queue, listing: listing, defaults: defaults, logger: logger}
}

// RequestMatch creates a match and puts it at the front of the queue.
func (s *MatchService) RequestMatch(ctx context.Context, req MatchRequest) (*models.Match, error) {
	if err := validateStruct(req); err != nil {
		return nil, err
	}
	if req.Visits > 0 && req.Playouts > 0 {
		return nil, validationError("set only playouts or visits, not both")
	}

	opts := models.MatchOptions{
		Visits:             req.Visits,
		Playouts:           req.Playouts,
		ResignationPercent: s.defaults.ResignationPercent,
		Noise:              s.defaults.Noise,
		RandomCnt:          s.defaults.RandomCnt,
	}
	if opts.Visits == 0 && opts.Playouts == 0 {
		opts.Visits = s.defaults.Visits
	}
	if req.ResignationPercent != nil {
		opts.ResignationPercent = *req.ResignationPercent
	}
	if req.Noise != nil {
		opts.Noise = *req.Noise
	}
	if req.RandomCnt != nil {
		opts.RandomCnt = *req.RandomCnt
	}

	in := db.MatchInput{
		Network1:     req.Network1,
		NumberToPlay: req.NumberToPlay,
		Options:      opts,
		IsTest:       req.IsTest,
	}
	if in.NumberToPlay == 0 {
		in.NumberToPlay = s.defaults.NumberToPlay
	}
	if req.Network2 != "" {
		n2 := req.Network2
		in.Network2 = &n2
	}

	m, err := s.store.CreateMatch(ctx, in)
	if err != nil {
		return nil, storeError("create match", err)
	}

	s.queue.AddFront(*m)
	s.listing.Invalidate()

	s.logger.Info("match added",
		"match_id", matchID(m),
		"network1", models.ShortHash(m.Network1),
		"network2", models.ShortHash(m.Opponent()),
		"options_hash", m.OptionsHash,
		"number_to_play", m.NumberToPlay,
		"is_test", m.IsTest)
	return m, nil
}
