package service

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/raphaelgruber/zerosrv/internal/metrics"
	"github.com/raphaelgruber/zerosrv/internal/models"
)

// GameSubmission is a worker's upload of a self-play game.
type GameSubmission struct {
	ClientID      string `validate:"required"`
	NetworkHash   string `validate:"required"`
	ClientVersion string `validate:"omitempty,numeric"`
	OptionsHash   string
	MovesCount    string `validate:"omitempty,numeric"`
	WinnerColor   string
	RandomSeed    string `validate:"omitempty,seed"`
	// SGF and TrainingData are gzip-compressed.
	SGF          []byte `validate:"required"`
	TrainingData []byte `validate:"required"`
}

// SelfPlayIngester stores self-play games for training.
type SelfPlayIngester struct {
	store   GameStore
	metrics *metrics.Metrics
	logger  *slog.Logger
}

// NewSelfPlayIngester creates a self-play ingester.
func NewSelfPlayIngester(store GameStore, m *metrics.Metrics, logger *slog.Logger) *SelfPlayIngester {
	if logger == nil {
		logger = slog.Default()
	}
	return &SelfPlayIngester{store: store, metrics: m, logger: logger}
}

// SubmitGame stores a self-play game and counts it for its network. It
// returns the SGF hash.
func (s *SelfPlayIngester) SubmitGame(ctx context.Context, sub GameSubmission) (string, error) {
	hash, err := s.submit(ctx, sub)
	s.metrics.Results.WithLabelValues(models.CmdSelfPlay, Outcome(err)).Inc()
	return hash, err
}

func (s *SelfPlayIngester) submit(ctx context.Context, sub GameSubmission) (string, error) {
	if err := validateStruct(sub); err != nil {
		return "", err
	}

	var seed models.Seed
	if sub.RandomSeed != "" {
		var err error
		if seed, err = models.ParseSeed(sub.RandomSeed); err != nil {
			return "", validationError("random_seed: %v", err)
		}
	}
	clientVersion, _ := strconv.Atoi(sub.ClientVersion)
	moves, _ := strconv.Atoi(sub.MovesCount)

	sgf, err := gunzip(sub.SGF, maxInflatedSize)
	if err != nil {
		return "", validationError("sgf: %v", err)
	}
	data, err := gunzip(sub.TrainingData, maxInflatedSize)
	if err != nil {
		return "", validationError("trainingdata: %v", err)
	}
	sgfHash := sha256Hex(sgf)

	if dup, err := s.store.GameSGFExists(ctx, sgfHash); err != nil {
		return "", storeError("check sgf", err)
	} else if dup {
		return "", fmt.Errorf("%w: sgf %s already recorded", ErrDuplicate, sgfHash)
	}

	game := &models.Game{
		ClientID:      sub.ClientID,
		NetworkHash:   sub.NetworkHash,
		SGF:           string(sgf),
		SGFHash:       sgfHash,
		OptionsHash:   sub.OptionsHash,
		MovesCount:    moves,
		TrainingData:  string(data),
		ClientVersion: clientVersion,
		WinnerColor:   sub.WinnerColor,
		RandomSeed:    int64(seed),
	}
	if err := s.store.CreateGame(ctx, game); err != nil {
		return "", storeError("store game", err)
	}

	if err := s.store.IncrementNetworkGames(ctx, sub.NetworkHash); err != nil {
		// The game is stored; only the per-network counter lags.
		s.logger.Error("failed to count self-play game", "network", sub.NetworkHash, "sgfhash", sgfHash, "error", err)
	}

	s.logger.Info("self-play game recorded", "client", sub.ClientID, "network", models.ShortHash(sub.NetworkHash), "sgfhash", sgfHash)
	return sgfHash, nil
}
