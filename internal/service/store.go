package service

import (
	"context"
	"time"

	"github.com/raphaelgruber/zerosrv/internal/champion"
	"github.com/raphaelgruber/zerosrv/internal/db"
	"github.com/raphaelgruber/zerosrv/internal/models"
)

// MatchStore is the persisted match state used by the services.
// *db.Client implements it.
type MatchStore interface {
	CreateMatch(ctx context.Context, in db.MatchInput) (*models.Match, error)
	GetMatch(ctx context.Context, id string) (*models.Match, error)
	FindMatch(ctx context.Context, hashA, hashB, optionsHash string) (*models.Match, error)
	ListPendingMatches(ctx context.Context) ([]models.Match, error)
	ListMatches(ctx context.Context, limit int) ([]models.Match, error)
	SetMatchOpponent(ctx context.Context, id, network2 string) error
	MatchGameSeedExists(ctx context.Context, matchID string, seed int64) (bool, error)
	MatchGameSGFExists(ctx context.Context, sgfHash string) (bool, error)
	// RecordMatchGame stores the game and counts it in one transaction.
	RecordMatchGame(ctx context.Context, matchID string, g *models.MatchGame, network1Won bool) (*models.Match, error)
}

// GameStore is the persisted self-play state used by the services.
// *db.Client implements it.
type GameStore interface {
	GameSGFExists(ctx context.Context, sgfHash string) (bool, error)
	CreateGame(ctx context.Context, g *models.Game) error
	IncrementNetworkGames(ctx context.Context, hash string) error
	ListGameSamples(ctx context.Context, since time.Time, limit int) ([]models.GameSample, error)
}

// Champion resolves and replaces the current best network.
// *champion.Cache implements it.
type Champion interface {
	Resolve(ctx context.Context) (string, error)
	Promote(ctx context.Context, incumbent, candidate string) (bool, error)
}

// Notifier announces promotions.
type Notifier interface {
	NetworkPromoted(ctx context.Context, hash string) error
}

var (
	_ MatchStore = (*db.Client)(nil)
	_ GameStore  = (*db.Client)(nil)
	_ Champion   = (*champion.Cache)(nil)
)
