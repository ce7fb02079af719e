package db

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/zerosrv/internal/models"
)

type countRow struct {
	C int `json:"c"`
}

func (c *Client) count(ctx context.Context, sql string, vars map[string]any) (int, error) {
	results, err := surrealdb.Query[[]countRow](ctx, c.db, sql, vars)
	if err != nil {
		return 0, err
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return 0, nil
	}
	return (*results)[0].Result[0].C, nil
}

// MatchGameSeedExists reports whether a game with this seed was already
// recorded for the match.
func (c *Client) MatchGameSeedExists(ctx context.Context, matchID string, seed int64) (bool, error) {
	n, err := c.count(ctx, `
		SELECT count() AS c FROM match_game
		WHERE match = type::record("match", $match) AND random_seed = $seed
		GROUP ALL
	`, map[string]any{"match": matchID, "seed": seed})
	if err != nil {
		return false, fmt.Errorf("match game seed exists: %w", err)
	}
	return n > 0, nil
}

// MatchGameSGFExists reports whether a match game with this SGF hash exists.
func (c *Client) MatchGameSGFExists(ctx context.Context, sgfHash string) (bool, error) {
	n, err := c.count(ctx, `
		SELECT count() AS c FROM match_game WHERE sgfhash = $sgfhash GROUP ALL
	`, map[string]any{"sgfhash": sgfHash})
	if err != nil {
		return false, fmt.Errorf("match game sgf exists: %w", err)
	}
	return n > 0, nil
}

// recordAttempts bounds retries of a match game transaction that lost a
// conflict against a concurrent result for the same match.
const recordAttempts = 5

// RecordMatchGame stores a finished match game and counts it for network1 in
// one transaction, returning the match counters as committed. Either both
// writes land or neither does. Returns ErrAlreadyExists if the seed or SGF
// hash was already recorded.
func (c *Client) RecordMatchGame(ctx context.Context, matchID string, g *models.MatchGame, network1Won bool) (*models.Match, error) {
	win, loss := 0, 1
	if network1Won {
		win, loss = 1, 0
	}
	vars := map[string]any{
		"match":         matchID,
		"client_id":     g.ClientID,
		"winnerhash":    g.WinnerHash,
		"loserhash":     g.LoserHash,
		"winnercolor":   g.WinnerColor,
		"movescount":    g.MovesCount,
		"score":         g.Score,
		"options_hash":  g.OptionsHash,
		"verification":  g.Verification,
		"clientversion": g.ClientVersion,
		"sgf":           g.SGF,
		"sgfhash":       g.SGFHash,
		"random_seed":   g.RandomSeed,
		"win":           win,
		"loss":          loss,
	}

	var err error
	for range recordAttempts {
		var m *models.Match
		m, err = c.recordMatchGame(ctx, vars)
		if !errors.Is(err, ErrTransactionConflict) {
			return m, err
		}
	}
	return nil, err
}

func (c *Client) recordMatchGame(ctx context.Context, vars map[string]any) (*models.Match, error) {
	results, err := surrealdb.Query[[]models.Match](ctx, c.db, `
		BEGIN TRANSACTION;
		CREATE match_game SET
			match = type::record("match", $match),
			client_id = $client_id,
			winnerhash = $winnerhash,
			loserhash = $loserhash,
			winnercolor = $winnercolor,
			movescount = $movescount,
			score = $score,
			options_hash = $options_hash,
			verification = $verification,
			clientversion = $clientversion,
			sgf = $sgf,
			sgfhash = $sgfhash,
			random_seed = $random_seed,
			created = time::now()
		RETURN NONE;
		UPDATE type::record("match", $match) SET
			network1_wins += $win,
			network1_losses += $loss,
			game_count += 1
		RETURN AFTER;
		COMMIT TRANSACTION;
	`, vars)
	if err != nil {
		return nil, fmt.Errorf("record match game: %w", wrapQueryError(err))
	}
	if results == nil || len(*results) == 0 {
		return nil, ErrNotFound
	}
	// The counter update is the last statement that returns rows.
	last := (*results)[len(*results)-1].Result
	if len(last) == 0 {
		return nil, ErrNotFound
	}
	return &last[0], nil
}

// GameSGFExists reports whether a self-play game with this SGF hash exists.
func (c *Client) GameSGFExists(ctx context.Context, sgfHash string) (bool, error) {
	n, err := c.count(ctx, `
		SELECT count() AS c FROM game WHERE sgfhash = $sgfhash GROUP ALL
	`, map[string]any{"sgfhash": sgfHash})
	if err != nil {
		return false, fmt.Errorf("game sgf exists: %w", err)
	}
	return n > 0, nil
}

// CreateGame stores a self-play game. Returns ErrAlreadyExists on a
// duplicate SGF hash.
func (c *Client) CreateGame(ctx context.Context, g *models.Game) error {
	var optionsHash, winnerColor *string
	if g.OptionsHash != "" {
		optionsHash = &g.OptionsHash
	}
	if g.WinnerColor != "" {
		winnerColor = &g.WinnerColor
	}

	_, err := surrealdb.Query[any](ctx, c.db, `
		CREATE game SET
			client_id = $client_id,
			networkhash = $networkhash,
			sgf = $sgf,
			sgfhash = $sgfhash,
			options_hash = $options_hash,
			movescount = $movescount,
			data = $data,
			clientversion = $clientversion,
			winnercolor = $winnercolor,
			random_seed = $random_seed,
			created = time::now()
	`, map[string]any{
		"client_id":     g.ClientID,
		"networkhash":   g.NetworkHash,
		"sgf":           g.SGF,
		"sgfhash":       g.SGFHash,
		"options_hash":  optionsHash,
		"movescount":    g.MovesCount,
		"data":          g.TrainingData,
		"clientversion": g.ClientVersion,
		"winnercolor":   winnerColor,
		"random_seed":   g.RandomSeed,
	})
	if err != nil {
		return fmt.Errorf("create game: %w", wrapQueryError(err))
	}
	return nil
}

// ListGameSamples returns speed samples of self-play games created after
// since, newest first, at most limit rows.
func (c *Client) ListGameSamples(ctx context.Context, since time.Time, limit int) ([]models.GameSample, error) {
	results, err := surrealdb.Query[[]models.GameSample](ctx, c.db, `
		SELECT client_id, movescount, random_seed, created FROM game
		WHERE created > $since
		ORDER BY created DESC
		LIMIT $limit
	`, map[string]any{"since": since, "limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list game samples: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.GameSample{}, nil
	}
	return (*results)[0].Result, nil
}

// IncrementNetworkGames counts one self-play game for a network, creating
// the network row on its first game.
func (c *Client) IncrementNetworkGames(ctx context.Context, hash string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPSERT type::record("network", $hash) SET
			hash = $hash,
			game_count = (game_count ?? 0) + 1
	`, map[string]any{"hash": hash})
	if err != nil {
		return fmt.Errorf("increment network games: %w", wrapQueryError(err))
	}
	return nil
}

// GetNetwork retrieves a network by hash.
func (c *Client) GetNetwork(ctx context.Context, hash string) (*models.Network, error) {
	results, err := surrealdb.Query[[]models.Network](ctx, c.db, `
		SELECT * FROM type::record("network", $hash)
	`, map[string]any{"hash": hash})
	if err != nil {
		return nil, fmt.Errorf("get network: %w", err)
	}
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}
