package db

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/surrealdb/surrealdb.go"

	"github.com/raphaelgruber/zerosrv/internal/models"
)

// MatchInput holds the fields of a new match.
type MatchInput struct {
	Network1     string
	Network2     *string
	NumberToPlay int
	Options      models.MatchOptions
	IsTest       bool
}

// optionsVars renders match options for a SurrealQL object field. Unset
// budgets are left out so they stay NONE.
func optionsVars(o models.MatchOptions) map[string]any {
	m := map[string]any{
		"resignation_percent": o.ResignationPercent,
		"noise":               o.Noise,
		"randomcnt":           o.RandomCnt,
	}
	if o.Visits > 0 {
		m["visits"] = o.Visits
	}
	if o.Playouts > 0 {
		m["playouts"] = o.Playouts
	}
	return m
}

// firstMatch extracts the first row of a match query, or ErrNotFound.
func firstMatch(results *[]surrealdb.QueryResult[[]models.Match]) (*models.Match, error) {
	if results == nil || len(*results) == 0 || len((*results)[0].Result) == 0 {
		return nil, ErrNotFound
	}
	return &(*results)[0].Result[0], nil
}

// CreateMatch persists a new match with zeroed counters.
func (c *Client) CreateMatch(ctx context.Context, in MatchInput) (*models.Match, error) {
	sql := `
		CREATE type::record("match", $id) SET
			network1 = $network1,
			network2 = $network2,
			network1_wins = 0,
			network1_losses = 0,
			game_count = 0,
			number_to_play = $number_to_play,
			options = $options,
			options_hash = $options_hash,
			is_test = $is_test,
			created = time::now()
		RETURN AFTER
	`
	results, err := surrealdb.Query[[]models.Match](ctx, c.db, sql, map[string]any{
		"id":             uuid.New().String(),
		"network1":       in.Network1,
		"network2":       in.Network2,
		"number_to_play": in.NumberToPlay,
		"options":        optionsVars(in.Options),
		"options_hash":   in.Options.Hash(),
		"is_test":        in.IsTest,
	})
	if err != nil {
		return nil, fmt.Errorf("create match: %w", wrapQueryError(err))
	}
	m, err := firstMatch(results)
	if err != nil {
		return nil, fmt.Errorf("create match: no result returned")
	}
	return m, nil
}

// GetMatch retrieves a match by ID.
func (c *Client) GetMatch(ctx context.Context, id string) (*models.Match, error) {
	results, err := surrealdb.Query[[]models.Match](ctx, c.db, `
		SELECT * FROM type::record("match", $id)
	`, map[string]any{"id": id})
	if err != nil {
		return nil, fmt.Errorf("get match: %w", wrapQueryError(err))
	}
	return firstMatch(results)
}

// FindMatch looks up the newest match between two networks, in either
// order, played with the given options fingerprint.
func (c *Client) FindMatch(ctx context.Context, hashA, hashB, optionsHash string) (*models.Match, error) {
	results, err := surrealdb.Query[[]models.Match](ctx, c.db, `
		SELECT * FROM match
		WHERE options_hash = $options_hash
			AND ((network1 = $a AND network2 = $b) OR (network1 = $b AND network2 = $a))
		ORDER BY created DESC
		LIMIT 1
	`, map[string]any{"a": hashA, "b": hashB, "options_hash": optionsHash})
	if err != nil {
		return nil, fmt.Errorf("find match: %w", wrapQueryError(err))
	}
	return firstMatch(results)
}

// ListPendingMatches returns matches that have games left to play, newest first.
func (c *Client) ListPendingMatches(ctx context.Context) ([]models.Match, error) {
	results, err := surrealdb.Query[[]models.Match](ctx, c.db, `
		SELECT * FROM match WHERE game_count < number_to_play ORDER BY created DESC
	`, nil)
	if err != nil {
		return nil, fmt.Errorf("list pending matches: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.Match{}, nil
	}
	return (*results)[0].Result, nil
}

// ListMatches returns the most recent matches, newest first.
func (c *Client) ListMatches(ctx context.Context, limit int) ([]models.Match, error) {
	results, err := surrealdb.Query[[]models.Match](ctx, c.db, `
		SELECT * FROM match ORDER BY created DESC LIMIT $limit
	`, map[string]any{"limit": limit})
	if err != nil {
		return nil, fmt.Errorf("list matches: %w", err)
	}
	if results == nil || len(*results) == 0 {
		return []models.Match{}, nil
	}
	return (*results)[0].Result, nil
}

// SetMatchOpponent resolves a champion-placeholder opponent. It only writes
// while network2 is still unset, so repeating it is harmless.
func (c *Client) SetMatchOpponent(ctx context.Context, id, network2 string) error {
	_, err := surrealdb.Query[any](ctx, c.db, `
		UPDATE type::record("match", $id) SET network2 = $network2 WHERE network2 = NONE
	`, map[string]any{"id": id, "network2": network2})
	if err != nil {
		return fmt.Errorf("set match opponent: %w", wrapQueryError(err))
	}
	return nil
}
