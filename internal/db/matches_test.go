//go:build integration

package db_test

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/raphaelgruber/zerosrv/internal/db"
	"github.com/raphaelgruber/zerosrv/internal/models"
)

func defaultOptions() models.MatchOptions {
	return models.MatchOptions{Visits: 3200, ResignationPercent: 10}
}

func TestCreateAndGetMatch(t *testing.T) {
	ctx := testContext(t)

	m, err := testDB.CreateMatch(ctx, db.MatchInput{
		Network1:     "aaaa",
		NumberToPlay: 400,
		Options:      defaultOptions(),
	})
	require.NoError(t, err)
	assert.Equal(t, "aaaa", m.Network1)
	assert.Nil(t, m.Network2)
	assert.Equal(t, defaultOptions().Hash(), m.OptionsHash)
	assert.Equal(t, 3200, m.Options.Visits)
	assert.False(t, m.Created.IsZero())

	got, err := testDB.GetMatch(ctx, models.MustRecordIDString(m.ID))
	require.NoError(t, err)
	assert.Equal(t, m.Network1, got.Network1)
	assert.Equal(t, 400, got.NumberToPlay)

	_, err = testDB.GetMatch(ctx, "missing")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestFindMatchEitherOrder(t *testing.T) {
	ctx := testContext(t)
	champ := "bbbb"

	m, err := testDB.CreateMatch(ctx, db.MatchInput{
		Network1: "aaaa", Network2: &champ, NumberToPlay: 400, Options: defaultOptions(),
	})
	require.NoError(t, err)

	for _, pair := range [][2]string{{"aaaa", "bbbb"}, {"bbbb", "aaaa"}} {
		got, err := testDB.FindMatch(ctx, pair[0], pair[1], m.OptionsHash)
		require.NoError(t, err)
		assert.Equal(t, m.ID, got.ID)
	}

	_, err = testDB.FindMatch(ctx, "aaaa", "bbbb", "ffffff")
	assert.ErrorIs(t, err, db.ErrNotFound)
}

func TestSetMatchOpponentOnlyOnce(t *testing.T) {
	ctx := testContext(t)

	m, err := testDB.CreateMatch(ctx, db.MatchInput{Network1: "aaaa", NumberToPlay: 10, Options: defaultOptions()})
	require.NoError(t, err)
	id := models.MustRecordIDString(m.ID)

	require.NoError(t, testDB.SetMatchOpponent(ctx, id, "bbbb"))
	require.NoError(t, testDB.SetMatchOpponent(ctx, id, "cccc"))

	got, err := testDB.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "bbbb", got.Opponent())
}

func matchGame(seed int64) *models.MatchGame {
	return &models.MatchGame{
		ClientID: "10.0.0.1", WinnerHash: "aaaa", LoserHash: "bbbb", WinnerColor: "white",
		MovesCount: 180, Score: "W+R", ClientVersion: 16,
		SGF: "(;GM[1])", SGFHash: fmt.Sprintf("sgf-%d", seed), RandomSeed: seed,
	}
}

func TestRecordMatchGameConcurrent(t *testing.T) {
	ctx := testContext(t)
	champ := "bbbb"

	m, err := testDB.CreateMatch(ctx, db.MatchInput{
		Network1: "aaaa", Network2: &champ, NumberToPlay: 400, Options: defaultOptions(),
	})
	require.NoError(t, err)
	id := models.MustRecordIDString(m.ID)

	var wg sync.WaitGroup
	for i := range 20 {
		wg.Add(1)
		go func(seed int64, won bool) {
			defer wg.Done()
			_, err := testDB.RecordMatchGame(context.Background(), id, matchGame(seed), won)
			assert.NoError(t, err)
		}(int64(i), i%4 != 0)
	}
	wg.Wait()

	got, err := testDB.GetMatch(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, 15, got.Network1Wins)
	assert.Equal(t, 5, got.Network1Losses)
	assert.Equal(t, 20, got.GameCount)
}

func TestListPendingMatches(t *testing.T) {
	ctx := testContext(t)

	open, err := testDB.CreateMatch(ctx, db.MatchInput{Network1: "aaaa", NumberToPlay: 2, Options: defaultOptions()})
	require.NoError(t, err)
	done, err := testDB.CreateMatch(ctx, db.MatchInput{Network1: "cccc", NumberToPlay: 1, Options: defaultOptions()})
	require.NoError(t, err)
	_, err = testDB.RecordMatchGame(ctx, models.MustRecordIDString(done.ID), matchGame(1), true)
	require.NoError(t, err)

	pending, err := testDB.ListPendingMatches(ctx)
	require.NoError(t, err)
	require.Len(t, pending, 1)
	assert.Equal(t, open.ID, pending[0].ID)

	all, err := testDB.ListMatches(ctx, 100)
	require.NoError(t, err)
	assert.Len(t, all, 2)
}
