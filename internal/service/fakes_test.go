package service

import (
	"bytes"
	"context"
	"fmt"
	"slices"
	"sync"
	"testing"
	"time"

	"github.com/klauspost/compress/gzip"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/zerosrv/internal/db"
	"github.com/raphaelgruber/zerosrv/internal/metrics"
	"github.com/raphaelgruber/zerosrv/internal/models"
)

// memStore is an in-memory MatchStore and GameStore.
type memStore struct {
	mu         sync.Mutex
	nextID     int
	matches    map[string]*models.Match
	matchGames []models.MatchGame
	games      []models.Game
	networks   map[string]int
	samples    []models.GameSample

	listCalls int
	failList  error

	// failRecord and failOpponent fail the next call of their write once.
	failRecord    error
	failOpponent  error
	opponentCalls int
}

func newMemStore() *memStore {
	return &memStore{
		matches:  map[string]*models.Match{},
		networks: map[string]int{},
	}
}

func testMatch(id, n1 string, n2 *string, wins, losses, toPlay int) models.Match {
	opts := models.MatchOptions{Visits: 3200, ResignationPercent: 10}
	return models.Match{
		ID:             surrealmodels.NewRecordID("match", id),
		Network1:       n1,
		Network2:       n2,
		Network1Wins:   wins,
		Network1Losses: losses,
		GameCount:      wins + losses,
		NumberToPlay:   toPlay,
		Options:        opts,
		OptionsHash:    opts.Hash(),
		Created:        time.Now(),
	}
}

func strPtr(s string) *string { return &s }

func (s *memStore) put(m models.Match) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cp := m
	s.matches[models.MustRecordIDString(m.ID)] = &cp
}

func (s *memStore) get(id string) models.Match {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.matches[id]
}

func (s *memStore) CreateMatch(_ context.Context, in db.MatchInput) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := fmt.Sprintf("m%d", s.nextID)
	m := &models.Match{
		ID:           surrealmodels.NewRecordID("match", id),
		Network1:     in.Network1,
		Network2:     in.Network2,
		NumberToPlay: in.NumberToPlay,
		Options:      in.Options,
		OptionsHash:  in.Options.Hash(),
		IsTest:       in.IsTest,
		Created:      time.Now(),
	}
	s.matches[id] = m
	cp := *m
	return &cp, nil
}

func (s *memStore) GetMatch(_ context.Context, id string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.matches[id]
	if !ok {
		return nil, db.ErrNotFound
	}
	cp := *m
	return &cp, nil
}

func (s *memStore) FindMatch(_ context.Context, a, b, optionsHash string) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.matches {
		if m.OptionsHash != optionsHash {
			continue
		}
		if (m.Network1 == a && m.Opponent() == b) || (m.Network1 == b && m.Opponent() == a) {
			cp := *m
			return &cp, nil
		}
	}
	return nil, db.ErrNotFound
}

func (s *memStore) ListPendingMatches(context.Context) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	var out []models.Match
	for _, m := range s.matches {
		if m.GameCount < m.NumberToPlay {
			out = append(out, *m)
		}
	}
	// Newest first, like the store's ORDER BY created DESC.
	slices.SortFunc(out, func(a, b models.Match) int { return b.Created.Compare(a.Created) })
	return out, nil
}

func (s *memStore) ListMatches(_ context.Context, limit int) ([]models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listCalls++
	var out []models.Match
	for _, m := range s.matches {
		out = append(out, *m)
	}
	slices.SortFunc(out, func(a, b models.Match) int { return b.Created.Compare(a.Created) })
	if len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}

func (s *memStore) SetMatchOpponent(_ context.Context, id, network2 string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.opponentCalls++
	if err := s.failOpponent; err != nil {
		s.failOpponent = nil
		return err
	}
	m, ok := s.matches[id]
	if !ok {
		return db.ErrNotFound
	}
	if m.Network2 == nil {
		m.Network2 = &network2
	}
	return nil
}

func (s *memStore) MatchGameSeedExists(_ context.Context, matchID string, seed int64) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.matchGames {
		if models.MustRecordIDString(g.Match) == matchID && g.RandomSeed == seed {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) MatchGameSGFExists(_ context.Context, sgfHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.matchGames {
		if g.SGFHash == sgfHash {
			return true, nil
		}
	}
	return false, nil
}

// RecordMatchGame applies both writes under one lock, or neither.
func (s *memStore) RecordMatchGame(_ context.Context, matchID string, g *models.MatchGame, network1Won bool) (*models.Match, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.failRecord; err != nil {
		s.failRecord = nil
		return nil, err
	}
	m, ok := s.matches[matchID]
	if !ok {
		return nil, db.ErrNotFound
	}
	for _, existing := range s.matchGames {
		if models.MustRecordIDString(existing.Match) == matchID && existing.RandomSeed == g.RandomSeed {
			return nil, db.ErrAlreadyExists
		}
		if existing.SGFHash == g.SGFHash {
			return nil, db.ErrAlreadyExists
		}
	}
	cp := *g
	cp.Match = surrealmodels.NewRecordID("match", matchID)
	s.matchGames = append(s.matchGames, cp)

	if network1Won {
		m.Network1Wins++
	} else {
		m.Network1Losses++
	}
	m.GameCount++
	out := *m
	return &out, nil
}

func (s *memStore) GameSGFExists(_ context.Context, sgfHash string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, g := range s.games {
		if g.SGFHash == sgfHash {
			return true, nil
		}
	}
	return false, nil
}

func (s *memStore) CreateGame(_ context.Context, g *models.Game) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games = append(s.games, *g)
	return nil
}

func (s *memStore) IncrementNetworkGames(_ context.Context, hash string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.networks[hash]++
	return nil
}

func (s *memStore) ListGameSamples(_ context.Context, since time.Time, limit int) ([]models.GameSample, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failList != nil {
		return nil, s.failList
	}
	var out []models.GameSample
	for _, g := range s.samples {
		if !g.Created.Before(since) && len(out) < limit {
			out = append(out, g)
		}
	}
	return out, nil
}

// fakeChampion is an in-memory Champion.
type fakeChampion struct {
	mu         sync.Mutex
	best       string
	err        error
	promotions []string
}

func (c *fakeChampion) Resolve(context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.best, c.err
}

func (c *fakeChampion) Promote(_ context.Context, incumbent, candidate string) (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.best != incumbent {
		return false, nil
	}
	c.best = candidate
	c.promotions = append(c.promotions, candidate)
	return true, nil
}

func (c *fakeChampion) promoted() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return slices.Clone(c.promotions)
}

// recordingNotifier collects promotion announcements.
type recordingNotifier struct {
	mu     sync.Mutex
	hashes []string
}

func (n *recordingNotifier) NetworkPromoted(_ context.Context, hash string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.hashes = append(n.hashes, hash)
	return nil
}

func (n *recordingNotifier) sent() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return slices.Clone(n.hashes)
}

func newTestMetrics() *metrics.Metrics {
	return metrics.New(prometheus.NewRegistry())
}

func gz(t *testing.T, content string) []byte {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	_, err := zw.Write([]byte(content))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	return buf.Bytes()
}
