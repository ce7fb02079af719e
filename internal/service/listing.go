package service

import (
	"context"
	"math"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/raphaelgruber/zerosrv/internal/models"
	"github.com/raphaelgruber/zerosrv/internal/sprt"
)

// Listing defaults.
const (
	DefaultListingLimit = 100
	DefaultListingTTL   = 24 * time.Hour
	listingKey          = "matches"
)

// MatchLister loads recent matches.
type MatchLister interface {
	ListMatches(ctx context.Context, limit int) ([]models.Match, error)
}

// MatchSummary is a match as shown in listings.
type MatchSummary struct {
	ID           string    `json:"id"`
	Network1     string    `json:"network1"`
	Network2     string    `json:"network2,omitempty"`
	Wins         int       `json:"wins"`
	Losses       int       `json:"losses"`
	GameCount    int       `json:"game_count"`
	NumberToPlay int       `json:"number_to_play"`
	WinRate      float64   `json:"win_rate"`
	Elo          *float64  `json:"elo,omitempty"`
	SPRT         string    `json:"sprt"`
	Confidence   *int      `json:"confidence,omitempty"`
	IsTest       bool      `json:"is_test"`
	Created      time.Time `json:"created"`
}

// Summarize renders a match for listings. Undecided matches carry the LLR
// position between the fail and pass bounds as a 0..100 confidence.
func Summarize(m models.Match) MatchSummary {
	s := MatchSummary{
		ID:           matchID(&m),
		Network1:     m.Network1,
		Network2:     m.Opponent(),
		Wins:         m.Network1Wins,
		Losses:       m.Network1Losses,
		GameCount:    m.GameCount,
		NumberToPlay: m.NumberToPlay,
		WinRate:      m.WinRate(),
		IsTest:       m.IsTest,
		Created:      m.Created,
	}

	if s.WinRate > 0 && s.WinRate < 1 {
		elo := roundElo(sprt.EloFromPercent(s.WinRate))
		s.Elo = &elo
	}

	result := m.Result()
	s.SPRT = result.String()
	if result == sprt.Continue {
		c := min(max(sprt.Confidence(m.Network1Wins, m.Network1Losses), 0), 100)
		s.Confidence = &c
	}
	return s
}

// MatchListing serves recent matches from an expiring cache that is purged
// whenever match scores change.
type MatchListing struct {
	store MatchLister
	limit int
	cache *expirable.LRU[string, []MatchSummary]
}

// NewMatchListing creates a listing of up to limit matches cached for ttl.
func NewMatchListing(store MatchLister, limit int, ttl time.Duration) *MatchListing {
	if limit <= 0 {
		limit = DefaultListingLimit
	}
	if ttl <= 0 {
		ttl = DefaultListingTTL
	}
	return &MatchListing{
		store: store,
		limit: limit,
		cache: expirable.NewLRU[string, []MatchSummary](1, nil, ttl),
	}
}

// List returns the most recent matches, newest first.
func (l *MatchListing) List(ctx context.Context) ([]MatchSummary, error) {
	if cached, ok := l.cache.Get(listingKey); ok {
		return cached, nil
	}

	matches, err := l.store.ListMatches(ctx, l.limit)
	if err != nil {
		return nil, storeError("list matches", err)
	}

	out := make([]MatchSummary, 0, len(matches))
	for _, m := range matches {
		out = append(out, Summarize(m))
	}
	l.cache.Add(listingKey, out)
	return out, nil
}

// Invalidate drops the cached listing. Safe on a nil listing.
func (l *MatchListing) Invalidate() {
	if l == nil {
		return
	}
	l.cache.Purge()
}

// roundElo rounds an elo estimate for display.
func roundElo(elo float64) float64 {
	return math.Round(elo*10) / 10
}
