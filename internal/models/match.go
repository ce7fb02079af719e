package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"

	"github.com/raphaelgruber/zerosrv/internal/sprt"
)

// PromotionWinRate is the win rate a candidate needs once a match reaches its
// game cap without an SPRT pass.
const PromotionWinRate = 0.55

// Match is a trial of Network1 (challenger) against Network2. A nil Network2
// stands for "whichever network is champion when the first game is handed out".
type Match struct {
	ID             surrealmodels.RecordID `json:"id"`
	Network1       string                 `json:"network1"`
	Network2       *string                `json:"network2,omitempty"`
	Network1Wins   int                    `json:"network1_wins"`
	Network1Losses int                    `json:"network1_losses"`
	GameCount      int                    `json:"game_count"`
	NumberToPlay   int                    `json:"number_to_play"`
	Options        MatchOptions           `json:"options"`
	OptionsHash    string                 `json:"options_hash"`
	IsTest         bool                   `json:"is_test"`
	Created        time.Time              `json:"created,omitempty"`
}

// Opponent returns Network2, or "" while it is unresolved.
func (m *Match) Opponent() string {
	if m.Network2 == nil {
		return ""
	}
	return *m.Network2
}

// Result runs the sequential test on the recorded wins and losses.
func (m *Match) Result() sprt.Result {
	return sprt.CheckGames(m.Network1Wins, m.Network1Losses)
}

// WinRate returns Network1's share of finished games, or 0 before any game.
func (m *Match) WinRate() float64 {
	if m.GameCount == 0 {
		return 0
	}
	return float64(m.Network1Wins) / float64(m.GameCount)
}

// Complete reports whether the game cap has been reached.
func (m *Match) Complete() bool {
	return m.GameCount >= m.NumberToPlay
}

// Promotes reports whether Network1 has earned the champion spot: an SPRT
// pass, or a full match at the promotion win rate. Test matches never promote.
func (m *Match) Promotes() bool {
	if m.IsTest {
		return false
	}
	if m.Result() == sprt.Pass {
		return true
	}
	return m.Complete() && m.WinRate() >= PromotionWinRate
}

// MatchGame is one finished game of a match.
type MatchGame struct {
	ID            surrealmodels.RecordID `json:"id,omitempty"`
	Match         surrealmodels.RecordID `json:"match"`
	ClientID      string                 `json:"client_id"`
	WinnerHash    string                 `json:"winnerhash"`
	LoserHash     string                 `json:"loserhash"`
	WinnerColor   string                 `json:"winnercolor"`
	MovesCount    int                    `json:"movescount"`
	Score         string                 `json:"score"`
	OptionsHash   string                 `json:"options_hash"`
	Verification  string                 `json:"verification"`
	ClientVersion int                    `json:"clientversion"`
	SGF           string                 `json:"sgf"`
	SGFHash       string                 `json:"sgfhash"`
	RandomSeed    int64                  `json:"random_seed"`
	Created       time.Time              `json:"created,omitempty"`
}
