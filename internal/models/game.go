package models

import (
	"time"

	surrealmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

// Game is a self-play training game.
type Game struct {
	ID            surrealmodels.RecordID `json:"id,omitempty"`
	ClientID      string                 `json:"client_id"`
	NetworkHash   string                 `json:"networkhash"`
	SGF           string                 `json:"sgf"`
	SGFHash       string                 `json:"sgfhash"`
	OptionsHash   string                 `json:"options_hash,omitempty"`
	MovesCount    int                    `json:"movescount"`
	TrainingData  string                 `json:"data"`
	ClientVersion int                    `json:"clientversion"`
	WinnerColor   string                 `json:"winnercolor,omitempty"`
	RandomSeed    int64                  `json:"random_seed"`
	Created       time.Time              `json:"created,omitempty"`
}

// GameSample is the slice of a self-play game used to estimate worker speed.
type GameSample struct {
	ClientID   string    `json:"client_id"`
	MovesCount int       `json:"movescount"`
	RandomSeed int64     `json:"random_seed"`
	Created    time.Time `json:"created"`
}

// Network is an uploaded model, identified by the SHA-256 of its weights.
type Network struct {
	ID            surrealmodels.RecordID `json:"id,omitempty"`
	Hash          string                 `json:"hash"`
	GameCount     int                    `json:"game_count"`
	TrainingCount *int                   `json:"training_count,omitempty"`
	TrainingSteps *int                   `json:"training_steps,omitempty"`
	Description   *string                `json:"description,omitempty"`
	Created       time.Time              `json:"created,omitempty"`
}
