package service

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"sync"

	"github.com/klauspost/compress/gzip"

	"github.com/raphaelgruber/zerosrv/internal/metrics"
	"github.com/raphaelgruber/zerosrv/internal/models"
	"github.com/raphaelgruber/zerosrv/internal/sprt"
	"github.com/raphaelgruber/zerosrv/internal/verify"
)

// MatchSubmission is a worker's report of a finished match game. Every field
// is mandatory. Field names follow the worker's form keys.
type MatchSubmission struct {
	ClientID      string `validate:"required"`
	ClientVersion string `validate:"required,numeric"`
	WinnerHash    string `validate:"required"`
	LoserHash     string `validate:"required"`
	WinnerColor   string `validate:"required"`
	MovesCount    string `validate:"required,numeric"`
	Score         string `validate:"required"`
	OptionsHash   string `validate:"required"`
	RandomSeed    string `validate:"required,seed"`
	// SGF is the gzip-compressed game record.
	SGF []byte `validate:"required"`
}

// MatchOutcome is the result of an accepted match game.
type MatchOutcome struct {
	Match    models.Match
	SGFHash  string
	Result   sprt.Result
	Promoted bool
}

// ResultIngester validates and applies match results.
type ResultIngester struct {
	store    MatchStore
	queue    *MatchQueue
	champion Champion
	verifier *verify.Verifier
	listing  *MatchListing
	notifier Notifier
	metrics  *metrics.Metrics
	logger   *slog.Logger

	// notifications tracks fire-and-forget promotion announcements.
	notifications sync.WaitGroup
}

// NewResultIngester creates a result ingester. notifier may be nil.
func NewResultIngester(
	store MatchStore,
	queue *MatchQueue,
	champ Champion,
	verifier *verify.Verifier,
	listing *MatchListing,
	notifier Notifier,
	m *metrics.Metrics,
	logger *slog.Logger,
) *ResultIngester {
	if logger == nil {
		logger = slog.Default()
	}
	return &ResultIngester{
		store:    store,
		queue:    queue,
		champion: champ,
		verifier: verifier,
		listing:  listing,
		notifier: notifier,
		metrics:  m,
		logger:   logger,
	}
}

// SubmitMatchResult records one match game, updates the queue and promotes
// network1 if the match is won against the champion.
func (r *ResultIngester) SubmitMatchResult(ctx context.Context, sub MatchSubmission) (*MatchOutcome, error) {
	out, err := r.submit(ctx, sub)
	r.metrics.Results.WithLabelValues(models.CmdMatch, Outcome(err)).Inc()
	return out, err
}

func (r *ResultIngester) submit(ctx context.Context, sub MatchSubmission) (*MatchOutcome, error) {
	if err := validateStruct(sub); err != nil {
		return nil, err
	}
	seed, err := models.ParseSeed(sub.RandomSeed)
	if err != nil {
		return nil, validationError("random_seed: %v", err)
	}
	clientVersion, _ := strconv.Atoi(sub.ClientVersion)
	moves, _ := strconv.Atoi(sub.MovesCount)

	check := r.verifier.Verify(sub.RandomSeed, sub.WinnerHash, sub.LoserHash, sub.OptionsHash)
	if !check.Valid {
		r.metrics.VerificationFailures.Inc()
		r.logger.Warn("match result failed verification",
			"client", sub.ClientID,
			"seed", sub.RandomSeed,
			"winner", sub.WinnerHash,
			"loser", sub.LoserHash,
			"code", check.Code)
		return nil, fmt.Errorf("%w: seed %s", ErrVerification, sub.RandomSeed)
	}

	match, err := r.store.FindMatch(ctx, sub.WinnerHash, sub.LoserHash, check.OptionsHash)
	if err != nil {
		return nil, storeError("find match", err)
	}
	id := matchID(match)

	sgf, err := gunzip(sub.SGF, maxInflatedSize)
	if err != nil {
		return nil, validationError("sgf: %v", err)
	}
	sgfHash := sha256Hex(sgf)

	if dup, err := r.store.MatchGameSeedExists(ctx, id, int64(seed)); err != nil {
		return nil, storeError("check seed", err)
	} else if dup {
		return nil, fmt.Errorf("%w: seed %s already recorded for match %s", ErrDuplicate, sub.RandomSeed, id)
	}
	if dup, err := r.store.MatchGameSGFExists(ctx, sgfHash); err != nil {
		return nil, storeError("check sgf", err)
	} else if dup {
		return nil, fmt.Errorf("%w: sgf %s already recorded", ErrDuplicate, sgfHash)
	}

	game := &models.MatchGame{
		ClientID:      sub.ClientID,
		WinnerHash:    sub.WinnerHash,
		LoserHash:     sub.LoserHash,
		WinnerColor:   sub.WinnerColor,
		MovesCount:    moves,
		Score:         sub.Score,
		OptionsHash:   check.OptionsHash,
		Verification:  check.Code,
		ClientVersion: clientVersion,
		SGF:           string(sgf),
		SGFHash:       sgfHash,
		RandomSeed:    int64(seed),
	}
	updated, err := r.store.RecordMatchGame(ctx, id, game, sub.WinnerHash == match.Network1)
	if err != nil {
		return nil, storeError("record match game", err)
	}

	result, queued := r.queue.ApplyResult(*updated, seed)
	r.metrics.PendingMatches.Set(float64(r.queue.Len()))
	r.logger.Info("match game recorded",
		"client", sub.ClientID,
		"match_id", id,
		"sgfhash", sgfHash,
		"wins", updated.Network1Wins,
		"losses", updated.Network1Losses,
		"sprt", result.String(),
		"queued", queued)

	promoted := r.checkPromotion(ctx, updated)
	if !promoted {
		// Another submission may have committed later counters; decide on
		// the freshest durable state as well.
		if fresh, err := r.store.GetMatch(ctx, id); err != nil {
			r.logger.Warn("failed to re-read match for promotion check", "match_id", id, "error", err)
		} else {
			promoted = r.checkPromotion(ctx, fresh)
		}
	}

	r.listing.Invalidate()

	return &MatchOutcome{Match: *updated, SGFHash: sgfHash, Result: result, Promoted: promoted}, nil
}

// checkPromotion promotes m.Network1 when m was won against the current
// champion. Failures are logged; the recorded game stands either way.
func (r *ResultIngester) checkPromotion(ctx context.Context, m *models.Match) bool {
	if !m.Promotes() {
		return false
	}

	best, err := r.champion.Resolve(ctx)
	if err != nil {
		r.logger.Error("promotion check could not resolve champion", "match_id", matchID(m), "error", err)
		return false
	}
	if m.Opponent() != best {
		return false
	}

	ok, err := r.champion.Promote(ctx, best, m.Network1)
	if err != nil {
		r.logger.Error("promotion failed", "match_id", matchID(m), "candidate", m.Network1, "error", err)
		return false
	}
	if !ok {
		return false
	}

	r.metrics.Promotions.Inc()
	r.logger.Info("network promoted",
		"match_id", matchID(m),
		"hash", m.Network1,
		"previous", best,
		"wins", m.Network1Wins,
		"losses", m.Network1Losses)

	if r.notifier != nil {
		hash := m.Network1
		r.notifications.Go(func() {
			if err := r.notifier.NetworkPromoted(context.Background(), hash); err != nil {
				r.logger.Warn("promotion notification failed", "hash", hash, "error", err)
			}
		})
	}
	return true
}

// Wait blocks until pending promotion notifications have been sent.
func (r *ResultIngester) Wait() {
	r.notifications.Wait()
}

// maxInflatedSize caps the decompressed size of an uploaded SGF or
// training data file.
const maxInflatedSize = 256 << 20

var errInflatedTooLarge = errors.New("decompressed size exceeds limit")

// gunzip decompresses data, failing once the output passes limit bytes.
func gunzip(data []byte, limit int64) ([]byte, error) {
	zr, err := gzip.NewReader(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}
	defer zr.Close()

	out, err := io.ReadAll(io.LimitReader(zr, limit+1))
	if err != nil {
		return nil, err
	}
	if int64(len(out)) > limit {
		return nil, fmt.Errorf("%w (%d bytes)", errInflatedTooLarge, limit)
	}
	return out, nil
}

func sha256Hex(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
