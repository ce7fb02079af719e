package service

import (
	"container/list"
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/raphaelgruber/zerosrv/internal/models"
	"github.com/raphaelgruber/zerosrv/internal/sprt"
)

// DefaultRequestExpiry is how long a dispatched match game counts as in flight.
const DefaultRequestExpiry = 30 * time.Minute

// Request is a match game handed to a worker and not yet returned.
type Request struct {
	Timestamp time.Time
	Seed      models.Seed
}

// Entry is the queue's view of an active match. Match mirrors the persisted
// counters; Requests and GameColor exist only in memory.
type Entry struct {
	Match     models.Match
	Requests  []Request
	GameColor bool
}

// prune drops requests dispatched before now-expiry. Requests are appended
// in dispatch order, so the expired ones form a prefix.
func (e *Entry) prune(now time.Time, expiry time.Duration) int {
	cutoff := now.Add(-expiry)
	n := 0
	for n < len(e.Requests) && e.Requests[n].Timestamp.Before(cutoff) {
		n++
	}
	e.Requests = e.Requests[n:]
	return n
}

func (e *Entry) removeRequest(seed models.Seed) bool {
	for i, r := range e.Requests {
		if r.Seed == seed {
			e.Requests = append(e.Requests[:i], e.Requests[i+1:]...)
			return true
		}
	}
	return false
}

// Claim is a match game picked for dispatch.
type Claim struct {
	Match     models.Match
	WhiteHash string
	BlackHash string
	// OpponentResolved is set when this dispatch bound a champion
	// placeholder to a concrete network that still needs persisting.
	OpponentResolved bool
}

// PendingLister loads the matches that still have games to play.
type PendingLister interface {
	ListPendingMatches(ctx context.Context) ([]models.Match, error)
}

// MatchQueue orders active matches by priority. The front holds matches
// that already passed SPRT and are finishing their game count; undecided
// matches queue behind them and are served from the back.
type MatchQueue struct {
	mu    sync.Mutex
	order *list.List
	byID  map[string]*list.Element

	// repopulating guards against overlapping Repopulate calls.
	repopulating sync.Mutex

	throttle sprt.Throttle
	expiry   time.Duration
	logger   *slog.Logger
}

// NewMatchQueue creates an empty queue.
func NewMatchQueue(throttle sprt.Throttle, expiry time.Duration, logger *slog.Logger) *MatchQueue {
	if expiry <= 0 {
		expiry = DefaultRequestExpiry
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &MatchQueue{
		order:    list.New(),
		byID:     make(map[string]*list.Element),
		throttle: throttle,
		expiry:   expiry,
		logger:   logger,
	}
}

func matchID(m *models.Match) string {
	if s, err := models.RecordIDString(m.ID); err == nil {
		return s
	}
	return fmt.Sprint(m.ID.ID)
}

// Repopulate rebuilds the queue from the store: failed matches are dropped,
// passed matches go to the front and undecided ones to the back. In-flight
// requests of matches that stay queued are kept. A call made while another
// is running returns immediately.
func (q *MatchQueue) Repopulate(ctx context.Context, store PendingLister) error {
	if !q.repopulating.TryLock() {
		q.logger.Debug("queue repopulation already running")
		return nil
	}
	defer q.repopulating.Unlock()

	matches, err := store.ListPendingMatches(ctx)
	if err != nil {
		return fmt.Errorf("repopulate queue: %w", err)
	}

	q.mu.Lock()
	defer q.mu.Unlock()

	order := list.New()
	byID := make(map[string]*list.Element, len(matches))
	for _, m := range matches {
		id := matchID(&m)
		entry := &Entry{Match: m}
		if old, ok := q.byID[id]; ok {
			prev := old.Value.(*Entry)
			entry.Requests = prev.Requests
			entry.GameColor = prev.GameColor
		}

		switch m.Result() {
		case sprt.Fail:
			continue
		case sprt.Pass:
			byID[id] = order.PushFront(entry)
			q.logger.Info("queued passed match at front", "match_id", id, "wins", m.Network1Wins, "losses", m.Network1Losses)
		default:
			byID[id] = order.PushBack(entry)
			q.logger.Info("queued match", "match_id", id, "wins", m.Network1Wins, "losses", m.Network1Losses)
		}
	}

	q.order = order
	q.byID = byID
	q.logger.Info("match queue repopulated", "pending", order.Len(), "loaded", len(matches))
	return nil
}

// AddFront queues a match at the highest priority, moving it if present.
func (q *MatchQueue) AddFront(m models.Match) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := matchID(&m)
	if el, ok := q.byID[id]; ok {
		el.Value.(*Entry).Match = m
		q.order.MoveToFront(el)
		return
	}
	q.byID[id] = q.order.PushFront(&Entry{Match: m})
}

// Claim walks the queue from the back and reserves one game of the first
// match whose throttled need exceeds its in-flight requests. champion is
// the current champion hash, used for unresolved opponents and to detect
// champion-track candidates.
func (q *MatchQueue) Claim(now time.Time, champion string, seed models.Seed) (*Claim, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	for el := q.order.Back(); el != nil; el = el.Prev() {
		entry := el.Value.(*Entry)
		m := &entry.Match

		expired := entry.prune(now, q.expiry)
		needed := q.throttle.GamesToQueue(m.NumberToPlay, m.Network1Wins, m.Network1Losses, m.Network1 == champion)
		requested := len(entry.Requests)

		q.logger.Debug("match queue need",
			"match_id", matchID(m), "needed", needed, "requested", requested, "expired", expired)
		if needed <= requested {
			continue
		}

		claim := &Claim{}
		if m.Network2 == nil {
			c := champion
			m.Network2 = &c
			claim.OpponentResolved = true
		}

		entry.GameColor = !entry.GameColor
		if entry.GameColor {
			claim.WhiteHash, claim.BlackHash = m.Network1, *m.Network2
		} else {
			claim.WhiteHash, claim.BlackHash = *m.Network2, m.Network1
		}

		entry.Requests = append(entry.Requests, Request{Timestamp: now, Seed: seed})
		claim.Match = *m

		if m.GameCount+len(entry.Requests) >= m.NumberToPlay {
			q.remove(el)
		}
		return claim, true
	}
	return nil, false
}

// ApplyResult projects committed counters onto the match's entry and
// re-evaluates its position. Counters are only taken when they are newer
// than the mirrored ones, so results committed out of order converge.
// It reports the SPRT result and whether the match was queued.
func (q *MatchQueue) ApplyResult(updated models.Match, seed models.Seed) (sprt.Result, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	id := matchID(&updated)
	el, ok := q.byID[id]
	if !ok {
		return updated.Result(), false
	}
	entry := el.Value.(*Entry)
	entry.removeRequest(seed)

	m := &entry.Match
	if updated.GameCount > m.GameCount {
		m.Network1Wins = updated.Network1Wins
		m.Network1Losses = updated.Network1Losses
		m.GameCount = updated.GameCount
	}

	result := m.Result()
	switch result {
	case sprt.Fail:
		q.remove(el)
		q.logger.Info("SPRT fail, match removed from queue", "match_id", id, "wins", m.Network1Wins, "losses", m.Network1Losses)
	case sprt.Pass:
		if m.GameCount >= m.NumberToPlay {
			q.remove(el)
			q.logger.Info("SPRT pass, match complete", "match_id", id)
		} else {
			q.order.MoveToFront(el)
			q.logger.Info("SPRT pass, match moved to front", "match_id", id, "wins", m.Network1Wins, "losses", m.Network1Losses)
		}
	}
	return result, true
}

// UnresolveOpponent clears an opponent bound by Claim whose write did not
// reach the store, so the next Claim binds it again and repeats the write.
// It reports whether the queued entry was reset.
func (q *MatchQueue) UnresolveOpponent(id, network2 string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	el, ok := q.byID[id]
	if !ok {
		return false
	}
	m := &el.Value.(*Entry).Match
	if m.Network2 == nil || *m.Network2 != network2 {
		return false
	}
	m.Network2 = nil
	return true
}

// Remove drops a match from the queue.
func (q *MatchQueue) Remove(id string) bool {
	q.mu.Lock()
	defer q.mu.Unlock()
	el, ok := q.byID[id]
	if ok {
		q.remove(el)
	}
	return ok
}

// remove unlinks el. Caller must hold q.mu.
func (q *MatchQueue) remove(el *list.Element) {
	entry := el.Value.(*Entry)
	delete(q.byID, matchID(&entry.Match))
	q.order.Remove(el)
}

// Len returns the number of queued matches.
func (q *MatchQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return q.order.Len()
}

// Snapshot returns copies of the queued entries, front first.
func (q *MatchQueue) Snapshot() []Entry {
	q.mu.Lock()
	defer q.mu.Unlock()

	out := make([]Entry, 0, q.order.Len())
	for el := q.order.Front(); el != nil; el = el.Next() {
		e := el.Value.(*Entry)
		out = append(out, Entry{
			Match:     e.Match,
			Requests:  append([]Request(nil), e.Requests...),
			GameColor: e.GameColor,
		})
	}
	return out
}
