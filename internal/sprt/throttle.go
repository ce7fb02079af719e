package sprt

// Default throttle settings.
const (
	DefaultPessimisticRate = 0.2
	DefaultQueueBuffer     = 25
)

// Throttle bounds how many match games may be in flight for a match, assuming
// outstanding games are won by the candidate at a pessimistic rate.
type Throttle struct {
	PessimisticRate float64
	Buffer          int
}

// NewThrottle returns a throttle with the default pessimistic rate and buffer.
func NewThrottle() Throttle {
	return Throttle{PessimisticRate: DefaultPessimisticRate, Buffer: DefaultQueueBuffer}
}

// GamesToQueue returns how many games should still be requested for a match
// with maxGames to play and the observed record. championTrack marks a
// candidate that already holds the champion spot; its match is played out.
// The result is always within [0, remaining+Buffer].
func (t Throttle) GamesToQueue(maxGames, wins, losses int, championTrack bool) int {
	remaining := maxGames - wins - losses
	if remaining < 0 {
		remaining = 0
	}

	switch CheckGames(wins, losses) {
	case Fail:
		return 0
	case Pass:
		return remaining
	}
	if championTrack {
		return remaining
	}

	w, l := float64(wins), float64(losses)
	for queued := 0; queued < remaining; queued++ {
		q := float64(queued)
		if Check(w+q*t.PessimisticRate, l+q*(1-t.PessimisticRate)) == Fail {
			return queued + t.Buffer
		}
	}
	return remaining + t.Buffer
}
