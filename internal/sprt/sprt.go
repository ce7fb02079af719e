// Package sprt implements the sequential probability ratio test used to
// decide whether a candidate network is stronger than its opponent.
package sprt

import (
	"math"
)

// Result is the outcome of a sequential test.
type Result int

const (
	// Continue means the evidence is not yet conclusive.
	Continue Result = iota
	// Pass means the candidate is significantly stronger.
	Pass
	// Fail means the candidate cannot reach the required strength.
	Fail
)

func (r Result) String() string {
	switch r {
	case Pass:
		return "PASS"
	case Fail:
		return "FAIL"
	default:
		return "CONTINUE"
	}
}

// Test parameters: H0 elo=0 against H1 elo=35 at alpha=beta=0.05.
const (
	Elo0  = 0.0
	Elo1  = 35.0
	Alpha = 0.05
	Beta  = 0.05

	// MaxGames is the hard stop used by the win/futility shortcuts.
	MaxGames = 400

	// minPassGames is the number of games that must be exceeded before
	// the classical test may report a pass.
	minPassGames = 100
)

var (
	lowerBound = math.Log(Beta / (1 - Alpha))
	upperBound = math.Log((1 - Beta) / Alpha)
)

// LL is the logistic win probability for an elo difference.
func LL(elo float64) float64 {
	return 1 / (1 + math.Pow(10, -elo/400))
}

// LLR returns the log-likelihood ratio of the win/loss record for elo1
// against elo0. Zero counts are treated as 1.
func LLR(wins, losses, elo0, elo1 float64) float64 {
	if wins == 0 {
		wins = 1
	}
	if losses == 0 {
		losses = 1
	}

	n := wins + losses
	s := wins / n
	variance := s - s*s
	varianceS := variance / n
	s0 := LL(elo0)
	s1 := LL(elo1)

	return (s1 - s0) * (2*s - s0 - s1) / varianceS / 2.0
}

// classic is the plain two-sided SPRT against the fixed bounds.
func classic(wins, losses float64) Result {
	llr := LLR(wins, losses, Elo0, Elo1)
	if llr > upperBound && wins+losses > minPassGames {
		return Pass
	}
	if llr < lowerBound {
		return Fail
	}
	return Continue
}

func stdev(n float64) float64 {
	return math.Sqrt(n / 4)
}

// aim is the number of wins out of MaxGames that counts as a certain pass.
func aim() float64 {
	return MaxGames/2 + 2*stdev(MaxGames)
}

// canReachLimit reports whether the aim is still reachable within max games,
// allowing three standard deviations of luck on the remaining games.
func canReachLimit(wins, losses, max, aim float64) bool {
	aimPerc := aim / max
	remaining := max - wins - losses
	expected := remaining * aimPerc
	maxExpected := expected + 3*stdev(remaining)
	needed := aim - wins
	return maxExpected > needed
}

// Check runs the composite test: a hard-stop pass once MaxGames were played
// at the aim rate, an early fail when the aim is out of reach, and the
// classical SPRT otherwise. Fractional counts are allowed.
func Check(wins, losses float64) Result {
	a := aim()
	if wins+losses >= MaxGames && wins/(wins+losses) >= a/MaxGames {
		return Pass
	}
	if !canReachLimit(wins, losses, MaxGames, a) {
		return Fail
	}
	return classic(wins, losses)
}

// CheckGames is Check for whole game counts.
func CheckGames(wins, losses int) Result {
	return Check(float64(wins), float64(losses))
}

// Confidence maps an undecided LLR onto 0..100, where 0 sits on the fail
// bound and 100 on the pass bound.
func Confidence(wins, losses int) int {
	llr := LLR(float64(wins), float64(losses), Elo0, Elo1)
	return int(math.Round(100 * (upperBound + llr) / (upperBound - lowerBound)))
}

// EloFromPercent converts a win fraction into an elo difference.
func EloFromPercent(p float64) float64 {
	return -400 * math.Log10(1/p-1)
}
