package models

import (
	"crypto/md5"
	"encoding/hex"
	"strconv"
)

// MatchOptions are the search parameters a worker plays a game with. Exactly
// one of Visits or Playouts is the search budget; Visits wins when both are set.
type MatchOptions struct {
	Visits             int     `json:"visits,omitempty" yaml:"visits"`
	Playouts           int     `json:"playouts,omitempty" yaml:"playouts"`
	ResignationPercent float64 `json:"resignation_percent" yaml:"resignation_percent"`
	Noise              bool    `json:"noise" yaml:"noise"`
	RandomCnt          int     `json:"randomcnt" yaml:"randomcnt"`
}

// Budget returns the visits or playouts value used for the search.
func (o MatchOptions) Budget() int {
	if o.Visits > 0 {
		return o.Visits
	}
	return o.Playouts
}

// Hash returns the 6 character options fingerprint workers tag results with.
func (o MatchOptions) Hash() string {
	s := strconv.Itoa(o.Budget()) +
		formatPercent(o.ResignationPercent) +
		strconv.FormatBool(o.Noise) +
		strconv.Itoa(o.RandomCnt)
	sum := md5.Sum([]byte(s))
	return hex.EncodeToString(sum[:])[:6]
}

// Wire renders the options as the string map workers expect. Visits-based
// options also carry playouts "0" so older workers don't apply a default.
func (o MatchOptions) Wire() map[string]string {
	m := map[string]string{
		"resignation_percent": formatPercent(o.ResignationPercent),
		"noise":               strconv.FormatBool(o.Noise),
		"randomcnt":           strconv.Itoa(o.RandomCnt),
	}
	if o.Visits > 0 {
		m["visits"] = strconv.Itoa(o.Visits)
		m["playouts"] = "0"
	} else {
		m["playouts"] = strconv.Itoa(o.Playouts)
	}
	return m
}

func formatPercent(p float64) string {
	return strconv.FormatFloat(p, 'f', -1, 64)
}
