package models

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"time"
)

// Seed is a task's random seed. The low 32 bits carry the Unix time in
// seconds the task was issued, the high bits are random.
type Seed int64

// MakeSeed builds a seed from a timestamp and the high 32 bits.
func MakeSeed(seconds, high uint32) Seed {
	return Seed(int64(uint64(high)<<32 | uint64(seconds)))
}

// NewSeed returns a seed stamped with now and 31 random high bits, so the
// decimal form is never negative.
func NewSeed(now time.Time) Seed {
	return MakeSeed(uint32(now.Unix()), rand.Uint32()>>1)
}

// ParseSeed parses a decimal seed. Both signed and unsigned 64-bit forms are
// accepted since older workers echo seeds either way.
func ParseSeed(s string) (Seed, error) {
	if v, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Seed(v), nil
	}
	u, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid seed %q: %w", s, err)
	}
	return Seed(int64(u)), nil
}

// Timestamp returns the embedded issue time in Unix seconds.
func (s Seed) Timestamp() uint32 {
	return uint32(uint64(s))
}

// Issued returns the embedded issue time.
func (s Seed) Issued() time.Time {
	return time.Unix(int64(s.Timestamp()), 0)
}

func (s Seed) String() string {
	return strconv.FormatInt(int64(s), 10)
}
