package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeedTimestamp(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want uint32
	}{
		{"timestamp seed", "1719949479461840638", 1525737214},
		{"legacy random seed", "1324276254195649245", 2748386013},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s, err := ParseSeed(tt.in)
			require.NoError(t, err)
			assert.Equal(t, tt.want, s.Timestamp())
			assert.Equal(t, tt.in, s.String())
		})
	}
}

func TestMakeSeed(t *testing.T) {
	s := MakeSeed(1525737214, 400451325)
	assert.Equal(t, uint32(1525737214), s.Timestamp())

	full := MakeSeed(0, 0xFFFFFFFF)
	assert.Equal(t, byte('-'), full.String()[0])
	assert.Equal(t, uint32(0), full.Timestamp())
}

func TestNewSeed(t *testing.T) {
	now := time.Unix(1700000000, 0)
	for range 100 {
		s := NewSeed(now)
		assert.GreaterOrEqual(t, int64(s), int64(0))
		assert.Equal(t, uint32(1700000000), s.Timestamp())
		assert.True(t, s.Issued().Equal(now))
	}
}

func TestParseSeed(t *testing.T) {
	neg, err := ParseSeed("-1")
	require.NoError(t, err)

	unsigned, err := ParseSeed("18446744073709551615")
	require.NoError(t, err)
	assert.Equal(t, neg, unsigned)

	_, err = ParseSeed("")
	assert.Error(t, err)
	_, err = ParseSeed("12ab")
	assert.Error(t, err)
}
