package verify

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	emptyCode = "e3b0c44298fc1c149afbf4c8996fb92427ae41e4649b934ca495991b7852b855"
	abcdCode  = "88d4266fd4e6338d13b845fcf289579d209c897823b9217da3e161936f031589"
	cdabCode  = "b7caca69b8597456e5db1676b6e6f930527f14c452bf4454a1398c40dc04ee78"
)

func TestCode(t *testing.T) {
	v := New("")
	assert.Equal(t, emptyCode, v.Code(""))
	assert.Equal(t, abcdCode, v.Code("abcd"))
	assert.Len(t, v.Code("anything"), CodeLength)
}

func TestSign(t *testing.T) {
	v := New("")
	assert.Equal(t, abcdCode, v.Sign("", "ab", "cd"))
	assert.Equal(t, cdabCode, v.Sign("", "cd", "ab"))
}

func TestVerifyEitherOrder(t *testing.T) {
	v := New("")

	res := v.Verify("", "ab", "cd", abcdCode)
	assert.True(t, res.Valid)
	assert.Equal(t, "", res.OptionsHash)
	assert.Equal(t, abcdCode, res.Code)

	res = v.Verify("", "cd", "ab", abcdCode)
	assert.True(t, res.Valid)
}

func TestVerifyStripsTail(t *testing.T) {
	v := New("s3cret")
	stamped := v.Stamp("c2f2a4", "1719949479461840638", "aaaa", "bbbb")

	res := v.Verify("1719949479461840638", "bbbb", "aaaa", stamped)
	require.True(t, res.Valid)
	assert.Equal(t, "c2f2a4", res.OptionsHash)
	assert.Equal(t, v.Sign("1719949479461840638", "aaaa", "bbbb"), res.Code)
}

func TestVerifyRejectsTampering(t *testing.T) {
	v := New("s3cret")
	stamped := v.Stamp("abcdef", "42", "white", "black")

	tests := []struct {
		name          string
		seed          string
		winner, loser string
	}{
		{"seed altered", "43", "white", "black"},
		{"winner altered", "42", "whitf", "black"},
		{"loser altered", "42", "white", "blacj"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := v.Verify(tt.seed, tt.winner, tt.loser, stamped)
			assert.False(t, res.Valid)
		})
	}
}

func TestVerifyRejectsWrongLengthCode(t *testing.T) {
	v := New("")
	res := v.Verify("", "ab", "cd", "ff"+abcdCode[:CodeLength-1])
	assert.False(t, res.Valid)
	assert.Equal(t, "f", res.OptionsHash)

	res = v.Verify("", "ab", "cd", abcdCode+"0")
	assert.False(t, res.Valid)
}

func TestVerifyShortInput(t *testing.T) {
	v := New("")
	res := v.Verify("", "ab", "cd", "1234")
	assert.False(t, res.Valid)
	assert.Equal(t, "", res.OptionsHash)
	assert.Equal(t, "1234", res.Code)
}

func TestSetSecret(t *testing.T) {
	v := New("")
	before := v.Sign("1", "a", "b")

	v.SetSecret("rotated")
	after := v.Sign("1", "a", "b")

	assert.NotEqual(t, before, after)
	assert.Equal(t, after, New("rotated").Sign("1", "a", "b"))
	assert.False(t, v.Verify("1", "a", "b", "xyz"+before).Valid)
}
