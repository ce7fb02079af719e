// Package verify stamps match tasks with a secret-derived code and checks the
// code on submitted results.
package verify

import (
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"sync"
)

// CodeLength is the length of a verification code in hex characters.
const CodeLength = sha256.Size * 2

// Verifier computes verification codes from a process-wide secret.
// All methods are safe for concurrent use.
type Verifier struct {
	mu     sync.RWMutex
	secret string
}

// New creates a verifier using the given secret.
func New(secret string) *Verifier {
	return &Verifier{secret: secret}
}

// SetSecret replaces the secret used for subsequent codes.
func (v *Verifier) SetSecret(secret string) {
	v.mu.Lock()
	v.secret = secret
	v.mu.Unlock()
}

// Code returns the hex SHA-256 of the secret followed by the given value.
func (v *Verifier) Code(value string) string {
	v.mu.RLock()
	secret := v.secret
	v.mu.RUnlock()

	sum := sha256.Sum256([]byte(secret + value))
	return hex.EncodeToString(sum[:])
}

// Sign returns the code binding a seed to the white and black networks.
func (v *Verifier) Sign(seed, whiteHash, blackHash string) string {
	return v.Code(seed + whiteHash + blackHash)
}

// Stamp appends the code for a task to its options hash.
func (v *Verifier) Stamp(optionsHash, seed, whiteHash, blackHash string) string {
	return optionsHash + v.Sign(seed, whiteHash, blackHash)
}

// Result is a submitted options hash split into its parts.
type Result struct {
	// OptionsHash is the fingerprint with the verification tail removed.
	OptionsHash string
	// Code is the tail that was provided by the worker.
	Code string
	// Valid reports whether Code matches either network ordering.
	Valid bool
}

// Verify splits the trailing code off a submitted options hash and checks it
// against the seed and both networks. Workers report winner and loser rather
// than colors, so either ordering is accepted.
func (v *Verifier) Verify(seed, winnerHash, loserHash, optionsHash string) Result {
	cut := len(optionsHash) - CodeLength
	if cut < 0 {
		cut = 0
	}
	provided := optionsHash[cut:]

	expected := v.Sign(seed, winnerHash, loserHash)
	expected2 := v.Sign(seed, loserHash, winnerHash)

	return Result{
		OptionsHash: optionsHash[:cut],
		Code:        provided,
		Valid:       equal(provided, expected) || equal(provided, expected2),
	}
}

func equal(a, b string) bool {
	return subtle.ConstantTimeCompare([]byte(a), []byte(b)) == 1
}
