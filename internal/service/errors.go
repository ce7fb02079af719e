// Package service implements the coordinator's scheduling and result
// handling: the pending match queue, task dispatch, result ingestion and
// match management.
package service

import (
	"errors"
	"fmt"

	"github.com/raphaelgruber/zerosrv/internal/champion"
	"github.com/raphaelgruber/zerosrv/internal/db"
)

// Sentinel errors returned by the services. Each is scoped to the request
// that triggered it; none leaves the in-memory state half-updated.
var (
	// ErrValidation indicates a missing or malformed field.
	ErrValidation = errors.New("validation failed")

	// ErrVerification indicates the verification code did not match the
	// seed and networks of a match result.
	ErrVerification = errors.New("verification failed")

	// ErrDuplicate indicates the seed or game record was already recorded.
	ErrDuplicate = errors.New("duplicate submission")

	// ErrNotFound indicates the referenced match does not exist.
	ErrNotFound = errors.New("match not found")

	// ErrStore indicates the persisted store or filesystem failed.
	ErrStore = errors.New("store unavailable")
)

func validationError(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// storeError classifies an error from the db package.
func storeError(op string, err error) error {
	switch {
	case errors.Is(err, db.ErrNotFound):
		return fmt.Errorf("%s: %w", op, ErrNotFound)
	case errors.Is(err, db.ErrAlreadyExists):
		return fmt.Errorf("%s: %w", op, ErrDuplicate)
	default:
		return fmt.Errorf("%s: %w: %w", op, ErrStore, err)
	}
}

// Outcome returns a short label for err, used in metrics and logs.
func Outcome(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, ErrValidation):
		return "invalid"
	case errors.Is(err, ErrVerification):
		return "unverified"
	case errors.Is(err, ErrDuplicate):
		return "duplicate"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, champion.ErrRecompute):
		return "champion_unavailable"
	default:
		return "error"
	}
}
