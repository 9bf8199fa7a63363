package services

import "errors"

// Failure taxonomy surfaced by the services. Controllers translate these
// into HTTP status codes with errors.Is.
var (
	ErrNotFound            = errors.New("not found")
	ErrForbidden           = errors.New("forbidden")
	ErrInvalidState        = errors.New("operation not allowed in current state")
	ErrInvalidInput        = errors.New("invalid input")
	ErrConflict            = errors.New("document was modified by a concurrent request")
	ErrUpstreamUnavailable = errors.New("upstream collaborator unavailable")

	ErrAlreadyQueued       = errors.New("player is already in an active queue")
	ErrQueueFull           = errors.New("queue is full")
	ErrNotInQueue          = errors.New("player is not in this queue")
	ErrNoEligiblePlayers   = errors.New("no eligible players for this queue tier")
	ErrInsufficientPlayers = errors.New("roster size does not match team size")
)

// IsConflict reports whether err is (or wraps) an optimistic-concurrency
// conflict.
func IsConflict(err error) bool {
	return errors.Is(err, ErrConflict)
}
