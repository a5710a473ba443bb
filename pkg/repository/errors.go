package repository

import "errors"

// Storage error contract. Implementations map their native failures (unique
// constraint violations, conditional updates touching zero rows) onto these
// sentinels so callers can branch with errors.Is.
var (
	// ErrNotFound indicates the requested record does not exist.
	ErrNotFound = errors.New("record not found")

	// ErrDuplicateBid indicates the provider already has a bid on the job.
	ErrDuplicateBid = errors.New("provider already bid on this job")

	// ErrJobNotOpen indicates an operation that requires an open job found
	// the job already transitioned. Expected under concurrent acceptance and
	// must be treated as a normal outcome.
	ErrJobNotOpen = errors.New("job is not open")

	// ErrInvalidTransition indicates an illegal state-machine move.
	ErrInvalidTransition = errors.New("invalid status transition")

	// ErrEmailInUse indicates signup with an email that already has an account.
	ErrEmailInUse = errors.New("email already in use")
)
