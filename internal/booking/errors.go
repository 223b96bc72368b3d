package booking

import "errors"

var (
	// ErrNotFound: the referenced booking does not exist.
	ErrNotFound = errors.New("booking not found")

	// ErrUnauthorizedTransition: the actor's role may not perform the
	// requested action from the booking's current stage. Never retried.
	ErrUnauthorizedTransition = errors.New("role is not permitted to perform this transition")

	// ErrConcurrentModification: the conditional status write lost a race
	// with another transition. Retryable after a fresh read.
	ErrConcurrentModification = errors.New("booking was modified concurrently")

	// ErrInvalidInterval: a schedule or setup window ends before it starts,
	// or a multi-day request carries an empty schedule list.
	ErrInvalidInterval = errors.New("invalid schedule interval")

	// ErrInvalidAction: the requested action is not approve or reject.
	ErrInvalidAction = errors.New("invalid transition action")
)
