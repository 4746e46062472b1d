package agent

import "errors"

var (
	// ErrInvalidInput reports a missing required field (empty screenshot).
	ErrInvalidInput = errors.New("invalid input")

	// ErrNotInitialized reports a step received before any init.
	ErrNotInitialized = errors.New("session not initialized")

	// ErrDuplicateClient reports a second connection for a live client id.
	ErrDuplicateClient = errors.New("duplicate client id")

	// ErrUnknownClient reports a lookup for a client with no open connection.
	ErrUnknownClient = errors.New("unknown client id")
)
