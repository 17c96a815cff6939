package engine

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned when a message targets a dead or stale entity.
	ErrEntityNotFound = eris.New("entity not found")
	// ErrUnknownMessage is returned when no handler is registered for a message.
	ErrUnknownMessage = eris.New("no handler registered for message")
)
