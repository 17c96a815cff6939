package ecs

import "github.com/rotisserie/eris"

var (
	// ErrEntityNotFound is returned when a handle does not resolve to a live entity, either because
	// it was never issued or because the entity has been destroyed.
	ErrEntityNotFound = eris.New("entity does not exist")

	// ErrComponentNotFound is returned when an entity doesn't carry the requested component.
	ErrComponentNotFound = eris.New("component not found")
)
