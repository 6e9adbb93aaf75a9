package domain

import "errors"

var (
	// ErrRouteLocked is returned for sequence mutations or deletion on a route
	// whose execution has begun.
	ErrRouteLocked = errors.New("route is locked")

	// ErrEmptySelection is returned when a route is created from zero orders.
	ErrEmptySelection = errors.New("no orders selected")

	// ErrStaleTransition is returned when an entity has already left the
	// expected source state (another viewer got there first).
	ErrStaleTransition = errors.New("state changed elsewhere")

	// ErrInvalidSequence is returned when a proposed stop ordering is not a
	// permutation of the route's stops.
	ErrInvalidSequence = errors.New("sequence is not a permutation of route stops")

	// ErrForbidden is returned when the acting user lacks the capability for
	// the requested operation.
	ErrForbidden = errors.New("actor not permitted")

	ErrNotFound = errors.New("not found")
)
