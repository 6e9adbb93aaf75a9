package ports

import (
	"context"
	"time"

	"delivery-dispatch-service/internal/domain"
)

// Port: persistence boundary for routes and their stops.
type RouteRepository interface {
	// Create persists the route and its stops, assigning IDs.
	Create(ctx context.Context, route *domain.Route) error

	Get(ctx context.Context, id int64) (*domain.Route, error)

	ListByDate(ctx context.Context, day time.Time) ([]*domain.Route, error)

	// GetStop returns a stop and the ID of its owning route.
	GetStop(ctx context.Context, stopID int64) (*domain.Stop, int64, error)

	// UpdateSequence overwrites stop positions atomically (all-or-nothing).
	// Fails with domain.ErrRouteLocked when the route is no longer unlocked.
	UpdateSequence(ctx context.Context, routeID int64, orderedStopIDs []int64) error

	// UpdateStatus is a compare-and-set status flip; a mismatch yields
	// domain.ErrStaleTransition.
	UpdateStatus(ctx context.Context, id int64, from, to domain.RouteStatus) error

	UpdateStopStatus(ctx context.Context, stopID int64, status domain.StopStatus) error

	// Delete removes an unlocked route and cascades to its stops. Underlying
	// delivery tasks are untouched.
	Delete(ctx context.Context, id int64) error
}
