package domain

// Role identifies what an operator is allowed to do. Authentication itself is
// handled outside this service; callers pass the resolved identity in.
type Role string

const (
	RoleDispatcher Role = "dispatcher"
	RoleDriver     Role = "driver"
)

// Actor is the capability parameter passed into every mutating operation.
type Actor struct {
	Name string
	Role Role
}

// CanManageRoutes reports whether the actor may create, resequence, or delete
// routes.
func (a Actor) CanManageRoutes() bool { return a.Role == RoleDispatcher }

// CanAttemptStops reports whether the actor may start, complete, or fail a stop.
// Dispatchers keep this capability so they can resolve a stranded route.
func (a Actor) CanAttemptStops() bool {
	return a.Role == RoleDriver || a.Role == RoleDispatcher
}

// CanEditNotes reports whether the actor may edit dispatcher notes on a task.
func (a Actor) CanEditNotes() bool { return a.Role == RoleDispatcher }
