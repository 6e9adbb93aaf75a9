package domain

import "fmt"

// StopStatus is the per-route view of a stop's progress.
type StopStatus string

const (
	StopPending    StopStatus = "pending"
	StopInProgress StopStatus = "in_progress"
	StopDelivered  StopStatus = "delivered"
	StopFailed     StopStatus = "failed"
)

// Stop is one delivery or pickup obligation inside a route. It references an
// order's DeliveryTask; the task remains authoritative for lifecycle state.
type Stop struct {
	ID         int64
	OrderID    int64
	ClientName string
	Address    string
	// Coords is nil when geocoding failed. Such stops are excluded from
	// optimizer distance calculations but remain visitable manually.
	Coords *Coordinates
	Seq    int
	Status StopStatus
}

// HasCoords reports whether the stop was geocoded successfully.
func (s *Stop) HasCoords() bool { return s.Coords != nil }

// MapsURL returns an external navigation link for the stop, or "" when it has
// no coordinates.
func (s *Stop) MapsURL() string {
	if s.Coords == nil {
		return ""
	}
	return fmt.Sprintf("https://www.google.com/maps/dir/?api=1&destination=%f,%f", s.Coords.Lat, s.Coords.Lon)
}
