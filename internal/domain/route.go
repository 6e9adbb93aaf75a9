package domain

import (
	"fmt"
	"sort"
	"time"
)

// RouteStatus is the route lifecycle state.
type RouteStatus string

const (
	RouteCreated    RouteStatus = "created"
	RouteInProgress RouteStatus = "in_progress"
	RouteFinished   RouteStatus = "finished"
)

// Route is one driver's worklist for one day. It exclusively owns its stops;
// deleting a route cascades to them while the underlying delivery tasks return
// to the unassigned pool.
type Route struct {
	ID     int64
	Date   time.Time
	Driver string
	Status RouteStatus
	// Stops ordered by Seq. Positions are always a dense permutation of 1..N.
	Stops []*Stop
}

// Locked reports whether the stop sequence is frozen. Once a driver begins the
// route, reordering is rejected.
func (r *Route) Locked() bool { return r.Status != RouteCreated }

// ApplySequence reorders the route's stops to match orderedStopIDs and
// renumbers them 1..N. The IDs must be an exact permutation of the route's
// stop IDs; anything else leaves the route untouched.
func (r *Route) ApplySequence(orderedStopIDs []int64) error {
	if r.Locked() {
		return fmt.Errorf("resequence route %d: %w", r.ID, ErrRouteLocked)
	}
	if len(orderedStopIDs) != len(r.Stops) {
		return fmt.Errorf("resequence route %d: got %d ids for %d stops: %w",
			r.ID, len(orderedStopIDs), len(r.Stops), ErrInvalidSequence)
	}

	byID := make(map[int64]*Stop, len(r.Stops))
	for _, s := range r.Stops {
		byID[s.ID] = s
	}

	reordered := make([]*Stop, 0, len(orderedStopIDs))
	seen := make(map[int64]struct{}, len(orderedStopIDs))
	for _, id := range orderedStopIDs {
		stop, ok := byID[id]
		if !ok {
			return fmt.Errorf("resequence route %d: unknown stop %d: %w", r.ID, id, ErrInvalidSequence)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("resequence route %d: duplicate stop %d: %w", r.ID, id, ErrInvalidSequence)
		}
		seen[id] = struct{}{}
		reordered = append(reordered, stop)
	}

	for i, s := range reordered {
		s.Seq = i + 1
	}
	r.Stops = reordered
	return nil
}

// StopIDs returns the route's stop IDs in sequence order.
func (r *Route) StopIDs() []int64 {
	ids := make([]int64, 0, len(r.Stops))
	for _, s := range r.Stops {
		ids = append(ids, s.ID)
	}
	return ids
}

// Stop returns the stop with the given ID, or nil.
func (r *Route) Stop(stopID int64) *Stop {
	for _, s := range r.Stops {
		if s.ID == stopID {
			return s
		}
	}
	return nil
}

// InFlightStops returns stops a driver has started but not resolved. A route
// cannot finish while these exist; the finish sweep force-fails them.
func (r *Route) InFlightStops() []*Stop {
	var out []*Stop
	for _, s := range r.Stops {
		if s.Status == StopInProgress {
			out = append(out, s)
		}
	}
	return out
}

// SortStops orders the slice by sequence position. Repositories call this
// after loading so in-memory order always matches Seq.
func (r *Route) SortStops() {
	sort.Slice(r.Stops, func(i, j int) bool { return r.Stops[i].Seq < r.Stops[j].Seq })
}

// CheckSequence verifies the dense 1..N position invariant.
func (r *Route) CheckSequence() error {
	seen := make(map[int]struct{}, len(r.Stops))
	for _, s := range r.Stops {
		if s.Seq < 1 || s.Seq > len(r.Stops) {
			return fmt.Errorf("route %d: stop %d position %d out of range: %w", r.ID, s.ID, s.Seq, ErrInvalidSequence)
		}
		if _, dup := seen[s.Seq]; dup {
			return fmt.Errorf("route %d: duplicate position %d: %w", r.ID, s.Seq, ErrInvalidSequence)
		}
		seen[s.Seq] = struct{}{}
	}
	return nil
}
