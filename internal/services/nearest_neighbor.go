package services

import (
	"math"

	"delivery-dispatch-service/internal/domain"
)

// OptimizeSequence orders stops for efficient travel using a greedy
// nearest-neighbor pass from the depot.
//
// The algorithm minimizes immediate travel distance at each step. It does not
// attempt global route optimization (e.g., VRP solvers). The design
// prioritizes determinism and simplicity over optimality: ties are broken by
// the stops' current order, so re-running on identical coordinates always
// yields the same sequence. Stops without coordinates are appended afterward
// in their original relative order.
//
// The returned slice is a new ordering; positions are not renumbered here.
func OptimizeSequence(depot domain.Coordinates, stops []*domain.Stop) []*domain.Stop {
	geocoded := make([]*domain.Stop, 0, len(stops))
	unresolved := make([]*domain.Stop, 0)
	for _, s := range stops {
		if s.HasCoords() {
			geocoded = append(geocoded, s)
		} else {
			unresolved = append(unresolved, s)
		}
	}

	ordered := make([]*domain.Stop, 0, len(stops))
	current := depot

	remaining := geocoded
	for len(remaining) > 0 {
		best := -1
		minDist := math.MaxFloat64

		// Select next stop by minimum travel distance (greedy step). Strict
		// less-than keeps the earliest candidate on ties for determinism.
		for i, s := range remaining {
			d := current.DistanceTo(*s.Coords)
			if d < minDist {
				minDist = d
				best = i
			}
		}

		next := remaining[best]
		ordered = append(ordered, next)
		current = *next.Coords
		remaining = append(remaining[:best:best], remaining[best+1:]...)
	}

	return append(ordered, unresolved...)
}
