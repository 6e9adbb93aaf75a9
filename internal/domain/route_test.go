package domain

import (
	"errors"
	"testing"
)

func testRoute() *Route {
	return &Route{
		ID:     1,
		Driver: "Marco",
		Status: RouteCreated,
		Stops: []*Stop{
			{ID: 10, OrderID: 100, Seq: 1, Status: StopPending},
			{ID: 11, OrderID: 101, Seq: 2, Status: StopPending},
			{ID: 12, OrderID: 102, Seq: 3, Status: StopPending},
		},
	}
}

func TestRouteApplySequence(t *testing.T) {
	r := testRoute()

	if err := r.ApplySequence([]int64{12, 10, 11}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if r.Stops[0].ID != 12 || r.Stops[1].ID != 10 || r.Stops[2].ID != 11 {
		t.Fatalf("unexpected order: %v %v %v", r.Stops[0].ID, r.Stops[1].ID, r.Stops[2].ID)
	}
	for i, s := range r.Stops {
		if s.Seq != i+1 {
			t.Fatalf("stop %d position = %d, want %d", s.ID, s.Seq, i+1)
		}
	}
	if err := r.CheckSequence(); err != nil {
		t.Fatalf("sequence invariant violated: %v", err)
	}
}

func TestRouteApplySequenceRejectsNonPermutation(t *testing.T) {
	cases := map[string][]int64{
		"missing stop":  {10, 11},
		"unknown stop":  {10, 11, 99},
		"duplicate":     {10, 10, 11},
		"extra entries": {10, 11, 12, 12},
	}

	for name, ids := range cases {
		r := testRoute()
		err := r.ApplySequence(ids)
		if !errors.Is(err, ErrInvalidSequence) {
			t.Fatalf("%s: err = %v, want ErrInvalidSequence", name, err)
		}
		// positions untouched on rejection
		for i, s := range r.Stops {
			if s.Seq != i+1 {
				t.Fatalf("%s: position mutated on rejected reorder", name)
			}
		}
	}
}

func TestRouteApplySequenceRejectsLocked(t *testing.T) {
	r := testRoute()
	r.Status = RouteInProgress

	err := r.ApplySequence([]int64{12, 11, 10})
	if !errors.Is(err, ErrRouteLocked) {
		t.Fatalf("err = %v, want ErrRouteLocked", err)
	}
	if r.Stops[0].ID != 10 {
		t.Fatal("stop order mutated on locked route")
	}
}

func TestRouteInFlightStops(t *testing.T) {
	r := testRoute()
	r.Stops[1].Status = StopInProgress
	r.Stops[2].Status = StopDelivered

	inflight := r.InFlightStops()
	if len(inflight) != 1 || inflight[0].ID != 11 {
		t.Fatalf("in-flight stops = %v, want [11]", inflight)
	}
}

func TestStopMapsURL(t *testing.T) {
	with := &Stop{Coords: &Coordinates{Lat: 20.67, Lon: -103.35}}
	if with.MapsURL() == "" {
		t.Fatal("expected navigation link for geocoded stop")
	}
	without := &Stop{}
	if without.MapsURL() != "" {
		t.Fatal("expected empty link for stop without coordinates")
	}
}
