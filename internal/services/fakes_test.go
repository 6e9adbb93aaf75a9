package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/ports"
)

// In-memory fakes backing the service tests. They clone on read/write so a
// service mutating a loaded aggregate cannot leak into "persisted" state,
// mirroring how a real repository behaves.

type fakeRouteRepo struct {
	mu     sync.Mutex
	nextID int64
	routes map[int64]*domain.Route
}

func newFakeRouteRepo() *fakeRouteRepo {
	return &fakeRouteRepo{routes: make(map[int64]*domain.Route)}
}

func cloneRoute(r *domain.Route) *domain.Route {
	out := *r
	out.Stops = make([]*domain.Stop, 0, len(r.Stops))
	for _, s := range r.Stops {
		sc := *s
		if s.Coords != nil {
			c := *s.Coords
			sc.Coords = &c
		}
		out.Stops = append(out.Stops, &sc)
	}
	return &out
}

func (f *fakeRouteRepo) Create(ctx context.Context, route *domain.Route) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	route.ID = f.nextID
	for _, s := range route.Stops {
		f.nextID++
		s.ID = f.nextID
	}
	f.routes[route.ID] = cloneRoute(route)
	return nil
}

func (f *fakeRouteRepo) Get(ctx context.Context, id int64) (*domain.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.routes[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return cloneRoute(r), nil
}

func (f *fakeRouteRepo) ListByDate(ctx context.Context, day time.Time) ([]*domain.Route, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.Route
	for _, r := range f.routes {
		if r.Date.Equal(day) {
			out = append(out, cloneRoute(r))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *fakeRouteRepo) GetStop(ctx context.Context, stopID int64) (*domain.Stop, int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.routes {
		for _, s := range r.Stops {
			if s.ID == stopID {
				sc := *s
				return &sc, r.ID, nil
			}
		}
	}
	return nil, 0, domain.ErrNotFound
}

func (f *fakeRouteRepo) UpdateSequence(ctx context.Context, routeID int64, orderedStopIDs []int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.routes[routeID]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Locked() {
		return domain.ErrRouteLocked
	}
	pos := make(map[int64]int, len(orderedStopIDs))
	for i, id := range orderedStopIDs {
		pos[id] = i + 1
	}
	if len(pos) != len(r.Stops) {
		return domain.ErrInvalidSequence
	}
	for _, s := range r.Stops {
		p, ok := pos[s.ID]
		if !ok {
			return domain.ErrInvalidSequence
		}
		s.Seq = p
	}
	r.SortStops()
	return nil
}

func (f *fakeRouteRepo) UpdateStatus(ctx context.Context, id int64, from, to domain.RouteStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.routes[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Status != from {
		return domain.ErrStaleTransition
	}
	r.Status = to
	return nil
}

func (f *fakeRouteRepo) UpdateStopStatus(ctx context.Context, stopID int64, status domain.StopStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range f.routes {
		for _, s := range r.Stops {
			if s.ID == stopID {
				s.Status = status
				return nil
			}
		}
	}
	return domain.ErrNotFound
}

func (f *fakeRouteRepo) Delete(ctx context.Context, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	r, ok := f.routes[id]
	if !ok {
		return domain.ErrNotFound
	}
	if r.Locked() {
		return domain.ErrRouteLocked
	}
	delete(f.routes, id)
	return nil
}

type fakeTaskRepo struct {
	mu    sync.Mutex
	seq   int64
	tasks map[int64]*domain.DeliveryTask
	// pool order by last transition, oldest first
	order map[int64]int64
}

func newFakeTaskRepo(tasks ...*domain.DeliveryTask) *fakeTaskRepo {
	f := &fakeTaskRepo{
		tasks: make(map[int64]*domain.DeliveryTask),
		order: make(map[int64]int64),
	}
	for _, t := range tasks {
		tc := *t
		f.seq++
		f.tasks[t.OrderID] = &tc
		f.order[t.OrderID] = f.seq
	}
	return f
}

func (f *fakeTaskRepo) Get(ctx context.Context, orderID int64) (*domain.DeliveryTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[orderID]
	if !ok {
		return nil, domain.ErrNotFound
	}
	tc := *t
	return &tc, nil
}

func (f *fakeTaskRepo) ListEligible(ctx context.Context, day time.Time) ([]*domain.DeliveryTask, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []*domain.DeliveryTask
	for _, t := range f.tasks {
		if t.Status.Terminal() || !t.EligibleOn(day) {
			continue
		}
		tc := *t
		out = append(out, &tc)
	}
	sort.Slice(out, func(i, j int) bool {
		a, b := out[i], out[j]
		if a.FailedAttempt != b.FailedAttempt {
			return !a.FailedAttempt
		}
		return f.order[a.OrderID] < f.order[b.OrderID]
	})
	return out, nil
}

func (f *fakeTaskRepo) ApplyTransition(ctx context.Context, task *domain.DeliveryTask, expect domain.TaskStatus) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	stored, ok := f.tasks[task.OrderID]
	if !ok {
		return domain.ErrNotFound
	}
	if stored.Status != expect {
		return fmt.Errorf("task %d is %q, expected %q: %w",
			task.OrderID, stored.Status, expect, domain.ErrStaleTransition)
	}
	stored.Status = task.Status
	stored.PreviousStatus = task.PreviousStatus
	stored.FailedAttempt = task.FailedAttempt
	f.seq++
	f.order[task.OrderID] = f.seq
	return nil
}

func (f *fakeTaskRepo) UpdateNotes(ctx context.Context, orderID int64, notes string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tasks[orderID]
	if !ok {
		return domain.ErrNotFound
	}
	t.Notes = notes
	return nil
}

type fakeGeocoder struct {
	coords map[string]domain.Coordinates
}

func (f *fakeGeocoder) Resolve(ctx context.Context, text string) (domain.Coordinates, error) {
	c, ok := f.coords[text]
	if !ok {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}
	return c, nil
}

type sentMessage struct {
	phone string
	msg   ports.Message
}

type fakeNotifier struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (f *fakeNotifier) Send(ctx context.Context, phone string, msg ports.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return fmt.Errorf("gateway unavailable")
	}
	f.sent = append(f.sent, sentMessage{phone: phone, msg: msg})
	return nil
}

type fakeBus struct {
	mu      sync.Mutex
	changes []ports.Change
}

func (f *fakeBus) Publish(ctx context.Context, ch ports.Change) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.changes = append(f.changes, ch)
	return nil
}

func (f *fakeBus) Subscribe(ctx context.Context, fn func(ports.Change)) (func(), error) {
	return func() {}, nil
}

func (f *fakeBus) published(entity string) []ports.Change {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []ports.Change
	for _, ch := range f.changes {
		if ch.Entity == entity {
			out = append(out, ch)
		}
	}
	return out
}
