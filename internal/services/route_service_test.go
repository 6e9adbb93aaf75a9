package services

import (
	"context"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/ports"
)

var (
	dispatcher = domain.Actor{Name: "Lupita", Role: domain.RoleDispatcher}
	driver     = domain.Actor{Name: "Marco", Role: domain.RoleDriver}

	depot = domain.Coordinates{Lat: 20.6736, Lon: -103.3444}
)

func testLogger() logrus.FieldLogger {
	log := logrus.New()
	log.SetLevel(logrus.PanicLevel)
	return log
}

func routeFixture(t *testing.T) (*RouteService, *fakeRouteRepo, *fakeTaskRepo, *fakeBus) {
	t.Helper()

	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	tasks := newFakeTaskRepo(
		&domain.DeliveryTask{OrderID: 100, ClientName: "Ana", Phone: "+523311111111", Address: "Av. Vallarta 1500", Kind: domain.KindDelivery, Status: domain.TaskPendingDelivery, DeliveryDate: day},
		&domain.DeliveryTask{OrderID: 101, ClientName: "Beto", Phone: "+523322222222", Address: "Calle Morelos 220", Kind: domain.KindDelivery, Status: domain.TaskPendingDelivery, DeliveryDate: day},
		&domain.DeliveryTask{OrderID: 102, ClientName: "Carla", Phone: "+523333333333", Address: "no such place", Kind: domain.KindPickup, Status: domain.TaskPendingPickup, PickupDate: day},
	)
	routes := newFakeRouteRepo()
	geo := &fakeGeocoder{coords: map[string]domain.Coordinates{
		// Vallarta is nearer the depot than Morelos.
		"Av. Vallarta 1500": {Lat: 20.6740, Lon: -103.3500},
		"Calle Morelos 220": {Lat: 20.7000, Lon: -103.4000},
	}}
	bus := &fakeBus{}
	svc := NewRouteService(routes, tasks, geo, bus, depot, testLogger())
	return svc, routes, tasks, bus
}

func createRoute(t *testing.T, svc *RouteService, orderIDs ...int64) *domain.Route {
	t.Helper()
	day := time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC)
	route, err := svc.Create(context.Background(), dispatcher, day, "Marco", orderIDs)
	require.NoError(t, err)
	return route
}

func TestCreateRouteRejectsEmptySelection(t *testing.T) {
	svc, _, _, _ := routeFixture(t)

	_, err := svc.Create(context.Background(), dispatcher, time.Now(), "Marco", nil)
	assert.ErrorIs(t, err, domain.ErrEmptySelection)
}

func TestCreateRouteRejectsNonDispatcher(t *testing.T) {
	svc, _, _, _ := routeFixture(t)

	_, err := svc.Create(context.Background(), driver, time.Now(), "Marco", []int64{100})
	assert.ErrorIs(t, err, domain.ErrForbidden)
}

func TestCreateRouteGeocodesBestEffort(t *testing.T) {
	svc, routes, _, bus := routeFixture(t)

	route := createRoute(t, svc, 100, 101, 102)

	require.Len(t, route.Stops, 3)
	assert.True(t, route.Stops[0].HasCoords())
	assert.True(t, route.Stops[1].HasCoords())
	assert.False(t, route.Stops[2].HasCoords(), "unresolvable address keeps the stop without GPS")

	persisted, err := routes.Get(context.Background(), route.ID)
	require.NoError(t, err)
	require.NoError(t, persisted.CheckSequence())
	for i, s := range persisted.Stops {
		assert.Equal(t, i+1, s.Seq, "insertion order is the initial sequence")
	}

	assert.NotEmpty(t, bus.published(ports.EntityRoute))
}

func TestAutoOptimizeOrdersGeocodedStopsUngeocodedLast(t *testing.T) {
	svc, routes, _, _ := routeFixture(t)
	// insertion order deliberately far-first
	route := createRoute(t, svc, 101, 102, 100)

	optimized, err := svc.AutoOptimize(context.Background(), dispatcher, route.ID)
	require.NoError(t, err)

	require.Len(t, optimized.Stops, 3)
	assert.Equal(t, int64(100), optimized.Stops[0].OrderID, "nearest geocoded stop first")
	assert.Equal(t, int64(101), optimized.Stops[1].OrderID)
	assert.Equal(t, int64(102), optimized.Stops[2].OrderID, "ungeocoded stop placed last")
	require.NoError(t, optimized.CheckSequence())

	// deterministic: a second run yields the identical order
	again, err := svc.AutoOptimize(context.Background(), dispatcher, route.ID)
	require.NoError(t, err)
	assert.Equal(t, optimized.StopIDs(), again.StopIDs())

	persisted, err := routes.Get(context.Background(), route.ID)
	require.NoError(t, err)
	assert.Equal(t, optimized.StopIDs(), persisted.StopIDs())
}

func TestReorderAppliesManualSequence(t *testing.T) {
	svc, routes, _, _ := routeFixture(t)
	route := createRoute(t, svc, 100, 101)

	want := []int64{route.Stops[1].ID, route.Stops[0].ID}
	require.NoError(t, svc.Reorder(context.Background(), dispatcher, route.ID, want))

	persisted, err := routes.Get(context.Background(), route.ID)
	require.NoError(t, err)
	assert.Equal(t, want, persisted.StopIDs())
	require.NoError(t, persisted.CheckSequence())
}

func TestReorderRejectedWhenLocked(t *testing.T) {
	svc, routes, _, _ := routeFixture(t)
	route := createRoute(t, svc, 100, 101)
	require.NoError(t, svc.Start(context.Background(), dispatcher, route.ID))

	before, err := routes.Get(context.Background(), route.ID)
	require.NoError(t, err)

	err = svc.Reorder(context.Background(), dispatcher, route.ID, []int64{route.Stops[1].ID, route.Stops[0].ID})
	assert.ErrorIs(t, err, domain.ErrRouteLocked)

	_, err = svc.AutoOptimize(context.Background(), dispatcher, route.ID)
	assert.ErrorIs(t, err, domain.ErrRouteLocked)

	after, err := routes.Get(context.Background(), route.ID)
	require.NoError(t, err)
	assert.Equal(t, before.StopIDs(), after.StopIDs(), "positions unchanged after rejected mutation")
}

func TestReorderRejectsBadPermutation(t *testing.T) {
	svc, _, _, _ := routeFixture(t)
	route := createRoute(t, svc, 100, 101)

	err := svc.Reorder(context.Background(), dispatcher, route.ID, []int64{route.Stops[0].ID})
	assert.ErrorIs(t, err, domain.ErrInvalidSequence)

	err = svc.Reorder(context.Background(), dispatcher, route.ID, []int64{route.Stops[0].ID, 9999})
	assert.ErrorIs(t, err, domain.ErrInvalidSequence)
}

func TestStartOnlyFromCreated(t *testing.T) {
	svc, _, _, _ := routeFixture(t)
	route := createRoute(t, svc, 100)

	require.NoError(t, svc.Start(context.Background(), dispatcher, route.ID))
	assert.ErrorIs(t, svc.Start(context.Background(), dispatcher, route.ID), domain.ErrStaleTransition)
}

func TestFinishSweepsInFlightStops(t *testing.T) {
	svc, routes, taskRepo, _ := routeFixture(t)
	route := createRoute(t, svc, 100, 101, 102)
	require.NoError(t, svc.Start(context.Background(), dispatcher, route.ID))

	// simulate the driver starting two stops
	notifier := &fakeNotifier{}
	taskSvc := NewTaskService(taskRepo, routes, notifier, &fakeBus{}, testLogger())
	require.NoError(t, taskSvc.StartStop(context.Background(), driver, route.Stops[0].ID))
	require.NoError(t, taskSvc.StartStop(context.Background(), driver, route.Stops[1].ID))

	require.NoError(t, svc.Finish(context.Background(), dispatcher, route.ID))

	finished, err := routes.Get(context.Background(), route.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.RouteFinished, finished.Status)
	assert.Empty(t, finished.InFlightStops())

	for _, orderID := range []int64{100, 101} {
		task, err := taskRepo.Get(context.Background(), orderID)
		require.NoError(t, err)
		assert.Equal(t, domain.TaskPendingDelivery, task.Status, "order %d reverted to pre-route status", orderID)
		assert.True(t, task.FailedAttempt, "order %d flagged as failed attempt", orderID)
	}

	// untouched pending stop: its task never left pending
	task, err := taskRepo.Get(context.Background(), 102)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskPendingPickup, task.Status)
	assert.False(t, task.FailedAttempt)
}

func TestDeleteOnlyWhileCreated(t *testing.T) {
	svc, routes, _, _ := routeFixture(t)

	route := createRoute(t, svc, 100)
	require.NoError(t, svc.Delete(context.Background(), dispatcher, route.ID))
	_, err := routes.Get(context.Background(), route.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	locked := createRoute(t, svc, 101)
	require.NoError(t, svc.Start(context.Background(), dispatcher, locked.ID))
	assert.ErrorIs(t, svc.Delete(context.Background(), dispatcher, locked.ID), domain.ErrRouteLocked)
}
