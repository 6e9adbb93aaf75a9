package services

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/metrics"
	"delivery-dispatch-service/internal/ports"
)

// RouteService owns the route lifecycle: grouping ready orders into a
// driver's route, sequencing its stops, and the start/finish transitions.
type RouteService struct {
	routes   ports.RouteRepository
	tasks    ports.TaskRepository
	geocoder ports.Geocoder
	bus      ports.EventBus
	depot    domain.Coordinates
	log      logrus.FieldLogger
}

func NewRouteService(
	routes ports.RouteRepository,
	tasks ports.TaskRepository,
	geocoder ports.Geocoder,
	bus ports.EventBus,
	depot domain.Coordinates,
	log logrus.FieldLogger,
) *RouteService {
	return &RouteService{
		routes:   routes,
		tasks:    tasks,
		geocoder: geocoder,
		bus:      bus,
		depot:    depot,
		log:      log,
	}
}

// Create builds a route from the selected orders. Each order's address is
// geocoded best-effort, one stop per order at insertion order. A geocoding
// failure marks the stop "no GPS" and never blocks creation; an empty
// selection rejects the whole operation before any persistence.
func (s *RouteService) Create(
	ctx context.Context,
	actor domain.Actor,
	day time.Time,
	driver string,
	orderIDs []int64,
) (*domain.Route, error) {
	if !actor.CanManageRoutes() {
		return nil, fmt.Errorf("create route: %w", domain.ErrForbidden)
	}
	if len(orderIDs) == 0 {
		return nil, fmt.Errorf("create route: %w", domain.ErrEmptySelection)
	}

	route := &domain.Route{
		Date:   day,
		Driver: driver,
		Status: domain.RouteCreated,
	}

	for i, orderID := range orderIDs {
		task, err := s.tasks.Get(ctx, orderID)
		if err != nil {
			return nil, fmt.Errorf("create route: load order %d: %w", orderID, err)
		}

		stop := &domain.Stop{
			OrderID:    task.OrderID,
			ClientName: task.ClientName,
			Address:    task.Address,
			Seq:        i + 1,
			Status:     domain.StopPending,
		}

		coords, err := s.geocoder.Resolve(ctx, task.Address)
		if err != nil {
			s.log.WithFields(logrus.Fields{
				"order_id": orderID,
				"address":  task.Address,
			}).WithError(err).Warn("geocoding failed, stop kept without coordinates")
		} else {
			stop.Coords = &coords
		}

		route.Stops = append(route.Stops, stop)
	}

	if err := s.routes.Create(ctx, route); err != nil {
		return nil, fmt.Errorf("create route: persist: %w", err)
	}

	metrics.IncrementRoutesCreated()
	s.publish(ctx, ports.EntityRoute, route.ID)
	s.log.WithFields(logrus.Fields{
		"route_id": route.ID,
		"driver":   driver,
		"stops":    len(route.Stops),
	}).Info("route created")

	return route, nil
}

func (s *RouteService) Get(ctx context.Context, id int64) (*domain.Route, error) {
	return s.routes.Get(ctx, id)
}

func (s *RouteService) ListByDate(ctx context.Context, day time.Time) ([]*domain.Route, error) {
	return s.routes.ListByDate(ctx, day)
}

// Reorder overwrites the stop sequence with the dispatcher's manual order.
// Rejected with ErrRouteLocked once the route has started; the write is
// all-or-nothing.
func (s *RouteService) Reorder(ctx context.Context, actor domain.Actor, routeID int64, orderedStopIDs []int64) error {
	if !actor.CanManageRoutes() {
		return fmt.Errorf("reorder route %d: %w", routeID, domain.ErrForbidden)
	}

	route, err := s.routes.Get(ctx, routeID)
	if err != nil {
		return fmt.Errorf("reorder route %d: %w", routeID, err)
	}
	if err := route.ApplySequence(orderedStopIDs); err != nil {
		return err
	}

	if err := s.routes.UpdateSequence(ctx, routeID, route.StopIDs()); err != nil {
		return fmt.Errorf("reorder route %d: %w", routeID, err)
	}

	s.publish(ctx, ports.EntityRoute, routeID)
	return nil
}

// AutoOptimize re-sequences the route's geocoded stops by nearest neighbor
// from the depot; stops without coordinates go to the end in their current
// relative order. Rejected when locked.
func (s *RouteService) AutoOptimize(ctx context.Context, actor domain.Actor, routeID int64) (*domain.Route, error) {
	if !actor.CanManageRoutes() {
		return nil, fmt.Errorf("optimize route %d: %w", routeID, domain.ErrForbidden)
	}

	route, err := s.routes.Get(ctx, routeID)
	if err != nil {
		return nil, fmt.Errorf("optimize route %d: %w", routeID, err)
	}

	ordered := OptimizeSequence(s.depot, route.Stops)
	ids := make([]int64, 0, len(ordered))
	for _, stop := range ordered {
		ids = append(ids, stop.ID)
	}
	if err := route.ApplySequence(ids); err != nil {
		return nil, err
	}

	if err := s.routes.UpdateSequence(ctx, routeID, route.StopIDs()); err != nil {
		return nil, fmt.Errorf("optimize route %d: %w", routeID, err)
	}

	metrics.IncrementRouteOptimizations()
	s.publish(ctx, ports.EntityRoute, routeID)
	return route, nil
}

// Start locks the sequence and hands the route to the driver.
func (s *RouteService) Start(ctx context.Context, actor domain.Actor, routeID int64) error {
	if !actor.CanManageRoutes() && !actor.CanAttemptStops() {
		return fmt.Errorf("start route %d: %w", routeID, domain.ErrForbidden)
	}

	if err := s.routes.UpdateStatus(ctx, routeID, domain.RouteCreated, domain.RouteInProgress); err != nil {
		return fmt.Errorf("start route %d: %w", routeID, err)
	}

	s.publish(ctx, ports.EntityRoute, routeID)
	s.log.WithField("route_id", routeID).Info("route started")
	return nil
}

// Finish closes the route. Any stop still in flight is force-failed first:
// its task reverts to the captured pending status with the failed-attempt
// flag set, exactly as if the driver had marked it failed. A route is never
// closed leaving orphaned in-flight stops.
func (s *RouteService) Finish(ctx context.Context, actor domain.Actor, routeID int64) error {
	if !actor.CanManageRoutes() && !actor.CanAttemptStops() {
		return fmt.Errorf("finish route %d: %w", routeID, domain.ErrForbidden)
	}

	route, err := s.routes.Get(ctx, routeID)
	if err != nil {
		return fmt.Errorf("finish route %d: %w", routeID, err)
	}

	for _, stop := range route.InFlightStops() {
		task, err := s.tasks.Get(ctx, stop.OrderID)
		if err != nil {
			return fmt.Errorf("finish route %d: load task for stop %d: %w", routeID, stop.ID, err)
		}
		if err := task.Fail(); err != nil {
			// The task moved on elsewhere (e.g. just completed); the stop no
			// longer counts as in flight.
			s.log.WithFields(logrus.Fields{
				"route_id": routeID,
				"order_id": stop.OrderID,
			}).WithError(err).Warn("in-flight stop resolved concurrently, skipping sweep")
			continue
		}
		if err := s.tasks.ApplyTransition(ctx, task, domain.TaskEnRoute); err != nil {
			return fmt.Errorf("finish route %d: revert task %d: %w", routeID, task.OrderID, err)
		}
		if err := s.routes.UpdateStopStatus(ctx, stop.ID, domain.StopFailed); err != nil {
			return fmt.Errorf("finish route %d: mark stop %d failed: %w", routeID, stop.ID, err)
		}
		metrics.IncrementAttemptsFailed()
		s.publish(ctx, ports.EntityTask, task.OrderID)
	}

	if err := s.routes.UpdateStatus(ctx, routeID, domain.RouteInProgress, domain.RouteFinished); err != nil {
		return fmt.Errorf("finish route %d: %w", routeID, err)
	}

	s.publish(ctx, ports.EntityRoute, routeID)
	s.log.WithField("route_id", routeID).Info("route finished")
	return nil
}

// Delete removes a route that never started. The stops go with it; their
// delivery tasks return to the unassigned pool untouched.
func (s *RouteService) Delete(ctx context.Context, actor domain.Actor, routeID int64) error {
	if !actor.CanManageRoutes() {
		return fmt.Errorf("delete route %d: %w", routeID, domain.ErrForbidden)
	}

	if err := s.routes.Delete(ctx, routeID); err != nil {
		return fmt.Errorf("delete route %d: %w", routeID, err)
	}

	s.publish(ctx, ports.EntityRoute, routeID)
	return nil
}

func (s *RouteService) publish(ctx context.Context, entity string, id int64) {
	if err := s.bus.Publish(ctx, ports.NewChange(entity, id)); err != nil {
		s.log.WithFields(logrus.Fields{"entity": entity, "id": id}).
			WithError(err).Error("change event publish failed")
		return
	}
	metrics.IncrementEventsPublished()
}
