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

// TaskService owns per-order delivery attempts: the driver advancing or
// failing a stop, and the read-side dispatch queue.
type TaskService struct {
	tasks    ports.TaskRepository
	routes   ports.RouteRepository
	notifier ports.Notifier
	bus      ports.EventBus
	log      logrus.FieldLogger
}

func NewTaskService(
	tasks ports.TaskRepository,
	routes ports.RouteRepository,
	notifier ports.Notifier,
	bus ports.EventBus,
	log logrus.FieldLogger,
) *TaskService {
	return &TaskService{
		tasks:    tasks,
		routes:   routes,
		notifier: notifier,
		bus:      bus,
		log:      log,
	}
}

// StartStop begins a delivery attempt for the stop. The task captures its
// rollback target, any stale failed-attempt flag is cleared, and the customer
// is notified that the driver is on the way. The notification variant depends
// on the task kind and on whether this is a retry.
func (s *TaskService) StartStop(ctx context.Context, actor domain.Actor, stopID int64) error {
	if !actor.CanAttemptStops() {
		return fmt.Errorf("start stop %d: %w", stopID, domain.ErrForbidden)
	}

	stop, routeID, err := s.routes.GetStop(ctx, stopID)
	if err != nil {
		return fmt.Errorf("start stop %d: %w", stopID, err)
	}
	task, err := s.tasks.Get(ctx, stop.OrderID)
	if err != nil {
		return fmt.Errorf("start stop %d: load task: %w", stopID, err)
	}

	retry := task.FailedAttempt
	expect := task.Status
	if err := task.Start(); err != nil {
		return err
	}
	if err := s.tasks.ApplyTransition(ctx, task, expect); err != nil {
		return fmt.Errorf("start stop %d: %w", stopID, err)
	}
	if err := s.routes.UpdateStopStatus(ctx, stopID, domain.StopInProgress); err != nil {
		return fmt.Errorf("start stop %d: %w", stopID, err)
	}

	metrics.IncrementAttemptsStarted()
	s.notify(ctx, task, retry, actor.Name)
	s.publish(ctx, ports.EntityTask, task.OrderID)
	s.publish(ctx, ports.EntityRoute, routeID)
	return nil
}

// CompleteStop records a successful attempt: the task reaches its terminal
// status for the kind and the stop is marked delivered.
func (s *TaskService) CompleteStop(ctx context.Context, actor domain.Actor, stopID int64) error {
	if !actor.CanAttemptStops() {
		return fmt.Errorf("complete stop %d: %w", stopID, domain.ErrForbidden)
	}

	stop, routeID, err := s.routes.GetStop(ctx, stopID)
	if err != nil {
		return fmt.Errorf("complete stop %d: %w", stopID, err)
	}
	task, err := s.tasks.Get(ctx, stop.OrderID)
	if err != nil {
		return fmt.Errorf("complete stop %d: load task: %w", stopID, err)
	}

	if err := task.Complete(); err != nil {
		return err
	}
	if err := s.tasks.ApplyTransition(ctx, task, domain.TaskEnRoute); err != nil {
		return fmt.Errorf("complete stop %d: %w", stopID, err)
	}
	if err := s.routes.UpdateStopStatus(ctx, stopID, domain.StopDelivered); err != nil {
		return fmt.Errorf("complete stop %d: %w", stopID, err)
	}

	metrics.IncrementAttemptsCompleted()
	s.publish(ctx, ports.EntityTask, task.OrderID)
	s.publish(ctx, ports.EntityRoute, routeID)
	return nil
}

// FailStop records a failed attempt. The task reverts to its captured pending
// status with the failed-attempt flag set and returns to the awaiting-dispatch
// pool; the queue demotes it behind non-failed work.
func (s *TaskService) FailStop(ctx context.Context, actor domain.Actor, stopID int64) error {
	if !actor.CanAttemptStops() {
		return fmt.Errorf("fail stop %d: %w", stopID, domain.ErrForbidden)
	}

	stop, routeID, err := s.routes.GetStop(ctx, stopID)
	if err != nil {
		return fmt.Errorf("fail stop %d: %w", stopID, err)
	}
	task, err := s.tasks.Get(ctx, stop.OrderID)
	if err != nil {
		return fmt.Errorf("fail stop %d: load task: %w", stopID, err)
	}

	if err := task.Fail(); err != nil {
		return err
	}
	if err := s.tasks.ApplyTransition(ctx, task, domain.TaskEnRoute); err != nil {
		return fmt.Errorf("fail stop %d: %w", stopID, err)
	}
	if err := s.routes.UpdateStopStatus(ctx, stopID, domain.StopFailed); err != nil {
		return fmt.Errorf("fail stop %d: %w", stopID, err)
	}

	metrics.IncrementAttemptsFailed()
	s.publish(ctx, ports.EntityTask, task.OrderID)
	s.publish(ctx, ports.EntityRoute, routeID)
	return nil
}

// Queue returns the awaiting-dispatch pool for the given date, non-failed
// tasks first, failed attempts demoted to the back, recency order preserved
// within each group.
func (s *TaskService) Queue(ctx context.Context, day time.Time) ([]*domain.DeliveryTask, error) {
	tasks, err := s.tasks.ListEligible(ctx, day)
	if err != nil {
		return nil, fmt.Errorf("dispatch queue for %s: %w", day.Format("2006-01-02"), err)
	}
	return tasks, nil
}

// Next surfaces the single task the driver should handle next: the first
// non-failed item, or the first failed item once none remain. Returns nil
// when the queue is empty.
func (s *TaskService) Next(ctx context.Context, day time.Time) (*domain.DeliveryTask, error) {
	tasks, err := s.Queue(ctx, day)
	if err != nil {
		return nil, err
	}
	if len(tasks) == 0 {
		return nil, nil
	}
	return tasks[0], nil
}

// UpdateNotes overwrites the dispatcher notes on a task. Last write wins.
func (s *TaskService) UpdateNotes(ctx context.Context, actor domain.Actor, orderID int64, notes string) error {
	if !actor.CanEditNotes() {
		return fmt.Errorf("update notes for order %d: %w", orderID, domain.ErrForbidden)
	}
	if err := s.tasks.UpdateNotes(ctx, orderID, notes); err != nil {
		return fmt.Errorf("update notes for order %d: %w", orderID, err)
	}
	s.publish(ctx, ports.EntityTask, orderID)
	return nil
}

// notify sends the "driver on the way" message. Best-effort: failures are
// logged and never block the transition.
func (s *TaskService) notify(ctx context.Context, task *domain.DeliveryTask, retry bool, driver string) {
	if task.Phone == "" {
		return
	}
	msg := ports.Message{
		Kind:       task.Kind,
		Retry:      retry,
		ClientName: task.ClientName,
		Driver:     driver,
	}
	if err := s.notifier.Send(ctx, task.Phone, msg); err != nil {
		metrics.IncrementNotificationsFailed()
		s.log.WithFields(logrus.Fields{
			"order_id": task.OrderID,
			"kind":     task.Kind,
			"retry":    retry,
		}).WithError(err).Error("customer notification failed")
		return
	}
	metrics.IncrementNotificationsSent()
}

func (s *TaskService) publish(ctx context.Context, entity string, id int64) {
	if err := s.bus.Publish(ctx, ports.NewChange(entity, id)); err != nil {
		s.log.WithFields(logrus.Fields{"entity": entity, "id": id}).
			WithError(err).Error("change event publish failed")
		return
	}
	metrics.IncrementEventsPublished()
}
