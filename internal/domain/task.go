package domain

import (
	"fmt"
	"time"
)

// TaskKind is the logistics direction of an order.
type TaskKind string

const (
	KindPickup   TaskKind = "pickup"
	KindDelivery TaskKind = "delivery"
	// KindSelfPickup orders are handed over at the counter and never enter the
	// dispatch queue.
	KindSelfPickup TaskKind = "self_pickup"
)

// TaskStatus is the order-level delivery lifecycle status.
type TaskStatus string

const (
	TaskPendingPickup   TaskStatus = "pending_pickup"
	TaskPendingDelivery TaskStatus = "pending_delivery"
	TaskEnRoute         TaskStatus = "en_route"
	TaskPickedUp        TaskStatus = "picked_up"
	TaskDelivered       TaskStatus = "delivered"
)

// Pending reports whether the status is one of the pre-route resting states.
func (s TaskStatus) Pending() bool {
	return s == TaskPendingPickup || s == TaskPendingDelivery
}

// Terminal reports whether the status is a completed attempt outcome.
func (s TaskStatus) Terminal() bool {
	return s == TaskPickedUp || s == TaskDelivered
}

// DeliveryTask is the order-level record of pickup/delivery state. It is the
// single source of truth for "is this order currently out for delivery"; route
// membership is derived from it, never the other way around.
type DeliveryTask struct {
	OrderID    int64
	ClientName string
	Phone      string
	Address    string
	Kind       TaskKind

	Status TaskStatus
	// PreviousStatus is the pending state to restore when an attempt fails.
	// Only meaningful while Status is TaskEnRoute.
	PreviousStatus TaskStatus
	FailedAttempt  bool

	Notes        string
	PickupDate   time.Time
	DeliveryDate time.Time
	UpdatedAt    time.Time
}

// Start moves a pending task in flight. It captures the rollback target and
// clears any stale failed-attempt flag: a fresh attempt supersedes a prior
// failure. Returns ErrStaleTransition when the task is not pending.
func (t *DeliveryTask) Start() error {
	if !t.Status.Pending() {
		return fmt.Errorf("start task %d from %q: %w", t.OrderID, t.Status, ErrStaleTransition)
	}
	t.PreviousStatus = t.Status
	t.Status = TaskEnRoute
	t.FailedAttempt = false
	return nil
}

// Complete finishes an in-flight attempt successfully. The terminal status
// depends on the task kind. Returns ErrStaleTransition when the task is not
// in flight.
func (t *DeliveryTask) Complete() error {
	if t.Status != TaskEnRoute {
		return fmt.Errorf("complete task %d from %q: %w", t.OrderID, t.Status, ErrStaleTransition)
	}
	if t.Kind == KindPickup {
		t.Status = TaskPickedUp
	} else {
		t.Status = TaskDelivered
	}
	t.PreviousStatus = ""
	return nil
}

// Fail aborts an in-flight attempt. The task reverts to its captured pending
// state and is flagged so the queue demotes it behind fresh work. Returns
// ErrStaleTransition when the task is not in flight.
func (t *DeliveryTask) Fail() error {
	if t.Status != TaskEnRoute {
		return fmt.Errorf("fail task %d from %q: %w", t.OrderID, t.Status, ErrStaleTransition)
	}
	t.Status = t.PreviousStatus
	t.PreviousStatus = ""
	t.FailedAttempt = true
	return nil
}

// EligibleOn reports whether the task belongs in the driver queue for the
// given calendar date. An in-flight pickup stays visible regardless of date:
// it must be resolved before anything else. Self-pickup orders never qualify.
func (t *DeliveryTask) EligibleOn(day time.Time) bool {
	switch t.Kind {
	case KindSelfPickup:
		return false
	case KindPickup:
		if t.Status == TaskEnRoute && t.PreviousStatus == TaskPendingPickup {
			return true
		}
		return sameDay(t.PickupDate, day)
	case KindDelivery:
		if t.Status == TaskEnRoute && t.PreviousStatus == TaskPendingPickup {
			return true
		}
		return sameDay(t.DeliveryDate, day)
	}
	return false
}

func sameDay(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}
