package ports

import (
	"context"

	"github.com/google/uuid"
)

// Entity types carried on the change bus.
const (
	EntityRoute = "route"
	EntityTask  = "task"
)

// Change is a minimal change notification: which entity mutated. Subscribers
// re-fetch the entity on receipt. EventID is unique per publication so
// handlers can dedupe under at-least-once delivery.
type Change struct {
	EventID string `json:"event_id"`
	Entity  string `json:"entity"`
	ID      int64  `json:"id"`
}

// NewChange builds a Change with a fresh event ID.
func NewChange(entity string, id int64) Change {
	return Change{EventID: uuid.NewString(), Entity: entity, ID: id}
}

// EventBus fans change notifications out to every open viewer session.
// Subscribe returns an unsubscribe function; subscriptions are long-lived for
// the life of a viewing session.
type EventBus interface {
	Publish(ctx context.Context, ch Change) error
	Subscribe(ctx context.Context, fn func(Change)) (func(), error)
}
