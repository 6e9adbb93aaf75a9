package ports

import (
	"context"

	"delivery-dispatch-service/internal/domain"
)

// Message describes the customer-facing "driver is on the way" notification.
// Kind and Retry select one of four templates; the adapter renders the text.
type Message struct {
	Kind       domain.TaskKind
	Retry      bool
	ClientName string
	Driver     string
}

// Notifier sends fire-and-forget customer messages. No delivery confirmation
// is consumed; a send failure must never block a status transition.
type Notifier interface {
	Send(ctx context.Context, phone string, msg Message) error
}
