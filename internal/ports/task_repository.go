package ports

import (
	"context"
	"time"

	"delivery-dispatch-service/internal/domain"
)

// Port: persistence boundary for delivery tasks. Task fields live on the
// order record itself; updates are atomic single-record writes.
type TaskRepository interface {
	Get(ctx context.Context, orderID int64) (*domain.DeliveryTask, error)

	// ListEligible returns tasks visible to the dispatch queue for the given
	// date, ordered non-failed first, then failed, recency order within each
	// group.
	ListEligible(ctx context.Context, day time.Time) ([]*domain.DeliveryTask, error)

	// ApplyTransition writes status, previous_status, and failed_attempt in
	// one atomic update, guarded on the expected source status. A guard miss
	// yields domain.ErrStaleTransition and no write.
	ApplyTransition(ctx context.Context, task *domain.DeliveryTask, expect domain.TaskStatus) error

	UpdateNotes(ctx context.Context, orderID int64, notes string) error
}
