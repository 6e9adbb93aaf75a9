package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"delivery-dispatch-service/internal/domain"
)

// Postgres-backed implementation of the TaskRepository port. Delivery-task
// fields live on the order record itself; every transition is one atomic
// single-row update so readers never observe a half-applied state.
type PGTaskRepository struct{ DB *sql.DB }

func NewPGTaskRepository(db *sql.DB) *PGTaskRepository {
	return &PGTaskRepository{DB: db}
}

const taskColumns = `
	order_id, client_name, phone, address, kind,
	status, previous_status, failed_attempt, notes,
	pickup_date, delivery_date, updated_at
`

func scanTask(row rowScanner) (*domain.DeliveryTask, error) {
	task := &domain.DeliveryTask{}
	var kind, status, prev string
	var pickup, delivery sql.NullTime
	if err := row.Scan(
		&task.OrderID, &task.ClientName, &task.Phone, &task.Address, &kind,
		&status, &prev, &task.FailedAttempt, &task.Notes,
		&pickup, &delivery, &task.UpdatedAt,
	); err != nil {
		return nil, fmt.Errorf("scan task: %w", err)
	}
	task.Kind = domain.TaskKind(kind)
	task.Status = domain.TaskStatus(status)
	task.PreviousStatus = domain.TaskStatus(prev)
	if pickup.Valid {
		task.PickupDate = pickup.Time
	}
	if delivery.Valid {
		task.DeliveryDate = delivery.Time
	}
	return task, nil
}

func (r *PGTaskRepository) Get(ctx context.Context, orderID int64) (*domain.DeliveryTask, error) {
	if r.DB == nil {
		return nil, errors.New("task repository: DB is nil")
	}

	q := `SELECT ` + taskColumns + ` FROM orders WHERE order_id = $1;`
	task, err := scanTask(r.DB.QueryRowContext(ctx, q, orderID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
		}
		return nil, fmt.Errorf("get task %d: %w", orderID, err)
	}

	return task, nil
}

// ListEligible returns the awaiting-dispatch pool for a date. Ordering is the
// queue policy: non-failed tasks first, then failed attempts, each group in
// recency order (oldest transition first). Self-pickup orders never appear;
// an in-flight pickup is always visible regardless of date.
func (r *PGTaskRepository) ListEligible(ctx context.Context, day time.Time) ([]*domain.DeliveryTask, error) {
	if r.DB == nil {
		return nil, errors.New("task repository: DB is nil")
	}

	q := `
	SELECT ` + taskColumns + `
	FROM orders
	WHERE kind <> 'self_pickup'
		AND status IN ('pending_pickup', 'pending_delivery', 'en_route')
		AND (
			(kind = 'pickup' AND pickup_date = $1)
			OR (kind = 'delivery' AND delivery_date = $1)
			OR (status = 'en_route' AND previous_status = 'pending_pickup')
		)
	ORDER BY failed_attempt, updated_at, order_id;
	`
	rows, err := r.DB.QueryContext(ctx, q, day)
	if err != nil {
		return nil, fmt.Errorf("list eligible tasks: query orders table: %w", err)
	}
	defer rows.Close()

	tasks := make([]*domain.DeliveryTask, 0, 32)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("list eligible tasks: %w", err)
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list eligible tasks: row iteration: %w", err)
	}

	return tasks, nil
}

// ApplyTransition writes status, previous_status, and failed_attempt in one
// guarded update. Zero rows means the task already left the expected state.
func (r *PGTaskRepository) ApplyTransition(ctx context.Context, task *domain.DeliveryTask, expect domain.TaskStatus) error {
	if r.DB == nil {
		return errors.New("task repository: DB is nil")
	}

	q := `
	UPDATE orders
	SET status = $1,
		previous_status = $2,
		failed_attempt = $3,
		updated_at = now()
	WHERE order_id = $4 AND status = $5;
	`
	res, err := r.DB.ExecContext(
		ctx, q, task.Status, task.PreviousStatus, task.FailedAttempt, task.OrderID, expect,
	)
	if err != nil {
		return fmt.Errorf("transition task %d: %w", task.OrderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("transition task %d: %w", task.OrderID, err)
	}
	if n == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(
			ctx, `SELECT EXISTS (SELECT 1 FROM orders WHERE order_id = $1);`, task.OrderID,
		).Scan(&exists); err != nil {
			return fmt.Errorf("transition task %d: %w", task.OrderID, err)
		}
		if !exists {
			return fmt.Errorf("order %d: %w", task.OrderID, domain.ErrNotFound)
		}
		return fmt.Errorf("task %d is no longer %q: %w", task.OrderID, expect, domain.ErrStaleTransition)
	}

	return nil
}

func (r *PGTaskRepository) UpdateNotes(ctx context.Context, orderID int64, notes string) error {
	if r.DB == nil {
		return errors.New("task repository: DB is nil")
	}

	res, err := r.DB.ExecContext(
		ctx, `UPDATE orders SET notes = $1, updated_at = now() WHERE order_id = $2;`, notes, orderID,
	)
	if err != nil {
		return fmt.Errorf("update notes for order %d: %w", orderID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update notes for order %d: %w", orderID, err)
	}
	if n == 0 {
		return fmt.Errorf("order %d: %w", orderID, domain.ErrNotFound)
	}

	return nil
}
