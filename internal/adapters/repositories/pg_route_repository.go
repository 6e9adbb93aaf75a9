package repositories

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"delivery-dispatch-service/internal/domain"
)

// Postgres-backed implementation of the RouteRepository port.
type PGRouteRepository struct{ DB *sql.DB }

func NewPGRouteRepository(db *sql.DB) *PGRouteRepository {
	return &PGRouteRepository{DB: db}
}

func (r *PGRouteRepository) Create(ctx context.Context, route *domain.Route) error {
	if r.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("create route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	insertRoute := `
	INSERT INTO routes (route_date, driver, status)
	VALUES ($1, $2, $3)
	RETURNING id;
	`
	if err := tx.QueryRowContext(
		ctx, insertRoute, route.Date, route.Driver, route.Status,
	).Scan(&route.ID); err != nil {
		return fmt.Errorf("create route: insert route: %w", err)
	}

	insertStop := `
	INSERT INTO route_stops (route_id, order_id, client_name, address, lon, lat, seq, status)
	VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	RETURNING id;
	`
	for _, s := range route.Stops {
		var lon, lat any
		if s.Coords != nil {
			lon, lat = s.Coords.Lon, s.Coords.Lat
		}
		if err := tx.QueryRowContext(
			ctx, insertStop, route.ID, s.OrderID, s.ClientName, s.Address, lon, lat, s.Seq, s.Status,
		).Scan(&s.ID); err != nil {
			return fmt.Errorf("create route: insert stop order=%d: %w", s.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("create route: commit tx: %w", err)
	}

	return nil
}

func (r *PGRouteRepository) Get(ctx context.Context, id int64) (*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	q := `
	SELECT id, route_date, driver, status
	FROM routes
	WHERE id = $1;
	`
	route := &domain.Route{}
	var status string
	err := r.DB.QueryRowContext(ctx, q, id).Scan(&route.ID, &route.Date, &route.Driver, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("route %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("get route %d: %w", id, err)
	}
	route.Status = domain.RouteStatus(status)

	if route.Stops, err = r.loadStops(ctx, id); err != nil {
		return nil, fmt.Errorf("get route %d: %w", id, err)
	}

	return route, nil
}

func (r *PGRouteRepository) ListByDate(ctx context.Context, day time.Time) ([]*domain.Route, error) {
	if r.DB == nil {
		return nil, errors.New("route repository: DB is nil")
	}

	q := `
	SELECT id, route_date, driver, status
	FROM routes
	WHERE route_date = $1
	ORDER BY id;
	`
	rows, err := r.DB.QueryContext(ctx, q, day)
	if err != nil {
		return nil, fmt.Errorf("list routes: query routes table: %w", err)
	}
	defer rows.Close()

	routes := make([]*domain.Route, 0, 8)
	for rows.Next() {
		route := &domain.Route{}
		var status string
		if err := rows.Scan(&route.ID, &route.Date, &route.Driver, &status); err != nil {
			return nil, fmt.Errorf("list routes: scan row: %w", err)
		}
		route.Status = domain.RouteStatus(status)
		routes = append(routes, route)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("list routes: row iteration: %w", err)
	}

	for _, route := range routes {
		if route.Stops, err = r.loadStops(ctx, route.ID); err != nil {
			return nil, fmt.Errorf("list routes: route %d: %w", route.ID, err)
		}
	}

	return routes, nil
}

func (r *PGRouteRepository) loadStops(ctx context.Context, routeID int64) ([]*domain.Stop, error) {
	q := `
	SELECT id, order_id, client_name, address, lon, lat, seq, status
	FROM route_stops
	WHERE route_id = $1
	ORDER BY seq;
	`
	rows, err := r.DB.QueryContext(ctx, q, routeID)
	if err != nil {
		return nil, fmt.Errorf("query route_stops: %w", err)
	}
	defer rows.Close()

	stops := make([]*domain.Stop, 0, 16)
	for rows.Next() {
		stop, err := scanStop(rows)
		if err != nil {
			return nil, err
		}
		stops = append(stops, stop)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("route_stops iteration: %w", err)
	}

	return stops, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanStop(row rowScanner) (*domain.Stop, error) {
	stop := &domain.Stop{}
	var lon, lat sql.NullFloat64
	var status string
	if err := row.Scan(
		&stop.ID, &stop.OrderID, &stop.ClientName, &stop.Address, &lon, &lat, &stop.Seq, &status,
	); err != nil {
		return nil, fmt.Errorf("scan stop: %w", err)
	}
	stop.Status = domain.StopStatus(status)
	if lon.Valid && lat.Valid {
		stop.Coords = &domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}
	}
	return stop, nil
}

func (r *PGRouteRepository) GetStop(ctx context.Context, stopID int64) (*domain.Stop, int64, error) {
	if r.DB == nil {
		return nil, 0, errors.New("route repository: DB is nil")
	}

	q := `
	SELECT id, order_id, client_name, address, lon, lat, seq, status, route_id
	FROM route_stops
	WHERE id = $1;
	`
	stop := &domain.Stop{}
	var lon, lat sql.NullFloat64
	var status string
	var routeID int64
	err := r.DB.QueryRowContext(ctx, q, stopID).Scan(
		&stop.ID, &stop.OrderID, &stop.ClientName, &stop.Address, &lon, &lat, &stop.Seq, &status, &routeID,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, 0, fmt.Errorf("stop %d: %w", stopID, domain.ErrNotFound)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("get stop %d: %w", stopID, err)
	}
	stop.Status = domain.StopStatus(status)
	if lon.Valid && lat.Valid {
		stop.Coords = &domain.Coordinates{Lon: lon.Float64, Lat: lat.Float64}
	}

	return stop, routeID, nil
}

// UpdateSequence overwrites stop positions in one transaction. The route row
// is locked first so the sequence cannot change under a concurrent start; a
// locked route rejects the write outright. Positions are parked negative
// before renumbering so the (route_id, seq) unique constraint never trips
// mid-update.
func (r *PGRouteRepository) UpdateSequence(ctx context.Context, routeID int64, orderedStopIDs []int64) error {
	if r.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("update sequence: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM routes WHERE id = $1 FOR UPDATE;`, routeID).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("route %d: %w", routeID, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("update sequence: lock route %d: %w", routeID, err)
	}
	if domain.RouteStatus(status) != domain.RouteCreated {
		return fmt.Errorf("route %d: %w", routeID, domain.ErrRouteLocked)
	}

	var total int
	if err := tx.QueryRowContext(
		ctx, `SELECT COUNT(*) FROM route_stops WHERE route_id = $1;`, routeID,
	).Scan(&total); err != nil {
		return fmt.Errorf("update sequence: count stops: %w", err)
	}
	if total != len(orderedStopIDs) {
		return fmt.Errorf("route %d: %d ids for %d stops: %w",
			routeID, len(orderedStopIDs), total, domain.ErrInvalidSequence)
	}

	if _, err := tx.ExecContext(
		ctx, `UPDATE route_stops SET seq = -seq WHERE route_id = $1;`, routeID,
	); err != nil {
		return fmt.Errorf("update sequence: park positions: %w", err)
	}

	renumber := `
	UPDATE route_stops
	SET seq = $1
	WHERE id = $2 AND route_id = $3;
	`
	for i, stopID := range orderedStopIDs {
		res, err := tx.ExecContext(ctx, renumber, i+1, stopID, routeID)
		if err != nil {
			return fmt.Errorf("update sequence: stop %d: %w", stopID, err)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return fmt.Errorf("update sequence: stop %d: %w", stopID, err)
		}
		if n != 1 {
			return fmt.Errorf("route %d: unknown stop %d: %w", routeID, stopID, domain.ErrInvalidSequence)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("update sequence: commit tx: %w", err)
	}

	return nil
}

func (r *PGRouteRepository) UpdateStatus(ctx context.Context, id int64, from, to domain.RouteStatus) error {
	if r.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	q := `
	UPDATE routes
	SET status = $1
	WHERE id = $2 AND status = $3;
	`
	res, err := r.DB.ExecContext(ctx, q, to, id, from)
	if err != nil {
		return fmt.Errorf("update route %d status: %w", id, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update route %d status: %w", id, err)
	}
	if n == 0 {
		var exists bool
		if err := r.DB.QueryRowContext(
			ctx, `SELECT EXISTS (SELECT 1 FROM routes WHERE id = $1);`, id,
		).Scan(&exists); err != nil {
			return fmt.Errorf("update route %d status: %w", id, err)
		}
		if !exists {
			return fmt.Errorf("route %d: %w", id, domain.ErrNotFound)
		}
		return fmt.Errorf("route %d is not %q: %w", id, from, domain.ErrStaleTransition)
	}

	return nil
}

func (r *PGRouteRepository) UpdateStopStatus(ctx context.Context, stopID int64, status domain.StopStatus) error {
	if r.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	res, err := r.DB.ExecContext(
		ctx, `UPDATE route_stops SET status = $1 WHERE id = $2;`, status, stopID,
	)
	if err != nil {
		return fmt.Errorf("update stop %d status: %w", stopID, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("update stop %d status: %w", stopID, err)
	}
	if n == 0 {
		return fmt.Errorf("stop %d: %w", stopID, domain.ErrNotFound)
	}

	return nil
}

func (r *PGRouteRepository) Delete(ctx context.Context, id int64) error {
	if r.DB == nil {
		return errors.New("route repository: DB is nil")
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("delete route: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var status string
	err = tx.QueryRowContext(ctx, `SELECT status FROM routes WHERE id = $1 FOR UPDATE;`, id).Scan(&status)
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("route %d: %w", id, domain.ErrNotFound)
	}
	if err != nil {
		return fmt.Errorf("delete route %d: %w", id, err)
	}
	if domain.RouteStatus(status) != domain.RouteCreated {
		return fmt.Errorf("route %d: %w", id, domain.ErrRouteLocked)
	}

	// stops go with the route (ON DELETE CASCADE); delivery tasks are untouched
	if _, err := tx.ExecContext(ctx, `DELETE FROM routes WHERE id = $1;`, id); err != nil {
		return fmt.Errorf("delete route %d: %w", id, err)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("delete route %d: commit tx: %w", id, err)
	}

	return nil
}
