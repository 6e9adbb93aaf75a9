package repositories

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
)

// Initialize the database schema.
func InitSchema(db *sql.DB) error {
	if db == nil {
		return errors.New("init schema: DB is nil")
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("init schema: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	createOrdersQuery := `
	CREATE TABLE IF NOT EXISTS orders (
		order_id BIGINT PRIMARY KEY,
		client_name TEXT NOT NULL,
		phone TEXT NOT NULL DEFAULT '',
		address TEXT NOT NULL,
		kind TEXT NOT NULL,
		status TEXT NOT NULL,
		previous_status TEXT NOT NULL DEFAULT '',
		failed_attempt BOOLEAN NOT NULL DEFAULT FALSE,
		notes TEXT NOT NULL DEFAULT '',
		pickup_date DATE,
		delivery_date DATE,
		updated_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createRoutesQuery := `
	CREATE TABLE IF NOT EXISTS routes (
		id BIGSERIAL PRIMARY KEY,
		route_date DATE NOT NULL,
		driver TEXT NOT NULL,
		status TEXT NOT NULL DEFAULT 'created',
		created_at TIMESTAMPTZ NOT NULL DEFAULT now()
	);
	`

	createStopsQuery := `
	CREATE TABLE IF NOT EXISTS route_stops (
		id BIGSERIAL PRIMARY KEY,
		route_id BIGINT NOT NULL REFERENCES routes(id) ON DELETE CASCADE,
		order_id BIGINT NOT NULL REFERENCES orders(order_id),
		client_name TEXT NOT NULL,
		address TEXT NOT NULL,
		lon DOUBLE PRECISION,
		lat DOUBLE PRECISION,
		seq INTEGER NOT NULL,
		status TEXT NOT NULL DEFAULT 'pending',
		UNIQUE (route_id, seq)
	);
	`

	createGeocodeCacheQuery := `
	CREATE TABLE IF NOT EXISTS geocode_cache (
		address TEXT PRIMARY KEY,
		lon DOUBLE PRECISION NOT NULL,
		lat DOUBLE PRECISION NOT NULL
	);
	`

	createIndexQuery := `
	CREATE INDEX IF NOT EXISTS idx_orders_dispatch
	ON orders(kind, status, pickup_date, delivery_date);
	`

	statements := []string{
		createOrdersQuery,
		createRoutesQuery,
		createStopsQuery,
		createGeocodeCacheQuery,
		createIndexQuery,
	}

	for i, stmt := range statements {
		if _, err := tx.Exec(stmt); err != nil {
			return fmt.Errorf("init schema: exec statement #%d: %w", i+1, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("init schema: commit tx: %w", err)
	}

	return nil
}

type OrderSeed struct {
	OrderID      int64  `json:"order_id"`
	ClientName   string `json:"client_name"`
	Phone        string `json:"phone"`
	Address      string `json:"address"`
	Kind         string `json:"kind"`
	Status       string `json:"status"`
	PickupDate   string `json:"pickup_date"`
	DeliveryDate string `json:"delivery_date"`
}

// Populate the orders table from a JSON file for local runs.
func SeedFromJSON(db *sql.DB, jsonPath string) error {
	bytes, err := os.ReadFile(jsonPath)
	if err != nil {
		return fmt.Errorf("seed orders: read %q: %w", jsonPath, err)
	}

	var data []OrderSeed
	if err := json.Unmarshal(bytes, &data); err != nil {
		return fmt.Errorf("seed orders: parse json: %w", err)
	}

	for i, item := range data {
		if item.OrderID <= 0 {
			return fmt.Errorf("seed orders: invalid order_id at index %d: %d", i+1, item.OrderID)
		}
		if strings.TrimSpace(item.Address) == "" {
			return fmt.Errorf("seed orders: item at index %d: address cannot be empty", i+1)
		}
	}

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("seed orders: begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	query := `
	INSERT INTO orders (
		order_id, client_name, phone, address, kind, status, pickup_date, delivery_date
	)
	VALUES ($1, $2, $3, $4, $5, $6, NULLIF($7, '')::date, NULLIF($8, '')::date)
	ON CONFLICT (order_id) DO NOTHING;
	`
	stmt, err := tx.Prepare(query)
	if err != nil {
		return fmt.Errorf("seed orders: prepare insert: %w", err)
	}
	defer stmt.Close()

	for _, o := range data {
		if _, err := stmt.Exec(
			o.OrderID, o.ClientName, o.Phone, o.Address, o.Kind, o.Status, o.PickupDate, o.DeliveryDate,
		); err != nil {
			return fmt.Errorf("seed orders: insert order_id=%d: %w", o.OrderID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("seed orders: commit tx: %w", err)
	}

	return nil
}
