package cache

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"delivery-dispatch-service/internal/domain"
)

// PGGeocodeCache is a Postgres-backed cache mapping client addresses to
// coordinates, so repeat route builds for the same client skip the external
// geocoding call.
type PGGeocodeCache struct {
	DB *sql.DB
}

func NewPGGeocodeCache(db *sql.DB) *PGGeocodeCache {
	return &PGGeocodeCache{DB: db}
}

// Get returns the cached coordinates for an address; the bool reports a hit.
func (c *PGGeocodeCache) Get(ctx context.Context, address string) (domain.Coordinates, bool, error) {
	if c.DB == nil {
		return domain.Coordinates{}, false, errors.New("geocode cache: db is nil")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return domain.Coordinates{}, false, nil
	}

	q := `
	SELECT lon, lat
	FROM geocode_cache
	WHERE address = $1;
	`

	var lon, lat float64
	err := c.DB.QueryRowContext(ctx, q, address).Scan(&lon, &lat)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Coordinates{}, false, nil
	}
	if err != nil {
		return domain.Coordinates{}, false, fmt.Errorf("get geocode cache %q: %w", address, err)
	}

	return domain.Coordinates{Lon: lon, Lat: lat}, true, nil
}

// Put stores an address -> coordinate mapping, replacing any prior entry.
func (c *PGGeocodeCache) Put(ctx context.Context, address string, coords domain.Coordinates) error {
	if c.DB == nil {
		return errors.New("geocode cache: db is nil")
	}

	address = strings.TrimSpace(address)
	if address == "" {
		return errors.New("insert geocode cache: empty address key")
	}

	q := `
	INSERT INTO geocode_cache (address, lon, lat)
	VALUES ($1, $2, $3)
	ON CONFLICT (address) DO UPDATE
	SET lon = EXCLUDED.lon,
		lat = EXCLUDED.lat;
	`

	if _, err := c.DB.ExecContext(ctx, q, address, coords.Lon, coords.Lat); err != nil {
		return fmt.Errorf("insert geocode cache %q: %w", address, err)
	}

	return nil
}
