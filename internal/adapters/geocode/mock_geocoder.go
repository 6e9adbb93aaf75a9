package geocode

import (
	"context"

	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/ports"
)

// MockGeocoder resolves from a fixed address table. Used in tests and local
// runs without an ORS key.
type MockGeocoder struct {
	m map[string]domain.Coordinates
}

type MockEntry struct {
	Address string
	Lat     float64
	Lon     float64
}

func NewMockGeocoder(entries []MockEntry) *MockGeocoder {
	m := make(map[string]domain.Coordinates, len(entries))
	for _, e := range entries {
		m[e.Address] = domain.Coordinates{Lat: e.Lat, Lon: e.Lon}
	}
	return &MockGeocoder{m: m}
}

func (g *MockGeocoder) Resolve(ctx context.Context, text string) (domain.Coordinates, error) {
	c, ok := g.m[text]
	if !ok {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}
	return c, nil
}
