package geocode

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"delivery-dispatch-service/internal/adapters/cache"
	"delivery-dispatch-service/internal/domain"
	"delivery-dispatch-service/internal/platform/obs"
	"delivery-dispatch-service/internal/ports"
)

// ORSGeocoder implements the Geocoder port using OpenRouteService.
//
// It coordinates:
//   - Address normalization
//   - Persistent per-address caching
//   - External API calls with retry/backoff
//
// The geocoder is safe for concurrent use.
type ORSGeocoder struct {
	session *http.Client
	apiKey  string
	baseURL string
	country string
	cache   *cache.PGGeocodeCache
	log     logrus.FieldLogger
}

func NewORSGeocoder(apiKey string, geocodeCache *cache.PGGeocodeCache, log logrus.FieldLogger) (*ORSGeocoder, error) {
	if apiKey == "" {
		return nil, errors.New("ORS api key is empty")
	}

	return &ORSGeocoder{
		session: &http.Client{Timeout: 10 * time.Second},
		apiKey:  apiKey,
		baseURL: "https://api.openrouteservice.org",
		country: "MX",
		cache:   geocodeCache,
		log:     log,
	}, nil
}

type geocodeResponse struct {
	Features []struct {
		Geometry struct {
			Coordinates []float64 `json:"coordinates"`
		} `json:"geometry"`
	} `json:"features"`
}

// normalize ensures consistent cache keys by collapsing whitespace.
func (g *ORSGeocoder) normalize(s string) string {
	return strings.Join(strings.Fields(s), " ")
}

// Resolve maps a free-form address or plus-code to coordinates. Unresolvable
// input and provider outages both surface as ErrAddressNotFound; callers keep
// the stop without coordinates.
func (g *ORSGeocoder) Resolve(ctx context.Context, text string) (_ domain.Coordinates, err error) {
	defer obs.Time(ctx, "ors.Resolve")(&err)

	norm := g.normalize(text)
	if norm == "" {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}

	// Check the persistent cache before issuing an external call.
	if g.cache != nil {
		coords, hit, err := g.cache.Get(ctx, norm)
		if err != nil {
			return domain.Coordinates{}, fmt.Errorf("geocode %q: cache read: %w", norm, err)
		}
		if hit {
			return coords, nil
		}
	}

	endpoint := g.baseURL + "/geocode/search"

	resp, err := g.doWithRetry(ctx, func() (*http.Request, error) {
		req, err := g.newRequest(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, err
		}
		q := req.URL.Query()
		q.Set("text", norm)
		q.Set("boundary.country", g.country)
		q.Set("size", "1")
		req.URL.RawQuery = q.Encode()
		return req, nil
	})
	if err != nil {
		// Provider unavailability degrades to "not found"; the error detail
		// still lands in the log for diagnosis.
		g.log.WithField("address", norm).WithError(err).Warn("geocoding provider unavailable")
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}
	defer resp.Body.Close()

	var decoded geocodeResponse
	if err := json.NewDecoder(resp.Body).Decode(&decoded); err != nil {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: decode response: %w", norm, err)
	}

	if len(decoded.Features) == 0 {
		return domain.Coordinates{}, ports.ErrAddressNotFound
	}

	raw := decoded.Features[0].Geometry.Coordinates
	if len(raw) != 2 {
		return domain.Coordinates{}, fmt.Errorf("geocode %q: invalid coordinate format", norm)
	}

	coords := domain.Coordinates{Lon: raw[0], Lat: raw[1]}

	if g.cache != nil {
		if err := g.cache.Put(ctx, norm, coords); err != nil {
			g.log.WithField("address", norm).WithError(err).Warn("geocode cache write failed")
		}
	}

	return coords, nil
}
