package ports

import (
	"context"
	"errors"

	"delivery-dispatch-service/internal/domain"
)

// ErrAddressNotFound means the provider could not resolve the input. Callers
// treat provider outages the same way: the stop keeps nil coordinates.
var ErrAddressNotFound = errors.New("address not found")

// Contract for resolving a free-form address or plus-code into coordinates.
type Geocoder interface {
	Resolve(ctx context.Context, text string) (domain.Coordinates, error)
}
