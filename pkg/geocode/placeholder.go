package geocode

import (
	"context"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
)

// Placeholders substituted for an address that could not be resolved.
const (
	PlaceholderNotFound = "Address not found"
	PlaceholderError    = "Error fetching address"
	PlaceholderInvalid  = "Invalid location"
)

// AddressOrPlaceholder resolves lat/lng through r and never fails: an empty
// result yields PlaceholderNotFound and any other error PlaceholderError.
// The boolean reports whether the address came from the service.
func AddressOrPlaceholder(ctx context.Context, r Reverser, lat, lng float64) (string, bool) {
	place, err := r.Reverse(ctx, lat, lng)
	switch {
	case err == nil && place != nil && place.DisplayName != "":
		return place.DisplayName, true
	case err == nil, eris.Is(err, ErrNoAddress):
		return PlaceholderNotFound, false
	default:
		zap.L().Warn("geocode: reverse lookup failed",
			zap.Float64("lat", lat),
			zap.Float64("lng", lng),
			zap.Error(err),
		)
		return PlaceholderError, false
	}
}
