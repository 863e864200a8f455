// Package geocoding resolves free-text addresses to coordinates.
package geocoding

import (
	"context"
	"encoding/json"
	"strings"

	"listing-service/internal/models"
)

// Result is a resolved address.
type Result struct {
	Point            models.GeoPoint `json:"point"`
	FormattedAddress string          `json:"formattedAddress"`
	// Raw is the provider payload, kept on the listing for display purposes.
	Raw json.RawMessage `json:"raw"`
}

// Geocoder turns an address into coordinates. Implementations return an
// apperr geocode error when the address cannot be resolved.
type Geocoder interface {
	Geocode(ctx context.Context, address string) (*Result, error)
}

// NormalizeAddress is the cache key form of an address.
func NormalizeAddress(address string) string {
	return strings.Join(strings.Fields(strings.ToLower(address)), " ")
}
