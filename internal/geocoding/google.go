package geocoding

import (
	"context"
	"encoding/json"
	"time"

	"googlemaps.github.io/maps"

	"listing-service/internal/apperr"
	"listing-service/internal/models"
)

// GoogleGeocoder resolves addresses with the Google Geocoding API.
type GoogleGeocoder struct {
	client  *maps.Client
	timeout time.Duration
}

// NewGoogleGeocoder creates a geocoder authenticated with apiKey.
func NewGoogleGeocoder(apiKey string) (*GoogleGeocoder, error) {
	client, err := maps.NewClient(maps.WithAPIKey(apiKey))
	if err != nil {
		return nil, err
	}
	return &GoogleGeocoder{client: client, timeout: 10 * time.Second}, nil
}

func (g *GoogleGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	results, err := g.client.Geocode(ctx, &maps.GeocodingRequest{Address: address})
	if err != nil {
		return nil, apperr.Geocode(err, "geocoding failed for %q", address)
	}
	if len(results) == 0 {
		return nil, apperr.Geocode(nil, "no geocoding result for %q", address)
	}

	first := results[0]
	raw, err := json.Marshal(first)
	if err != nil {
		return nil, apperr.Geocode(err, "could not encode geocoding payload")
	}
	return &Result{
		Point: models.GeoPoint{
			Longitude: first.Geometry.Location.Lng,
			Latitude:  first.Geometry.Location.Lat,
		},
		FormattedAddress: first.FormattedAddress,
		Raw:              raw,
	}, nil
}
