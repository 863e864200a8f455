package geocoding

import (
	"context"
	"log"
	"time"

	"listing-service/internal/apperr"
	"listing-service/internal/utils"
)

// CachingGeocoder checks each cache layer in order before calling the provider.
// Cache failures are logged and never fail a lookup; provider failures are
// returned unchanged.
type CachingGeocoder struct {
	provider Geocoder
	layers   []CacheLayer
	metrics  *utils.Metrics
}

func NewCachingGeocoder(provider Geocoder, metrics *utils.Metrics, layers ...CacheLayer) *CachingGeocoder {
	return &CachingGeocoder{provider: provider, layers: layers, metrics: metrics}
}

func (g *CachingGeocoder) Geocode(ctx context.Context, address string) (*Result, error) {
	key := NormalizeAddress(address)
	if key == "" {
		return nil, apperr.Validation("address required")
	}

	for i, layer := range g.layers {
		r, hit, err := layer.Get(ctx, key)
		if err != nil {
			log.Printf("Geocode cache %s lookup failed for %q: %v", layer.Name(), key, err)
			continue
		}
		g.metrics.RecordGeocodeCache(layer.Name(), hit)
		if hit {
			// Promote into faster layers
			g.storeLayers(ctx, key, r, g.layers[:i])
			return r, nil
		}
	}

	start := time.Now()
	r, err := g.provider.Geocode(ctx, address)
	g.metrics.RecordGeocodeLatency(time.Since(start).Milliseconds())
	if err != nil {
		return nil, err
	}
	g.storeLayers(ctx, key, r, g.layers)
	return r, nil
}

func (g *CachingGeocoder) storeLayers(ctx context.Context, key string, r *Result, layers []CacheLayer) {
	for _, layer := range layers {
		if err := layer.Store(ctx, key, r); err != nil {
			log.Printf("Geocode cache %s store failed for %q: %v", layer.Name(), key, err)
		}
	}
}
