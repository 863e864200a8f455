package utils

import (
	"math"

	"listing-service/internal/models"
)

// HaversineMeters returns the great-circle distance between two points in meters.
func HaversineMeters(a, b models.GeoPoint) float64 {
	const earthRadiusM = models.EarthRadiusKm * 1000

	dLat := (b.Latitude - a.Latitude) * math.Pi / 180.0
	dLng := (b.Longitude - a.Longitude) * math.Pi / 180.0

	h := math.Sin(dLat/2)*math.Sin(dLat/2) +
		math.Cos(a.Latitude*math.Pi/180.0)*math.Cos(b.Latitude*math.Pi/180.0)*
			math.Sin(dLng/2)*math.Sin(dLng/2)

	return earthRadiusM * 2 * math.Atan2(math.Sqrt(h), math.Sqrt(1-h))
}

// BoundingBox is a lat/lng rectangle enclosing a circle.
type BoundingBox struct {
	MinLat, MaxLat, MinLng, MaxLng float64
}

// boxMargin widens the prefilter box so points on the circle's edge survive
// floating point error in the exact distance check.
const boxMargin = 1.01

// CalculateBoundingBox calculates a bounding box used to prefilter radius queries.
// The box is derived from the same earth radius as HaversineMeters. When the
// circle reaches a pole or crosses the antimeridian the longitude range covers
// the whole globe.
func CalculateBoundingBox(center models.GeoPoint, radiusMeters float64) BoundingBox {
	const metersPerDegree = models.EarthRadiusKm * 1000 * math.Pi / 180.0

	deltaLat := radiusMeters / metersPerDegree * boxMargin
	box := BoundingBox{
		MinLat: math.Max(center.Latitude-deltaLat, -90),
		MaxLat: math.Min(center.Latitude+deltaLat, 90),
		MinLng: -180,
		MaxLng: 180,
	}
	if box.MinLat <= -90 || box.MaxLat >= 90 {
		return box
	}

	// Widest longitude span of the circle, reached at the latitude of its
	// tangent points rather than at the center.
	angular := radiusMeters / (models.EarthRadiusKm * 1000)
	ratio := math.Sin(angular) / math.Cos(center.Latitude*math.Pi/180.0)
	if ratio >= 1 {
		return box
	}
	deltaLng := math.Asin(ratio) * 180.0 / math.Pi * boxMargin
	if center.Longitude-deltaLng < -180 || center.Longitude+deltaLng > 180 {
		return box
	}
	box.MinLng = center.Longitude - deltaLng
	box.MaxLng = center.Longitude + deltaLng
	return box
}

// Contains reports whether p lies inside the box.
func (b BoundingBox) Contains(p models.GeoPoint) bool {
	return p.Latitude >= b.MinLat && p.Latitude <= b.MaxLat &&
		p.Longitude >= b.MinLng && p.Longitude <= b.MaxLng
}
