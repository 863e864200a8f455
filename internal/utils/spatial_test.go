package utils

import (
	"math"
	"testing"

	"listing-service/internal/models"
)

func TestHaversineMetersKnownDistance(t *testing.T) {
	// Sydney CBD to Bondi Beach is roughly 6.5 km.
	cbd := models.GeoPoint{Longitude: 151.2093, Latitude: -33.8688}
	bondi := models.GeoPoint{Longitude: 151.2743, Latitude: -33.8915}
	d := HaversineMeters(cbd, bondi)
	if d < 6000 || d > 7000 {
		t.Fatalf("expected ~6.5km, got %.0fm", d)
	}
	if HaversineMeters(cbd, cbd) != 0 {
		t.Fatalf("distance to self must be zero")
	}
	if math.Abs(HaversineMeters(cbd, bondi)-HaversineMeters(bondi, cbd)) > 1e-6 {
		t.Fatalf("distance must be symmetric")
	}
}

// destination returns the point reached by travelling meters from start along bearing degrees.
func destination(start models.GeoPoint, bearing, meters float64) models.GeoPoint {
	const rad = math.Pi / 180.0
	d := meters / (models.EarthRadiusKm * 1000)
	lat1, lng1, brg := start.Latitude*rad, start.Longitude*rad, bearing*rad
	lat2 := math.Asin(math.Sin(lat1)*math.Cos(d) + math.Cos(lat1)*math.Sin(d)*math.Cos(brg))
	lng2 := lng1 + math.Atan2(math.Sin(brg)*math.Sin(d)*math.Cos(lat1), math.Cos(d)-math.Sin(lat1)*math.Sin(lat2))
	lng := math.Mod(lng2/rad+540, 360) - 180
	return models.GeoPoint{Longitude: lng, Latitude: lat2 / rad}
}

func TestBoundingBoxEnclosesCircle(t *testing.T) {
	center := models.GeoPoint{Longitude: 151.20, Latitude: -33.86}
	box := CalculateBoundingBox(center, 10000)
	for bearing := 0.0; bearing < 360; bearing += 15 {
		p := destination(center, bearing, 10000)
		if d := HaversineMeters(center, p); math.Abs(d-10000) > 1 {
			t.Fatalf("bearing %.0f: expected point 10km away, got %.2fm", bearing, d)
		}
		if !box.Contains(p) {
			t.Fatalf("bearing %.0f: edge point %+v outside box %+v", bearing, p, box)
		}
	}
	if box.Contains(models.GeoPoint{Longitude: 152.5, Latitude: -33.86}) {
		t.Fatalf("far point must be outside box")
	}
}

func TestBoundingBoxAcrossAntimeridian(t *testing.T) {
	center := models.GeoPoint{Longitude: 179.99, Latitude: -17.0}
	box := CalculateBoundingBox(center, 10000)
	east := destination(center, 90, 5000)
	if east.Longitude > 0 {
		t.Fatalf("expected point past the antimeridian, got %+v", east)
	}
	if !box.Contains(east) {
		t.Fatalf("point across the antimeridian must be inside box %+v", box)
	}
	if box.Contains(models.GeoPoint{Longitude: 179.99, Latitude: -18.0}) {
		t.Fatalf("latitude bound must still apply: %+v", box)
	}
}

func TestBoundingBoxNearPole(t *testing.T) {
	box := CalculateBoundingBox(models.GeoPoint{Longitude: 10, Latitude: 89.95}, 10000)
	if box.MaxLat != 90 || box.MinLng != -180 || box.MaxLng != 180 {
		t.Fatalf("expected polar cap box, got %+v", box)
	}
}
