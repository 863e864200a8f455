package models

import (
	"encoding/json"
	"fmt"
)

// GeoPoint is a WGS84 point. It serializes as GeoJSON with longitude first.
type GeoPoint struct {
	Longitude float64 `gorm:"type:decimal(10,7)"`
	Latitude  float64 `gorm:"type:decimal(10,7)"`
}

type geoJSONPoint struct {
	Type        string    `json:"type"`
	Coordinates []float64 `json:"coordinates"`
}

func (p GeoPoint) MarshalJSON() ([]byte, error) {
	return json.Marshal(geoJSONPoint{Type: "Point", Coordinates: []float64{p.Longitude, p.Latitude}})
}

func (p *GeoPoint) UnmarshalJSON(b []byte) error {
	var g geoJSONPoint
	if err := json.Unmarshal(b, &g); err != nil {
		return err
	}
	if len(g.Coordinates) != 2 {
		return fmt.Errorf("point must have exactly two coordinates, got %d", len(g.Coordinates))
	}
	p.Longitude, p.Latitude = g.Coordinates[0], g.Coordinates[1]
	return nil
}
