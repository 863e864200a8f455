// Package query turns search requests into store-neutral listing queries.
package query

import (
	"context"
	"math"
	"strconv"
	"strings"

	"listing-service/internal/apperr"
	"listing-service/internal/geocoding"
	"listing-service/internal/models"
)

// GoogleMapField is the raw geocoder payload field, never returned by searches.
const GoogleMapField = "googleMap"

// SearchParams is a proximity search request. Empty strings mean "not given".
type SearchParams struct {
	Address      string
	Price        string
	Action       string
	PropertyType string
	Bedrooms     string
	Bathrooms    string
	Page         int
}

// Built is the output of the builder.
type Built struct {
	Query    models.ListingQuery
	Center   models.GeoPoint
	Page     int
	PageSize int
}

// Builder builds radius queries around a geocoded address.
type Builder struct {
	geocoder geocoding.Geocoder
	radiusKm float64
	pageSize int
}

func NewBuilder(geocoder geocoding.Geocoder, radiusKm float64, pageSize int) *Builder {
	return &Builder{geocoder: geocoder, radiusKm: radiusKm, pageSize: pageSize}
}

// Build geocodes the address and assembles the query. Geocoder errors are
// returned unchanged.
func (b *Builder) Build(ctx context.Context, p SearchParams) (*Built, error) {
	address := strings.TrimSpace(p.Address)
	if address == "" {
		return nil, apperr.Validation("address required")
	}

	q := models.ListingQuery{ExcludeFields: []string{GoogleMapField}}
	if err := applyFilters(&q, p); err != nil {
		return nil, err
	}

	geo, err := b.geocoder.Geocode(ctx, address)
	if err != nil {
		return nil, err
	}

	q.Near = &models.RadiusFilter{
		Center:        geo.Point,
		RadiusRadians: b.radiusKm / models.EarthRadiusKm,
	}

	return &Built{
		Query:    q,
		Center:   geo.Point,
		Page:     ClampPage(p.Page),
		PageSize: b.pageSize,
	}, nil
}

func applyFilters(q *models.ListingQuery, p SearchParams) error {
	if v := filterValue(p.Action); v != "" {
		if !models.IsAction(v) {
			return apperr.Validation("invalid action %q", v)
		}
		q.Action = v
	}
	if v := filterValue(p.PropertyType); v != "" {
		if !models.IsPropertyType(v) {
			return apperr.Validation("invalid property type %q", v)
		}
		q.PropertyType = v
	}
	var err error
	if q.Bedrooms, err = countFilter("bedrooms", p.Bedrooms); err != nil {
		return err
	}
	if q.Bathrooms, err = countFilter("bathrooms", p.Bathrooms); err != nil {
		return err
	}
	q.PricePrefixes = PricePrefixes(p.Price)
	return nil
}

// filterValue returns "" for absent values and the "All" sentinel.
func filterValue(v string) string {
	v = strings.TrimSpace(v)
	if v == models.FilterAll {
		return ""
	}
	return v
}

func countFilter(name, raw string) (*int, error) {
	v := filterValue(raw)
	if v == "" {
		return nil, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return nil, apperr.Validation("%s must be a non-negative number", name)
	}
	return &n, nil
}

// PriceBounds returns price*0.8 and price*1.2, each rounded half up.
func PriceBounds(price float64) (lo, hi int64) {
	return roundHalfUp(price * 0.8), roundHalfUp(price * 1.2)
}

func roundHalfUp(v float64) int64 {
	return int64(math.Floor(v + 0.5))
}

// PricePrefixes returns the literal prefixes a listing price must start with
// to fuzzy-match price. This is a textual prefix match on the rounded bounds,
// not a numeric range: "95" does not match a price of 100 (bounds 80 and 120).
// Non-numeric or absent prices produce no predicate.
func PricePrefixes(price string) []string {
	price = strings.TrimSpace(price)
	if price == "" {
		return nil
	}
	v, err := strconv.ParseFloat(price, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	lo, hi := PriceBounds(v)
	loS, hiS := strconv.FormatInt(lo, 10), strconv.FormatInt(hi, 10)
	if loS == hiS {
		return []string{loS}
	}
	return []string{loS, hiS}
}

// MatchesPricePrefix reports whether a stored price text satisfies prefixes.
func MatchesPricePrefix(price string, prefixes []string) bool {
	if len(prefixes) == 0 {
		return true
	}
	for _, p := range prefixes {
		if strings.HasPrefix(price, p) {
			return true
		}
	}
	return false
}

// ClampPage maps non-positive page numbers to the first page.
func ClampPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

// ParsePage parses a page path/query value; anything unparsable is page 1.
func ParsePage(raw string) int {
	n, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 1
	}
	return ClampPage(n)
}

// Skip returns the number of rows before page.
func Skip(page, pageSize int) int {
	return (ClampPage(page) - 1) * pageSize
}
