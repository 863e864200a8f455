package models

// EarthRadiusKm is the mean earth radius used for angular radius conversion.
const EarthRadiusKm = 6378.1

// RadiusFilter selects points within RadiusRadians (great-circle angle) of Center.
type RadiusFilter struct {
	Center        GeoPoint
	RadiusRadians float64
}

// RadiusMeters converts the angular radius back to a surface distance.
func (r RadiusFilter) RadiusMeters() float64 {
	return r.RadiusRadians * EarthRadiusKm * 1000
}

// ListingQuery is a store-neutral listing query. Repositories translate it
// into SQL or a document filter. Zero values mean "no predicate".
type ListingQuery struct {
	Near         *RadiusFilter
	Action       string
	PropertyType string
	Bedrooms     *int
	Bathrooms    *int
	// PricePrefixes matches listings whose price text starts with any entry.
	PricePrefixes []string
	Published     *bool
	OwnerID       string
	// ExcludeFields lists document fields dropped from results.
	ExcludeFields []string
}

// NearbyQuery describes a related-listings lookup around an anchor.
type NearbyQuery struct {
	Center       GeoPoint
	MaxMeters    float64
	Action       string
	PropertyType string
	ExcludeID    string
	Limit        int
}

// Page is one page of listings plus the total number of matches.
type Page struct {
	Items      []Listing `json:"items"`
	Total      int64     `json:"total"`
	Page       int       `json:"page"`
	PageSize   int       `json:"pageSize"`
	TotalPages int       `json:"totalPages"`
}

// TotalPagesFor returns ceil(total / pageSize).
func TotalPagesFor(total int64, pageSize int) int {
	if pageSize <= 0 {
		return 0
	}
	return int((total + int64(pageSize) - 1) / int64(pageSize))
}
