package models

import (
	"encoding/json"
	"time"
)

// Property categories.
const (
	PropertyHouse     = "House"
	PropertyApartment = "Apartment"
	PropertyTownhouse = "Townhouse"
	PropertyLand      = "Land"
	PropertyWarehouse = "Warehouse"
)

// Transaction types.
const (
	ActionSell = "Sell"
	ActionRent = "Rent"
)

// Listing statuses.
const (
	StatusInMarket     = "In Market"
	StatusDepositTaken = "Deposit taken"
	StatusUnderOffer   = "Under offer"
	StatusContactAgent = "Contact agent"
	StatusSold         = "Sold"
	StatusRented       = "Rented"
	StatusOffMarket    = "Off market"
)

// FilterAll is the sentinel filter value meaning "do not filter on this field".
const FilterAll = "All"

var (
	PropertyTypes = []string{PropertyHouse, PropertyApartment, PropertyTownhouse, PropertyLand, PropertyWarehouse}
	Actions       = []string{ActionSell, ActionRent}
	Statuses      = []string{StatusInMarket, StatusDepositTaken, StatusUnderOffer, StatusContactAgent, StatusSold, StatusRented, StatusOffMarket}
)

func oneOf(v string, allowed []string) bool {
	for _, a := range allowed {
		if v == a {
			return true
		}
	}
	return false
}

func IsPropertyType(v string) bool { return oneOf(v, PropertyTypes) }
func IsAction(v string) bool       { return oneOf(v, Actions) }
func IsStatus(v string) bool       { return oneOf(v, Statuses) }

// Listing represents a property for sale or rent.
type Listing struct {
	ID           string     `gorm:"type:uuid;primaryKey" json:"id"`
	Photos       []ImageRef `gorm:"serializer:json" json:"photos"`
	Price        string     `gorm:"size:255;index" json:"price"`
	Address      string     `gorm:"size:255;index" json:"address"`
	PropertyType string     `gorm:"size:32;not null;default:House" json:"propertyType"`
	Bedrooms     *int       `json:"bedrooms,omitempty"`
	Bathrooms    *int       `json:"bathrooms,omitempty"`
	Landsize     *float64   `json:"landsize,omitempty"`
	LandsizeType string     `gorm:"size:32" json:"landsizetype,omitempty"`
	Carpark      *int       `json:"carpark,omitempty"`
	Location     GeoPoint   `gorm:"embedded;embeddedPrefix:loc_" json:"location"`
	// GoogleMap is the raw geocoder payload. Never part of query projections.
	GoogleMap      json.RawMessage `gorm:"type:jsonb" json:"googleMap,omitempty"`
	Title          string          `gorm:"size:255" json:"title"`
	Slug           string          `gorm:"size:512;uniqueIndex;not null" json:"slug"`
	Description    string          `json:"description"`
	Features       string          `json:"features,omitempty"`
	Nearby         string          `json:"nearby,omitempty"`
	OwnerID        string          `gorm:"type:uuid;index;not null" json:"ownerId"`
	Owner          *Owner          `gorm:"foreignKey:OwnerID" json:"postedBy,omitempty"`
	Published      bool            `gorm:"not null" json:"published"`
	Action         string          `gorm:"size:16;not null;default:Sell" json:"action"`
	Views          int64           `gorm:"not null;default:0" json:"views"`
	Status         string          `gorm:"size:32;not null;default:'In Market'" json:"status"`
	InspectionTime string          `gorm:"size:255" json:"inspectionTime,omitempty"`
	CreatedAt      time.Time       `gorm:"index" json:"createdAt"`
	UpdatedAt      time.Time       `json:"updatedAt"`
}

// ImageRef is a stored image descriptor attached to a listing.
type ImageRef struct {
	Key      string `json:"key"`
	Location string `json:"location"`
}

// Owner is the public projection of the user who posted a listing.
// Users are managed by the auth service; this service only reads them.
type Owner struct {
	ID       string `gorm:"type:uuid;primaryKey" json:"id"`
	Name     string `json:"name"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Phone    string `json:"phone,omitempty"`
	Company  string `json:"company,omitempty"`
	Photo    string `json:"photo,omitempty"`
}

func (Owner) TableName() string { return "users" }

// Coordinates returns [longitude, latitude].
func (l *Listing) Coordinates() [2]float64 {
	return [2]float64{l.Location.Longitude, l.Location.Latitude}
}
