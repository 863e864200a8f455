package models

import "strings"

// ListingPatch carries the editable fields of an update. A nil field keeps
// the stored value. Blank enum fields and a blank address also keep it.
type ListingPatch struct {
	Photos         *[]ImageRef
	Price          *string
	Address        *string
	PropertyType   *string
	Bedrooms       *int
	Bathrooms      *int
	Landsize       *float64
	LandsizeType   *string
	Carpark        *int
	Title          *string
	Description    *string
	Features       *string
	Nearby         *string
	Published      *bool
	Action         *string
	Status         *string
	InspectionTime *string
}

// Apply returns a copy of l with the patch applied. l is not modified.
func (p *ListingPatch) Apply(l Listing) Listing {
	if p.Photos != nil {
		l.Photos = append([]ImageRef{}, (*p.Photos)...)
	}
	if p.Price != nil {
		l.Price = *p.Price
	}
	if p.Address != nil && strings.TrimSpace(*p.Address) != "" {
		l.Address = *p.Address
	}
	if p.PropertyType != nil && *p.PropertyType != "" {
		l.PropertyType = *p.PropertyType
	}
	if p.Bedrooms != nil {
		l.Bedrooms = intPtr(*p.Bedrooms)
	}
	if p.Bathrooms != nil {
		l.Bathrooms = intPtr(*p.Bathrooms)
	}
	if p.Landsize != nil {
		v := *p.Landsize
		l.Landsize = &v
	}
	if p.LandsizeType != nil {
		l.LandsizeType = *p.LandsizeType
	}
	if p.Carpark != nil {
		l.Carpark = intPtr(*p.Carpark)
	}
	if p.Title != nil {
		l.Title = *p.Title
	}
	if p.Description != nil {
		l.Description = *p.Description
	}
	if p.Features != nil {
		l.Features = *p.Features
	}
	if p.Nearby != nil {
		l.Nearby = *p.Nearby
	}
	if p.Published != nil {
		l.Published = *p.Published
	}
	if p.Action != nil && *p.Action != "" {
		l.Action = *p.Action
	}
	if p.Status != nil && *p.Status != "" {
		l.Status = *p.Status
	}
	if p.InspectionTime != nil {
		l.InspectionTime = *p.InspectionTime
	}
	return l
}

func intPtr(v int) *int {
	return &v
}
