package models

import (
	"strings"

	"listing-service/internal/apperr"
)

// Validate checks the enum fields and cross-field rules of a listing.
func (l *Listing) Validate() error {
	if !IsPropertyType(l.PropertyType) {
		return apperr.Validation("invalid property type %q", l.PropertyType)
	}
	if !IsAction(l.Action) {
		return apperr.Validation("invalid action %q", l.Action)
	}
	if !IsStatus(l.Status) {
		return apperr.Validation("invalid status %q", l.Status)
	}
	if strings.TrimSpace(l.Address) == "" {
		return apperr.Validation("address required")
	}
	if strings.TrimSpace(l.Price) == "" {
		return apperr.Validation("price required")
	}
	if l.PropertyType == PropertyLand && (l.Landsize == nil || strings.TrimSpace(l.LandsizeType) == "") {
		return apperr.Validation("landsize and landsizetype are required for land")
	}
	return nil
}

// ApplyDefaults fills the enum defaults used when a client omits them.
func (l *Listing) ApplyDefaults() {
	if l.PropertyType == "" {
		l.PropertyType = PropertyHouse
	}
	if l.Action == "" {
		l.Action = ActionSell
	}
	if l.Status == "" {
		l.Status = StatusInMarket
	}
}
