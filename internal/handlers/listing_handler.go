package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"log"

	"github.com/gofiber/fiber/v2"

	"listing-service/internal/middleware"
	"listing-service/internal/models"
	"listing-service/internal/query"
	"listing-service/internal/services"
)

// ListingService is the listing behaviour the HTTP layer depends on.
type ListingService interface {
	Search(ctx context.Context, p query.SearchParams) (*models.Page, error)
	Read(ctx context.Context, slug string) (*services.ListingDetail, error)
	ListByAction(ctx context.Context, action string, page int) (*models.Page, error)
	ListByOwner(ctx context.Context, ownerID string, page int) (*models.Page, error)
	Create(ctx context.Context, ownerID string, l *models.Listing) (*models.Listing, error)
	Update(ctx context.Context, requesterID, slug string, patch *models.ListingPatch) (*models.Listing, error)
	SetStatus(ctx context.Context, requesterID, slug, status string) error
	SetPublished(ctx context.Context, requesterID, slug string, published bool) error
	Delete(ctx context.Context, requesterID, slug string) error
}

// ListingHandler defines handlers for discovering and maintaining listings.
type ListingHandler struct {
	Service ListingService
}

// NewListingHandler creates a new ListingHandler with the given ListingService.
func NewListingHandler(service ListingService) *ListingHandler {
	return &ListingHandler{Service: service}
}

// priceText accepts a price sent either as a JSON string or a JSON number.
type priceText string

func (p *priceText) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*p = priceText(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*p = priceText(n.String())
	return nil
}

type listingRequest struct {
	Photos         []models.ImageRef `json:"photos"`
	Price          priceText         `json:"price"`
	Address        string            `json:"address"`
	PropertyType   string            `json:"propertyType"`
	Bedrooms       *int              `json:"bedrooms"`
	Bathrooms      *int              `json:"bathrooms"`
	Landsize       *float64          `json:"landsize"`
	LandsizeType   string            `json:"landsizetype"`
	Carpark        *int              `json:"carpark"`
	Title          string            `json:"title"`
	Description    string            `json:"description"`
	Features       string            `json:"features"`
	Nearby         string            `json:"nearby"`
	Published      *bool             `json:"published"`
	Action         string            `json:"action"`
	Status         string            `json:"status"`
	InspectionTime string            `json:"inspectionTime"`
}

func (r *listingRequest) toListing() *models.Listing {
	published := true
	if r.Published != nil {
		published = *r.Published
	}
	photos := r.Photos
	if photos == nil {
		photos = []models.ImageRef{}
	}
	return &models.Listing{
		Photos:         photos,
		Price:          string(r.Price),
		Address:        r.Address,
		PropertyType:   r.PropertyType,
		Bedrooms:       r.Bedrooms,
		Bathrooms:      r.Bathrooms,
		Landsize:       r.Landsize,
		LandsizeType:   r.LandsizeType,
		Carpark:        r.Carpark,
		Title:          r.Title,
		Description:    r.Description,
		Features:       r.Features,
		Nearby:         r.Nearby,
		Published:      published,
		Action:         r.Action,
		Status:         r.Status,
		InspectionTime: r.InspectionTime,
	}
}

// updateListingRequest mirrors listingRequest with every field optional.
// Fields missing from the body stay nil and keep their stored value.
type updateListingRequest struct {
	Photos         *[]models.ImageRef `json:"photos"`
	Price          *priceText         `json:"price"`
	Address        *string            `json:"address"`
	PropertyType   *string            `json:"propertyType"`
	Bedrooms       *int               `json:"bedrooms"`
	Bathrooms      *int               `json:"bathrooms"`
	Landsize       *float64           `json:"landsize"`
	LandsizeType   *string            `json:"landsizetype"`
	Carpark        *int               `json:"carpark"`
	Title          *string            `json:"title"`
	Description    *string            `json:"description"`
	Features       *string            `json:"features"`
	Nearby         *string            `json:"nearby"`
	Published      *bool              `json:"published"`
	Action         *string            `json:"action"`
	Status         *string            `json:"status"`
	InspectionTime *string            `json:"inspectionTime"`
}

func (r *updateListingRequest) toPatch() *models.ListingPatch {
	var price *string
	if r.Price != nil {
		p := string(*r.Price)
		price = &p
	}
	return &models.ListingPatch{
		Photos:         r.Photos,
		Price:          price,
		Address:        r.Address,
		PropertyType:   r.PropertyType,
		Bedrooms:       r.Bedrooms,
		Bathrooms:      r.Bathrooms,
		Landsize:       r.Landsize,
		LandsizeType:   r.LandsizeType,
		Carpark:        r.Carpark,
		Title:          r.Title,
		Description:    r.Description,
		Features:       r.Features,
		Nearby:         r.Nearby,
		Published:      r.Published,
		Action:         r.Action,
		Status:         r.Status,
		InspectionTime: r.InspectionTime,
	}
}

// Search handles GET /search to find listings around an address.
// @Summary Search listings near an address
// @Description Geocodes the address and returns listings within the search radius, newest first
// @Tags listings
// @Produce json
// @Param address query string true "Free-text address"
// @Param price query string false "Price to fuzzy match"
// @Param action query string false "Sell, Rent or All"
// @Param type query string false "Property type or All"
// @Param bedrooms query string false "Bedroom count or All"
// @Param bathrooms query string false "Bathroom count or All"
// @Param page query int false "Page number, starting at 1"
// @Success 200 {object} models.Page "One page of listings"
// @Failure 400 {object} map[string]interface{} "Invalid search"
// @Failure 502 {object} map[string]interface{} "Geocoding failed"
// @Router /search [get]
func (h *ListingHandler) Search(c *fiber.Ctx) error {
	log.Printf("Searching listings - Address: %s, Method: %s, Path: %s, IP: %s", c.Query("address"), c.Method(), c.Path(), c.IP())

	propertyType := c.Query("type")
	if propertyType == "" {
		propertyType = c.Query("propertyType")
	}
	page, err := h.Service.Search(c.UserContext(), query.SearchParams{
		Address:      c.Query("address"),
		Price:        c.Query("price"),
		Action:       c.Query("action"),
		PropertyType: propertyType,
		Bedrooms:     c.Query("bedrooms"),
		Bathrooms:    c.Query("bathrooms"),
		Page:         query.ParsePage(c.Query("page", "1")),
	})
	if err != nil {
		return respondError(c, err)
	}
	log.Printf("Search returned %d of %d listings", len(page.Items), page.Total)
	return c.JSON(page)
}

// GetListing handles GET /listings/:slug to read a listing with related listings.
// @Summary Get a listing by slug
// @Description Returns the listing, its owner and up to three related listings
// @Tags listings
// @Produce json
// @Param slug path string true "Listing slug"
// @Success 200 {object} services.ListingDetail "Listing found"
// @Failure 404 {object} map[string]interface{} "Listing not found"
// @Router /listings/{slug} [get]
func (h *ListingHandler) GetListing(c *fiber.Ctx) error {
	slug := c.Params("slug")
	log.Printf("Getting listing - Slug: %s, Method: %s, Path: %s, IP: %s", slug, c.Method(), c.Path(), c.IP())

	detail, err := h.Service.Read(c.UserContext(), slug)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(detail)
}

// ListForSale handles GET /listings/sell/:page.
// @Summary List listings for sale
// @Tags listings
// @Produce json
// @Param page path int true "Page number"
// @Success 200 {object} models.Page
// @Router /listings/sell/{page} [get]
func (h *ListingHandler) ListForSale(c *fiber.Ctx) error {
	return h.listByAction(c, models.ActionSell)
}

// ListForRent handles GET /listings/rent/:page.
// @Summary List listings for rent
// @Tags listings
// @Produce json
// @Param page path int true "Page number"
// @Success 200 {object} models.Page
// @Router /listings/rent/{page} [get]
func (h *ListingHandler) ListForRent(c *fiber.Ctx) error {
	return h.listByAction(c, models.ActionRent)
}

func (h *ListingHandler) listByAction(c *fiber.Ctx, action string) error {
	page, err := h.Service.ListByAction(c.UserContext(), action, query.ParsePage(c.Params("page")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// MyListings handles GET /me/listings/:page.
// @Summary List the caller's listings
// @Tags listings
// @Produce json
// @Security BearerAuth
// @Param page path int true "Page number"
// @Success 200 {object} models.Page
// @Router /me/listings/{page} [get]
func (h *ListingHandler) MyListings(c *fiber.Ctx) error {
	page, err := h.Service.ListByOwner(c.UserContext(), middleware.UserID(c), query.ParsePage(c.Params("page")))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(page)
}

// CreateListing handles POST /listings.
// @Summary Create a listing
// @Description Geocodes the address and stores a new listing owned by the caller
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 201 {object} models.Listing "Listing created"
// @Failure 400 {object} map[string]interface{} "Invalid listing"
// @Failure 409 {object} map[string]interface{} "Slug collision"
// @Failure 502 {object} map[string]interface{} "Geocoding failed"
// @Router /listings [post]
func (h *ListingHandler) CreateListing(c *fiber.Ctx) error {
	log.Printf("Creating listing - Method: %s, Path: %s, IP: %s", c.Method(), c.Path(), c.IP())

	var req listingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	listing, err := h.Service.Create(c.UserContext(), middleware.UserID(c), req.toListing())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(listing)
}

// UpdateListing handles PUT /listings/:slug.
// @Summary Update a listing
// @Description Changes the editable fields sent in the body of a listing owned by the caller. Omitted fields and the slug are kept.
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Listing slug"
// @Success 200 {object} models.Listing
// @Failure 403 {object} map[string]interface{} "Not the owner"
// @Router /listings/{slug} [put]
func (h *ListingHandler) UpdateListing(c *fiber.Ctx) error {
	slug := c.Params("slug")
	log.Printf("Updating listing - Slug: %s, Method: %s, Path: %s, IP: %s", slug, c.Method(), c.Path(), c.IP())

	var req updateListingRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	listing, err := h.Service.Update(c.UserContext(), middleware.UserID(c), slug, req.toPatch())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(listing)
}

// UpdateStatus handles PATCH /listings/:slug/status.
// @Summary Change the status of a listing
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Listing slug"
// @Success 200 {object} map[string]interface{}
// @Router /listings/{slug}/status [patch]
func (h *ListingHandler) UpdateStatus(c *fiber.Ctx) error {
	var req struct {
		Status string `json:"status"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	slug := c.Params("slug")
	if err := h.Service.SetStatus(c.UserContext(), middleware.UserID(c), slug, req.Status); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "status": req.Status})
}

// UpdatePublished handles PATCH /listings/:slug/published.
// @Summary Publish or hide a listing
// @Tags listings
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Listing slug"
// @Success 200 {object} map[string]interface{}
// @Router /listings/{slug}/published [patch]
func (h *ListingHandler) UpdatePublished(c *fiber.Ctx) error {
	var req struct {
		Published *bool `json:"published"`
	}
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if req.Published == nil {
		return badRequest(c, "published required")
	}
	slug := c.Params("slug")
	if err := h.Service.SetPublished(c.UserContext(), middleware.UserID(c), slug, *req.Published); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true, "published": *req.Published})
}

// DeleteListing handles DELETE /listings/:slug.
// @Summary Delete a listing
// @Tags listings
// @Produce json
// @Security BearerAuth
// @Param slug path string true "Listing slug"
// @Success 204 "Listing deleted"
// @Failure 403 {object} map[string]interface{} "Not the owner"
// @Failure 404 {object} map[string]interface{} "Listing not found"
// @Router /listings/{slug} [delete]
func (h *ListingHandler) DeleteListing(c *fiber.Ctx) error {
	slug := c.Params("slug")
	log.Printf("Deleting listing - Slug: %s, Method: %s, Path: %s, IP: %s", slug, c.Method(), c.Path(), c.IP())

	if err := h.Service.Delete(c.UserContext(), middleware.UserID(c), slug); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
