package services

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"listing-service/internal/apperr"
	"listing-service/internal/geocoding"
	"listing-service/internal/models"
	"listing-service/internal/query"
	"listing-service/internal/repository"
	"listing-service/internal/slug"
	"listing-service/internal/utils"
)

const (
	maxSlugAttempts  = 3
	viewIncrementTTL = 5 * time.Second
)

// ListingDetail is a listing together with its related listings.
type ListingDetail struct {
	Listing *models.Listing  `json:"ad"`
	Related []models.Listing `json:"related"`
}

// ListingService implements discovery and owner-gated maintenance of listings.
type ListingService struct {
	Repo     repository.ListingRepository
	Geocoder geocoding.Geocoder
	Builder  *query.Builder
	Related  *RelatedRanker
	Metrics  *utils.Metrics
	// PageSize is the page size of the sell/rent and owner feeds.
	PageSize int

	detached sync.WaitGroup
}

// NewListingService creates a new ListingService.
func NewListingService(repo repository.ListingRepository, geocoder geocoding.Geocoder, builder *query.Builder, related *RelatedRanker, metrics *utils.Metrics, pageSize int) *ListingService {
	if metrics == nil {
		metrics = utils.NewMetrics(nil)
	}
	return &ListingService{
		Repo:     repo,
		Geocoder: geocoder,
		Builder:  builder,
		Related:  related,
		Metrics:  metrics,
		PageSize: pageSize,
	}
}

// Search geocodes the address and returns one page of listings within the search radius.
func (s *ListingService) Search(ctx context.Context, p query.SearchParams) (*models.Page, error) {
	start := time.Now()
	built, err := s.Builder.Build(ctx, p)
	if err != nil {
		return nil, err
	}
	items, total, err := s.Repo.Find(ctx, built.Query, built.Page, built.PageSize)
	if err != nil {
		return nil, err
	}
	s.Metrics.RecordSearchLatency(time.Since(start).Milliseconds())
	return newPage(items, total, built.Page, built.PageSize), nil
}

// ListByAction returns published listings for sale or for rent, newest first.
func (s *ListingService) ListByAction(ctx context.Context, action string, page int) (*models.Page, error) {
	if !models.IsAction(action) {
		return nil, apperr.Validation("invalid action %q", action)
	}
	published := true
	return s.list(ctx, models.ListingQuery{
		Action:        action,
		Published:     &published,
		ExcludeFields: []string{query.GoogleMapField},
	}, page)
}

// ListByOwner returns the listings posted by ownerID, newest first.
func (s *ListingService) ListByOwner(ctx context.Context, ownerID string, page int) (*models.Page, error) {
	if ownerID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	return s.list(ctx, models.ListingQuery{
		OwnerID:       ownerID,
		ExcludeFields: []string{query.GoogleMapField},
	}, page)
}

func (s *ListingService) list(ctx context.Context, q models.ListingQuery, page int) (*models.Page, error) {
	page = query.ClampPage(page)
	items, total, err := s.Repo.Find(ctx, q, page, s.PageSize)
	if err != nil {
		return nil, err
	}
	return newPage(items, total, page, s.PageSize), nil
}

func newPage(items []models.Listing, total int64, page, pageSize int) *models.Page {
	if items == nil {
		items = []models.Listing{}
	}
	return &models.Page{
		Items:      items,
		Total:      total,
		Page:       page,
		PageSize:   pageSize,
		TotalPages: models.TotalPagesFor(total, pageSize),
	}
}

// Read returns a listing with its related listings and counts the view.
// The view counter is updated in the background and never affects the result.
func (s *ListingService) Read(ctx context.Context, slug string) (*ListingDetail, error) {
	listing, err := s.Repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	related := s.Related.Related(ctx, listing)
	s.countView(listing.ID)
	return &ListingDetail{Listing: listing, Related: related}, nil
}

func (s *ListingService) countView(id string) {
	s.detached.Add(1)
	go func() {
		defer s.detached.Done()
		ctx, cancel := context.WithTimeout(context.Background(), viewIncrementTTL)
		defer cancel()
		if err := s.Repo.IncrementViews(ctx, id); err != nil {
			log.Printf("Failed to increment views of listing %s: %v", id, err)
			s.Metrics.IncViewIncrementFailures()
		}
	}()
}

// Wait blocks until detached view updates have finished.
func (s *ListingService) Wait() {
	s.detached.Wait()
}

// Create geocodes the address, derives a slug and stores a new listing owned by ownerID.
// A slug collision is retried with a fresh suffix before it is reported.
func (s *ListingService) Create(ctx context.Context, ownerID string, l *models.Listing) (*models.Listing, error) {
	if ownerID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	l.ApplyDefaults()
	l.ID = uuid.NewString()
	l.OwnerID = ownerID
	l.Owner = nil
	l.Views = 0
	now := time.Now()
	l.CreatedAt, l.UpdatedAt = now, now
	if err := l.Validate(); err != nil {
		return nil, err
	}
	if err := s.locate(ctx, l); err != nil {
		return nil, err
	}

	var err error
	for attempt := 0; attempt < maxSlugAttempts; attempt++ {
		l.Slug = slug.Generate(l.PropertyType, l.Action, l.Address, l.Price)
		err = s.Repo.Create(ctx, l)
		if apperr.KindOf(err) != apperr.KindDuplicateSlug {
			break
		}
		log.Printf("Slug collision on %s, retrying", l.Slug)
	}
	if err != nil {
		return nil, err
	}
	log.Printf("Created listing %s for user %s", l.Slug, ownerID)
	return l, nil
}

func (s *ListingService) locate(ctx context.Context, l *models.Listing) error {
	geo, err := s.Geocoder.Geocode(ctx, l.Address)
	if err != nil {
		return err
	}
	l.Location = geo.Point
	l.GoogleMap = geo.Raw
	return nil
}

// authorize loads a listing and checks that requesterID owns it.
func (s *ListingService) authorize(ctx context.Context, requesterID, slug string) (*models.Listing, error) {
	if requesterID == "" {
		return nil, apperr.Unauthorized("authentication required")
	}
	listing, err := s.Repo.FindBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if listing.OwnerID != requesterID {
		return nil, apperr.Unauthorized("not allowed to modify this listing")
	}
	return listing, nil
}

// Update applies patch to a listing owned by requesterID. Fields the patch
// leaves nil keep their stored value. The address is geocoded again when it
// changes. The slug never changes.
func (s *ListingService) Update(ctx context.Context, requesterID, slug string, patch *models.ListingPatch) (*models.Listing, error) {
	existing, err := s.authorize(ctx, requesterID, slug)
	if err != nil {
		return nil, err
	}

	updated := patch.Apply(*existing)
	updated.Owner = nil
	if err := updated.Validate(); err != nil {
		return nil, err
	}

	if geocoding.NormalizeAddress(updated.Address) != geocoding.NormalizeAddress(existing.Address) {
		if err := s.locate(ctx, &updated); err != nil {
			return nil, err
		}
	}

	if err := s.Repo.UpdateBySlug(ctx, slug, &updated); err != nil {
		return nil, err
	}
	log.Printf("Updated listing %s", slug)
	return &updated, nil
}

// SetStatus changes the status of a listing owned by requesterID.
func (s *ListingService) SetStatus(ctx context.Context, requesterID, slug, status string) error {
	if !models.IsStatus(status) {
		return apperr.Validation("invalid status %q", status)
	}
	if _, err := s.authorize(ctx, requesterID, slug); err != nil {
		return err
	}
	return s.Repo.SetStatus(ctx, slug, status)
}

// SetPublished shows or hides a listing owned by requesterID.
func (s *ListingService) SetPublished(ctx context.Context, requesterID, slug string, published bool) error {
	if _, err := s.authorize(ctx, requesterID, slug); err != nil {
		return err
	}
	return s.Repo.SetPublished(ctx, slug, published)
}

// Delete removes a listing owned by requesterID.
func (s *ListingService) Delete(ctx context.Context, requesterID, slug string) error {
	if _, err := s.authorize(ctx, requesterID, slug); err != nil {
		return err
	}
	if err := s.Repo.DeleteBySlug(ctx, slug); err != nil {
		return err
	}
	log.Printf("Deleted listing %s", slug)
	return nil
}
