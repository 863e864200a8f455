package repository

import (
	"context"

	"listing-service/internal/models"
)

// ListingRepository persists listings and runs structured queries against the store.
// Implementations validate enums before writing and translate driver errors into
// apperr kinds (NotFound, DuplicateSlug, Storage).
type ListingRepository interface {
	Find(ctx context.Context, q models.ListingQuery, page, pageSize int) ([]models.Listing, int64, error)
	FindBySlug(ctx context.Context, slug string) (*models.Listing, error)
	FindNearby(ctx context.Context, q models.NearbyQuery) ([]models.Listing, error)
	Create(ctx context.Context, listing *models.Listing) error
	UpdateBySlug(ctx context.Context, slug string, listing *models.Listing) error
	SetStatus(ctx context.Context, slug, status string) error
	SetPublished(ctx context.Context, slug string, published bool) error
	DeleteBySlug(ctx context.Context, slug string) error
	IncrementViews(ctx context.Context, id string) error
}

// ImageRepository persists stored image metadata keyed by storage key.
type ImageRepository interface {
	Create(ctx context.Context, image *models.StoredImage) error
	Get(ctx context.Context, key string) (*models.StoredImage, error)
	Delete(ctx context.Context, key string) error
}
