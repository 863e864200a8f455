package repository

import (
	"context"

	"github.com/pkg/errors"
	"gorm.io/gorm"

	"listing-service/internal/apperr"
	"listing-service/internal/models"
)

// ImageRepositoryImpl stores image metadata in PostgreSQL through GORM.
type ImageRepositoryImpl struct {
	db *gorm.DB
}

// NewImageRepository creates a new ImageRepositoryImpl instance with the provided GORM database connection.
func NewImageRepository(db *gorm.DB) *ImageRepositoryImpl {
	return &ImageRepositoryImpl{db: db}
}

// Create saves the metadata of a stored image.
func (r *ImageRepositoryImpl) Create(ctx context.Context, image *models.StoredImage) error {
	if err := r.db.WithContext(ctx).Create(image).Error; err != nil {
		return apperr.Storage(err, "failed to save image metadata")
	}
	return nil
}

// Get retrieves image metadata by storage key.
func (r *ImageRepositoryImpl) Get(ctx context.Context, key string) (*models.StoredImage, error) {
	var image models.StoredImage
	err := r.db.WithContext(ctx).First(&image, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, apperr.NotFound("image %q not found", key)
	}
	if err != nil {
		return nil, apperr.Storage(err, "failed to get image metadata")
	}
	return &image, nil
}

// Delete removes image metadata by storage key. Deleting a missing key is not an error.
func (r *ImageRepositoryImpl) Delete(ctx context.Context, key string) error {
	if err := r.db.WithContext(ctx).Delete(&models.StoredImage{}, "key = ?", key).Error; err != nil {
		return apperr.Storage(err, "failed to delete image metadata")
	}
	return nil
}

// Migrate creates or updates the tables used by the PostgreSQL repositories.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&models.Owner{}, &models.Listing{}, &models.StoredImage{})
}
