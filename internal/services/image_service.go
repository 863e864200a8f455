package services

import (
	"context"
	"io"
	"log"
	"mime"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"listing-service/internal/apperr"
	"listing-service/internal/extraction"
	"listing-service/internal/imageproc"
	"listing-service/internal/models"
	"listing-service/internal/repository"
	"listing-service/internal/utils"
)

const cleanupTimeout = 30 * time.Second

// ObjectStore is the blob store that holds resized images.
type ObjectStore interface {
	Put(ctx context.Context, key string, data []byte, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	Exists(ctx context.Context, key string) (bool, error)
}

// ImageService resizes uploaded photos and stores each one as an independent object.
type ImageService struct {
	Store   ObjectStore
	Repo    repository.ImageRepository
	Resizer *imageproc.Resizer
	Metrics *utils.Metrics
	// MaxParallel caps concurrent resizes per request. Zero means unlimited.
	MaxParallel int
	// MaxArchiveEntryBytes caps a single image read out of an archive.
	MaxArchiveEntryBytes int64
}

// NewImageService creates a new ImageService.
func NewImageService(store ObjectStore, repo repository.ImageRepository, resizer *imageproc.Resizer, metrics *utils.Metrics) *ImageService {
	if metrics == nil {
		metrics = utils.NewMetrics(nil)
	}
	return &ImageService{
		Store:                store,
		Repo:                 repo,
		Resizer:              resizer,
		Metrics:              metrics,
		MaxArchiveEntryBytes: 50 << 20,
	}
}

// Ingest resizes and stores every file concurrently. Results keep the order
// of files. If any file fails, images already stored for this request are
// deleted again and the first error is returned.
func (s *ImageService) Ingest(ctx context.Context, files []models.UploadFile, uploadedBy string) ([]models.StoredImage, error) {
	if len(files) == 0 {
		return nil, apperr.Validation("image required")
	}

	stored := make([]*models.StoredImage, len(files))
	g, gctx := errgroup.WithContext(ctx)
	if s.MaxParallel > 0 {
		g.SetLimit(s.MaxParallel)
	}
	for i := range files {
		i := i
		g.Go(func() error {
			img, err := s.ingestOne(gctx, files[i], uploadedBy)
			if err != nil {
				s.Metrics.IncImagesFailed()
				return err
			}
			stored[i] = img
			s.Metrics.IncImagesStored()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		s.rollback(ctx, stored)
		return nil, err
	}

	images := make([]models.StoredImage, len(stored))
	for i, img := range stored {
		images[i] = *img
	}
	log.Printf("Stored %d images for user %s", len(images), uploadedBy)
	return images, nil
}

func (s *ImageService) ingestOne(ctx context.Context, f models.UploadFile, uploadedBy string) (*models.StoredImage, error) {
	if len(f.Data) == 0 {
		return nil, apperr.Validation("image %q is empty", f.Filename)
	}

	start := time.Now()
	resized, err := s.Resizer.Resize(f.Data)
	s.Metrics.RecordResizeLatency(time.Since(start).Milliseconds())
	if err != nil {
		return nil, apperr.Validation("invalid image %q: %v", f.Filename, err)
	}

	key := uuid.NewString() + "." + resized.Format
	contentType := f.MimeType
	if contentType == "" {
		contentType = mime.TypeByExtension("." + resized.Format)
	}

	location, err := s.Store.Put(ctx, key, resized.Data, contentType)
	if err != nil {
		return nil, apperr.Storage(err, "failed to store image %q", f.Filename)
	}

	img := &models.StoredImage{
		Key:         key,
		Location:    location,
		UploadedBy:  uploadedBy,
		ContentType: contentType,
		Size:        int64(len(resized.Data)),
	}
	if err := s.Repo.Create(ctx, img); err != nil {
		cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
		defer cancel()
		if derr := s.Store.Delete(cctx, key); derr != nil {
			log.Printf("Failed to remove orphaned image %s: %v", key, derr)
		}
		return nil, err
	}
	return img, nil
}

// rollback deletes the objects and metadata of images stored by a failed request.
func (s *ImageService) rollback(ctx context.Context, stored []*models.StoredImage) {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	for _, img := range stored {
		if img == nil {
			continue
		}
		if err := s.Store.Delete(cctx, img.Key); err != nil {
			log.Printf("Rollback failed to remove image %s: %v", img.Key, err)
			continue
		}
		if err := s.Repo.Delete(cctx, img.Key); err != nil {
			log.Printf("Rollback failed to remove metadata of image %s: %v", img.Key, err)
		}
		s.Metrics.IncImagesRolledBack()
	}
}

// IngestArchive expands an uploaded archive and ingests the images it contains.
func (s *ImageService) IngestArchive(ctx context.Context, archive io.Reader, uploadedBy string) ([]models.StoredImage, error) {
	files, err := extraction.ExtractImages(ctx, archive, s.MaxArchiveEntryBytes)
	if err != nil {
		return nil, apperr.Validation("invalid archive: %v", err)
	}
	return s.Ingest(ctx, files, uploadedBy)
}

// Remove deletes a stored image. The requester must be the uploader.
func (s *ImageService) Remove(ctx context.Context, key, requesterID, uploaderID string) error {
	if requesterID == "" || requesterID != uploaderID {
		return apperr.Unauthorized("not allowed to remove this image")
	}

	meta, err := s.Repo.Get(ctx, key)
	switch {
	case err == nil && meta.UploadedBy != requesterID:
		return apperr.Unauthorized("not allowed to remove this image")
	case err != nil && apperr.KindOf(err) != apperr.KindNotFound:
		return err
	}

	if err := s.Store.Delete(ctx, key); err != nil {
		return apperr.Storage(err, "failed to remove image")
	}
	if err := s.Repo.Delete(ctx, key); err != nil {
		return err
	}
	log.Printf("Removed image %s for user %s", key, requesterID)
	return nil
}
