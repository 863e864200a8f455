package handlers

import (
	"context"
	"io"
	"log"
	"mime/multipart"
	"sort"

	"github.com/gofiber/fiber/v2"

	"listing-service/internal/middleware"
	"listing-service/internal/models"
)

// ImageService is the image behaviour the HTTP layer depends on.
type ImageService interface {
	Ingest(ctx context.Context, files []models.UploadFile, uploadedBy string) ([]models.StoredImage, error)
	IngestArchive(ctx context.Context, archive io.Reader, uploadedBy string) ([]models.StoredImage, error)
	Remove(ctx context.Context, key, requesterID, uploaderID string) error
}

// ImageHandler defines handlers for uploading and removing listing photos.
type ImageHandler struct {
	Service ImageService
}

// NewImageHandler creates a new ImageHandler with the given ImageService.
func NewImageHandler(service ImageService) *ImageHandler {
	return &ImageHandler{Service: service}
}

func readUpload(fh *multipart.FileHeader) (models.UploadFile, error) {
	f, err := fh.Open()
	if err != nil {
		return models.UploadFile{}, err
	}
	defer f.Close()
	data, err := io.ReadAll(f)
	if err != nil {
		return models.UploadFile{}, err
	}
	return models.UploadFile{
		Filename: fh.Filename,
		MimeType: fh.Header.Get(fiber.HeaderContentType),
		Data:     data,
	}, nil
}

// UploadImages handles POST /images to resize and store photos.
// @Summary Upload photos
// @Description Resizes every uploaded file to fit 1600x900 and stores it. Either all files are stored or none.
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param images formData file true "One or more image files"
// @Success 201 {object} map[string]interface{} "Stored images"
// @Failure 400 {object} map[string]interface{} "No or invalid images"
// @Failure 500 {object} map[string]interface{} "Storage failure"
// @Router /images [post]
func (h *ImageHandler) UploadImages(c *fiber.Ctx) error {
	log.Printf("Uploading images - Method: %s, Path: %s, IP: %s", c.Method(), c.Path(), c.IP())

	var files []models.UploadFile
	if form, err := c.MultipartForm(); err == nil {
		fields := make([]string, 0, len(form.File))
		for field := range form.File {
			fields = append(fields, field)
		}
		sort.Strings(fields)
		for _, field := range fields {
			for _, fh := range form.File[field] {
				file, err := readUpload(fh)
				if err != nil {
					log.Printf("Failed to read upload %s: %v", fh.Filename, err)
					return badRequest(c, "failed to read file: "+err.Error())
				}
				files = append(files, file)
			}
		}
	}

	images, err := h.Service.Ingest(c.UserContext(), files, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"images": images})
}

// UploadArchive handles POST /images/archive to store the photos inside an archive.
// @Summary Upload an archive of photos
// @Description Accepts a ZIP, TAR, 7z or RAR archive and ingests the images it contains
// @Tags images
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param archive formData file true "Archive of images"
// @Success 201 {object} map[string]interface{} "Stored images"
// @Failure 400 {object} map[string]interface{} "Invalid archive"
// @Router /images/archive [post]
func (h *ImageHandler) UploadArchive(c *fiber.Ctx) error {
	log.Printf("Uploading image archive - Method: %s, Path: %s, IP: %s", c.Method(), c.Path(), c.IP())

	fh, err := c.FormFile("archive")
	if err != nil {
		return badRequest(c, "archive required")
	}
	f, err := fh.Open()
	if err != nil {
		return badRequest(c, "failed to read archive: "+err.Error())
	}
	defer f.Close()

	images, err := h.Service.IngestArchive(c.UserContext(), f, middleware.UserID(c))
	if err != nil {
		return respondError(c, err)
	}
	log.Printf("Stored %d images from archive %s", len(images), fh.Filename)
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"images": images})
}

type removeImageRequest struct {
	Key        string `json:"key"`
	UploadedBy string `json:"uploadedBy"`
}

// RemoveImage handles DELETE /images to delete a stored photo.
// @Summary Remove a photo
// @Tags images
// @Accept json
// @Produce json
// @Security BearerAuth
// @Success 200 {object} map[string]interface{} "Image removed"
// @Failure 403 {object} map[string]interface{} "Not the uploader"
// @Failure 500 {object} map[string]interface{} "Storage failure"
// @Router /images [delete]
func (h *ImageHandler) RemoveImage(c *fiber.Ctx) error {
	var req removeImageRequest
	if err := c.BodyParser(&req); err != nil {
		return badRequest(c, "invalid request body: "+err.Error())
	}
	if req.Key == "" {
		return badRequest(c, "key required")
	}
	log.Printf("Removing image - Key: %s, Method: %s, Path: %s, IP: %s", req.Key, c.Method(), c.Path(), c.IP())

	if err := h.Service.Remove(c.UserContext(), req.Key, middleware.UserID(c), req.UploadedBy); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"ok": true})
}
