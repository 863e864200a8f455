package handlers

import (
	"log"

	"github.com/gofiber/fiber/v2"

	"listing-service/internal/apperr"
)

// StatusFor maps an error kind to its HTTP status.
func StatusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return fiber.StatusBadRequest
	case apperr.KindUnauthorized:
		return fiber.StatusForbidden
	case apperr.KindNotFound:
		return fiber.StatusNotFound
	case apperr.KindDuplicateSlug:
		return fiber.StatusConflict
	case apperr.KindGeocode:
		return fiber.StatusBadGateway
	default:
		return fiber.StatusInternalServerError
	}
}

// respondError writes err as {"error": true, "kind": ..., "message": ...}.
// Causes of storage and internal errors are logged, not returned.
func respondError(c *fiber.Ctx, err error) error {
	kind := apperr.KindOf(err)
	message := apperr.MessageOf(err)
	switch kind {
	case apperr.KindInternal:
		log.Printf("Internal error on %s %s: %v", c.Method(), c.Path(), err)
		message = "internal server error"
	case apperr.KindStorage, apperr.KindGeocode:
		log.Printf("Upstream error on %s %s: %v", c.Method(), c.Path(), err)
	}
	return c.Status(StatusFor(kind)).JSON(fiber.Map{
		"error":   true,
		"kind":    kind,
		"message": message,
	})
}

func badRequest(c *fiber.Ctx, message string) error {
	return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
		"error":   true,
		"kind":    apperr.KindValidation,
		"message": message,
	})
}
