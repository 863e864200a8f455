package handlers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/swagger"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// RegisterRoutes mounts the listing and image API under /api. auth guards
// every route that needs a caller identity.
func RegisterRoutes(app *fiber.App, listings *ListingHandler, images *ImageHandler, auth fiber.Handler, gatherer prometheus.Gatherer) {
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})))

	api := app.Group("/api")
	api.Get("/search", listings.Search)
	api.Get("/listings/sell/:page", listings.ListForSale)
	api.Get("/listings/rent/:page", listings.ListForRent)
	api.Get("/listings/:slug", listings.GetListing)
	api.Get("/me/listings/:page", auth, listings.MyListings)
	api.Post("/listings", auth, listings.CreateListing)
	api.Put("/listings/:slug", auth, listings.UpdateListing)
	api.Patch("/listings/:slug/status", auth, listings.UpdateStatus)
	api.Patch("/listings/:slug/published", auth, listings.UpdatePublished)
	api.Delete("/listings/:slug", auth, listings.DeleteListing)

	api.Post("/images", auth, images.UploadImages)
	api.Post("/images/archive", auth, images.UploadArchive)
	api.Delete("/images", auth, images.RemoveImage)

	api.Get("/swagger/*", swagger.HandlerDefault)

	api.Get("/health", func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})
}
