package naming

import (
	"github.com/contre95/soulwrite/src/features/config"
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the naming feature.
func RegisterRoutes(app *fiber.App, catalog *Catalog, previewer Previewer, tracks TrackSource, cfg *config.Manager) {
	handler := NewHandler(catalog, previewer, tracks, cfg)

	naming := app.Group("/naming")
	naming.Get("/formats", handler.GetFormats)
	naming.Get("/tracks/:id/renames", handler.GetRenames)
	naming.Get("/tracks/:id/directories", handler.GetDirectories)
	naming.Get("/tracks/:id/preview", handler.GetPreview)
}
