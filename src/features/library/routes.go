package library

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the library feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	library := app.Group("/library")
	library.Get("/tracks", handler.GetTracks)
	library.Post("/tracks", handler.RegisterTrack)
	library.Get("/tracks/:id", handler.GetTrack)
	library.Patch("/tracks/:id", handler.EditTrack)
}
