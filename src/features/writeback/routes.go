package writeback

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the write-back feature.
func RegisterRoutes(app *fiber.App, service *Service) {
	handler := NewHandler(service)

	wb := app.Group("/writeback")
	wb.Get("/status", handler.GetStatus)
	wb.Get("/queue", handler.GetQueue)
	wb.Post("/start", handler.Start)
	wb.Post("/stop", handler.Stop)
	wb.Post("/suspend", handler.Suspend)
	wb.Post("/pending", handler.ResumePending)
	wb.Delete("/", handler.Clear)
}
