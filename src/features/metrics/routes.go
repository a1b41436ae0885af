package metrics

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the metrics routes with the Fiber app.
func RegisterRoutes(app *fiber.App, handler *Handler) {
	app.Get("/metrics", handler.Prometheus())
	app.Get("/metrics/summary", handler.GetSummary)
}
