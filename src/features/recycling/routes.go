package recycling

import (
	"github.com/contre95/soulwrite/src/music"
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the routes for the deletion queue.
func RegisterRoutes(app *fiber.App, queue *Queue, dispatcher music.Dispatcher) {
	handler := NewHandler(queue, dispatcher)

	recycle := app.Group("/recycle")
	recycle.Get("/", handler.GetQueue)
	recycle.Post("/drain", handler.Drain)
}
