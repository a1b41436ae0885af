package readonly

import (
	"github.com/gofiber/fiber/v2"
)

// RegisterRoutes registers the read-only prompt routes.
func RegisterRoutes(app *fiber.App, resolver *Resolver) {
	handler := NewHandler(resolver)
	prompt := app.Group("/writeback/prompt")
	prompt.Get("/", handler.GetPrompt)
	prompt.Post("/:id", handler.AnswerPrompt)
}
