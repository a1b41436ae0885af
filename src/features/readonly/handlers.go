package readonly

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the read-only prompt.
type Handler struct {
	resolver *Resolver
}

// NewHandler creates a new handler for the read-only prompt.
func NewHandler(resolver *Resolver) *Handler {
	return &Handler{resolver: resolver}
}

// GetPrompt returns the open prompt, or 204 when nothing is being asked.
func (h *Handler) GetPrompt(c *fiber.Ctx) error {
	prompt, ok := h.resolver.Pending()
	if !ok {
		return c.SendStatus(fiber.StatusNoContent)
	}
	return c.JSON(fiber.Map{
		"prompt":   prompt,
		"decision": h.resolver.Decision(),
		"choices":  []Decision{Ignore, Skip, Cancel},
	})
}

type answerRequest struct {
	Decision string `json:"decision"`
}

// AnswerPrompt delivers the user's decision for a prompt.
func (h *Handler) AnswerPrompt(c *fiber.Ctx) error {
	var req answerRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid request body"})
	}
	decision, err := ParseDecision(req.Decision)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": ErrInvalidAnswer.Error()})
	}
	if err := h.resolver.Answer(c.Params("id"), decision); err != nil {
		if errors.Is(err, ErrNoPrompt) {
			return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
		}
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	slog.Info("Read-only prompt answered", "id", c.Params("id"), "decision", decision)
	return c.JSON(fiber.Map{"decision": decision})
}
