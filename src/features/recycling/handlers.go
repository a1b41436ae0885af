package recycling

import (
	"log/slog"

	"github.com/contre95/soulwrite/src/music"
	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the deletion queue.
type Handler struct {
	queue      *Queue
	dispatcher music.Dispatcher
}

// NewHandler creates a new handler for the deletion queue.
func NewHandler(queue *Queue, dispatcher music.Dispatcher) *Handler {
	return &Handler{queue: queue, dispatcher: dispatcher}
}

// GetQueue lists the paths awaiting deletion.
func (h *Handler) GetQueue(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"count": h.queue.Len(),
		"paths": h.queue.Paths(),
	})
}

// Drain runs a drain pass in the background.
func (h *Handler) Drain(c *fiber.Ctx) error {
	queued := h.queue.Len()
	h.dispatcher.Go("recycle-drain", func() {
		left := h.queue.Drain()
		slog.Info("Deletion queue drained on request", "remaining", left)
	})
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{"queued": queued})
}
