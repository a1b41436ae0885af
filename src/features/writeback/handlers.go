package writeback

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the write-back feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the write-back feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// GetStatus returns the worker state and queue sizes.
func (h *Handler) GetStatus(c *fiber.Ctx) error {
	return c.JSON(h.service.Status())
}

// GetQueue lists the queued tracks.
func (h *Handler) GetQueue(c *fiber.Ctx) error {
	tracks := h.service.Queued()
	out := make([]fiber.Map, 0, len(tracks))
	for _, t := range tracks {
		out = append(out, fiber.Map{
			"id":      t.ID,
			"path":    t.Path(),
			"pending": t.Pending().Names(),
		})
	}
	return c.JSON(out)
}

// Start starts a drain.
func (h *Handler) Start(c *fiber.Ctx) error {
	slog.Debug("Write-back start requested")
	h.service.Start()
	return c.JSON(h.service.Status())
}

// Stop asks the drain to exit after the current track.
func (h *Handler) Stop(c *fiber.Ctx) error {
	slog.Debug("Write-back stop requested")
	h.service.RequestStop()
	return c.JSON(h.service.Status())
}

type suspendRequest struct {
	Suspended *bool `json:"suspended"`
}

// Suspend sets or clears the suspended flag.
func (h *Handler) Suspend(c *fiber.Ctx) error {
	var req suspendRequest
	if err := c.BodyParser(&req); err != nil || req.Suspended == nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expected {\"suspended\": bool}"})
	}
	h.service.Suspend(*req.Suspended)
	return c.JSON(h.service.Status())
}

// ResumePending queues every track with pending changes in the library.
func (h *Handler) ResumePending(c *fiber.Ctx) error {
	added, err := h.service.EnqueuePending(c.Context())
	if err != nil {
		slog.Error("Error queueing pending tracks", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error queueing pending tracks"})
	}
	return c.JSON(fiber.Map{"added": added, "status": h.service.Status()})
}

// Clear empties both queues.
func (h *Handler) Clear(c *fiber.Ctx) error {
	h.service.Clear()
	return c.JSON(h.service.Status())
}
