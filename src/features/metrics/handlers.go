package metrics

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Handler handles HTTP requests for the metrics feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new metrics handler.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Prometheus serves the registry in the exposition format.
func (h *Handler) Prometheus() fiber.Handler {
	return adaptor.HTTPHandler(promhttp.HandlerFor(h.service.Registry(), promhttp.HandlerOpts{}))
}

// GetSummary returns the pipeline metrics as JSON.
func (h *Handler) GetSummary(c *fiber.Ctx) error {
	summary, err := h.service.Summary()
	if err != nil {
		slog.Error("Error loading metrics", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "Error loading metrics"})
	}
	return c.JSON(summary)
}
