package config

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the config feature.
type Handler struct {
	configManager *Manager
}

// NewHandler creates a new handler for the config feature.
func NewHandler(configManager *Manager) *Handler {
	return &Handler{
		configManager: configManager,
	}
}

// GetConfig returns the running configuration, as YAML when asked for it.
func (h *Handler) GetConfig(c *fiber.Ctx) error {
	slog.Debug("GetConfig handler called")
	if c.Query("format") == "yaml" {
		c.Set(fiber.HeaderContentType, "application/yaml")
		return c.SendString(h.configManager.GetYAML())
	}
	return c.JSON(h.configManager.Get())
}
