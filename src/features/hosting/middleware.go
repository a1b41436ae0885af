package hosting

import (
	"log/slog"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
)

// quietPaths are polled by the UI and only logged on failure.
var quietPaths = []string{"/writeback/status", "/writeback/prompt", "/metrics", "/health"}

// LogAllRequestsMiddleware logs every request with its status and duration.
func LogAllRequestsMiddleware() fiber.Handler {
	return func(c *fiber.Ctx) error {
		start := time.Now()

		err := c.Next()

		duration := time.Since(start)
		status := c.Response().StatusCode()
		if err != nil {
			if e, ok := err.(*fiber.Error); ok {
				status = e.Code
			} else {
				status = fiber.StatusInternalServerError
			}
		}

		if status >= 400 {
			slog.Error("HTTP request",
				"method", c.Method(),
				"path", c.Path(),
				"status", status,
				"duration", duration.String(),
				"error", err,
			)
			return err
		}
		if quiet(c.Path()) {
			return err
		}
		slog.Debug("HTTP request",
			"method", c.Method(),
			"path", c.Path(),
			"status", status,
			"duration", duration.String(),
		)
		return err
	}
}

func quiet(path string) bool {
	for _, p := range quietPaths {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}
