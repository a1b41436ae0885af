package library

import (
	"errors"
	"log/slog"

	"github.com/contre95/soulwrite/src/music"
	"github.com/gofiber/fiber/v2"
)

// Handler is the handler for the library feature.
type Handler struct {
	service *Service
}

// NewHandler creates a new handler for the library feature.
func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

// Pagination represents pagination information
type Pagination struct {
	Page       int `json:"page"`
	Limit      int `json:"limit"`
	TotalCount int `json:"totalCount"`
	TotalPages int `json:"totalPages"`
}

// NewPagination creates a new Pagination instance with calculated values
func NewPagination(page, limit, totalCount int) Pagination {
	return Pagination{
		Page:       page,
		Limit:      limit,
		TotalCount: totalCount,
		TotalPages: (totalCount + limit - 1) / limit,
	}
}

func errorStatus(err error) int {
	switch {
	case errors.Is(err, music.ErrTrackNotFound), errors.Is(err, ErrNoSuchFile):
		return fiber.StatusNotFound
	case errors.Is(err, ErrDeleted):
		return fiber.StatusGone
	case errors.Is(err, ErrNotAudio):
		return fiber.StatusUnsupportedMediaType
	case errors.Is(err, ErrInvalidEdit):
		return fiber.StatusBadRequest
	default:
		return fiber.StatusInternalServerError
	}
}

// GetTracks is the handler for listing tracks.
func (h *Handler) GetTracks(c *fiber.Ctx) error {
	page := c.QueryInt("page", 1)
	limit := c.QueryInt("limit", 50)
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 50
	}

	tracks, err := h.service.GetTracks(c.Context())
	if err != nil {
		slog.Error("Error loading tracks", "error", err)
		return c.Status(fiber.StatusInternalServerError).SendString("Error loading tracks")
	}

	start := min((page-1)*limit, len(tracks))
	end := min(start+limit, len(tracks))
	views := make([]TrackView, 0, end-start)
	for _, t := range tracks[start:end] {
		views = append(views, NewTrackView(t))
	}
	return c.JSON(fiber.Map{
		"tracks":     views,
		"pagination": NewPagination(page, limit, len(tracks)),
	})
}

// GetTrack is the handler for getting a single track.
func (h *Handler) GetTrack(c *fiber.Ctx) error {
	track, err := h.service.GetTrack(c.Context(), c.Params("id"))
	if err != nil {
		slog.Error("Error loading track", "error", err)
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.JSON(NewTrackView(track))
}

type registerRequest struct {
	Path string `json:"path"`
}

// RegisterTrack adds a file to the library.
func (h *Handler) RegisterTrack(c *fiber.Ctx) error {
	var req registerRequest
	if err := c.BodyParser(&req); err != nil || req.Path == "" {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "expected {\"path\": string}"})
	}
	track, err := h.service.RegisterTrack(c.Context(), req.Path)
	if err != nil {
		slog.Error("Error registering track", "path", req.Path, "error", err)
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusCreated).JSON(NewTrackView(track))
}

// EditTrack applies an edit and queues the resulting write.
func (h *Handler) EditTrack(c *fiber.Ctx) error {
	var edit Edit
	if err := c.BodyParser(&edit); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	track, err := h.service.EditTrack(c.Context(), c.Params("id"), edit)
	if err != nil {
		slog.Error("Error editing track", "trackID", c.Params("id"), "error", err)
		return c.Status(errorStatus(err)).JSON(fiber.Map{"error": err.Error()})
	}
	return c.Status(fiber.StatusAccepted).JSON(NewTrackView(track))
}
