package naming

import (
	"context"
	"errors"
	"log/slog"

	"github.com/contre95/soulwrite/src/features/config"
	"github.com/contre95/soulwrite/src/music"
	"github.com/gofiber/fiber/v2"
)

// Previewer computes where a track would end up for a pair of formats.
type Previewer interface {
	PreviewFinalPath(track *music.Track, dirFormat music.DirectoryFormat, renameFormat music.RenameFormat) string
}

// TrackSource looks up tracks by ID.
type TrackSource interface {
	GetTrack(ctx context.Context, id string) (*music.Track, error)
}

// Handler is the handler for the naming feature.
type Handler struct {
	catalog   *Catalog
	previewer Previewer
	tracks    TrackSource
	config    *config.Manager
}

// NewHandler creates a new handler for the naming feature.
func NewHandler(catalog *Catalog, previewer Previewer, tracks TrackSource, cfg *config.Manager) *Handler {
	return &Handler{catalog: catalog, previewer: previewer, tracks: tracks, config: cfg}
}

func (h *Handler) track(c *fiber.Ctx) (*music.Track, error) {
	track, err := h.tracks.GetTrack(c.Context(), c.Params("id"))
	if err != nil {
		status := fiber.StatusInternalServerError
		if errors.Is(err, music.ErrTrackNotFound) {
			status = fiber.StatusNotFound
		}
		slog.Error("Error loading track", "trackID", c.Params("id"), "error", err)
		return nil, c.Status(status).JSON(fiber.Map{"error": err.Error()})
	}
	return track, nil
}

// GetFormats lists every rename and directory format.
func (h *Handler) GetFormats(c *fiber.Ctx) error {
	renames := make([]fiber.Map, 0, len(renameTable))
	for _, f := range RenameFormats() {
		renames = append(renames, fiber.Map{"format": f, "label": RenameLabel(f)})
	}
	dirs := make([]fiber.Map, 0, len(directoryTable))
	for _, f := range DirectoryFormats() {
		dirs = append(dirs, fiber.Map{"format": f, "label": DirectoryLabel(f)})
	}
	return c.JSON(fiber.Map{"renames": renames, "directories": dirs})
}

// GetRenames lists the file names the rename formats yield for a track.
func (h *Handler) GetRenames(c *fiber.Ctx) error {
	track, err := h.track(c)
	if track == nil {
		return err
	}
	return c.JSON(h.catalog.AllRenames(track))
}

// GetDirectories lists the directories the directory formats yield for a track.
func (h *Handler) GetDirectories(c *fiber.Ctx) error {
	track, err := h.track(c)
	if track == nil {
		return err
	}
	return c.JSON(h.catalog.AllDirectoryFormats(track))
}

// GetPreview returns the final path for ?dir= and ?rename=. Missing
// parameters fall back to the configured directory format and the track's
// own rename format.
func (h *Handler) GetPreview(c *fiber.Ctx) error {
	track, err := h.track(c)
	if track == nil {
		return err
	}

	dirParam := c.Query("dir", h.config.Get().Naming.DirectoryFormat)
	dir, err := ParseDirectoryFormat(dirParam)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}
	rename := track.RenameFormat()
	if q := c.Query("rename"); q != "" {
		if rename, err = ParseRenameFormat(q); err != nil {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
		}
	}

	return c.JSON(fiber.Map{
		"current":   track.Path(),
		"dir":       dir,
		"rename":    rename,
		"finalPath": h.previewer.PreviewFinalPath(track, dir, rename),
	})
}
