package tag

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/contre95/soulwrite/src/infra/files"
	"github.com/contre95/soulwrite/src/music"
	"github.com/dhowden/tag"
)

// TagReader reads file tags with the dhowden/tag library.
type TagReader struct{}

// NewTagReader creates a new TagReader
func NewTagReader() *TagReader {
	return &TagReader{}
}

// ReadFileTags reads the tag values of a music file. A file without tags
// yields empty fields with the title taken from the file name.
func (r *TagReader) ReadFileTags(ctx context.Context, filePath string) (music.Fields, error) {
	if err := ctx.Err(); err != nil {
		return music.Fields{}, err
	}
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3", ".flac":
	default:
		return music.Fields{}, fmt.Errorf("%w: %s", ErrUnsupportedFormat, filepath.Ext(filePath))
	}

	file, err := os.Open(filePath)
	if err != nil {
		return music.Fields{}, files.Classify(fmt.Errorf("failed to open file: %w", err))
	}
	defer file.Close()

	fallback := music.Fields{Title: strings.TrimSuffix(filepath.Base(filePath), filepath.Ext(filePath))}
	tags, err := tag.ReadFrom(file)
	if errors.Is(err, tag.ErrNoTagsFound) {
		return fallback, nil
	}
	if err != nil {
		return music.Fields{}, fmt.Errorf("failed to read tags: %w", err)
	}

	trackNumber, _ := tags.Track()
	discNumber, _ := tags.Disc()

	fields := music.Fields{
		Title:       strings.TrimSpace(tags.Title()),
		Artist:      strings.TrimSpace(tags.Artist()),
		AlbumArtist: strings.TrimSpace(tags.AlbumArtist()),
		Album:       strings.TrimSpace(tags.Album()),
		Genre:       strings.TrimSpace(tags.Genre()),
		Year:        tags.Year(),
		TrackNumber: trackNumber,
		DiscNumber:  discNumber,
	}
	if fields.Title == "" {
		fields.Title = fallback.Title
	}
	if pic := tags.Picture(); pic != nil {
		fields.Artwork = pic.Data
	}
	return fields, nil
}
