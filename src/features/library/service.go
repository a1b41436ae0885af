package library

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/contre95/soulwrite/src/features/config"
	"github.com/contre95/soulwrite/src/features/naming"
	"github.com/contre95/soulwrite/src/music"
)

var (
	ErrDeleted     = errors.New("track was removed from the library")
	ErrNotAudio    = errors.New("not a supported audio file")
	ErrNoSuchFile  = errors.New("file does not exist")
	ErrInvalidEdit = errors.New("invalid edit")
)

// Writer queues tracks for the background write-back.
type Writer interface {
	Enqueue(tracks ...*music.Track) int
}

// Service is the domain service for the library feature.
type Service struct {
	library       music.Library
	reader        music.TagReader
	fs            music.FileSystem
	writer        Writer
	configManager *config.Manager
}

// NewService creates a new library service.
func NewService(lib music.Library, reader music.TagReader, fs music.FileSystem, writer Writer, cfgManager *config.Manager) *Service {
	return &Service{
		library:       lib,
		reader:        reader,
		fs:            fs,
		writer:        writer,
		configManager: cfgManager,
	}
}

// GetTracks returns all tracks from the library.
func (s *Service) GetTracks(ctx context.Context) ([]*music.Track, error) {
	tracks, err := s.library.GetTracks(ctx)
	if err != nil {
		slog.Error("GetTracks failed", "error", err)
		return nil, err
	}
	return tracks, nil
}

// GetTrack returns a single track.
func (s *Service) GetTrack(ctx context.Context, id string) (*music.Track, error) {
	return s.library.GetTrack(ctx, id)
}

// RegisterTrack adds the file at path to the library with the tags read
// from it. Registering a known path returns the existing track.
func (s *Service) RegisterTrack(ctx context.Context, path string) (*music.Track, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	switch strings.ToLower(filepath.Ext(abs)) {
	case ".mp3", ".flac":
	default:
		return nil, fmt.Errorf("%w: %s", ErrNotAudio, abs)
	}
	if !s.fs.Exists(abs) || s.fs.IsDir(abs) {
		return nil, fmt.Errorf("%w: %s", ErrNoSuchFile, abs)
	}

	existing, err := s.library.FindTrackByPath(ctx, abs)
	if err == nil {
		return existing, nil
	}
	if !errors.Is(err, music.ErrTrackNotFound) {
		return nil, err
	}

	fields, err := s.reader.ReadFileTags(ctx, abs)
	if err != nil {
		return nil, fmt.Errorf("failed to read tags of %s: %w", abs, err)
	}
	track := music.NewTrack("", abs, fields)
	if err := s.library.AddTrack(ctx, track); err != nil {
		return nil, err
	}
	slog.Info("Track registered", "trackID", track.ID, "path", abs)
	return track, nil
}

// Edit describes a change requested by the editing surface. Nil fields are
// left untouched.
type Edit struct {
	Title       *string `json:"title"`
	Artist      *string `json:"artist"`
	AlbumArtist *string `json:"album_artist"`
	Album       *string `json:"album"`
	Genre       *string `json:"genre"`
	Year        *int    `json:"year"`
	TrackNumber *int    `json:"track_number"`
	DiscNumber  *int    `json:"disc_number"`
	// Artwork replaces the embedded image. An empty slice removes it.
	Artwork []byte `json:"artwork"`
	// RenameFormat selects the file name template. An empty string uses the
	// configured default.
	RenameFormat *string `json:"rename_format"`
	Move         bool    `json:"move"`
	// IgnoreContainment allows renaming a file that lives outside the library.
	IgnoreContainment bool `json:"ignore_containment"`
}

// EditTrack applies edit to the track, records which on-disk operations it
// needs and hands the track to the write-back.
func (s *Service) EditTrack(ctx context.Context, id string, edit Edit) (*music.Track, error) {
	track, err := s.library.GetTrack(ctx, id)
	if err != nil {
		return nil, err
	}
	if track.Deleted() {
		return nil, fmt.Errorf("%w: %s", ErrDeleted, id)
	}

	var changes music.Changes
	fields := track.Fields()
	if applyFields(&fields, edit) {
		changes |= music.ChangeWriteTags
	}
	if edit.Artwork != nil {
		fields.Artwork = edit.Artwork
		changes |= music.ChangeEmbedImage
	}

	format := track.RenameFormat()
	if edit.RenameFormat != nil {
		requested := *edit.RenameFormat
		if requested == "" {
			requested = s.configManager.Get().Naming.RenameFormat
		}
		format, err = naming.ParseRenameFormat(requested)
		if err != nil {
			return nil, fmt.Errorf("%w: %w", ErrInvalidEdit, err)
		}
	}
	// Names derive from the fields, so a tag edit renames too.
	if format != music.RenameNone && (edit.RenameFormat != nil || changes.Has(music.ChangeWriteTags)) {
		changes |= music.ChangeRename
	}
	if edit.Move {
		changes |= music.ChangeMove
	}
	if edit.IgnoreContainment {
		changes |= music.ChangeIgnoreContainment
	}

	if err := validateFields(fields); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrInvalidEdit, err)
	}
	track.SetFields(fields)
	track.SetRenameFormat(format)
	track.MarkPending(changes)
	if err := s.library.UpdateTrack(ctx, track); err != nil {
		return nil, err
	}

	if track.Pending() != 0 {
		s.writer.Enqueue(track)
	}
	slog.Info("Track edited", "trackID", id, "changes", changes.String())
	return track, nil
}

func applyFields(f *music.Fields, edit Edit) bool {
	changed := false
	setString := func(dst *string, src *string) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setInt := func(dst *int, src *int) {
		if src != nil && *dst != *src {
			*dst = *src
			changed = true
		}
	}
	setString(&f.Title, edit.Title)
	setString(&f.Artist, edit.Artist)
	setString(&f.AlbumArtist, edit.AlbumArtist)
	setString(&f.Album, edit.Album)
	setString(&f.Genre, edit.Genre)
	setInt(&f.Year, edit.Year)
	setInt(&f.TrackNumber, edit.TrackNumber)
	setInt(&f.DiscNumber, edit.DiscNumber)
	return changed
}

func validateFields(f music.Fields) error {
	probe := music.NewTrack("probe", "probe", f)
	return probe.Validate()
}

// TrackView is the JSON form of a track.
type TrackView struct {
	ID           string    `json:"id"`
	Path         string    `json:"path"`
	Title        string    `json:"title"`
	Artist       string    `json:"artist"`
	AlbumArtist  string    `json:"album_artist"`
	Album        string    `json:"album"`
	Genre        string    `json:"genre"`
	Year         int       `json:"year"`
	TrackNumber  int       `json:"track_number"`
	DiscNumber   int       `json:"disc_number"`
	HasArtwork   bool      `json:"has_artwork"`
	RenameFormat string    `json:"rename_format"`
	Pending      []string  `json:"pending"`
	Deleted      bool      `json:"deleted"`
	AddedDate    time.Time `json:"added_date"`
	ModifiedDate time.Time `json:"modified_date"`
}

// NewTrackView snapshots a track for rendering.
func NewTrackView(t *music.Track) TrackView {
	f := t.Fields()
	return TrackView{
		ID:           t.ID,
		Path:         t.Path(),
		Title:        f.Title,
		Artist:       f.Artist,
		AlbumArtist:  f.AlbumArtist,
		Album:        f.Album,
		Genre:        f.Genre,
		Year:         f.Year,
		TrackNumber:  f.TrackNumber,
		DiscNumber:   f.DiscNumber,
		HasArtwork:   len(f.Artwork) > 0,
		RenameFormat: string(t.RenameFormat()),
		Pending:      t.Pending().Names(),
		Deleted:      t.Deleted(),
		AddedDate:    t.AddedDate,
		ModifiedDate: t.LastWriteTime(),
	}
}
