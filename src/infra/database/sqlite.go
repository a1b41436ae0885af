package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"github.com/contre95/soulwrite/src/music"
	_ "github.com/mattn/go-sqlite3"
)

// SqliteLibrary is a SQLite implementation of the Library interface.
// Loaded tracks are kept in an identity map so every caller shares the
// same *music.Track handle for a given ID.
type SqliteLibrary struct {
	db      *sql.DB
	mu      sync.Mutex
	tracks  map[string]*music.Track
	version atomic.Int64
}

// NewSqliteLibrary creates a new SqliteLibrary.
func NewSqliteLibrary(path string) (*SqliteLibrary, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, err
	}
	// An in-memory database lives as long as its connection.
	db.SetMaxOpenConns(1)

	if err := createTables(db); err != nil {
		db.Close()
		return nil, err
	}

	lib := &SqliteLibrary{db: db, tracks: make(map[string]*music.Track)}
	var version int64
	err = db.QueryRow(`SELECT value FROM library_state WHERE key = 'version'`).Scan(&version)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		db.Close()
		return nil, err
	}
	lib.version.Store(version)
	return lib, nil
}

func createTables(db *sql.DB) error {
	_, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS tracks (
			id TEXT PRIMARY KEY,
			path TEXT NOT NULL,
			title TEXT NOT NULL,
			artist TEXT,
			album_artist TEXT,
			album TEXT,
			genre TEXT,
			year INTEGER,
			track_number INTEGER,
			disc_number INTEGER,
			artwork BLOB,
			rename_format TEXT,
			pending INTEGER DEFAULT 0,
			deleted BOOLEAN DEFAULT FALSE,
			added_date TEXT,
			modified_date TEXT
		);

		CREATE UNIQUE INDEX IF NOT EXISTS idx_tracks_live_path ON tracks(path) WHERE deleted = FALSE;
		CREATE INDEX IF NOT EXISTS idx_tracks_pending ON tracks(pending) WHERE pending != 0;

		CREATE TABLE IF NOT EXISTS library_state (
			key TEXT PRIMARY KEY,
			value INTEGER
		);
	`)
	return err
}

// Close closes the database.
func (d *SqliteLibrary) Close() error {
	return d.db.Close()
}

// AddTrack adds a track to the database.
func (d *SqliteLibrary) AddTrack(ctx context.Context, track *music.Track) error {
	if err := track.Validate(); err != nil {
		slog.Error("AddTrack: validation failed", "error", err, "trackID", track.ID)
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	f := track.Fields()
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO tracks (id, path, title, artist, album_artist, album, genre, year,
			track_number, disc_number, artwork, rename_format, pending, deleted, added_date, modified_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, FALSE, ?, ?)
	`, track.ID, track.Path(), f.Title, f.Artist, f.AlbumArtist, f.Album, f.Genre, f.Year,
		f.TrackNumber, f.DiscNumber, f.Artwork, string(track.RenameFormat()), int(track.Pending()),
		track.AddedDate.Format(time.RFC3339), track.LastWriteTime().Format(time.RFC3339))
	if err != nil {
		return fmt.Errorf("failed to add track %s: %w", track.Path(), err)
	}
	d.tracks[track.ID] = track
	return nil
}

// UpdateTrack persists the path, fields and pending flags of a track.
func (d *SqliteLibrary) UpdateTrack(ctx context.Context, track *music.Track) error {
	if err := track.Validate(); err != nil {
		slog.Error("UpdateTrack: validation failed", "error", err, "trackID", track.ID)
		return err
	}

	f := track.Fields()
	res, err := d.db.ExecContext(ctx, `
		UPDATE tracks
		SET path = ?, title = ?, artist = ?, album_artist = ?, album = ?, genre = ?, year = ?,
			track_number = ?, disc_number = ?, artwork = ?, rename_format = ?, pending = ?,
			deleted = ?, modified_date = ?
		WHERE id = ?
	`, track.Path(), f.Title, f.Artist, f.AlbumArtist, f.Album, f.Genre, f.Year,
		f.TrackNumber, f.DiscNumber, f.Artwork, string(track.RenameFormat()), int(track.Pending()),
		track.Deleted(), track.LastWriteTime().Format(time.RFC3339), track.ID)
	if err != nil {
		return fmt.Errorf("failed to update track %s: %w", track.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", music.ErrTrackNotFound, track.ID)
	}
	return nil
}

// GetTrack gets a track by ID, deleted tracks included.
func (d *SqliteLibrary) GetTrack(ctx context.Context, id string) (*music.Track, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if track, ok := d.tracks[id]; ok {
		return track, nil
	}
	row := d.db.QueryRowContext(ctx, selectTrack+` WHERE id = ?`, id)
	track, err := d.scan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", music.ErrTrackNotFound, id)
	}
	return track, err
}

// GetTracks returns every track that is still part of the library.
func (d *SqliteLibrary) GetTracks(ctx context.Context) ([]*music.Track, error) {
	return d.query(ctx, selectTrack+` WHERE deleted = FALSE ORDER BY path`)
}

// PendingTracks returns every live track with at least one pending change.
func (d *SqliteLibrary) PendingTracks(ctx context.Context) ([]*music.Track, error) {
	d.mu.Lock()
	var out []*music.Track
	seen := make(map[string]bool, len(d.tracks))
	for id, track := range d.tracks {
		seen[id] = true
		if !track.Deleted() && track.Pending() != 0 {
			out = append(out, track)
		}
	}
	d.mu.Unlock()

	// Tracks never loaded this session are only known to the database.
	stored, err := d.query(ctx, selectTrack+` WHERE deleted = FALSE AND pending != 0`)
	if err != nil {
		return nil, err
	}
	for _, track := range stored {
		if !seen[track.ID] {
			out = append(out, track)
		}
	}
	return out, nil
}

// FindTrackByPath returns the live track stored at path.
func (d *SqliteLibrary) FindTrackByPath(ctx context.Context, path string) (*music.Track, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	for _, track := range d.tracks {
		if !track.Deleted() && track.Path() == path {
			return track, nil
		}
	}

	row := d.db.QueryRowContext(ctx, selectTrack+` WHERE path = ? AND deleted = FALSE LIMIT 1`, path)
	track, err := d.scan(row)
	if errors.Is(err, sql.ErrNoRows) || (err == nil && track.Path() != path) {
		return nil, fmt.Errorf("%w: %s", music.ErrTrackNotFound, path)
	}
	return track, err
}

// Contains reports whether the track is still part of the library.
func (d *SqliteLibrary) Contains(ctx context.Context, id string) bool {
	d.mu.Lock()
	track, ok := d.tracks[id]
	d.mu.Unlock()
	if ok {
		return !track.Deleted()
	}
	var deleted bool
	err := d.db.QueryRowContext(ctx, `SELECT deleted FROM tracks WHERE id = ?`, id).Scan(&deleted)
	return err == nil && !deleted
}

// MarkDeleted flags a track whose file vanished from disk. Its pending
// changes are dropped with it.
func (d *SqliteLibrary) MarkDeleted(ctx context.Context, id string) error {
	track, err := d.GetTrack(ctx, id)
	if err != nil {
		return err
	}
	track.MarkDeleted()
	if _, err := d.db.ExecContext(ctx, `UPDATE tracks SET deleted = TRUE, pending = 0 WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to mark track %s deleted: %w", id, err)
	}
	slog.Info("Track removed from library", "trackID", id, "path", track.Path())
	return d.MarkStale(ctx)
}

// MarkStale bumps the library version after an on-disk mutation.
func (d *SqliteLibrary) MarkStale(ctx context.Context) error {
	v := d.version.Add(1)
	_, err := d.db.ExecContext(ctx, `
		INSERT INTO library_state (key, value) VALUES ('version', ?)
		ON CONFLICT(key) DO UPDATE SET value = excluded.value
	`, v)
	return err
}

// Version returns a counter that changes every time the library changes on disk.
func (d *SqliteLibrary) Version() int64 {
	return d.version.Load()
}

const selectTrack = `
	SELECT id, path, title, artist, album_artist, album, genre, year,
		track_number, disc_number, artwork, rename_format, pending, deleted, added_date, modified_date
	FROM tracks`

type scanner interface {
	Scan(dest ...any) error
}

// scan reads a row into a track and registers it in the identity map.
// An already loaded handle wins over the stored row. Callers hold d.mu.
func (d *SqliteLibrary) scan(row scanner) (*music.Track, error) {
	var (
		id, path, title               string
		artist, albumArtist, album    sql.NullString
		genre, renameFormat           sql.NullString
		year, trackNumber, discNumber sql.NullInt64
		pending                       int
		deleted                       bool
		artwork                       []byte
		addedDateStr, modifiedDateStr sql.NullString
	)
	err := row.Scan(&id, &path, &title, &artist, &albumArtist, &album, &genre, &year,
		&trackNumber, &discNumber, &artwork, &renameFormat, &pending, &deleted, &addedDateStr, &modifiedDateStr)
	if err != nil {
		return nil, err
	}
	if track, ok := d.tracks[id]; ok {
		return track, nil
	}

	track := music.NewTrack(id, path, music.Fields{
		Title:       title,
		Artist:      artist.String,
		AlbumArtist: albumArtist.String,
		Album:       album.String,
		Genre:       genre.String,
		Year:        int(year.Int64),
		TrackNumber: int(trackNumber.Int64),
		DiscNumber:  int(discNumber.Int64),
		Artwork:     artwork,
	})
	if renameFormat.String != "" {
		track.SetRenameFormat(music.RenameFormat(renameFormat.String))
	}
	track.RestorePending(music.Changes(pending))
	if deleted {
		track.MarkDeleted()
	}
	if added, err := time.Parse(time.RFC3339, addedDateStr.String); err == nil {
		track.AddedDate = added
	}
	if modified, err := time.Parse(time.RFC3339, modifiedDateStr.String); err == nil {
		track.Touch(modified)
	}
	d.tracks[id] = track
	return track, nil
}

func (d *SqliteLibrary) query(ctx context.Context, query string, args ...any) ([]*music.Track, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	rows, err := d.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	tracks := []*music.Track{}
	for rows.Next() {
		track, err := d.scan(rows)
		if err != nil {
			return nil, err
		}
		if track.Deleted() {
			continue
		}
		tracks = append(tracks, track)
	}
	return tracks, rows.Err()
}
