package music

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Fields holds the tag values of a track as edited by the user.
type Fields struct {
	Title       string
	Artist      string
	AlbumArtist string
	Album       string
	Genre       string
	Year        int
	TrackNumber int
	DiscNumber  int
	Artwork     []byte
}

// Track is the mutable handle shared by the editing surface and the
// write-back worker. Everything that both sides touch is guarded by mu.
type Track struct {
	ID        string
	AddedDate time.Time

	mu           sync.RWMutex
	path         string
	fields       Fields
	renameFormat RenameFormat
	pending      Changes
	edits        uint64
	deleted      bool
	modified     time.Time
}

// NewTrack creates a track handle for the file at path.
func NewTrack(id, path string, fields Fields) *Track {
	if id == "" {
		id = GenerateTrackID(path)
	}
	now := time.Now()
	return &Track{
		ID:           id,
		AddedDate:    now,
		path:         path,
		fields:       fields,
		renameFormat: RenameNone,
		modified:     now,
	}
}

// GenerateTrackID creates a deterministic UUID for a track from its original path.
func GenerateTrackID(path string) string {
	return uuid.NewSHA1(uuid.NameSpaceURL, []byte(path)).String()
}

// Path returns the current location of the track on disk.
func (t *Track) Path() string {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.path
}

// SetPath records a new on-disk location after a successful move or rename.
func (t *Track) SetPath(path string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.path = path
	t.modified = time.Now()
}

// Fields returns a copy of the tag values.
func (t *Track) Fields() Fields {
	t.mu.RLock()
	defer t.mu.RUnlock()
	f := t.fields
	if t.fields.Artwork != nil {
		f.Artwork = append([]byte(nil), t.fields.Artwork...)
	}
	return f
}

// SetFields replaces the tag values.
func (t *Track) SetFields(f Fields) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.fields = f
	t.modified = time.Now()
	t.edits++
}

// RenameFormat returns the file name template chosen for the track.
func (t *Track) RenameFormat() RenameFormat {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.renameFormat
}

// SetRenameFormat selects the file name template for the track.
func (t *Track) SetRenameFormat(f RenameFormat) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.renameFormat = f
	t.edits++
}

// Pending returns the set of on-disk operations that remain to be applied.
func (t *Track) Pending() Changes {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pending
}

// HasPending reports whether any of the given flags is set.
func (t *Track) HasPending(c Changes) bool {
	return t.Pending().Has(c)
}

// MarkPending sets the given flags.
func (t *Track) MarkPending(c Changes) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending |= c
	t.edits++
}

// Snapshot returns the pending flags together with the edit generation they
// were read at. Pass the generation to ClearPendingAt once the work is done.
func (t *Track) Snapshot() (Changes, uint64) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.pending, t.edits
}

// ClearPendingAt clears c only if the track was not edited after generation
// gen. It reports whether the flags were cleared.
func (t *Track) ClearPendingAt(gen uint64, c Changes) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.edits != gen {
		return false
	}
	t.pending &^= c
	return true
}

// ClearPending clears the given flags and leaves the others untouched.
func (t *Track) ClearPending(c Changes) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending &^= c
}

// RestorePending overwrites the flag set, used when loading from storage.
func (t *Track) RestorePending(c Changes) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.pending = c
}

// Deleted reports whether the track was removed from the library.
func (t *Track) Deleted() bool {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.deleted
}

// MarkDeleted flags the track as removed. A deleted track never gets written.
func (t *Track) MarkDeleted() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.deleted = true
	t.pending = 0
}

// LastWriteTime returns the last time the track was changed on disk.
func (t *Track) LastWriteTime() time.Time {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return t.modified
}

// Touch records a completed write.
func (t *Track) Touch(at time.Time) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.modified = at
}

// Validate validates the track fields.
func (t *Track) Validate() error {
	f := t.Fields()
	if strings.TrimSpace(t.Path()) == "" {
		return fmt.Errorf("track path cannot be empty")
	}
	if len(t.Path()) > 1000 {
		return fmt.Errorf("track path cannot exceed 1000 characters, got %d", len(t.Path()))
	}
	if len(f.Title) > 500 {
		return fmt.Errorf("title cannot exceed 500 characters, got %d: title -> %s", len(f.Title), f.Title)
	}
	if f.TrackNumber < 0 {
		return fmt.Errorf("track number cannot be negative, got %d", f.TrackNumber)
	}
	if f.DiscNumber < 0 {
		return fmt.Errorf("disc number cannot be negative, got %d", f.DiscNumber)
	}
	if f.Year < 0 {
		return fmt.Errorf("year cannot be negative, got %d", f.Year)
	}
	return nil
}
