package music

import (
	"context"
)

// Library is the interface for the library index.
// It owns the track handles; the write-back pipeline only borrows them.
type Library interface {
	AddTrack(ctx context.Context, track *Track) error
	GetTrack(ctx context.Context, id string) (*Track, error)
	GetTracks(ctx context.Context) ([]*Track, error)
	FindTrackByPath(ctx context.Context, path string) (*Track, error)
	// UpdateTrack persists the path, fields and pending flags of a track.
	UpdateTrack(ctx context.Context, track *Track) error
	// Contains reports whether the track is still part of the library.
	Contains(ctx context.Context, id string) bool
	// PendingTracks returns every track with at least one pending change.
	PendingTracks(ctx context.Context) ([]*Track, error)
	// MarkDeleted flags a track whose file vanished from disk.
	MarkDeleted(ctx context.Context, id string) error
	// MarkStale bumps the library version after an on-disk mutation.
	MarkStale(ctx context.Context) error
	Version() int64
}
