package database

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/contre95/soulwrite/src/music"
)

func newTestLibrary(t *testing.T) *SqliteLibrary {
	t.Helper()
	lib, err := NewSqliteLibrary(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { lib.Close() })
	return lib
}

func TestAddAndGetTrack_SharesHandle(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)
	track := music.NewTrack("", "/music/a.mp3", music.Fields{Title: "A", Artist: "X", Year: 2001})

	if err := lib.AddTrack(ctx, track); err != nil {
		t.Fatal(err)
	}
	got, err := lib.GetTrack(ctx, track.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got != track {
		t.Fatal("expected the same handle for the same ID")
	}
	byPath, err := lib.FindTrackByPath(ctx, "/music/a.mp3")
	if err != nil || byPath != track {
		t.Fatalf("expected lookup by path to return the handle, got %v, %v", byPath, err)
	}
	if _, err := lib.GetTrack(ctx, "nope"); !errors.Is(err, music.ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestUpdateTrack_PersistsAcrossReopen(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "library.db")
	lib, err := NewSqliteLibrary(path)
	if err != nil {
		t.Fatal(err)
	}
	track := music.NewTrack("", "/music/a.mp3", music.Fields{Title: "A"})
	if err := lib.AddTrack(ctx, track); err != nil {
		t.Fatal(err)
	}
	track.SetFields(music.Fields{Title: "B", TrackNumber: 4, Artwork: []byte{1, 2}})
	track.SetRenameFormat(music.RenameTrackNumTitle)
	track.MarkPending(music.ChangeWriteTags | music.ChangeRename)
	if err := lib.UpdateTrack(ctx, track); err != nil {
		t.Fatal(err)
	}
	if err := lib.MarkStale(ctx); err != nil {
		t.Fatal(err)
	}
	lib.Close()

	reopened, err := NewSqliteLibrary(path)
	if err != nil {
		t.Fatal(err)
	}
	defer reopened.Close()
	if reopened.Version() != 1 {
		t.Errorf("expected version 1, got %d", reopened.Version())
	}
	pending, err := reopened.PendingTracks(ctx)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 1 {
		t.Fatalf("expected one pending track, got %d", len(pending))
	}
	got := pending[0]
	if got.Fields().Title != "B" || got.Fields().TrackNumber != 4 || len(got.Fields().Artwork) != 2 {
		t.Errorf("unexpected fields: %+v", got.Fields())
	}
	if got.RenameFormat() != music.RenameTrackNumTitle {
		t.Errorf("unexpected rename format %s", got.RenameFormat())
	}
	if got.Pending() != music.ChangeWriteTags|music.ChangeRename {
		t.Errorf("unexpected pending flags %s", got.Pending())
	}
}

func TestUpdateTrack_Unknown(t *testing.T) {
	lib := newTestLibrary(t)
	err := lib.UpdateTrack(context.Background(), music.NewTrack("", "/music/x.mp3", music.Fields{}))
	if !errors.Is(err, music.ErrTrackNotFound) {
		t.Fatalf("expected ErrTrackNotFound, got %v", err)
	}
}

func TestMarkDeleted(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)
	track := music.NewTrack("", "/music/a.mp3", music.Fields{Title: "A"})
	track.MarkPending(music.ChangeAll)
	if err := lib.AddTrack(ctx, track); err != nil {
		t.Fatal(err)
	}
	if !lib.Contains(ctx, track.ID) {
		t.Fatal("expected track to be contained")
	}

	if err := lib.MarkDeleted(ctx, track.ID); err != nil {
		t.Fatal(err)
	}
	if lib.Contains(ctx, track.ID) {
		t.Error("expected deleted track to leave the library")
	}
	if !track.Deleted() || track.Pending() != 0 {
		t.Error("expected handle to be flagged deleted with no pending changes")
	}
	if lib.Version() != 1 {
		t.Errorf("expected version bump, got %d", lib.Version())
	}
	tracks, _ := lib.GetTracks(ctx)
	if len(tracks) != 0 {
		t.Errorf("expected no live tracks, got %d", len(tracks))
	}
	pending, _ := lib.PendingTracks(ctx)
	if len(pending) != 0 {
		t.Errorf("expected no pending tracks, got %d", len(pending))
	}

	// The path is free again for a new registration.
	again := music.NewTrack("other-id", "/music/a.mp3", music.Fields{Title: "A"})
	if err := lib.AddTrack(ctx, again); err != nil {
		t.Fatalf("expected path reuse after deletion, got %v", err)
	}
}

func TestFindTrackByPath_FollowsMoves(t *testing.T) {
	ctx := context.Background()
	lib := newTestLibrary(t)
	track := music.NewTrack("", "/music/a.mp3", music.Fields{Title: "A"})
	if err := lib.AddTrack(ctx, track); err != nil {
		t.Fatal(err)
	}
	track.SetPath("/library/A/a.mp3")

	if _, err := lib.FindTrackByPath(ctx, "/music/a.mp3"); !errors.Is(err, music.ErrTrackNotFound) {
		t.Errorf("expected old path to miss, got %v", err)
	}
	got, err := lib.FindTrackByPath(ctx, "/library/A/a.mp3")
	if err != nil || got != track {
		t.Errorf("expected new path to hit, got %v, %v", got, err)
	}
}
