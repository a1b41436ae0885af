package music

import "testing"

func TestClearPendingAt(t *testing.T) {
	track := NewTrack("", "/library/a.mp3", Fields{Title: "Song"})
	track.MarkPending(ChangeWriteTags | ChangeRename)

	pending, gen := track.Snapshot()
	if pending != ChangeWriteTags|ChangeRename {
		t.Fatalf("unexpected snapshot %s", pending)
	}
	track.SetFields(Fields{Title: "New"})
	if track.ClearPendingAt(gen, ChangeWriteTags) {
		t.Fatal("expected an edit after the snapshot to keep the flag")
	}
	if !track.HasPending(ChangeWriteTags) {
		t.Fatal("expected WriteTags to stay set")
	}

	_, gen = track.Snapshot()
	if !track.ClearPendingAt(gen, ChangeWriteTags) {
		t.Fatal("expected the flag to clear without a newer edit")
	}
	if track.Pending() != ChangeRename {
		t.Errorf("expected only Rename left, got %s", track.Pending())
	}
}
