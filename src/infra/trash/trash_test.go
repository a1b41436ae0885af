package trash

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestTrash_MovesFileAndWritesInfo(t *testing.T) {
	dir := t.TempDir()
	bin, err := New(filepath.Join(dir, "Trash"))
	if err != nil {
		t.Fatal(err)
	}
	bin.now = func() time.Time { return time.Date(2024, 5, 1, 10, 30, 0, 0, time.UTC) }

	src := filepath.Join(dir, "music", "My Song.mp3")
	if err := os.MkdirAll(filepath.Dir(src), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(src, []byte("audio"), 0o644); err != nil {
		t.Fatal(err)
	}

	if err := bin.Trash(src); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if _, err := os.Stat(src); !os.IsNotExist(err) {
		t.Fatal("expected source to be gone")
	}
	if _, err := os.Stat(filepath.Join(bin.Root(), "files", "My Song.mp3")); err != nil {
		t.Fatalf("expected file in trash: %v", err)
	}
	info, err := os.ReadFile(filepath.Join(bin.Root(), "info", "My Song.mp3.trashinfo"))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(info), "Path="+filepath.Dir(src)+"/My%20Song.mp3") {
		t.Errorf("unexpected trashinfo path: %s", info)
	}
	if !strings.Contains(string(info), "DeletionDate=2024-05-01T10:30:00") {
		t.Errorf("unexpected trashinfo date: %s", info)
	}
}

func TestTrash_UniqueNames(t *testing.T) {
	dir := t.TempDir()
	bin, err := New(filepath.Join(dir, "Trash"))
	if err != nil {
		t.Fatal(err)
	}

	for i := 0; i < 3; i++ {
		src := filepath.Join(dir, "song.flac")
		if err := os.WriteFile(src, []byte{byte(i)}, 0o644); err != nil {
			t.Fatal(err)
		}
		if err := bin.Trash(src); err != nil {
			t.Fatalf("trash %d: %v", i, err)
		}
	}
	for _, name := range []string{"song.flac", "song.1.flac", "song.2.flac"} {
		if _, err := os.Stat(filepath.Join(bin.Root(), "files", name)); err != nil {
			t.Errorf("expected %s in trash: %v", name, err)
		}
	}
}

func TestTrash_MissingFile(t *testing.T) {
	dir := t.TempDir()
	bin, err := New(filepath.Join(dir, "Trash"))
	if err != nil {
		t.Fatal(err)
	}
	err = bin.Trash(filepath.Join(dir, "ghost.mp3"))
	if !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected ErrNotExist, got %v", err)
	}
}
