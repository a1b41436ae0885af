package recycling

import (
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/contre95/soulwrite/src/infra/files"
	"github.com/contre95/soulwrite/src/music"
)

// MockTrasher removes files and can be told to fail for some paths.
type MockTrasher struct {
	trashed []string
	failFor map[string]int
}

func (m *MockTrasher) Trash(path string) error {
	if m.failFor[path] > 0 {
		m.failFor[path]--
		return music.ErrFileBusy
	}
	m.trashed = append(m.trashed, path)
	return os.Remove(path)
}

func mkdirs(t *testing.T, paths ...string) {
	t.Helper()
	for _, p := range paths {
		if err := os.MkdirAll(p, 0o755); err != nil {
			t.Fatal(err)
		}
	}
}

func touch(t *testing.T, path string) {
	t.Helper()
	mkdirs(t, filepath.Dir(path))
	if err := os.WriteFile(path, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

func newTestQueue(t *testing.T, root string, trash *MockTrasher) *Queue {
	t.Helper()
	q := NewQueue(files.NewFileSystem(), trash, Options{ProtectedRoots: []string{root}, FinalPause: 0})
	q.sleep = func(time.Duration) {}
	return q
}

func TestEnqueue_CaseInsensitiveDedup(t *testing.T) {
	q := newTestQueue(t, t.TempDir(), &MockTrasher{})

	if !q.Enqueue("/Music/Old/Song.mp3") {
		t.Fatal("expected first insert to succeed")
	}
	if q.Enqueue("/music/old/SONG.mp3") {
		t.Error("expected case-insensitive duplicate to be ignored")
	}
	if q.Enqueue("/Music/Old/../Old/Song.mp3") {
		t.Error("expected uncleaned duplicate to be ignored")
	}
	q.Enqueue("/music/other")
	if q.Len() != 2 {
		t.Fatalf("expected 2 entries, got %d", q.Len())
	}
	paths := q.Paths()
	if paths[0] != "/Music/Old/Song.mp3" || paths[1] != "/music/other" {
		t.Errorf("unexpected order: %v", paths)
	}
	q.Clear()
	if q.Len() != 0 {
		t.Error("expected empty queue after Clear")
	}
}

func TestDrain_CullsNestedEmptyDirectories(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "A")
	c := filepath.Join(a, "B", "C")
	mkdirs(t, c)

	q := newTestQueue(t, root, &MockTrasher{})
	q.Enqueue(a)
	if left := q.Drain(); left != 0 {
		t.Fatalf("expected empty queue, got %d", left)
	}
	if exists(a) {
		t.Error("expected A, B and C to be removed")
	}
	if !exists(root) {
		t.Error("expected protected root to stay")
	}
}

func TestDrain_CullStopsAtNonEmptyDirectory(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "A")
	b := filepath.Join(a, "B")
	c := filepath.Join(b, "C")
	mkdirs(t, c)
	touch(t, filepath.Join(b, "unrelated.txt"))

	q := newTestQueue(t, root, &MockTrasher{})
	q.Enqueue(a)
	q.Drain()

	if exists(c) {
		t.Error("expected empty C to be removed")
	}
	if !exists(b) || !exists(a) {
		t.Error("expected B and A to stay because B holds a file")
	}
	if q.Len() != 0 {
		t.Error("a non-empty directory is not a failure and should leave the queue")
	}
}

func TestDrain_TrashesFileAndCullsParents(t *testing.T) {
	root := t.TempDir()
	song := filepath.Join(root, "Artist", "Album", "01 Song.mp3")
	touch(t, song)
	trash := &MockTrasher{}

	q := newTestQueue(t, root, trash)
	q.Enqueue(song)
	q.Drain()

	if len(trash.trashed) != 1 || trash.trashed[0] != song {
		t.Fatalf("expected the song to be trashed, got %v", trash.trashed)
	}
	if exists(filepath.Join(root, "Artist")) {
		t.Error("expected emptied parents to be culled")
	}
	if !exists(root) {
		t.Error("expected library root to stay")
	}
}

func TestDrain_FailuresStayQueued(t *testing.T) {
	root := t.TempDir()
	busy := filepath.Join(root, "busy.mp3")
	free := filepath.Join(root, "free.mp3")
	touch(t, busy)
	touch(t, free)
	trash := &MockTrasher{failFor: map[string]int{busy: 1}}

	q := newTestQueue(t, root, trash)
	q.Enqueue(busy)
	q.Enqueue(free)

	if left := q.Drain(); left != 1 {
		t.Fatalf("expected the busy file to stay queued, got %d entries", left)
	}
	if got := q.Paths(); got[0] != busy {
		t.Errorf("expected %s queued, got %v", busy, got)
	}
	if left := q.Drain(); left != 0 {
		t.Fatalf("expected the retry to succeed, got %d entries", left)
	}
}

func TestDrain_HonorsStopFlag(t *testing.T) {
	root := t.TempDir()
	song := filepath.Join(root, "song.mp3")
	touch(t, song)

	var stopped atomic.Bool
	stopped.Store(true)
	trash := &MockTrasher{}
	q := NewQueue(files.NewFileSystem(), trash, Options{ProtectedRoots: []string{root}, Stopped: stopped.Load})
	q.Enqueue(song)

	if left := q.Drain(); left != 1 {
		t.Fatalf("expected nothing processed while stopped, got %d left", left)
	}
	if len(trash.trashed) != 0 {
		t.Error("expected no trash calls while stopped")
	}

	if left := q.DrainFinal(); left != 0 {
		t.Fatalf("expected DrainFinal to ignore the stop flag, got %d left", left)
	}
}

func TestDrainFinal_RetriesBoundedPasses(t *testing.T) {
	root := t.TempDir()
	flaky := filepath.Join(root, "flaky.mp3")
	stuck := filepath.Join(root, "stuck.mp3")
	touch(t, flaky)
	touch(t, stuck)
	trash := &MockTrasher{failFor: map[string]int{flaky: 3, stuck: 100}}

	q := newTestQueue(t, root, trash)
	pauses := 0
	q.opts.FinalPause = time.Millisecond
	q.sleep = func(time.Duration) { pauses++ }
	q.Enqueue(flaky)
	q.Enqueue(stuck)

	left := q.DrainFinal()
	if left != 1 {
		t.Fatalf("expected only the stuck file to remain, got %d", left)
	}
	if exists(flaky) {
		t.Error("expected flaky file to be trashed on the fourth pass")
	}
	if trash.failFor[stuck] != 95 {
		t.Errorf("expected exactly 5 attempts on the stuck file, %d failures left", trash.failFor[stuck])
	}
	if pauses != 4 {
		t.Errorf("expected 4 pauses between 5 passes, got %d", pauses)
	}
}

func TestDrain_OutsideRootIsNotWalkedUpward(t *testing.T) {
	base := t.TempDir()
	root := filepath.Join(base, "library")
	outside := filepath.Join(base, "music", "old")
	mkdirs(t, root, outside)

	q := newTestQueue(t, root, &MockTrasher{})
	q.Enqueue(outside)
	q.Drain()

	if exists(outside) {
		t.Error("expected the queued directory to be culled")
	}
	if !exists(filepath.Join(base, "music")) {
		t.Error("expected parents outside the library to be left alone")
	}
}

func TestDrain_MissingPathIsDropped(t *testing.T) {
	root := t.TempDir()
	q := newTestQueue(t, root, &MockTrasher{})
	q.Enqueue(filepath.Join(root, "gone.mp3"))
	if left := q.Drain(); left != 0 {
		t.Fatalf("expected missing path to leave the queue, got %d", left)
	}
}

func TestProtected(t *testing.T) {
	q := NewQueue(files.NewFileSystem(), &MockTrasher{}, Options{ProtectedRoots: []string{"/Library"}})
	if !q.protected("/library") {
		t.Error("expected protected roots to match ignoring case")
	}
	if !q.protected("/") {
		t.Error("expected filesystem root to be protected")
	}
	if q.insideProtected("/Library") || !q.insideProtected("/Library/A") || q.insideProtected("/LibraryX") {
		t.Error("unexpected containment result")
	}
}
