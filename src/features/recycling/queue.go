package recycling

import (
	"log/slog"
	"path/filepath"
	"sync"
	"time"

	"golang.org/x/text/cases"

	"github.com/contre95/soulwrite/src/music"
)

const (
	defaultFinalPasses = 5
	defaultFinalPause  = 200 * time.Millisecond
)

// Options configures a deletion queue.
type Options struct {
	// ProtectedRoots are never removed and stop the upward cull.
	ProtectedRoots []string
	FinalPasses    int
	FinalPause     time.Duration
	// Stopped is polled between entries by Drain.
	Stopped func() bool
}

// Queue is the case-insensitive ordered set of paths awaiting a reversible
// delete or an empty-directory cull.
type Queue struct {
	mu    sync.Mutex
	order []string
	keys  map[string]string // folded key -> queued path

	draining sync.Mutex

	fs    music.FileSystem
	trash music.Trasher
	opts  Options
	sleep func(time.Duration)
}

// NewQueue creates a deletion queue backed by fs and trash.
func NewQueue(fs music.FileSystem, trash music.Trasher, opts Options) *Queue {
	if opts.FinalPasses <= 0 {
		opts.FinalPasses = defaultFinalPasses
	}
	if opts.FinalPause < 0 {
		opts.FinalPause = defaultFinalPause
	}
	if opts.Stopped == nil {
		opts.Stopped = func() bool { return false }
	}
	roots := make([]string, 0, len(opts.ProtectedRoots))
	for _, root := range opts.ProtectedRoots {
		if root != "" {
			roots = append(roots, filepath.Clean(root))
		}
	}
	opts.ProtectedRoots = roots
	return &Queue{
		keys:  make(map[string]string),
		fs:    fs,
		trash: trash,
		opts:  opts,
		sleep: time.Sleep,
	}
}

func foldKey(path string) string {
	return cases.Fold().String(filepath.Clean(path))
}

// Enqueue adds path unless a path equal to it ignoring case is already queued.
// It reports whether the path was added.
func (q *Queue) Enqueue(path string) bool {
	if path == "" {
		return false
	}
	path = filepath.Clean(path)
	key := foldKey(path)

	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.keys[key]; ok {
		return false
	}
	q.keys[key] = path
	q.order = append(q.order, key)
	slog.Debug("Queued for deletion", "path", path)
	return true
}

// Len returns the number of queued paths.
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.order)
}

// Paths returns a snapshot of the queued paths in insertion order.
func (q *Queue) Paths() []string {
	q.mu.Lock()
	defer q.mu.Unlock()
	paths := make([]string, 0, len(q.order))
	for _, key := range q.order {
		paths = append(paths, q.keys[key])
	}
	return paths
}

// Clear empties the queue.
func (q *Queue) Clear() {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.order = nil
	q.keys = make(map[string]string)
}

func (q *Queue) remove(path string) {
	key := foldKey(path)
	q.mu.Lock()
	defer q.mu.Unlock()
	if _, ok := q.keys[key]; !ok {
		return
	}
	delete(q.keys, key)
	for i, k := range q.order {
		if k == key {
			q.order = append(q.order[:i], q.order[i+1:]...)
			break
		}
	}
}
