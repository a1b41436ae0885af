package recycling

import (
	"errors"
	"io/fs"
	"log/slog"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/contre95/soulwrite/src/features/metrics"
)

// Drain processes every queued path once. Entries that fail stay queued.
// It returns at once, and between entries, when the stop flag is set.
// The number of entries left in the queue is returned.
func (q *Queue) Drain() int {
	if q.opts.Stopped() {
		return q.Len()
	}
	return q.drain(true)
}

// DrainFinal ignores the stop flag and retries failed entries for a bounded
// number of passes. It is meant for shutdown.
func (q *Queue) DrainFinal() int {
	left := q.Len()
	for pass := 1; pass <= q.opts.FinalPasses && left > 0; pass++ {
		if pass > 1 && q.opts.FinalPause > 0 {
			q.sleep(q.opts.FinalPause)
		}
		left = q.drain(false)
		slog.Debug("Final deletion pass", "pass", pass, "remaining", left)
	}
	if left > 0 {
		slog.Warn("Deletion queue not empty at shutdown", "remaining", left, "paths", q.Paths())
	}
	return left
}

func (q *Queue) drain(honorStop bool) int {
	q.draining.Lock()
	defer q.draining.Unlock()

	for _, path := range q.Paths() {
		if honorStop && q.opts.Stopped() {
			break
		}
		if err := q.process(path); err != nil {
			metrics.Deletions.WithLabelValues(metrics.DeletionFailed).Inc()
			slog.Warn("Deletion failed, keeping it queued", "path", path, "error", err)
			continue
		}
		q.remove(path)
	}
	return q.Len()
}

func (q *Queue) process(path string) error {
	switch {
	case !q.fs.Exists(path):
		slog.Debug("Queued path already gone", "path", path)
	case q.fs.IsDir(path):
		removed, err := q.cull(path)
		if err != nil || !removed {
			return err
		}
	default:
		if err := q.trash.Trash(path); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return err
		}
		metrics.Deletions.WithLabelValues(metrics.DeletionTrashed).Inc()
		slog.Info("Moved file to trash", "path", path)
	}
	return q.cullUpward(filepath.Dir(path))
}

// cullUpward culls dir and its parents while they end up removed. The walk
// stops at a protected root and never leaves the tree it started in.
func (q *Queue) cullUpward(dir string) error {
	for dir != "" && q.insideProtected(dir) {
		removed, err := q.cull(dir)
		if err != nil || !removed {
			return err
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return nil
		}
		dir = parent
	}
	return nil
}

// cull removes dir depth first when neither it nor any descendant holds a
// file. It reports whether dir itself is gone.
func (q *Queue) cull(dir string) (bool, error) {
	if !q.fs.Exists(dir) {
		return true, nil
	}
	entries, err := q.fs.ReadDir(dir)
	if err != nil {
		return false, err
	}
	empty := true
	for _, entry := range entries {
		if !entry.IsDir() {
			empty = false
			continue
		}
		removed, err := q.cull(filepath.Join(dir, entry.Name()))
		if err != nil {
			return false, err
		}
		if !removed {
			empty = false
		}
	}
	if !empty || q.protected(dir) {
		return false, nil
	}
	if err := q.fs.RemoveDir(dir); err != nil {
		if errors.Is(err, syscall.ENOTEMPTY) || errors.Is(err, syscall.EEXIST) {
			return false, nil
		}
		return false, err
	}
	metrics.Deletions.WithLabelValues(metrics.DeletionCulled).Inc()
	slog.Debug("Removed empty directory", "path", dir)
	return true, nil
}

func (q *Queue) protected(dir string) bool {
	dir = filepath.Clean(dir)
	if dir == filepath.Dir(dir) {
		return true
	}
	for _, root := range q.opts.ProtectedRoots {
		if strings.EqualFold(dir, root) {
			return true
		}
	}
	return false
}

// insideProtected reports whether dir sits strictly below a protected root.
// Paths outside every root are culled once but not walked upward.
func (q *Queue) insideProtected(dir string) bool {
	dir = filepath.Clean(dir)
	for _, root := range q.opts.ProtectedRoots {
		rel, err := filepath.Rel(root, dir)
		if err == nil && rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
			return true
		}
	}
	return false
}
