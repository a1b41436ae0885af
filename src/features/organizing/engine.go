package organizing

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"

	"github.com/contre95/soulwrite/src/features/metrics"
	"github.com/contre95/soulwrite/src/features/naming"
	"github.com/contre95/soulwrite/src/music"
)

// maxSuffix is the last disambiguation digit tried before giving up.
const maxSuffix = 9

// Outcome describes what an organize pass did to the file.
type Outcome string

const (
	Unchanged    Outcome = "unchanged"
	Moved        Outcome = "moved"
	Copied       Outcome = "copied"
	Collision    Outcome = "collision"
	NotContained Outcome = "not_contained"
	Failed       Outcome = "failed"
)

// Result is returned by Organize.
type Result struct {
	Outcome Outcome `json:"outcome"`
	From    string  `json:"from"`
	To      string  `json:"to"`
}

// Options configures where organized files go.
type Options struct {
	LibraryRoot     string
	DirectoryFormat music.DirectoryFormat
}

// Enqueuer receives paths left behind by a move.
type Enqueuer interface {
	Enqueue(path string) bool
}

// Engine renames and moves files according to the naming formats.
type Engine struct {
	fs        music.FileSystem
	catalog   *naming.Catalog
	deletions Enqueuer

	mu   sync.RWMutex
	opts Options
}

// NewEngine creates a new organize engine.
func NewEngine(fs music.FileSystem, catalog *naming.Catalog, deletions Enqueuer, opts Options) *Engine {
	e := &Engine{fs: fs, catalog: catalog, deletions: deletions}
	e.SetOptions(opts)
	return e
}

// SetOptions replaces the engine options, used when the config changes.
func (e *Engine) SetOptions(opts Options) {
	if opts.LibraryRoot != "" {
		opts.LibraryRoot = filepath.Clean(opts.LibraryRoot)
	}
	e.mu.Lock()
	defer e.mu.Unlock()
	e.opts = opts
}

func (e *Engine) options() Options {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return e.opts
}

// PreviewFinalPath returns where the track would end up with the given
// formats. It touches neither the filesystem nor the track.
func (e *Engine) PreviewFinalPath(track *music.Track, dirFormat music.DirectoryFormat, renameFormat music.RenameFormat) string {
	return e.targetPath(track, dirFormat != music.DirectoryNone, dirFormat, renameFormat, e.options().LibraryRoot)
}

func (e *Engine) targetPath(track *music.Track, move bool, dirFormat music.DirectoryFormat, renameFormat music.RenameFormat, root string) string {
	current := track.Path()
	name := e.catalog.Rename(track, renameFormat)
	if name == "" {
		name = filepath.Base(current)
	}
	dir := filepath.Dir(current)
	if move && root != "" && dirFormat != music.DirectoryNone {
		if sub := e.catalog.DirectoryPath(track, dirFormat); sub != "" {
			dir = filepath.Join(root, sub)
		}
	}
	return filepath.Join(dir, name)
}

// Organize applies the pending Rename and Move changes of the track.
// Rename, Move and IgnoreContainment are cleared once the pass concludes,
// except on retryable filesystem errors which leave them set. An edit made
// while the pass runs also keeps them set so the next pass picks it up.
// A Move with no directory format, or one whose fields are all empty,
// keeps the current directory.
func (e *Engine) Organize(ctx context.Context, track *music.Track) (Result, error) {
	pending, gen := track.Snapshot()
	oldPath := track.Path()
	result := Result{Outcome: Unchanged, From: oldPath, To: oldPath}

	if !pending.Has(music.ChangeRename) && !pending.Has(music.ChangeMove) {
		track.ClearPendingAt(gen, music.ChangeIgnoreContainment)
		return result, nil
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}

	opts := e.options()
	move := pending.Has(music.ChangeMove)
	renameFormat := music.RenameNone
	if pending.Has(music.ChangeRename) {
		renameFormat = track.RenameFormat()
	}
	target := e.targetPath(track, move, opts.DirectoryFormat, renameFormat, opts.LibraryRoot)
	logger := slog.With("track", track.ID, "from", oldPath)

	if target == oldPath {
		return e.conclude(track, gen, result), nil
	}
	if alreadyDisambiguated(oldPath, target) && e.fs.Exists(target) {
		logger.Debug("Name already carries a disambiguation digit, leaving it", "to", target)
		return e.conclude(track, gen, result), nil
	}

	if !move && !pending.Has(music.ChangeIgnoreContainment) && !contains(opts.LibraryRoot, oldPath) {
		logger.Info("File is outside the library, not renaming it", "library", opts.LibraryRoot)
		result.Outcome = NotContained
		return e.conclude(track, gen, result), nil
	}

	dest, ok := e.freeName(oldPath, target)
	if !ok {
		logger.Warn("Every disambiguated name is taken, leaving the file in place", "to", target, "error", music.ErrCollision)
		result.Outcome = Collision
		return e.conclude(track, gen, result), nil
	}
	if dest == oldPath {
		return e.conclude(track, gen, result), nil
	}

	outcome, err := e.relocate(oldPath, dest)
	if err != nil {
		if music.IsRetryable(err) {
			logger.Warn("Could not organize file yet, will retry", "to", dest, "error", err)
			metrics.OrganizeOutcomes.WithLabelValues(metrics.OrganizeFailed).Inc()
			result.Outcome = Failed
			return result, err
		}
		logger.Error("Could not organize file, giving up on it", "to", dest, "error", err)
		result.Outcome = Failed
		return e.conclude(track, gen, result), fmt.Errorf("failed to organize %s: %w", oldPath, err)
	}

	track.SetPath(dest)
	if oldDir := filepath.Dir(oldPath); oldDir != filepath.Dir(dest) {
		e.deletions.Enqueue(oldDir)
	}
	result.Outcome = outcome
	result.To = dest
	logger.Info("Organized file", "to", dest, "outcome", outcome)
	return e.conclude(track, gen, result), nil
}

func (e *Engine) conclude(track *music.Track, gen uint64, result Result) Result {
	if !track.ClearPendingAt(gen, music.ChangeOrganize) {
		slog.Debug("Track was edited while organizing, keeping its flags", "track", track.ID)
	}
	switch result.Outcome {
	case Moved:
		metrics.OrganizeOutcomes.WithLabelValues(metrics.OrganizeMoved).Inc()
	case Copied:
		metrics.OrganizeOutcomes.WithLabelValues(metrics.OrganizeCopied).Inc()
	case Collision:
		metrics.OrganizeOutcomes.WithLabelValues(metrics.OrganizeCollision).Inc()
	case Failed:
		metrics.OrganizeOutcomes.WithLabelValues(metrics.OrganizeFailed).Inc()
	default:
		metrics.OrganizeOutcomes.WithLabelValues(metrics.OrganizeUnchanged).Inc()
	}
	return result
}

// freeName returns target, or target with a digit 1-9 appended to its base
// name, whichever is free first.
func (e *Engine) freeName(oldPath, target string) (string, bool) {
	if !e.fs.Exists(target) {
		return target, true
	}
	ext := filepath.Ext(target)
	stem := strings.TrimSuffix(target, ext)
	for i := 1; i <= maxSuffix; i++ {
		candidate := stem + strconv.Itoa(i) + ext
		if candidate == oldPath {
			return oldPath, true
		}
		if !e.fs.Exists(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// relocate moves src to dst. Across volumes, or when the in-place move fails,
// the file is copied and src is queued for deletion.
func (e *Engine) relocate(src, dst string) (Outcome, error) {
	if err := e.fs.MkdirAll(filepath.Dir(dst)); err != nil {
		return Failed, err
	}
	same, err := e.fs.SameVolume(src, dst)
	if err != nil {
		return Failed, err
	}
	if same {
		moveErr := e.fs.Move(src, dst)
		if moveErr == nil {
			return Moved, nil
		}
		slog.Debug("Move failed, copying instead", "from", src, "to", dst, "error", moveErr)
	}
	if err := e.fs.Copy(src, dst); err != nil {
		return Failed, err
	}
	e.deletions.Enqueue(src)
	return Copied, nil
}

// alreadyDisambiguated reports whether oldPath is newPath with one trailing
// digit 1-9 added to the base name.
func alreadyDisambiguated(oldPath, newPath string) bool {
	ext := filepath.Ext(newPath)
	if filepath.Ext(oldPath) != ext {
		return false
	}
	oldStem := strings.TrimSuffix(oldPath, ext)
	newStem := strings.TrimSuffix(newPath, ext)
	if len(oldStem) != len(newStem)+1 || !strings.HasPrefix(oldStem, newStem) {
		return false
	}
	last := oldStem[len(oldStem)-1]
	return last >= '1' && last <= '9'
}

func contains(root, path string) bool {
	if root == "" {
		return false
	}
	rel, err := filepath.Rel(root, path)
	if err != nil {
		return false
	}
	return rel != "." && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
