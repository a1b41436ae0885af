package watcher

import (
	"context"
	"errors"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/contre95/soulwrite/src/music"
	"github.com/fsnotify/fsnotify"
)

const defaultDebounce = 5 * time.Second

// Library is the part of the index the watcher updates.
type Library interface {
	FindTrackByPath(ctx context.Context, path string) (*music.Track, error)
	MarkDeleted(ctx context.Context, id string) error
}

// Watcher monitors the library tree and removes tracks whose file was
// deleted or moved away by another program.
type Watcher struct {
	watcher  *fsnotify.Watcher
	library  Library
	debounce time.Duration

	mu      sync.Mutex
	timers  map[string]*time.Timer
	running bool
	stop    chan struct{}
	done    chan struct{}
}

// NewWatcher creates a new file system watcher
func NewWatcher(library Library, debounce time.Duration) (*Watcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &Watcher{
		watcher:  watcher,
		library:  library,
		debounce: debounce,
		timers:   make(map[string]*time.Timer),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}, nil
}

// Start watches root and every directory below it.
func (w *Watcher) Start(ctx context.Context, root string) error {
	slog.Info("Starting file watcher", "path", root)
	if err := w.addTree(root); err != nil {
		return err
	}

	w.mu.Lock()
	w.running = true
	w.mu.Unlock()

	go w.watchLoop(ctx)
	return nil
}

// Stop stops the file watcher and drops pending checks.
func (w *Watcher) Stop() {
	w.mu.Lock()
	if !w.running {
		w.mu.Unlock()
		return
	}
	w.running = false
	for path, timer := range w.timers {
		timer.Stop()
		delete(w.timers, path)
	}
	w.mu.Unlock()

	slog.Info("Stopping file watcher")
	close(w.stop)
	w.watcher.Close()
	<-w.done
}

func (w *Watcher) addTree(root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			slog.Warn("Skipping unreadable directory", "path", path, "error", err)
			return fs.SkipDir
		}
		if !d.IsDir() {
			return nil
		}
		if err := w.watcher.Add(path); err != nil {
			slog.Warn("Failed to watch directory", "path", path, "error", err)
		}
		return nil
	})
}

func (w *Watcher) watchLoop(ctx context.Context) {
	defer close(w.done)
	for {
		select {
		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(ctx, event)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("File watcher error", "error", err)

		case <-w.stop:
			return

		case <-ctx.Done():
			return
		}
	}
}

func (w *Watcher) handleEvent(ctx context.Context, event fsnotify.Event) {
	switch {
	case event.Has(fsnotify.Create):
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			if err := w.addTree(event.Name); err != nil {
				slog.Warn("Failed to watch new directory", "path", event.Name, "error", err)
			}
		}
	case event.Has(fsnotify.Remove), event.Has(fsnotify.Rename):
		if isSupportedFile(event.Name) {
			w.schedule(ctx, event.Name)
		}
	}
}

// schedule checks path once the debounce period passes without a new event
// for it. Saving a file through a temp file and rename shows up as a
// removal followed by a create.
func (w *Watcher) schedule(ctx context.Context, path string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	if !w.running {
		return
	}
	if timer, ok := w.timers[path]; ok {
		timer.Stop()
	}
	w.timers[path] = time.AfterFunc(w.debounce, func() {
		w.mu.Lock()
		delete(w.timers, path)
		w.mu.Unlock()
		w.verify(ctx, path)
	})
}

// verify marks the track at path deleted if the file is still gone.
func (w *Watcher) verify(ctx context.Context, path string) {
	if _, err := os.Lstat(path); !errors.Is(err, fs.ErrNotExist) {
		return
	}
	track, err := w.library.FindTrackByPath(ctx, path)
	if err != nil {
		if !errors.Is(err, music.ErrTrackNotFound) {
			slog.Error("Failed to look up removed file", "path", path, "error", err)
		}
		return
	}
	if err := w.library.MarkDeleted(ctx, track.ID); err != nil {
		slog.Error("Failed to remove track from library", "trackID", track.ID, "path", path, "error", err)
		return
	}
	slog.Info("Track file removed outside the library", "trackID", track.ID, "path", path)
}

func isSupportedFile(filePath string) bool {
	switch strings.ToLower(filepath.Ext(filePath)) {
	case ".mp3", ".flac":
		return true
	}
	return false
}
