package trash

import (
	"errors"
	"fmt"
	"log/slog"
	"net/url"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/contre95/soulwrite/src/infra/files"
)

const maxNameAttempts = 1000

// Trash moves files into a freedesktop.org style trash directory so a
// deletion can be undone from any file manager.
type Trash struct {
	root string
	fs   *files.FileSystem
	now  func() time.Time
}

// New creates a trash rooted at root. An empty root means the user's home trash.
func New(root string) (*Trash, error) {
	if root == "" {
		dataHome := os.Getenv("XDG_DATA_HOME")
		if dataHome == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, fmt.Errorf("failed to locate home directory: %w", err)
			}
			dataHome = filepath.Join(home, ".local", "share")
		}
		root = filepath.Join(dataHome, "Trash")
	}
	for _, dir := range []string{filepath.Join(root, "files"), filepath.Join(root, "info")} {
		if err := os.MkdirAll(dir, 0o700); err != nil {
			return nil, fmt.Errorf("failed to create trash directory %s: %w", dir, err)
		}
	}
	return &Trash{root: root, fs: files.NewFileSystem(), now: time.Now}, nil
}

// Root returns the trash directory.
func (t *Trash) Root() string {
	return t.root
}

// Trash moves path into the trash. A missing path returns an error wrapping os.ErrNotExist.
func (t *Trash) Trash(path string) error {
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if _, err := os.Lstat(abs); err != nil {
		return files.Classify(err)
	}

	name, infoPath, err := t.reserve(abs)
	if err != nil {
		return err
	}
	target := filepath.Join(t.root, "files", name)

	if err := os.Rename(abs, target); err != nil {
		var linkErr *os.LinkError
		if errors.As(err, &linkErr) && errors.Is(linkErr.Err, syscall.EXDEV) {
			err = t.copyAcross(abs, target)
		}
		if err != nil {
			_ = os.Remove(infoPath)
			return files.Classify(fmt.Errorf("failed to move %s to trash: %w", abs, err))
		}
	}

	slog.Debug("Moved to trash", "path", abs, "trashed", target)
	return nil
}

// reserve claims a unique name by creating its .trashinfo file exclusively.
func (t *Trash) reserve(abs string) (string, string, error) {
	base := filepath.Base(abs)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	info := fmt.Sprintf("[Trash Info]\nPath=%s\nDeletionDate=%s\n",
		(&url.URL{Path: abs}).EscapedPath(),
		t.now().Format("2006-01-02T15:04:05"))

	for attempt := 0; attempt < maxNameAttempts; attempt++ {
		name := base
		if attempt > 0 {
			name = stem + "." + strconv.Itoa(attempt) + ext
		}
		infoPath := filepath.Join(t.root, "info", name+".trashinfo")
		f, err := os.OpenFile(infoPath, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return "", "", files.Classify(err)
		}
		_, werr := f.WriteString(info)
		cerr := f.Close()
		if werr != nil || cerr != nil {
			_ = os.Remove(infoPath)
			return "", "", files.Classify(errors.Join(werr, cerr))
		}
		return name, infoPath, nil
	}
	return "", "", fmt.Errorf("exhausted trash name slots for %s", base)
}

func (t *Trash) copyAcross(src, dst string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return err
	}
	if info.IsDir() {
		return fmt.Errorf("cannot move directory %s across volumes", src)
	}
	if err := t.fs.Copy(src, dst); err != nil {
		return err
	}
	return os.Remove(src)
}
