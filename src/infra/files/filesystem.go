package files

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// FileSystem is the infrastructure implementation of the music.FileSystem interface.
// Every error it returns has gone through Classify.
type FileSystem struct{}

// NewFileSystem creates a new local filesystem adapter.
func NewFileSystem() *FileSystem {
	return &FileSystem{}
}

// Exists reports whether something exists at path.
func (f *FileSystem) Exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// IsDir reports whether path is a directory.
func (f *FileSystem) IsDir(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.IsDir()
}

// IsReadOnly reports whether the owner write bit is missing.
func (f *FileSystem) IsReadOnly(path string) (bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		return false, Classify(err)
	}
	return info.Mode().Perm()&0o200 == 0, nil
}

// ClearReadOnly adds the owner write bit.
func (f *FileSystem) ClearReadOnly(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return Classify(err)
	}
	if err := os.Chmod(path, info.Mode().Perm()|0o200); err != nil {
		return Classify(err)
	}
	return nil
}

// SameVolume compares the devices of src and of the closest existing parent of dst.
func (f *FileSystem) SameVolume(src, dst string) (bool, error) {
	srcDev, err := device(src)
	if err != nil {
		return false, Classify(err)
	}
	dstDev, err := device(existingParent(dst))
	if err != nil {
		return false, Classify(err)
	}
	return srcDev == dstDev, nil
}

// Move renames src to dst. An existing dst is never replaced.
func (f *FileSystem) Move(src, dst string) error {
	err := unix.Renameat2(unix.AT_FDCWD, src, unix.AT_FDCWD, dst, unix.RENAME_NOREPLACE)
	if errors.Is(err, unix.ENOSYS) || errors.Is(err, unix.EINVAL) {
		// Filesystem without RENAME_NOREPLACE support.
		if f.Exists(dst) {
			return Classify(&os.LinkError{Op: "rename", Old: src, New: dst, Err: fs.ErrExist})
		}
		err = os.Rename(src, dst)
		if err == nil {
			return nil
		}
		return Classify(err)
	}
	if err != nil {
		return Classify(&os.LinkError{Op: "rename", Old: src, New: dst, Err: err})
	}
	return nil
}

// Copy copies src to a new file dst and verifies the result.
func (f *FileSystem) Copy(src, dst string) error {
	if err := copyFileVerified(src, dst); err != nil {
		return Classify(fmt.Errorf("copy %s to %s: %w", src, dst, err))
	}
	return nil
}

// MkdirAll creates path and its parents.
func (f *FileSystem) MkdirAll(path string) error {
	if err := os.MkdirAll(path, 0o755); err != nil {
		return Classify(err)
	}
	return nil
}

// ReadDir lists a directory.
func (f *FileSystem) ReadDir(path string) ([]fs.DirEntry, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		return nil, Classify(err)
	}
	return entries, nil
}

// RemoveDir removes an empty directory. It never removes a file.
func (f *FileSystem) RemoveDir(path string) error {
	if err := unix.Rmdir(path); err != nil {
		return Classify(&os.PathError{Op: "rmdir", Path: path, Err: err})
	}
	return nil
}

func device(path string) (uint64, error) {
	var st unix.Stat_t
	if err := unix.Stat(path, &st); err != nil {
		return 0, &os.PathError{Op: "stat", Path: path, Err: err}
	}
	return uint64(st.Dev), nil
}

// existingParent walks up from path until it finds something that exists.
func existingParent(path string) string {
	for {
		if _, err := os.Stat(path); err == nil {
			return path
		}
		parent := filepath.Dir(path)
		if parent == path {
			return path
		}
		path = parent
	}
}
