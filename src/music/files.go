package music

import (
	"io/fs"
)

// FileSystem is the set of filesystem calls used by the write-back pipeline.
type FileSystem interface {
	Exists(path string) bool
	IsDir(path string) bool
	IsReadOnly(path string) (bool, error)
	// ClearReadOnly makes the file writable by its owner.
	ClearReadOnly(path string) error
	// SameVolume reports whether both paths live on the same device.
	// The destination may not exist yet; its closest existing parent is used.
	SameVolume(src, dst string) (bool, error)
	// Move renames src to dst without replacing an existing dst.
	Move(src, dst string) error
	// Copy copies src to dst, failing if dst exists.
	Copy(src, dst string) error
	MkdirAll(path string) error
	ReadDir(path string) ([]fs.DirEntry, error)
	// RemoveDir removes an empty directory.
	RemoveDir(path string) error
}

// Trasher performs a reversible delete.
type Trasher interface {
	Trash(path string) error
}
