package music

import (
	"context"
	"time"
)

// TagWriteOptions selects what the tag writer persists.
type TagWriteOptions struct {
	Tags    bool
	Artwork bool
}

// TagWriter persists metadata and embedded artwork into an audio file.
type TagWriter interface {
	WriteFileTags(ctx context.Context, path string, fields Fields, opts TagWriteOptions) error
}

// TagReader reads the tags of an audio file.
type TagReader interface {
	ReadFileTags(ctx context.Context, path string) (Fields, error)
}

// Dispatcher is the generic scheduling facility used for background work.
type Dispatcher interface {
	// Go runs fn on a new background worker.
	Go(name string, fn func())
	// AfterFunc runs fn once after d. The returned func cancels it.
	AfterFunc(name string, d time.Duration, fn func()) (stop func() bool)
}
