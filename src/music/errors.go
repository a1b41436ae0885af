package music

import "errors"

var (
	// ErrFileBusy means the file is open or locked elsewhere; retry later.
	ErrFileBusy = errors.New("file is busy")
	// ErrTransient covers filesystem failures worth retrying on the next pass.
	ErrTransient = errors.New("transient filesystem error")
	ErrReadOnly  = errors.New("file is read-only")
	// ErrCollision means every disambiguation suffix is already taken.
	ErrCollision     = errors.New("no free file name")
	ErrNotContained  = errors.New("file is outside the library")
	ErrMissingSource = errors.New("file no longer exists")
	ErrTrackNotFound = errors.New("track not found")
	ErrWritingHalted = errors.New("pending writes cancelled")
)

// IsRetryable reports whether err should send a track back to the retry list.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrFileBusy) || errors.Is(err, ErrTransient)
}
