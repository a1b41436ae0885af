package files

import (
	"errors"
	"fmt"
	"syscall"

	"github.com/contre95/soulwrite/src/music"
)

// busyErrors mean another process holds the file; the same call will likely
// succeed later.
var busyErrors = []error{
	syscall.EBUSY,
	syscall.ETXTBSY,
	syscall.EAGAIN,
	syscall.EDEADLK,
}

// transientErrors mean the volume is unavailable or full.
var transientErrors = []error{
	syscall.EIO,
	syscall.ENOSPC,
	syscall.EDQUOT,
	syscall.ETIMEDOUT,
	syscall.ENODEV,
	syscall.ENOTCONN,
	syscall.EHOSTDOWN,
	syscall.EHOSTUNREACH,
	syscall.ESTALE,
	syscall.EINTR,
}

// Classify wraps err with music.ErrFileBusy or music.ErrTransient when the
// underlying errno says a retry makes sense. Other errors are returned as is.
func Classify(err error) error {
	if err == nil {
		return nil
	}
	if music.IsRetryable(err) {
		return err
	}
	for _, target := range busyErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", music.ErrFileBusy, err)
		}
	}
	for _, target := range transientErrors {
		if errors.Is(err, target) {
			return fmt.Errorf("%w: %w", music.ErrTransient, err)
		}
	}
	return err
}
