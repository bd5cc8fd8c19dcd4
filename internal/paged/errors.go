package paged

import (
	"errors"
	"fmt"
)

var (
	// ErrIO is returned when an underlying file or mapping call fails.
	// The file should be treated as unusable and closed.
	ErrIO = errors.New("colstore: i/o failure")

	// ErrIndexOutOfBounds is returned when a record beyond the committed size is requested.
	ErrIndexOutOfBounds = errors.New("colstore: index out of bounds")

	// ErrInvalidArgument is returned on caller contract violations.
	ErrInvalidArgument = errors.New("colstore: invalid argument")

	// ErrInvalidSize is returned when the committed/appended invariant would be
	// violated or persisted sizes are inconsistent. It indicates corruption and
	// is never repaired silently.
	ErrInvalidSize = errors.New("colstore: invalid size")

	// ErrReadBeyondCommitted is returned when a read-mode accessor touches bytes
	// that were never committed. Callers may Refresh and retry.
	ErrReadBeyondCommitted = errors.New("colstore: read beyond committed size")

	// ErrClosed is returned when using a closed file or column.
	ErrClosed = errors.New("colstore: closed")

	// ErrReadOnly is returned when writing through a read-mode handle.
	ErrReadOnly = errors.New("colstore: read-only")

	// ErrLocked is returned when another writer holds the file open in append mode.
	ErrLocked = errors.New("colstore: locked by another writer")
)

func ioError(op, path string, err error) error {
	return fmt.Errorf("%w: %s %s: %w", ErrIO, op, path, err)
}
