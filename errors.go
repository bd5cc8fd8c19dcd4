package colstore

import "github.com/hupe1980/colstore/column"

// Errors returned by column handles. Every error is wrapped so errors.Is
// matches both the sentinel and the underlying cause.
var (
	// ErrIO wraps a failed system call.
	ErrIO = column.ErrIO
	// ErrIndexOutOfBounds is returned for record indexes outside [0, Size).
	ErrIndexOutOfBounds = column.ErrIndexOutOfBounds
	// ErrInvalidArgument is returned for malformed arguments such as a value
	// whose width differs from the column width.
	ErrInvalidArgument = column.ErrInvalidArgument
	// ErrInvalidSize is returned when persisted sizes are inconsistent.
	ErrInvalidSize = column.ErrInvalidSize
	// ErrReadBeyondCommitted is returned when a reader touches bytes past the
	// committed extent.
	ErrReadBeyondCommitted = column.ErrReadBeyondCommitted
	// ErrClosed is returned by operations on a closed handle.
	ErrClosed = column.ErrClosed
	// ErrReadOnly is returned by writes through a read handle.
	ErrReadOnly = column.ErrReadOnly
	// ErrLocked is returned when another writer holds the column.
	ErrLocked = column.ErrLocked
)
