package column

import "github.com/hupe1980/colstore/internal/paged"

// Errors returned by column handles. They alias the paged file errors so that
// errors.Is matches regardless of which layer produced them.
var (
	ErrIO                  = paged.ErrIO
	ErrIndexOutOfBounds    = paged.ErrIndexOutOfBounds
	ErrInvalidArgument     = paged.ErrInvalidArgument
	ErrInvalidSize         = paged.ErrInvalidSize
	ErrReadBeyondCommitted = paged.ErrReadBeyondCommitted
	ErrClosed              = paged.ErrClosed
	ErrReadOnly            = paged.ErrReadOnly
	ErrLocked              = paged.ErrLocked
)
