package resource

import "errors"

// ErrMemoryLimitExceeded is returned when a single request exceeds the memory limit.
var ErrMemoryLimitExceeded = errors.New("memory limit exceeded")
