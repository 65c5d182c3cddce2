package store

import "errors"

// ErrStorageUnavailable marks a cursor or archive write path that could not
// reach its backing store. It aborts the current tick; the scheduler retries
// on the next trigger.
var ErrStorageUnavailable = errors.New("storage unavailable")
