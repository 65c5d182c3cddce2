package source

import "fmt"

// TransientError marks a fetch failure worth retrying within the cycle:
// network errors, timeouts, 429s and 5xx responses.
type TransientError struct {
	Err error
}

func (e *TransientError) Error() string { return fmt.Sprintf("transient fetch error: %v", e.Err) }
func (e *TransientError) Unwrap() error { return e.Err }

// PermanentError marks a fetch failure that retrying cannot fix (auth
// failures and other non-retryable 4xx). The category is skipped until the
// next scheduled tick.
type PermanentError struct {
	StatusCode int
	Err        error
}

func (e *PermanentError) Error() string {
	return fmt.Sprintf("permanent fetch error (status %d): %v", e.StatusCode, e.Err)
}
func (e *PermanentError) Unwrap() error { return e.Err }
