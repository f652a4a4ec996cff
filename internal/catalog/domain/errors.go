package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound       = errors.New("resource not found")
	ErrForbidden      = errors.New("action forbidden")
	ErrUnauthorized   = errors.New("authentication required")
	ErrInvalidInput   = errors.New("invalid input")
	ErrRateLimited    = errors.New("too many requests")
	ErrObjectNotFound = errors.New("storage object not found")
	ErrCacheMiss      = errors.New("cache miss")
	ErrStorage        = errors.New("storage failure")
)

// UploadShortfallError is returned when a batch of image uploads produced
// fewer successes than the operation requires.
type UploadShortfallError struct {
	Succeeded int
	Attempted int
	Required  int
}

func (e *UploadShortfallError) Error() string {
	return fmt.Sprintf("only %d of %d images uploaded, at least %d required", e.Succeeded, e.Attempted, e.Required)
}

// Invalid wraps ErrInvalidInput with a field-specific message.
func Invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
