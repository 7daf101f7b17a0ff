package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidArgument reports caller input that can never succeed.
	ErrInvalidArgument = errors.New("invalid argument")
	// ErrNotFound reports a missing dog, location or match.
	ErrNotFound = errors.New("not found")
	// ErrUnauthorized reports a missing or expired session.
	ErrUnauthorized = errors.New("unauthorized")
	// ErrUpstream reports a failure of the dog adoption API.
	ErrUpstream = errors.New("upstream error")
)

// InvalidArgument wraps ErrInvalidArgument with a formatted reason.
func InvalidArgument(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrInvalidArgument, fmt.Sprintf(format, args...))
}

// UpstreamError is returned when the dog adoption API answers with a
// non-2xx status.
type UpstreamError struct {
	Endpoint string
	Status   int
	Body     string
}

func (e *UpstreamError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("upstream %s: status %d", e.Endpoint, e.Status)
	}
	return fmt.Sprintf("upstream %s: status %d: %s", e.Endpoint, e.Status, e.Body)
}

func (e *UpstreamError) Unwrap() error { return ErrUpstream }
