package api

import (
	"errors"
	"fmt"
)

// Kind classifies an upstream failure.
type Kind int

const (
	// KindUnreachable is a transport failure (network error or timeout).
	// Retryable with normal backoff.
	KindUnreachable Kind = iota

	// KindInvalidResponse is a malformed or unexpected payload. Upstream
	// sometimes returns transient garbage, so this is retryable too.
	KindInvalidResponse

	// KindNotFound means upstream rejected the instrument/exchange/currency
	// combination. Not retryable; the instrument should be suspended.
	KindNotFound

	// KindRateLimited is an explicit throttling signal. Retryable only after
	// a mandatory cool-down.
	KindRateLimited
)

func (k Kind) String() string {
	switch k {
	case KindUnreachable:
		return "unreachable"
	case KindInvalidResponse:
		return "invalid_response"
	case KindNotFound:
		return "not_found"
	case KindRateLimited:
		return "rate_limited"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Error is a normalized upstream failure.
type Error struct {
	Kind    Kind
	Status  int    // HTTP status, 0 for transport errors
	URL     string // Request URL
	Message string
	Err     error // Underlying cause, may be nil
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("upstream %s", e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (HTTP %d)", e.Status)
	}
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.URL != "" {
		msg += " for " + e.URL
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Retryable reports whether the scheduler may retry after this error.
// Rate limiting is retryable but only after the mandatory cool-down.
func (e *Error) Retryable() bool {
	return e.Kind != KindNotFound
}

// ErrKind extracts the Kind from an error chain. Unclassified errors are
// treated as unreachable so callers never retry less than they should.
func ErrKind(err error) Kind {
	var apiErr *Error
	if errors.As(err, &apiErr) {
		return apiErr.Kind
	}
	return KindUnreachable
}
