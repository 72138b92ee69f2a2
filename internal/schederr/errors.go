// Package schederr defines the typed error kinds the scheduler core
// surfaces to its callers. The out-of-scope HTTP/JSON transport layer maps
// these onto status codes (validation -> 400, not-found -> 404, internal ->
// 500); the core itself never knows about HTTP.
package schederr

import (
	"errors"
	"fmt"
)

// Kind classifies a scheduler error.
type Kind string

const (
	// KindValidation covers missing/invalid inputs and illegal state
	// transitions (empty command, non-positive resources, pausing a
	// non-running job, rerunning a non-terminal job, ...).
	KindValidation Kind = "validation"
	// KindNotFound covers operations referencing an unknown host or job.
	KindNotFound Kind = "not_found"
	// KindInternal covers unexpected conditions; state remains consistent
	// because all mutations happen under the scheduler's lock.
	KindInternal Kind = "internal"
)

// Error is the scheduler's single error type. Callers should use
// errors.As to recover the Kind rather than comparing error strings.
type Error struct {
	Kind    Kind
	Message string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

func (e *Error) Unwrap() error { return e.Cause }

// Is allows errors.Is(err, schederr.NotFound("")) style kind checks by
// comparing only the Kind field.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// Validation builds a validation-kind error.
func Validation(format string, args ...any) *Error {
	return &Error{Kind: KindValidation, Message: fmt.Sprintf(format, args...)}
}

// NotFound builds a not-found-kind error.
func NotFound(format string, args ...any) *Error {
	return &Error{Kind: KindNotFound, Message: fmt.Sprintf(format, args...)}
}

// Internal builds an internal-kind error, optionally wrapping a cause.
func Internal(cause error, format string, args ...any) *Error {
	return &Error{Kind: KindInternal, Message: fmt.Sprintf(format, args...), Cause: cause}
}

// IsKind reports whether err is a *Error of the given kind.
func IsKind(err error, k Kind) bool {
	var se *Error
	if !errors.As(err, &se) {
		return false
	}
	return se.Kind == k
}
