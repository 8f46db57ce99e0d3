// Package errors provides kind-tagged errors for the decision engine.
// Kinds carry the propagation policy: configuration faults fail fast,
// store faults are retryable once, lookup misses fall back to defaults.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error functions re-exported for convenience.
var (
	Is     = errors.Is
	As     = errors.As
	Join   = errors.Join
	Unwrap = errors.Unwrap
)

// Kind classifies an engine error.
type Kind string

const (
	// KindNotFound: entity absent from the relationship store. Callers
	// fall back to documented defaults rather than failing.
	KindNotFound Kind = "not_found"
	// KindStoreUnavailable: the relationship store is unreachable.
	// Retried once with a fresh session before being surfaced.
	KindStoreUnavailable Kind = "store_unavailable"
	// KindModelUnavailable: model artifact missing or corrupt. Fails
	// fast; never retried, never defaulted.
	KindModelUnavailable Kind = "model_unavailable"
	// KindInvalidFeatureVector: dimensionality or field-order mismatch
	// against the model contract. Fails fast.
	KindInvalidFeatureVector Kind = "invalid_feature_vector"
	// KindInvalidCountryCode: unrecognized ISO code. Logged as a
	// warning; lookup falls back to medium risk.
	KindInvalidCountryCode Kind = "invalid_country_code"
	// KindInvalidInput: malformed request rejected at the boundary.
	KindInvalidInput Kind = "invalid_input"
	// KindTimeout: per-entity soft budget exceeded.
	KindTimeout Kind = "timeout"
)

// Error is a kind-tagged error with an optional wrapped cause.
type Error struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`

	cause error
}

var _ error = (*Error)(nil)

func (e *Error) Error() string {
	if e.cause != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.cause)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *Error) Unwrap() error { return e.cause }

// Is matches errors by kind so sentinel comparisons work across wraps.
func (e *Error) Is(target error) bool {
	var other *Error
	if errors.As(target, &other) {
		return e.Kind == other.Kind
	}
	return false
}

// New builds a kind-tagged error.
func New(kind Kind, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a kind and message to an underlying cause.
func Wrap(kind Kind, cause error, format string, args ...any) *Error {
	return &Error{Kind: kind, Message: fmt.Sprintf(format, args...), cause: cause}
}

// KindOf extracts the kind of err, or "" when err carries none.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool { return KindOf(err) == kind }

// Retryable reports whether one retry with a fresh store session is
// warranted. Only transient store connectivity qualifies.
func Retryable(err error) bool { return IsKind(err, KindStoreUnavailable) }

// HTTPStatus maps an error kind to the status the API layer responds
// with.
func HTTPStatus(err error) int {
	switch KindOf(err) {
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindInvalidCountryCode:
		return http.StatusBadRequest
	case KindInvalidFeatureVector, KindModelUnavailable:
		return http.StatusUnprocessableEntity
	case KindStoreUnavailable:
		return http.StatusServiceUnavailable
	case KindTimeout:
		return http.StatusGatewayTimeout
	default:
		return http.StatusInternalServerError
	}
}
