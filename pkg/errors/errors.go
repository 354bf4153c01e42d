// Package errors provides the kind-tagged error type used across the
// slippage engine. Upstream price/liquidity degradation is deliberately NOT
// part of this taxonomy: those failures are absorbed inside the oracle and
// resolver and never become error values.
package errors

import (
	"errors"
	"fmt"
	"net/http"
)

// Standard error functions
var (
	Is     = errors.Is
	As     = errors.As
	Unwrap = errors.Unwrap
)

// Error kinds, mirroring the engine's propagation policy: invalid input and
// collaborator unavailability escalate immediately, everything unexpected is
// reported as a generic internal fault.
const (
	KindInvalidInput            = "invalid_input"
	KindCollaboratorUnavailable = "collaborator_unavailable"
	KindInternal                = "internal"
)

// Error is a kind-tagged error carrying a caller-safe message.
type Error struct {
	Kind    string `json:"kind"`
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

func (e *Error) Unwrap() error { return e.cause }

// InvalidInput reports a client-side validation failure.
func InvalidInput(format string, args ...any) *Error {
	return &Error{Kind: KindInvalidInput, Message: fmt.Sprintf(format, args...)}
}

// Unavailable reports an unreachable collaborator service.
func Unavailable(message string, cause error) *Error {
	return &Error{Kind: KindCollaboratorUnavailable, Message: message, cause: cause}
}

// Internal wraps an unexpected failure. The cause is kept for logging but the
// message is what callers are allowed to see.
func Internal(cause error) *Error {
	return &Error{Kind: KindInternal, Message: "an internal error occurred during slippage calculation", cause: cause}
}

// Kind extracts the kind tag from err, defaulting to KindInternal for
// anything outside the taxonomy.
func Kind(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindInternal
}

// Message returns the caller-safe message for err. Raw error text from
// unexpected failures is never exposed.
func Message(err error) string {
	var e *Error
	if errors.As(err, &e) {
		return e.Message
	}
	return "an internal error occurred during slippage calculation"
}

// HTTPStatus maps an error to the status code the API layer should return.
func HTTPStatus(err error) int {
	switch Kind(err) {
	case KindInvalidInput:
		return http.StatusBadRequest
	case KindCollaboratorUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}
