// Package errs defines the error taxonomy shared by the dialogue core.
//
// Every error carries a stable kind so the transport layer can map it to a
// status code and callers can decide whether a retry makes sense without
// string matching.
package errs

import (
	"errors"
	"fmt"
	"net/http"
)

// Kind identifies a class of error.
type Kind string

const (
	KindSessionNotFound Kind = "session_not_found"
	KindLLM             Kind = "llm_error"
	KindLLMRateLimit    Kind = "llm_rate_limit"
	KindLLMTimeout      Kind = "llm_timeout"
	KindValidation      Kind = "validation_error"
)

// Error is the application error type.
type Error struct {
	Kind    Kind
	Message string
	wrapped error
}

func (e *Error) Error() string {
	if e.wrapped != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.wrapped)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.wrapped
}

// Is matches errors by kind, so errors.Is(err, &Error{Kind: KindLLM})
// and the sentinel helpers below both work through wrapping.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}
	return e.Kind == t.Kind
}

// StatusCode returns the HTTP status the transport layer should use.
func (e *Error) StatusCode() int {
	switch e.Kind {
	case KindSessionNotFound:
		return http.StatusNotFound
	case KindLLMRateLimit:
		return http.StatusTooManyRequests
	case KindLLMTimeout:
		return http.StatusGatewayTimeout
	case KindValidation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// Retryable reports whether callers may retry the failed operation.
// Only transient provider failures qualify.
func (e *Error) Retryable() bool {
	return e.Kind == KindLLMRateLimit || e.Kind == KindLLMTimeout
}

// SessionNotFound builds a session-not-found error for the given id.
func SessionNotFound(sessionID string) *Error {
	return &Error{Kind: KindSessionNotFound, Message: fmt.Sprintf("session %s not found", sessionID)}
}

// LLM wraps a generic provider failure.
func LLM(msg string, err error) *Error {
	return &Error{Kind: KindLLM, Message: msg, wrapped: err}
}

// LLMRateLimit wraps a provider rate-limit failure.
func LLMRateLimit(err error) *Error {
	return &Error{Kind: KindLLMRateLimit, Message: "llm rate limit exceeded", wrapped: err}
}

// LLMTimeout wraps a provider timeout.
func LLMTimeout(err error) *Error {
	return &Error{Kind: KindLLMTimeout, Message: "llm request timed out", wrapped: err}
}

// Validation builds a validation error.
func Validation(msg string) *Error {
	return &Error{Kind: KindValidation, Message: msg}
}

// KindOf extracts the kind from any error, or "" for foreign errors.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return ""
}

// IsKind reports whether err carries the given kind.
func IsKind(err error, kind Kind) bool {
	return KindOf(err) == kind
}

// IsRetryable reports whether err is a transient provider failure.
func IsRetryable(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Retryable()
	}
	return false
}
