// Package nkerrors defines the unified error taxonomy for the request
// engine. Every error the request pipeline (gate, cache, retry, executor)
// raises carries one of the Kind values below so callers and the retry
// engine can classify failures without parsing strings. The orchestrator's
// graph-validation, layer-failure and result-extraction errors are
// separate types.
package nkerrors

import (
	"errors"
	"fmt"
)

// Kind identifies the category of a NetworkError.
type Kind string

const (
	// KindCancelled is raised when cancellation is observed at any
	// suspension point. Never retryable.
	KindCancelled Kind = "cancelled"
	// KindTimeout is raised when a per-attempt or total deadline elapses.
	KindTimeout Kind = "timeout"
	// KindNoNetwork is raised when the transport reports missing
	// connectivity.
	KindNoNetwork Kind = "no_network"
	// KindServerError is raised for any HTTP status outside the 2xx range.
	KindServerError Kind = "server_error"
	// KindUnauthorized is the 401 subclass of KindServerError.
	KindUnauthorized Kind = "unauthorized"
	// KindDecodingFailed is raised by higher layers on deserialization
	// failure; the core never raises it itself.
	KindDecodingFailed Kind = "decoding_failed"
	// KindAuthenticationFailed is raised when a token refresh fails or no
	// refresher is configured for a 401.
	KindAuthenticationFailed Kind = "authentication_failed"
	// KindRetryExhausted is raised when attempts reach RetryPolicy.MaxAttempts.
	KindRetryExhausted Kind = "retry_exhausted"
	// KindInvalidURL is raised when a RequestSpec produces an unparseable URL.
	KindInvalidURL Kind = "invalid_url"
	// KindUnknown wraps an uncategorized transport error.
	KindUnknown Kind = "unknown"
)

// NetworkError is the concrete error type raised by every component of
// the core. It always preserves the underlying cause via Unwrap.
type NetworkError struct {
	Kind       Kind
	Message    string
	StatusCode int   // set for KindServerError / KindUnauthorized, else 0
	Cause      error // underlying error, may be nil

	// NodeID is set by the orchestrator when this error bubbles up from
	// a named DAG node (spec.md §7: "NodeFailed(id, err)").
	NodeID string
}

// Error implements the error interface.
func (e *NetworkError) Error() string {
	msg := string(e.Kind)
	if e.Message != "" {
		msg = fmt.Sprintf("%s: %s", e.Kind, e.Message)
	}
	if e.StatusCode != 0 {
		msg = fmt.Sprintf("%s (status=%d)", msg, e.StatusCode)
	}
	if e.NodeID != "" {
		msg = fmt.Sprintf("node %q: %s", e.NodeID, msg)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %v", msg, e.Cause)
	}
	return msg
}

// Unwrap exposes the underlying cause for errors.Is/errors.As.
func (e *NetworkError) Unwrap() error {
	return e.Cause
}

// New constructs a NetworkError of the given kind.
func New(kind Kind, message string) *NetworkError {
	return &NetworkError{Kind: kind, Message: message}
}

// Wrap constructs a NetworkError of the given kind wrapping cause.
func Wrap(kind Kind, message string, cause error) *NetworkError {
	return &NetworkError{Kind: kind, Message: message, Cause: cause}
}

// WithNode returns a copy of err tagged with the orchestrator node id that
// produced it, matching spec.md §7's NodeFailed(id, err) wrapping rule.
func WithNode(id string, err error) error {
	var ne *NetworkError
	if errors.As(err, &ne) {
		cp := *ne
		cp.NodeID = id
		return &cp
	}
	return &NetworkError{Kind: KindUnknown, NodeID: id, Cause: err}
}

// Cancelled reports whether err is (or wraps) a cancellation error.
func Cancelled(err error) bool {
	return Is(err, KindCancelled)
}

// Is reports whether err is a *NetworkError of the given kind.
func Is(err error, kind Kind) bool {
	var ne *NetworkError
	if errors.As(err, &ne) {
		return ne.Kind == kind
	}
	return false
}

// ServerStatus extracts the HTTP status code from err, if any.
func ServerStatus(err error) (int, bool) {
	var ne *NetworkError
	if errors.As(err, &ne) && ne.StatusCode != 0 {
		return ne.StatusCode, true
	}
	return 0, false
}

// NewServerError builds a ServerError (or its Unauthorized subclass) for
// the given HTTP status code, matching spec.md §7's error taxonomy.
func NewServerError(statusCode int, message string) *NetworkError {
	kind := KindServerError
	if statusCode == 401 {
		kind = KindUnauthorized
	}
	return &NetworkError{Kind: kind, Message: message, StatusCode: statusCode}
}

// IsRetryableStatus reports whether statusCode is 5xx, matching
// spec.md §7's retry table ("HTTP 5xx OR timeout OR no-network ...").
func IsRetryableStatus(statusCode int) bool {
	return statusCode >= 500 && statusCode < 600
}
