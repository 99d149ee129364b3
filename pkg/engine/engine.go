// Package engine defines the transport and credential boundary the core
// consumes, per spec.md §6: the core never talks to a transport directly,
// only through these interfaces.
package engine

import (
	"context"
	"net/http"
)

// RawRequest is the materialized, ready-to-send form of a request.Spec
// after query/auth binding has been applied.
type RawRequest struct {
	Method  string
	URL     string
	Header  http.Header
	Body    []byte
	Timeout int64 // nanoseconds; 0 means no per-attempt deadline beyond ctx
}

// RawResponse is the engine's result for a single attempt.
type RawResponse struct {
	StatusCode int
	Header     http.Header
	Body       []byte
}

// Engine is the transport capability from spec.md §6. SendOnce must be
// cancellable such that cancelling ctx cancels the underlying transport
// call, not merely the caller's wait on it.
type Engine interface {
	SendOnce(ctx context.Context, req RawRequest) (RawResponse, error)
}

// TokenStore is consulted on every attempt to stamp the request with
// whatever credential is currently cached, per spec.md §6.
type TokenStore interface {
	Get(ctx context.Context) (string, bool)
}

// TokenRefresher performs the actual refresh a TokenRefreshCoordinator
// coalesces, per spec.md §6.
type TokenRefresher interface {
	Refresh(ctx context.Context) (string, error)
}

// Feedback is the optional sink from spec.md §6, consumed by higher
// layers only: the core's own operation never depends on it succeeding.
type Feedback interface {
	// Message surfaces a localized, user-facing error description.
	Message(ctx context.Context, text string)
	// AuthenticationFailed fires when a refresh fails terminally for a task.
	AuthenticationFailed(ctx context.Context, err error)
}

// NopFeedback discards every notification; it is the default when a
// caller supplies none.
type NopFeedback struct{}

func (NopFeedback) Message(context.Context, string)              {}
func (NopFeedback) AuthenticationFailed(context.Context, error) {}
