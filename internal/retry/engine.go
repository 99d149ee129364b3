// Package retry implements the RetryEngine from spec.md §4.5: attempt
// counting, idempotency gating, error classification, token-refresh
// accounting, and per-attempt/total timeouts. The attempt loop itself
// is a sleep-backoff-under-a-ctx-aware-select cycle: call once, classify
// the error, loop, generalized to the core's auth-refresh and idempotency
// rules.
package retry

import (
	"context"
	"strconv"
	"time"

	"github.com/vimo-ai/corenetworkkit/internal/netmetrics"
	"github.com/vimo-ai/corenetworkkit/pkg/engine"
	"github.com/vimo-ai/corenetworkkit/pkg/nkerrors"
	"github.com/vimo-ai/corenetworkkit/pkg/request"
)

// Send performs one attempt against the transport, with token already
// stamped onto the request by the caller. attempt is the 0-based attempt
// index, for callers that want to vary request shape across retries
// (none of the core's own call sites do).
type Send func(ctx context.Context, token string, attempt int) (engine.RawResponse, error)

// Refresh performs a single coordinated token refresh.
type Refresh func(ctx context.Context) (string, error)

// Params configures one Run call.
type Params struct {
	Send Send

	// TokenStore is read on every attempt for the token to stamp, until a
	// refresh in this run yields a newer one; nil means no stored token.
	// Send is responsible for actually attaching it to the outgoing request.
	TokenStore engine.TokenStore

	// Refresh is invoked at most once per task lifetime on a 401, per
	// spec.md §4.5. Nil means 401s are treated as unrecoverable.
	Refresh Refresh

	Idempotent   bool
	Policy       request.RetryPolicy
	Timeout      time.Duration // per-attempt
	TotalTimeout time.Duration
}

// Run executes the attempt loop described by spec.md §4.5 and returns the
// successful response body, or a *nkerrors.NetworkError otherwise.
func Run(ctx context.Context, p Params) ([]byte, error) {
	if p.TotalTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, p.TotalTimeout)
		defer cancel()
	}

	maxAttempts := p.Policy.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = 1
	}

	refreshedOnce := false
	refreshedToken := ""
	var lastErr error

	for attempt := 0; attempt < maxAttempts; attempt++ {
		if ctx.Err() != nil {
			return nil, nkerrors.Wrap(nkerrors.KindCancelled, "retry loop", ctx.Err())
		}

		token := refreshedToken
		if token == "" && p.TokenStore != nil {
			token, _ = p.TokenStore.Get(ctx)
		}

		netmetrics.RetryAttempts.WithLabelValues(strconv.Itoa(attempt + 1)).Inc()

		attemptCtx := ctx
		var cancelAttempt context.CancelFunc
		if p.Timeout > 0 {
			attemptCtx, cancelAttempt = context.WithTimeout(ctx, p.Timeout)
		}
		resp, sendErr := p.Send(attemptCtx, token, attempt)
		if cancelAttempt != nil {
			cancelAttempt()
		}

		if sendErr != nil {
			if ctx.Err() != nil {
				return nil, nkerrors.Wrap(nkerrors.KindCancelled, "retry loop", ctx.Err())
			}
			classified := nkerrors.Wrap(nkerrors.KindNoNetwork, "transport error", sendErr)
			if attemptCtx.Err() != nil {
				classified = nkerrors.New(nkerrors.KindTimeout, "attempt deadline exceeded")
			}
			if !p.Idempotent || attempt == maxAttempts-1 {
				if !p.Idempotent {
					return nil, classified
				}
				return nil, nkerrors.Wrap(nkerrors.KindRetryExhausted, "retry attempts exhausted", classified)
			}
			lastErr = classified
			if err := sleepBackoff(ctx, p.Policy.DelayFor(attempt)); err != nil {
				return nil, err
			}
			continue
		}

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp.Body, nil

		case resp.StatusCode == 401 && p.Refresh != nil && !refreshedOnce:
			refreshedOnce = true
			newToken, err := p.Refresh(ctx)
			if err != nil {
				return nil, nkerrors.Wrap(nkerrors.KindAuthenticationFailed, "token refresh failed", err)
			}
			refreshedToken = newToken
			lastErr = nkerrors.NewServerError(401, "unauthorized before refresh")
			continue // the post-refresh attempt still counts against maxAttempts

		case resp.StatusCode == 401 && p.Refresh == nil:
			return nil, nkerrors.Wrap(nkerrors.KindAuthenticationFailed, "unauthorized: no refresher configured", nkerrors.NewServerError(401, "unauthorized"))

		case resp.StatusCode == 401:
			return nil, nkerrors.NewServerError(401, "unauthorized: already refreshed this task")

		case resp.StatusCode >= 400 && resp.StatusCode < 500:
			return nil, nkerrors.NewServerError(resp.StatusCode, "client error")

		case resp.StatusCode >= 500:
			classified := nkerrors.NewServerError(resp.StatusCode, "server error")
			if !p.Idempotent || attempt == maxAttempts-1 {
				if !p.Idempotent {
					return nil, classified
				}
				return nil, nkerrors.Wrap(nkerrors.KindRetryExhausted, "retry attempts exhausted", classified)
			}
			lastErr = classified
			if err := sleepBackoff(ctx, p.Policy.DelayFor(attempt)); err != nil {
				return nil, err
			}
			continue

		default:
			return nil, nkerrors.NewServerError(resp.StatusCode, "unexpected status code")
		}
	}

	if lastErr != nil {
		return nil, nkerrors.Wrap(nkerrors.KindRetryExhausted, "retry attempts exhausted", lastErr)
	}
	return nil, nkerrors.New(nkerrors.KindRetryExhausted, "retry attempts exhausted")
}

func sleepBackoff(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		if ctx.Err() != nil {
			return nkerrors.Wrap(nkerrors.KindCancelled, "retry loop", ctx.Err())
		}
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return nkerrors.Wrap(nkerrors.KindCancelled, "retry loop", ctx.Err())
	}
}
