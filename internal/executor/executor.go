// Package executor implements the TaskExecutor pipeline from spec.md
// §4.6: gate, then cache, then retry+refresh, then cache write, with
// guaranteed in-flight release across every exit path.
package executor

import (
	"context"
	"log/slog"
	"time"

	"github.com/vimo-ai/corenetworkkit/internal/cachestore"
	"github.com/vimo-ai/corenetworkkit/internal/gate"
	"github.com/vimo-ai/corenetworkkit/internal/netmetrics"
	"github.com/vimo-ai/corenetworkkit/internal/retry"
	"github.com/vimo-ai/corenetworkkit/internal/tokenrefresh"
	"github.com/vimo-ai/corenetworkkit/pkg/cachekey"
	"github.com/vimo-ai/corenetworkkit/pkg/engine"
	"github.com/vimo-ai/corenetworkkit/pkg/nkerrors"
	"github.com/vimo-ai/corenetworkkit/pkg/request"
)

// Executor runs one RequestSpec/TaskConfig pair through the full pipeline.
type Executor struct {
	Gate        *gate.Gate
	Cache       cachestore.Store
	Coordinator *tokenrefresh.Coordinator
	Engine      engine.Engine
	TokenStore  engine.TokenStore
	Refresher   engine.TokenRefresher
	Feedback    engine.Feedback
	Auth        AuthApplier
	Logger      *slog.Logger
}

// New constructs an Executor, filling unset optional fields with
// no-op/default collaborators.
func New(e *Executor) *Executor {
	if e.Auth == nil {
		e.Auth = DefaultAuthApplier
	}
	if e.Feedback == nil {
		e.Feedback = engine.NopFeedback{}
	}
	if e.Logger == nil {
		e.Logger = slog.Default()
	}
	return e
}

// Execute runs spec/cfg through the pipeline from spec.md §4.6 and
// returns the response bytes.
func (e *Executor) Execute(ctx context.Context, spec request.Spec, cfg request.TaskConfig) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, nkerrors.Wrap(nkerrors.KindCancelled, "execute", err)
	}

	key, err := cachekey.Derive(spec.Method, spec.BaseURL, spec.Path, spec.Query, spec.Body)
	if err != nil {
		return nil, nkerrors.Wrap(nkerrors.KindInvalidURL, "derive cache key", err)
	}

	runCtx, cancel := cfg.Lifecycle.Detach(ctx)
	defer cancel()

	work := func(ctx context.Context) ([]byte, error) {
		return e.runPipeline(ctx, key, spec, cfg)
	}

	start := time.Now()
	result, _, err := e.Gate.Pass(runCtx, key.String(), cfg.Control, work)
	netmetrics.RequestDuration.WithLabelValues(spec.Method).Observe(time.Since(start).Seconds())
	return result, err
}

func (e *Executor) runPipeline(ctx context.Context, key cachekey.Key, spec request.Spec, cfg request.TaskConfig) ([]byte, error) {
	if cfg.Cache.Kind != request.CacheNone {
		var override *time.Duration
		if cfg.Cache.Kind == request.CacheFirst && cfg.Cache.MaxAge > 0 {
			override = &cfg.Cache.MaxAge
		}
		cached, hit, err := e.Cache.Read(ctx, key, override)
		if err == nil && hit {
			netmetrics.CacheResults.WithLabelValues("hit").Inc()
			if cfg.Cache.Kind == request.CacheStaleWhileRevalidate {
				e.spawnRevalidate(key, spec, cfg)
			}
			return cached, nil
		}
		netmetrics.CacheResults.WithLabelValues("miss").Inc()
	}

	result, err := e.runRetry(ctx, spec, cfg)
	if err != nil {
		return nil, err
	}

	switch cfg.Cache.Kind {
	case request.CacheFirst:
		maxAge := cfg.Cache.MaxAge
		var override *time.Duration
		if maxAge > 0 {
			override = &maxAge
		}
		_ = e.Cache.Write(ctx, key, result, override)
	case request.CacheStaleWhileRevalidate:
		_ = e.Cache.Write(ctx, key, result, nil)
	}

	return result, nil
}

// spawnRevalidate runs steps 4-5 of spec.md §4.6 in the background for
// StaleWhileRevalidate: failures are logged, not raised, per spec.md §4.6.
func (e *Executor) spawnRevalidate(key cachekey.Key, spec request.Spec, cfg request.TaskConfig) {
	go func() {
		ctx := context.Background()
		if cfg.TotalTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.TotalTimeout)
			defer cancel()
		}

		result, err := e.runRetry(ctx, spec, cfg)
		if err != nil {
			e.Logger.Warn("stale-while-revalidate refresh failed", "key", key.String(), "error", err)
			return
		}
		if err := e.Cache.Write(ctx, key, result, nil); err != nil {
			e.Logger.Warn("stale-while-revalidate cache write failed", "key", key.String(), "error", err)
		}
	}()
}

func (e *Executor) runRetry(ctx context.Context, spec request.Spec, cfg request.TaskConfig) ([]byte, error) {
	var refresh retry.Refresh
	if e.Refresher != nil {
		refresh = func(ctx context.Context) (string, error) {
			token, err := e.Coordinator.Refresh(ctx, e.Refresher)
			if err != nil {
				e.Feedback.AuthenticationFailed(ctx, err)
			}
			return token, err
		}
	}

	send := func(ctx context.Context, token string, attempt int) (engine.RawResponse, error) {
		url, err := buildURL(spec.BaseURL, spec.Path, spec.Query)
		if err != nil {
			return engine.RawResponse{}, err
		}
		raw := engine.RawRequest{
			Method:  spec.Method,
			URL:     url,
			Header:  spec.Header.Clone(),
			Body:    spec.Body,
			Timeout: spec.Timeout.Nanoseconds(),
		}
		e.Auth(&raw, spec.Auth.Strategy, spec.Auth.Context, token)
		return e.Engine.SendOnce(ctx, raw)
	}

	body, err := retry.Run(ctx, retry.Params{
		Send:         send,
		TokenStore:   e.TokenStore,
		Refresh:      refresh,
		Idempotent:   spec.IsIdempotent(),
		Policy:       cfg.Retry,
		Timeout:      cfg.Timeout,
		TotalTimeout: cfg.TotalTimeout,
	})
	netmetrics.RequestsTotal.WithLabelValues(spec.Method, netmetrics.Outcome(err)).Inc()
	return body, err
}
