// Package corenetworkkit is a client-side network request engine: request
// submission, cache-first/stale-while-revalidate reads, debounce/throttle/
// dedup gating, coordinated token refresh on 401, and a typed DAG
// orchestrator for dependent request graphs. See SPEC_FULL.md.
package corenetworkkit

import (
	"context"
	"log/slog"

	"github.com/vimo-ai/corenetworkkit/internal/executor"
	"github.com/vimo-ai/corenetworkkit/internal/orchestrator"
	"github.com/vimo-ai/corenetworkkit/pkg/request"
)

// Client is the single entry point described by SPEC_FULL.md §10: it owns
// no module-level state, so every Client is an independent instance of the
// pipeline from spec.md §4.6 ("per-NetworkClient instance, no singleton").
type Client struct {
	exec *executor.Executor
}

// New builds a Client from defaults overridden by opts, following the
// functional-options convention used throughout this module.
func New(opts ...Option) (*Client, error) {
	cfg := defaultConfig()
	for _, opt := range opts {
		opt(cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	exec := executor.New(&executor.Executor{
		Gate:        cfg.Gate,
		Cache:       cfg.Cache,
		Coordinator: cfg.Coordinator,
		Engine:      cfg.Engine,
		TokenStore:  cfg.TokenStore,
		Refresher:   cfg.Refresher,
		Feedback:    cfg.Feedback,
		Auth:        cfg.Auth,
		Logger:      cfg.Logger,
	})

	return &Client{exec: exec}, nil
}

// Do submits a single request through the gate/cache/retry pipeline from
// spec.md §4.6 and returns the response body.
func (c *Client) Do(ctx context.Context, spec request.Spec, cfg request.TaskConfig) ([]byte, error) {
	return c.exec.Execute(ctx, spec, cfg)
}

// Orchestrate runs plan's dependency graph to completion and applies its
// Transform, per spec.md §4.7. T is the typed result SPEC_FULL.md §10
// calls for (e.g. a struct built from several nodes' response bytes).
func Orchestrate[T any](ctx context.Context, c *Client, plan orchestrator.Plan[T], failureStrategy orchestrator.FailureStrategy, cancellationStrategy orchestrator.CancellationStrategy) (T, error) {
	return orchestrator.Orchestrate(ctx, c.exec, plan, failureStrategy, cancellationStrategy)
}
