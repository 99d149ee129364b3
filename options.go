package corenetworkkit

import (
	"log/slog"

	"github.com/vimo-ai/corenetworkkit/internal/cachestore"
	"github.com/vimo-ai/corenetworkkit/internal/executor"
	"github.com/vimo-ai/corenetworkkit/internal/gate"
	"github.com/vimo-ai/corenetworkkit/internal/tokenrefresh"
	"github.com/vimo-ai/corenetworkkit/pkg/engine"
	"github.com/vimo-ai/corenetworkkit/pkg/engine/httpengine"
)

// ClientConfig holds all configuration for a Client, per SPEC_FULL.md
// §10's Client facade. Every field has a working zero-value default, so
// New() with no options produces a usable client: an in-memory cache, no
// gating, and the default pooled HTTP engine.
type ClientConfig struct {
	Engine      engine.Engine
	Cache       cachestore.Store
	Gate        *gate.Gate
	Coordinator *tokenrefresh.Coordinator
	TokenStore  engine.TokenStore
	Refresher   engine.TokenRefresher
	Feedback    engine.Feedback
	Auth        executor.AuthApplier
	Logger      *slog.Logger
}

// Option configures a Client.
type Option func(*ClientConfig)

// defaultConfig returns the zero-dependency baseline: default HTTP
// engine, in-memory cache, fresh gate/coordinator, no auth refresher.
func defaultConfig() *ClientConfig {
	return &ClientConfig{
		Engine:      httpengine.New(httpengine.DefaultConfig()),
		Cache:       cachestore.NewMemoryStore(cachestore.DefaultMemoryConfig()),
		Gate:        gate.New(),
		Coordinator: tokenrefresh.New(),
	}
}

// WithEngine overrides the transport used to send requests. The default
// is an httpengine.Engine with a pooled *http.Client.
func WithEngine(e engine.Engine) Option {
	return func(c *ClientConfig) { c.Engine = e }
}

// WithCacheStore overrides the cache tier. The default is an in-memory
// TTL cache; use cachestore.NewRedisStore or cachestore.NewDualStore for
// a shared or tiered cache.
func WithCacheStore(s cachestore.Store) Option {
	return func(c *ClientConfig) { c.Cache = s }
}

// WithTokenStore supplies the TokenStore read on every retry attempt.
// The "bearer" and "header" auth strategies stamp the token it returns;
// without a store, attempts carry no token until a refresh supplies one.
func WithTokenStore(s engine.TokenStore) Option {
	return func(c *ClientConfig) { c.TokenStore = s }
}

// WithTokenRefresher supplies the refresher invoked on a 401 and
// coalesced by the TokenRefreshCoordinator. Omit it to disable
// refresh-on-401 entirely.
func WithTokenRefresher(r engine.TokenRefresher) Option {
	return func(c *ClientConfig) { c.Refresher = r }
}

// WithFeedback registers the sink whose AuthenticationFailed is invoked
// when a token refresh fails. The default is a no-op.
func WithFeedback(f engine.Feedback) Option {
	return func(c *ClientConfig) { c.Feedback = f }
}

// WithAuthApplier overrides how a resolved token is stamped onto an
// outgoing request. The default applies Bearer/header auth per
// request.AuthBinding.Strategy.
func WithAuthApplier(a executor.AuthApplier) Option {
	return func(c *ClientConfig) { c.Auth = a }
}

// WithLogger sets the structured logger used for background
// stale-while-revalidate failures. The
// default is slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(c *ClientConfig) { c.Logger = l }
}
