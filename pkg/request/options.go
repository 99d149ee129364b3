package request

import "time"

// TaskOption mutates a TaskConfig. NewTaskConfig().With...() gives a
// chainable builder surface over the sum-type fields, mirroring the
// functional-option style used for Client construction elsewhere in this
// module.
type TaskOption func(*TaskConfig)

// Configure applies opts in order and returns the resulting TaskConfig.
func Configure(opts ...TaskOption) TaskConfig {
	cfg := NewTaskConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return cfg
}

// With applies opts to an existing TaskConfig, returning the mutated copy.
func (c TaskConfig) With(opts ...TaskOption) TaskConfig {
	for _, opt := range opts {
		opt(&c)
	}
	return c
}

func WithLifecycle(l Lifecycle) TaskOption {
	return func(c *TaskConfig) { c.Lifecycle = l }
}

func WithPersistent() TaskOption {
	return func(c *TaskConfig) { c.Lifecycle = PersistentLifecycle() }
}

func WithDebounce(d time.Duration) TaskOption {
	return func(c *TaskConfig) { c.Control.Debounce = &d }
}

func WithThrottle(d time.Duration) TaskOption {
	return func(c *TaskConfig) { c.Control.Throttle = &d }
}

func WithDeduplicate() TaskOption {
	return func(c *TaskConfig) { c.Control.Deduplicate = true }
}

func WithPriority(p Priority) TaskOption {
	return func(c *TaskConfig) { c.Control.Priority = p }
}

func WithCacheFirst(maxAge time.Duration) TaskOption {
	return func(c *TaskConfig) { c.Cache = CacheFirstPolicy(maxAge) }
}

func WithStaleWhileRevalidate() TaskOption {
	return func(c *TaskConfig) { c.Cache = StaleWhileRevalidatePolicy() }
}

func WithFixedRetry(maxAttempts int, delay time.Duration) TaskOption {
	return func(c *TaskConfig) { c.Retry = FixedRetry(maxAttempts, delay) }
}

func WithExponentialRetry(maxAttempts int, initialDelay time.Duration, multiplier float64, maxDelay time.Duration) TaskOption {
	return func(c *TaskConfig) { c.Retry = ExponentialRetry(maxAttempts, initialDelay, multiplier, maxDelay) }
}

func WithTimeout(d time.Duration) TaskOption {
	return func(c *TaskConfig) { c.Timeout = d }
}

func WithTotalTimeout(d time.Duration) TaskOption {
	return func(c *TaskConfig) { c.TotalTimeout = d }
}
