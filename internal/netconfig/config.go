// Package netconfig provides configuration management with hot-reload
// support for the request pipeline's default policy knobs. It uses
// fsnotify to watch for file changes and atomic pointer swaps for
// zero-downtime updates.
package netconfig

import (
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/vimo-ai/corenetworkkit/pkg/request"
)

// Config carries the default policy knobs that DefaultTaskConfig turns
// into a request.TaskConfig, plus the ambient logging/metrics/tracing
// settings. A Client does not read Config itself: callers pass the
// derived TaskConfig to each call.
type Config struct {
	Retry      RetryConfig      `yaml:"retry"`
	Cache      CacheConfig      `yaml:"cache"`
	Control    ControlConfig    `yaml:"control"`
	Timeout    TimeoutConfig    `yaml:"timeout"`
	HTTPClient HTTPClientConfig `yaml:"http_client"`
	Logging    LoggingConfig    `yaml:"logging"`
	Metrics    MetricsConfig    `yaml:"metrics"`
	Tracing    TracingConfig    `yaml:"tracing"`
}

// RetryConfig is the default request.RetryPolicy, expressed as YAML.
type RetryConfig struct {
	Kind         string        `yaml:"kind"` // none, fixed, exponential
	MaxAttempts  int           `yaml:"max_attempts"`
	Delay        time.Duration `yaml:"delay"`         // used by "fixed"
	InitialDelay time.Duration `yaml:"initial_delay"` // used by "exponential"
	Multiplier   float64       `yaml:"multiplier"`
	MaxDelay     time.Duration `yaml:"max_delay"`
}

// ToPolicy converts cfg to a request.RetryPolicy.
func (c RetryConfig) ToPolicy() (request.RetryPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(c.Kind)) {
	case "", "none":
		return request.NoRetry(), nil
	case "fixed":
		return request.FixedRetry(c.MaxAttempts, c.Delay), nil
	case "exponential":
		return request.ExponentialRetry(c.MaxAttempts, c.InitialDelay, c.Multiplier, c.MaxDelay), nil
	default:
		return request.RetryPolicy{}, fmt.Errorf("retry.kind must be one of: none, fixed, exponential (got %q)", c.Kind)
	}
}

// CacheConfig is the default request.CachePolicy, expressed as YAML.
type CacheConfig struct {
	Kind   string        `yaml:"kind"` // none, cache_first, stale_while_revalidate
	MaxAge time.Duration `yaml:"max_age"`
}

// ToPolicy converts cfg to a request.CachePolicy.
func (c CacheConfig) ToPolicy() (request.CachePolicy, error) {
	switch strings.ToLower(strings.TrimSpace(c.Kind)) {
	case "", "none":
		return request.NoCache(), nil
	case "cache_first":
		return request.CacheFirstPolicy(c.MaxAge), nil
	case "stale_while_revalidate":
		return request.StaleWhileRevalidatePolicy(), nil
	default:
		return request.CachePolicy{}, fmt.Errorf("cache.kind must be one of: none, cache_first, stale_while_revalidate (got %q)", c.Kind)
	}
}

// ControlConfig is the default request.ControlPolicy, expressed as YAML.
// A zero Debounce/Throttle disables that gate (zero-value-means-off).
type ControlConfig struct {
	Debounce    time.Duration `yaml:"debounce"`
	Throttle    time.Duration `yaml:"throttle"`
	Deduplicate bool          `yaml:"deduplicate"`
}

// ToPolicy converts cfg to a request.ControlPolicy.
func (c ControlConfig) ToPolicy() request.ControlPolicy {
	p := request.ControlPolicy{Deduplicate: c.Deduplicate}
	if c.Debounce > 0 {
		d := c.Debounce
		p.Debounce = &d
	}
	if c.Throttle > 0 {
		t := c.Throttle
		p.Throttle = &t
	}
	return p
}

// TimeoutConfig carries the default per-attempt and wall-clock deadlines.
type TimeoutConfig struct {
	PerAttempt time.Duration `yaml:"per_attempt"`
	Total      time.Duration `yaml:"total"`
}

// HTTPClientConfig carries the default transport-level knobs for
// pkg/engine/httpengine.
type HTTPClientConfig struct {
	MaxBodyBytes        int64         `yaml:"max_body_bytes"`
	MaxIdleConns        int           `yaml:"max_idle_conns"`
	MaxIdleConnsPerHost int           `yaml:"max_idle_conns_per_host"`
	IdleConnTimeout     time.Duration `yaml:"idle_conn_timeout"`
}

// LoggingConfig contains logging settings.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // json, text
}

// MetricsConfig contains Prometheus metrics settings.
type MetricsConfig struct {
	Enabled bool   `yaml:"enabled"`
	Path    string `yaml:"path"`
}

// TracingConfig contains OpenTelemetry tracing settings.
type TracingConfig struct {
	Enabled     bool    `yaml:"enabled"`
	Endpoint    string  `yaml:"endpoint"`
	ServiceName string  `yaml:"service_name"`
	SampleRate  float64 `yaml:"sample_rate"`
	Insecure    bool    `yaml:"insecure"`
}

// DefaultConfig returns a configuration with sensible defaults: no retry,
// no caching, deduplication on with no debounce/throttle, a 30s
// per-attempt timeout, metrics on, and tracing off until opted in.
func DefaultConfig() *Config {
	return &Config{
		Retry: RetryConfig{Kind: "none", MaxAttempts: 1},
		Cache: CacheConfig{Kind: "none"},
		Control: ControlConfig{
			Deduplicate: true,
		},
		Timeout: TimeoutConfig{
			PerAttempt: 30 * time.Second,
			Total:      0,
		},
		HTTPClient: HTTPClientConfig{
			MaxBodyBytes:        10 * 1024 * 1024,
			MaxIdleConns:        100,
			MaxIdleConnsPerHost: 10,
			IdleConnTimeout:     90 * time.Second,
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled: true,
			Path:    "/metrics",
		},
		Tracing: TracingConfig{
			Enabled:     false,
			Endpoint:    "localhost:4317",
			ServiceName: "corenetworkkit",
			SampleRate:  1.0,
			Insecure:    true,
		},
	}
}

// LoadFromFile reads and parses a YAML configuration file. Environment
// variables in the format ${VAR_NAME} are expanded before parsing.
func LoadFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config file: %w", err)
	}

	expanded := os.ExpandEnv(string(data))

	cfg := DefaultConfig()
	if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate config: %w", err)
	}

	return cfg, nil
}

// DefaultTaskConfig builds a request.TaskConfig from cfg's retry/cache/
// control/timeout knobs, for use as a Client's baseline when a caller's
// own request.TaskConfig doesn't override them.
func (c *Config) DefaultTaskConfig() (request.TaskConfig, error) {
	retryPolicy, err := c.Retry.ToPolicy()
	if err != nil {
		return request.TaskConfig{}, err
	}
	cachePolicy, err := c.Cache.ToPolicy()
	if err != nil {
		return request.TaskConfig{}, err
	}
	return request.TaskConfig{
		Lifecycle:    request.ManualLifecycle(),
		Control:      c.Control.ToPolicy(),
		Cache:        cachePolicy,
		Retry:        retryPolicy,
		Timeout:      c.Timeout.PerAttempt,
		TotalTimeout: c.Timeout.Total,
	}, nil
}

// Validate checks the configuration for errors.
func (c *Config) Validate() error {
	if _, err := c.Retry.ToPolicy(); err != nil {
		return err
	}
	if _, err := c.Cache.ToPolicy(); err != nil {
		return err
	}
	if c.Retry.MaxAttempts < 0 {
		return fmt.Errorf("retry.max_attempts cannot be negative")
	}
	if c.Retry.Multiplier < 0 {
		return fmt.Errorf("retry.multiplier cannot be negative")
	}
	if c.Timeout.PerAttempt < 0 {
		return fmt.Errorf("timeout.per_attempt cannot be negative")
	}
	if c.Timeout.Total < 0 {
		return fmt.Errorf("timeout.total cannot be negative")
	}
	if c.Control.Debounce < 0 {
		return fmt.Errorf("control.debounce cannot be negative")
	}
	if c.Control.Throttle < 0 {
		return fmt.Errorf("control.throttle cannot be negative")
	}
	if c.HTTPClient.MaxBodyBytes < 0 {
		return fmt.Errorf("http_client.max_body_bytes cannot be negative")
	}
	if c.Tracing.SampleRate < 0 || c.Tracing.SampleRate > 1 {
		return fmt.Errorf("tracing.sample_rate must be between 0 and 1")
	}
	switch strings.ToLower(strings.TrimSpace(c.Logging.Level)) {
	case "", "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("logging.level must be one of: debug, info, warn, error")
	}
	return nil
}

// WarningCode names an advisory (non-fatal) configuration concern.
type WarningCode string

const (
	// WarningStaleWhileRevalidateWithoutCache fires when the default
	// cache policy is stale-while-revalidate but caching metrics are
	// disabled, leaving background-refresh failures unobserved.
	WarningStaleWhileRevalidateWithoutCache WarningCode = "stale_while_revalidate_without_metrics"
	// WarningThrottleWithoutDebounce fires when a throttle window is set
	// without a debounce window; most control policies pair the two.
	WarningThrottleWithoutDebounce WarningCode = "throttle_without_debounce"
)

// Warning is a non-fatal configuration concern surfaced by Warnings.
type Warning struct {
	Code    WarningCode
	Message string
}

// Warnings reports advisory configuration concerns that Validate does
// not treat as fatal.
func (c *Config) Warnings() []Warning {
	var warnings []Warning
	if c.Cache.Kind == "stale_while_revalidate" && !c.Metrics.Enabled {
		warnings = append(warnings, Warning{
			Code:    WarningStaleWhileRevalidateWithoutCache,
			Message: "cache.kind=stale_while_revalidate with metrics.enabled=false: background refresh failures will only be logged, not observable via metrics",
		})
	}
	if c.Control.Throttle > 0 && c.Control.Debounce == 0 {
		warnings = append(warnings, Warning{
			Code:    WarningThrottleWithoutDebounce,
			Message: "control.throttle is set without control.debounce",
		})
	}
	return warnings
}
