// Package httpengine is the default net/http-backed Engine, built on a
// connection-pooled *http.Client.
package httpengine

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/vimo-ai/corenetworkkit/internal/httputil"
	"github.com/vimo-ai/corenetworkkit/pkg/engine"
)

// Config configures the default Engine's transport.
type Config struct {
	MaxIdleConns        int
	MaxIdleConnsPerHost int
	IdleConnTimeout     time.Duration

	// MaxResponseBodyBytes caps how much of a response body is read;
	// zero uses httputil.DefaultMaxResponseBodyBytes.
	MaxResponseBodyBytes int64
}

// DefaultConfig returns sane pooled-transport defaults.
func DefaultConfig() Config {
	return Config{
		MaxIdleConns:         100,
		MaxIdleConnsPerHost:  10,
		IdleConnTimeout:      90 * time.Second,
		MaxResponseBodyBytes: httputil.DefaultMaxResponseBodyBytes,
	}
}

// Engine implements engine.Engine over net/http, with cancellation
// propagated through http.NewRequestWithContext per spec.md §6.
type Engine struct {
	client   *http.Client
	maxBodyB int64
}

// New constructs an Engine with a dedicated, connection-pooled transport.
func New(cfg Config) *Engine {
	transport := &http.Transport{
		MaxIdleConns:        cfg.MaxIdleConns,
		MaxIdleConnsPerHost: cfg.MaxIdleConnsPerHost,
		IdleConnTimeout:     cfg.IdleConnTimeout,
	}
	maxBody := cfg.MaxResponseBodyBytes
	if maxBody <= 0 {
		maxBody = httputil.DefaultMaxResponseBodyBytes
	}
	return &Engine{
		client:   &http.Client{Transport: transport},
		maxBodyB: maxBody,
	}
}

// NewWithClient wraps a caller-supplied http.Client, letting a user
// substitute their own transport (proxies, mTLS, test doubles) while
// still going through the response-size capping and cancellation wiring
// below.
func NewWithClient(client *http.Client, maxResponseBodyBytes int64) *Engine {
	if maxResponseBodyBytes <= 0 {
		maxResponseBodyBytes = httputil.DefaultMaxResponseBodyBytes
	}
	return &Engine{client: client, maxBodyB: maxResponseBodyBytes}
}

func (e *Engine) SendOnce(ctx context.Context, req engine.RawRequest) (engine.RawResponse, error) {
	if req.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, time.Duration(req.Timeout))
		defer cancel()
	}

	var bodyReader *bytes.Reader
	if len(req.Body) > 0 {
		bodyReader = bytes.NewReader(req.Body)
	} else {
		bodyReader = bytes.NewReader(nil)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.URL, bodyReader)
	if err != nil {
		return engine.RawResponse{}, fmt.Errorf("httpengine: build request: %w", err)
	}
	if req.Header != nil {
		httpReq.Header = req.Header.Clone()
	}

	resp, err := e.client.Do(httpReq)
	if err != nil {
		return engine.RawResponse{}, err
	}
	defer resp.Body.Close()

	body, err := httputil.ReadLimitedBody(resp.Body, e.maxBodyB)
	if err != nil {
		return engine.RawResponse{}, fmt.Errorf("httpengine: read body: %w", err)
	}

	return engine.RawResponse{
		StatusCode: resp.StatusCode,
		Header:     resp.Header,
		Body:       body,
	}, nil
}
