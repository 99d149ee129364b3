package executor

import (
	"net/http"

	"github.com/vimo-ai/corenetworkkit/pkg/engine"
)

// AuthApplier stamps the current token onto a materialized request
// according to a RequestSpec's AuthBinding, per spec.md §3's "strategy
// identifier + context handle". It is re-invoked on every retry attempt
// so a refreshed token takes effect immediately.
type AuthApplier func(req *engine.RawRequest, strategy string, authContext any, token string)

// DefaultAuthApplier understands the "bearer" strategy (Authorization:
// Bearer <token>) and the "header" strategy (authContext names the header
// to stamp the token into). Any other strategy is a no-op: callers with a
// bespoke auth scheme supply their own AuthApplier.
func DefaultAuthApplier(req *engine.RawRequest, strategy string, authContext any, token string) {
	if token == "" {
		return
	}
	if req.Header == nil {
		req.Header = make(http.Header)
	}
	switch strategy {
	case "bearer":
		req.Header.Set("Authorization", "Bearer "+token)
	case "header":
		if name, ok := authContext.(string); ok && name != "" {
			req.Header.Set(name, token)
		}
	}
}
