// Package env implements a TokenRefresher that reads a credential from an
// environment variable fixed at construction time.
package env

import (
	"context"
	"fmt"
	"os"
)

// Refresher re-reads a single environment variable on every refresh. It
// models credentials that rotate out-of-band (e.g. a sidecar rewriting the
// process environment is not actually observable in Go, so in practice
// this refresher only useful for variables set once at startup — it
// exists primarily so env-backed deployments exercise the same
// TokenRefresher contract as Vault-backed ones).
type Refresher struct {
	varName string
}

// New returns a Refresher for the given environment variable name.
func New(varName string) *Refresher {
	return &Refresher{varName: varName}
}

func (r *Refresher) Refresh(_ context.Context) (string, error) {
	val, ok := os.LookupEnv(r.varName)
	if !ok {
		return "", fmt.Errorf("tokensource/env: %q not set", r.varName)
	}
	return val, nil
}
