// Package oauth2 adapts a golang.org/x/oauth2 TokenSource to the
// engine.TokenRefresher contract, so an application-default-credentials
// or workload-identity flow can drive the executor's refresh-on-401.
package oauth2

import (
	"context"
	"fmt"

	"golang.org/x/oauth2"
)

// Refresher calls Token on an oauth2.TokenSource and returns its access
// token, letting any oauth2.TokenSource (client-credentials, service
// account, refresh-token-backed, ...) serve as a TokenRefresher.
type Refresher struct {
	source oauth2.TokenSource
}

// New wraps source as a TokenRefresher. source is typically one that
// caches and refreshes on its own (e.g. oauth2.ReuseTokenSource), since
// Refresh is called once per TokenRefreshCoordinator.Refresh and should
// not force a network round-trip if the held token is still valid.
func New(source oauth2.TokenSource) *Refresher {
	return &Refresher{source: source}
}

func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	tok, err := r.source.Token()
	if err != nil {
		return "", fmt.Errorf("tokensource/oauth2: %w", err)
	}
	if tok.AccessToken == "" {
		return "", fmt.Errorf("tokensource/oauth2: token source returned an empty access token")
	}
	return tok.AccessToken, nil
}
