// Package oidc implements a TokenRefresher that authenticates outbound
// requests against an OIDC provider's client-credentials token endpoint,
// discovered via OIDC issuer metadata, acquiring outbound access tokens
// for this module's own calls to an OIDC-protected API.
package oidc

import (
	"context"
	"fmt"

	"github.com/coreos/go-oidc/v3/oidc"
	"golang.org/x/oauth2/clientcredentials"
)

// Refresher exchanges client credentials for an access token at the
// issuer's discovered token endpoint.
type Refresher struct {
	conf *clientcredentials.Config
}

// New discovers issuerURL's token endpoint via OIDC metadata and returns
// a Refresher that trades clientID/clientSecret for access tokens scoped
// to scopes.
func New(ctx context.Context, issuerURL, clientID, clientSecret string, scopes []string) (*Refresher, error) {
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, fmt.Errorf("tokensource/oidc: discover issuer %q: %w", issuerURL, err)
	}

	var endpoint struct {
		TokenURL string `json:"token_endpoint"`
	}
	if err := provider.Claims(&endpoint); err != nil {
		return nil, fmt.Errorf("tokensource/oidc: read token_endpoint claim: %w", err)
	}
	if endpoint.TokenURL == "" {
		return nil, fmt.Errorf("tokensource/oidc: issuer %q did not advertise a token_endpoint", issuerURL)
	}

	return &Refresher{
		conf: &clientcredentials.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			TokenURL:     endpoint.TokenURL,
			Scopes:       scopes,
		},
	}, nil
}

func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	tok, err := r.conf.Token(ctx)
	if err != nil {
		return "", fmt.Errorf("tokensource/oidc: %w", err)
	}
	return tok.AccessToken, nil
}
