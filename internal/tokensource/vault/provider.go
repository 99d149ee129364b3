// Package vault implements a TokenRefresher backed by HashiCorp Vault:
// AppRole login plus lease-renewal machinery, narrowed to a single
// credential refresh call.
package vault

import (
	"context"
	"fmt"
	"sync"

	vaultapi "github.com/hashicorp/vault/api"
)

// Config holds the AppRole login parameters and the path of the
// credential this refresher reads on every Refresh call.
type Config struct {
	Address  string
	RoleID   string
	SecretID string

	// SecretPath is read on every Refresh, e.g. "secret/data/api-token".
	// Field selects which key in the secret holds the token; empty
	// defaults to "value".
	SecretPath string
	Field      string
}

// Refresher implements engine.TokenRefresher against a Vault KV secret,
// authenticating via AppRole once at construction and renewing that
// login's lease in the background.
type Refresher struct {
	client *vaultapi.Client
	cfg    Config

	stopCh chan struct{}
	wg     sync.WaitGroup
}

// New logs into Vault via AppRole and starts the lease renewer.
func New(cfg Config) (*Refresher, error) {
	vConfig := vaultapi.DefaultConfig()
	vConfig.Address = cfg.Address

	client, err := vaultapi.NewClient(vConfig)
	if err != nil {
		return nil, fmt.Errorf("tokensource/vault: create client: %w", err)
	}

	secret, err := client.Logical().Write("auth/approle/login", map[string]interface{}{
		"role_id":   cfg.RoleID,
		"secret_id": cfg.SecretID,
	})
	if err != nil {
		return nil, fmt.Errorf("tokensource/vault: approle login: %w", err)
	}
	if secret == nil || secret.Auth == nil {
		return nil, fmt.Errorf("tokensource/vault: login returned no auth info")
	}
	client.SetToken(secret.Auth.ClientToken)

	r := &Refresher{client: client, cfg: cfg, stopCh: make(chan struct{})}
	r.wg.Add(1)
	go r.renewLease(secret.Auth)

	return r, nil
}

// Refresh re-reads the configured secret path and returns the credential
// field. Called by a TokenRefreshCoordinator, which ensures at most one
// call to this method is ever in flight at a time for a given coordinator.
func (r *Refresher) Refresh(ctx context.Context) (string, error) {
	secret, err := r.client.Logical().ReadWithContext(ctx, r.cfg.SecretPath)
	if err != nil {
		return "", fmt.Errorf("tokensource/vault: read %q: %w", r.cfg.SecretPath, err)
	}
	if secret == nil || secret.Data == nil {
		return "", fmt.Errorf("tokensource/vault: secret %q not found", r.cfg.SecretPath)
	}

	data := secret.Data
	if v, ok := data["data"]; ok {
		if nested, ok := v.(map[string]interface{}); ok {
			data = nested
		}
	}

	field := r.cfg.Field
	if field == "" {
		field = "value"
	}
	val, ok := data[field]
	if !ok {
		return "", fmt.Errorf("tokensource/vault: field %q not in secret %q", field, r.cfg.SecretPath)
	}
	return fmt.Sprintf("%v", val), nil
}

// Close stops the lease renewer.
func (r *Refresher) Close() error {
	close(r.stopCh)
	r.wg.Wait()
	return nil
}

func (r *Refresher) renewLease(auth *vaultapi.SecretAuth) {
	defer r.wg.Done()
	if !auth.Renewable {
		return
	}

	watcher, err := r.client.NewLifetimeWatcher(&vaultapi.LifetimeWatcherInput{
		Secret: &vaultapi.Secret{Auth: auth},
	})
	if err != nil {
		return
	}
	go watcher.Start()
	defer watcher.Stop()

	for {
		select {
		case <-r.stopCh:
			return
		case err := <-watcher.DoneCh():
			_ = err
			return
		case <-watcher.RenewCh():
		}
	}
}
