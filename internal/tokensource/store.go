// Package tokensource provides TokenStore/TokenRefresher adapters for the
// credential boundary in pkg/engine.
package tokensource

import (
	"context"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/vimo-ai/corenetworkkit/pkg/engine"
)

// CachedStore is a TokenStore holding the most recently refreshed token
// in memory, guarded by a mutex. Set is called by the store's owner (the
// TokenRefreshCoordinator does not call it); the executor calls Get on
// every attempt.
type CachedStore struct {
	mu    sync.RWMutex
	token string
	set   bool
}

// NewCachedStore returns an empty store; Get reports (empty, false) until
// the first Set.
func NewCachedStore() *CachedStore {
	return &CachedStore{}
}

// NewCachedStoreWithToken seeds the store with an initial token, useful
// when a static credential is available before the first refresh.
func NewCachedStoreWithToken(token string) *CachedStore {
	return &CachedStore{token: token, set: true}
}

func (s *CachedStore) Get(context.Context) (string, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.token, s.set
}

// Set records a freshly refreshed token.
func (s *CachedStore) Set(token string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.token = token
	s.set = true
}

var _ engine.TokenStore = (*CachedStore)(nil)

// IsJWTExpired parses token as a JWT and reports whether its "exp" claim
// has elapsed, with skew as a safety margin. A token that isn't a parsable
// JWT is treated as not expired: opaque tokens have no freshness signal
// beyond a 401.
func IsJWTExpired(token string, skew time.Duration) bool {
	parser := jwt.NewParser()
	claims := jwt.MapClaims{}
	_, _, err := parser.ParseUnverified(token, claims)
	if err != nil {
		return false
	}
	exp, err := claims.GetExpirationTime()
	if err != nil || exp == nil {
		return false
	}
	return time.Now().Add(skew).After(exp.Time)
}
