package cachestore

import (
	"context"
	"time"

	gocache "github.com/patrickmn/go-cache"

	"github.com/vimo-ai/corenetworkkit/pkg/cachekey"
)

// MemoryConfig configures a MemoryStore.
type MemoryConfig struct {
	// CleanupInterval is how often the background janitor sweeps
	// absolute-expired entries. Zero disables the janitor; CleanupExpired
	// can still be called explicitly.
	CleanupInterval time.Duration
}

// DefaultMemoryConfig returns sensible defaults.
func DefaultMemoryConfig() MemoryConfig {
	return MemoryConfig{CleanupInterval: time.Minute}
}

// MemoryStore is the in-memory TTL tier from spec.md §4.2, built on
// patrickmn/go-cache's janitor-swept map.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore constructs a MemoryStore.
func NewMemoryStore(cfg MemoryConfig) *MemoryStore {
	if cfg.CleanupInterval <= 0 {
		cfg.CleanupInterval = time.Minute
	}
	return &MemoryStore{c: gocache.New(gocache.NoExpiration, cfg.CleanupInterval)}
}

func (s *MemoryStore) Read(_ context.Context, key cachekey.Key, maxAge *time.Duration) ([]byte, bool, error) {
	raw, ok := s.c.Get(key.String())
	if !ok {
		return nil, false, nil
	}
	entry, ok := raw.(Entry)
	if !ok {
		// Fails to decode at read time: evict on the spot, per spec.md §3.
		s.c.Delete(key.String())
		return nil, false, nil
	}
	if entry.expired(time.Now(), maxAge) {
		s.c.Delete(key.String())
		return nil, false, nil
	}
	// Reads return copies, per spec.md §3 ("CacheEntry is owned solely by
	// CacheStore; reads return copies").
	out := make([]byte, len(entry.Bytes))
	copy(out, entry.Bytes)
	return out, true, nil
}

func (s *MemoryStore) Write(_ context.Context, key cachekey.Key, value []byte, maxAge *time.Duration) error {
	stored := make([]byte, len(value))
	copy(stored, value)

	ttl := gocache.NoExpiration
	if maxAge != nil {
		ttl = *maxAge
	}
	s.c.Set(key.String(), Entry{Bytes: stored, StoredAt: time.Now(), MaxAge: maxAge}, ttl)
	return nil
}

func (s *MemoryStore) Invalidate(_ context.Context, key cachekey.Key) error {
	s.c.Delete(key.String())
	return nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.c.Flush()
	return nil
}

func (s *MemoryStore) CleanupExpired(_ context.Context) error {
	s.c.DeleteExpired()
	return nil
}
