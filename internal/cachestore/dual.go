package cachestore

import (
	"context"
	"time"

	"github.com/vimo-ai/corenetworkkit/pkg/cachekey"
)

// DualStore composes a MemoryStore (L1) and a RedisStore (L2): reads check
// L1 first, then L2 with backfill; writes go to both. Adapted from the
// host repo's caches/dual package onto the Store contract above.
type DualStore struct {
	local  *MemoryStore
	remote *RedisStore
}

// NewDualStore composes local and remote into a single Store. remote may
// be nil, in which case DualStore behaves as local alone.
func NewDualStore(local *MemoryStore, remote *RedisStore) *DualStore {
	return &DualStore{local: local, remote: remote}
}

func (s *DualStore) Read(ctx context.Context, key cachekey.Key, maxAge *time.Duration) ([]byte, bool, error) {
	if val, ok, err := s.local.Read(ctx, key, maxAge); err != nil || ok {
		return val, ok, err
	}

	if s.remote == nil {
		return nil, false, nil
	}

	val, ok, err := s.remote.Read(ctx, key, maxAge)
	if err != nil || !ok {
		return nil, false, err
	}

	// Backfill L1 best-effort; a failure here doesn't affect the read.
	_ = s.local.Write(ctx, key, val, maxAge)
	return val, true, nil
}

func (s *DualStore) Write(ctx context.Context, key cachekey.Key, value []byte, maxAge *time.Duration) error {
	if err := s.local.Write(ctx, key, value, maxAge); err != nil {
		return err
	}
	if s.remote != nil {
		return s.remote.Write(ctx, key, value, maxAge)
	}
	return nil
}

func (s *DualStore) Invalidate(ctx context.Context, key cachekey.Key) error {
	_ = s.local.Invalidate(ctx, key)
	if s.remote != nil {
		return s.remote.Invalidate(ctx, key)
	}
	return nil
}

func (s *DualStore) Clear(ctx context.Context) error {
	_ = s.local.Clear(ctx)
	if s.remote != nil {
		return s.remote.Clear(ctx)
	}
	return nil
}

func (s *DualStore) CleanupExpired(ctx context.Context) error {
	_ = s.local.CleanupExpired(ctx)
	if s.remote != nil {
		return s.remote.CleanupExpired(ctx)
	}
	return nil
}
