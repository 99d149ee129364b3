// Package cachestore implements the CacheStore contract from spec.md §4.2:
// an in-memory TTL tier, an optional Redis tier, and a dual-tier
// composition of the two, adapted from the host repo's caches/memory,
// caches/redis, and caches/dual packages.
package cachestore

import (
	"context"
	"time"

	"github.com/vimo-ai/corenetworkkit/pkg/cachekey"
)

// Entry is the stored record for a single key, per spec.md §3
// ("CacheEntry: { bytes, storedAt, maxAge? }"). Expired iff MaxAge is set
// and now-StoredAt exceeds it.
type Entry struct {
	Bytes    []byte
	StoredAt time.Time
	MaxAge   *time.Duration
}

func (e Entry) expired(now time.Time, override *time.Duration) bool {
	maxAge := override
	if maxAge == nil {
		maxAge = e.MaxAge
	}
	if maxAge == nil {
		return false
	}
	return now.Sub(e.StoredAt) > *maxAge
}

// Store is the CacheStore contract from spec.md §4.2.
type Store interface {
	// Read returns the stored bytes for key if present and not expired.
	// maxAge, when non-nil, overrides the entry's own MaxAge for this
	// read only. A miss or expired entry returns (nil, false, nil); an
	// expired entry is removed as a side effect.
	Read(ctx context.Context, key cachekey.Key, maxAge *time.Duration) ([]byte, bool, error)

	// Write replaces any prior entry for key.
	Write(ctx context.Context, key cachekey.Key, value []byte, maxAge *time.Duration) error

	// Invalidate removes a single entry.
	Invalidate(ctx context.Context, key cachekey.Key) error

	// Clear removes every entry.
	Clear(ctx context.Context) error

	// CleanupExpired sweeps entries whose own MaxAge has elapsed.
	CleanupExpired(ctx context.Context) error
}
