package cachestore

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/goccy/go-json"
	goredis "github.com/redis/go-redis/v9"

	"github.com/vimo-ai/corenetworkkit/pkg/cachekey"
)

// RedisConfig configures a RedisStore.
type RedisConfig struct {
	Addr      string
	Password  string
	DB        int
	Namespace string

	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
	PoolSize     int
}

// DefaultRedisConfig returns sensible defaults.
func DefaultRedisConfig() RedisConfig {
	return RedisConfig{
		Addr:         "localhost:6379",
		Namespace:    "corenetworkkit",
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     10,
	}
}

// RedisStore is the optional shared-cache tier from SPEC_FULL.md §1,
// adapted from the host repo's caches/redis package onto the CacheKey/
// Entry types of this module.
type RedisStore struct {
	client    goredis.UniversalClient
	namespace string
}

// NewRedisStore connects to Redis and verifies the connection is live.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	client := goredis.NewClient(&goredis.Options{
		Addr:         cfg.Addr,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  cfg.DialTimeout,
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
		PoolSize:     cfg.PoolSize,
	})

	pingCtx, cancel := context.WithTimeout(ctx, cfg.DialTimeout)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("cachestore: redis ping: %w", err)
	}

	return &RedisStore{client: client, namespace: cfg.Namespace}, nil
}

// NewRedisStoreFromClient wraps an already-constructed client, useful for
// tests against miniredis.
func NewRedisStoreFromClient(client goredis.UniversalClient, namespace string) *RedisStore {
	return &RedisStore{client: client, namespace: namespace}
}

func (s *RedisStore) prefixed(key cachekey.Key) string {
	if s.namespace == "" {
		return key.String()
	}
	return s.namespace + ":" + key.String()
}

func (s *RedisStore) Read(ctx context.Context, key cachekey.Key, maxAge *time.Duration) ([]byte, bool, error) {
	raw, err := s.client.Get(ctx, s.prefixed(key)).Bytes()
	if err != nil {
		if errors.Is(err, goredis.Nil) {
			return nil, false, nil
		}
		return nil, false, fmt.Errorf("cachestore: redis get: %w", err)
	}

	var entry Entry
	if err := json.Unmarshal(raw, &entry); err != nil {
		_ = s.client.Del(ctx, s.prefixed(key)).Err()
		return nil, false, nil
	}
	if entry.expired(time.Now(), maxAge) {
		_ = s.client.Del(ctx, s.prefixed(key)).Err()
		return nil, false, nil
	}
	return entry.Bytes, true, nil
}

func (s *RedisStore) Write(ctx context.Context, key cachekey.Key, value []byte, maxAge *time.Duration) error {
	entry := Entry{Bytes: value, StoredAt: time.Now(), MaxAge: maxAge}
	data, err := json.Marshal(entry)
	if err != nil {
		return fmt.Errorf("cachestore: marshal entry: %w", err)
	}

	var ttl time.Duration
	if maxAge != nil {
		ttl = *maxAge
	}
	if err := s.client.Set(ctx, s.prefixed(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cachestore: redis set: %w", err)
	}
	return nil
}

func (s *RedisStore) Invalidate(ctx context.Context, key cachekey.Key) error {
	if err := s.client.Del(ctx, s.prefixed(key)).Err(); err != nil {
		return fmt.Errorf("cachestore: redis del: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear(ctx context.Context) error {
	pattern := s.namespace + ":*"
	if s.namespace == "" {
		pattern = "*"
	}
	iter := s.client.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		if err := s.client.Del(ctx, iter.Val()).Err(); err != nil {
			return fmt.Errorf("cachestore: redis clear: %w", err)
		}
	}
	return iter.Err()
}

// CleanupExpired is a no-op: Redis's own TTL already sweeps entries
// written with a maxAge, and entries written without one are intended to
// live until explicitly invalidated.
func (s *RedisStore) CleanupExpired(_ context.Context) error {
	return nil
}

// Close releases the underlying client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
