// Package infra provides shared infrastructure components used across
// the application: response caching, rate limiting, and retry backoff.
package infra

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/phuslu/log"
	"github.com/redis/go-redis/v9"
)

// Cache stores raw response bodies keyed by request. Implementations must be
// safe for concurrent use.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, bool)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
}

// NewCache returns a Redis-backed cache when redisURL is set and reachable,
// otherwise an in-memory cache.
func NewCache(ctx context.Context, redisURL string) Cache {
	if redisURL == "" {
		return NewMemoryCache()
	}
	c, err := NewRedisCache(ctx, redisURL)
	if err != nil {
		log.Warn().Err(err).Msg("redis unavailable, using in-memory cache")
		return NewMemoryCache()
	}
	return c
}

// --- In-memory cache ---

type memItem struct {
	val []byte
	exp time.Time // zero means no expiry
}

// MemoryCache is a thread-safe in-memory cache with per-entry TTL.
type MemoryCache struct {
	mu    sync.RWMutex
	items map[string]memItem
}

// NewMemoryCache creates an empty in-memory cache.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{items: make(map[string]memItem)}
}

// Get returns the value for key if present and not expired.
func (m *MemoryCache) Get(_ context.Context, key string) ([]byte, bool) {
	m.mu.RLock()
	it, ok := m.items[key]
	m.mu.RUnlock()
	if !ok || (!it.exp.IsZero() && time.Now().After(it.exp)) {
		return nil, false
	}
	return it.val, true
}

// Set stores val under key. A non-positive ttl never expires.
func (m *MemoryCache) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	var exp time.Time
	if ttl > 0 {
		exp = time.Now().Add(ttl)
	}
	m.mu.Lock()
	m.items[key] = memItem{val: val, exp: exp}
	m.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired ones included.
func (m *MemoryCache) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.items)
}

// Cleanup removes expired entries. Can be called periodically.
func (m *MemoryCache) Cleanup() {
	m.mu.Lock()
	now := time.Now()
	for k, it := range m.items {
		if !it.exp.IsZero() && now.After(it.exp) {
			delete(m.items, k)
		}
	}
	m.mu.Unlock()
}

// --- Redis cache ---

// RedisCache stores entries in Redis under a key prefix.
type RedisCache struct {
	client *redis.Client
	prefix string
}

// NewRedisCache connects to the Redis instance at url and pings it.
func NewRedisCache(ctx context.Context, url string) (*RedisCache, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	client := redis.NewClient(opt)

	pingCtx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &RedisCache{client: client, prefix: "newsimpact:"}, nil
}

func (r *RedisCache) Get(ctx context.Context, key string) ([]byte, bool) {
	b, err := r.client.Get(ctx, r.prefix+key).Bytes()
	if err != nil {
		if err != redis.Nil {
			log.Debug().Str("key", key).Err(err).Msg("redis get failed")
		}
		return nil, false
	}
	return b, true
}

func (r *RedisCache) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	if ttl < 0 {
		ttl = 0
	}
	return r.client.Set(ctx, r.prefix+key, val, ttl).Err()
}

// Close releases the underlying connection pool.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

// --- JSON helpers ---

// GetJSON decodes a cached JSON value into v.
func GetJSON(ctx context.Context, c Cache, key string, v any) bool {
	data, ok := c.Get(ctx, key)
	if !ok {
		return false
	}
	return json.Unmarshal(data, v) == nil
}

// SetJSON stores v as JSON.
func SetJSON(ctx context.Context, c Cache, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return c.Set(ctx, key, data, ttl)
}
