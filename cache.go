package inkwell

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
)

// CacheBackend is a key-value store with per-entry expiry. The page cache
// sits on top of it; Redis in production, an in-memory map otherwise.
type CacheBackend interface {
	Get(ctx context.Context, key string) (string, bool, error)
	Set(ctx context.Context, key, value string, ttl time.Duration) error
}

// RedisCache backs the page cache with a Redis server.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache connects a cache backend to the Redis server at addr.
func NewRedisCache(addr, password string, db int) *RedisCache {
	return &RedisCache{client: redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})}
}

// Ping verifies the Redis connection.
func (r *RedisCache) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close releases the Redis client.
func (r *RedisCache) Close() error {
	return r.client.Close()
}

func (r *RedisCache) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, key).Result()
	if err == redis.Nil {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}
	return val, true, nil
}

func (r *RedisCache) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	return r.client.Set(ctx, key, value, ttl).Err()
}

// MemoryCache is an in-process CacheBackend with TTL eviction on read.
// It is the default when no Redis address is configured, and what tests use.
type MemoryCache struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
}

type memoryEntry struct {
	value   string
	expires time.Time
}

// NewMemoryCache creates an empty in-memory cache backend.
func NewMemoryCache() *MemoryCache {
	return &MemoryCache{entries: make(map[string]memoryEntry)}
}

func (m *MemoryCache) Get(_ context.Context, key string) (string, bool, error) {
	m.mu.RLock()
	e, ok := m.entries[key]
	m.mu.RUnlock()
	if !ok {
		return "", false, nil
	}
	if time.Now().After(e.expires) {
		m.mu.Lock()
		delete(m.entries, key)
		m.mu.Unlock()
		return "", false, nil
	}
	return e.value, true, nil
}

func (m *MemoryCache) Set(_ context.Context, key, value string, ttl time.Duration) error {
	m.mu.Lock()
	m.entries[key] = memoryEntry{value: value, expires: time.Now().Add(ttl)}
	m.mu.Unlock()
	return nil
}

// PageCache caches list-query responses keyed by normalized request path.
// Entries expire after a fixed TTL and are never invalidated on writes;
// bounded staleness is an accepted tradeoff.
type PageCache struct {
	backend CacheBackend
	ttl     time.Duration
}

// NewPageCache creates a PageCache over the given backend.
func NewPageCache(backend CacheBackend, ttl time.Duration) *PageCache {
	return &PageCache{backend: backend, ttl: ttl}
}

// Lookup returns the cached post list for key. The second return is false on
// a miss; a non-nil error means the backend failed and the caller should
// fall through to the store. A cached entry holding a single post instead of
// a list is promoted to a one-element list and the entry is rewritten.
func (p *PageCache) Lookup(ctx context.Context, key string) ([]Post, bool, error) {
	raw, ok, err := p.backend.Get(ctx, key)
	if err != nil || !ok {
		return nil, false, err
	}
	posts, repaired, err := decodePostList(raw)
	if err != nil {
		// Undecodable entry: treat as a miss and let the store path
		// overwrite it.
		return nil, false, nil
	}
	if repaired {
		if err := p.Store(ctx, key, posts); err != nil {
			return posts, true, err
		}
	}
	return posts, true, nil
}

// Store caches the post list under key for the configured TTL.
func (p *PageCache) Store(ctx context.Context, key string, posts []Post) error {
	if posts == nil {
		posts = []Post{}
	}
	raw, err := json.Marshal(posts)
	if err != nil {
		return err
	}
	return p.backend.Set(ctx, key, string(raw), p.ttl)
}

// decodePostList decodes a cached payload as a post list, or as a single
// post promoted to a one-element list. The repaired flag tells the caller
// to rewrite the entry in list shape.
func decodePostList(raw string) (posts []Post, repaired bool, err error) {
	if err = json.Unmarshal([]byte(raw), &posts); err == nil {
		return posts, false, nil
	}
	var single Post
	if err = json.Unmarshal([]byte(raw), &single); err == nil {
		return []Post{single}, true, nil
	}
	return nil, false, err
}
