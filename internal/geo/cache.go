package geo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/go-redis/cache/v9"
	"github.com/redis/go-redis/v9"

	"github.com/tbourn/go-leads-backend/internal/domain"
)

// DefaultCacheTTL is how long a resolved coordinate stays fresh.
const DefaultCacheTTL = 7 * 24 * time.Hour

// CoordinateCache stores resolved coordinates by normalized location key.
// Implementations only return entries younger than their TTL.
type CoordinateCache interface {
	Get(ctx context.Context, key string) (domain.CoordinateCacheEntry, bool, error)
	Set(ctx context.Context, entry domain.CoordinateCacheEntry) error
}

// MemoryCache is a process-local CoordinateCache. When full, expired entries
// are purged first and then the oldest one is evicted.
type MemoryCache struct {
	ttl        time.Duration
	maxEntries int
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]domain.CoordinateCacheEntry
}

// NewMemoryCache returns an empty cache. maxEntries <= 0 means unbounded.
func NewMemoryCache(ttl time.Duration, maxEntries int) *MemoryCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &MemoryCache{
		ttl:        ttl,
		maxEntries: maxEntries,
		now:        time.Now,
		entries:    make(map[string]domain.CoordinateCacheEntry),
	}
}

func (m *MemoryCache) Get(_ context.Context, key string) (domain.CoordinateCacheEntry, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.entries[key]
	if !ok {
		return domain.CoordinateCacheEntry{}, false, nil
	}
	if !e.Fresh(m.now(), m.ttl) {
		delete(m.entries, key)
		return domain.CoordinateCacheEntry{}, false, nil
	}
	return e, true, nil
}

func (m *MemoryCache) Set(_ context.Context, entry domain.CoordinateCacheEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, exists := m.entries[entry.Key]; !exists && m.maxEntries > 0 && len(m.entries) >= m.maxEntries {
		m.evictLocked()
	}
	m.entries[entry.Key] = entry
	return nil
}

// Len returns the number of stored entries, fresh or not.
func (m *MemoryCache) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

func (m *MemoryCache) evictLocked() {
	now := m.now()
	var oldestKey string
	var oldest time.Time
	for k, e := range m.entries {
		if !e.Fresh(now, m.ttl) {
			delete(m.entries, k)
			continue
		}
		if oldestKey == "" || e.ResolvedAt.Before(oldest) {
			oldestKey, oldest = k, e.ResolvedAt
		}
	}
	if len(m.entries) >= m.maxEntries && oldestKey != "" {
		delete(m.entries, oldestKey)
	}
}

// localCacheSize bounds the TinyLFU layer in front of Redis.
const localCacheSize = 10000

// RedisCache shares resolved coordinates between processes through Redis,
// with an optional in-process TinyLFU layer.
type RedisCache struct {
	cache  *cache.Cache
	ttl    time.Duration
	prefix string
	now    func() time.Time
}

// NewRedisClient parses a redis:// URL into a client.
func NewRedisClient(url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return redis.NewClient(opts), nil
}

// NewRedisCache wraps client. withLocal adds the TinyLFU layer; its entries
// live for at most a minute so other processes' writes are picked up.
func NewRedisCache(client *redis.Client, ttl time.Duration, withLocal bool) *RedisCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	opts := &cache.Options{Redis: client}
	if withLocal {
		opts.LocalCache = cache.NewTinyLFU(localCacheSize, time.Minute)
	}
	return &RedisCache{cache: cache.New(opts), ttl: ttl, prefix: "geo:coord:", now: time.Now}
}

func (r *RedisCache) Get(ctx context.Context, key string) (domain.CoordinateCacheEntry, bool, error) {
	var e domain.CoordinateCacheEntry
	err := r.cache.Get(ctx, r.prefix+key, &e)
	if errors.Is(err, cache.ErrCacheMiss) {
		return domain.CoordinateCacheEntry{}, false, nil
	}
	if err != nil {
		return domain.CoordinateCacheEntry{}, false, err
	}
	if !e.Fresh(r.now(), r.ttl) {
		return domain.CoordinateCacheEntry{}, false, nil
	}
	return e, true, nil
}

func (r *RedisCache) Set(ctx context.Context, entry domain.CoordinateCacheEntry) error {
	return r.cache.Set(&cache.Item{
		Ctx:   ctx,
		Key:   r.prefix + entry.Key,
		Value: entry,
		TTL:   r.ttl,
	})
}
