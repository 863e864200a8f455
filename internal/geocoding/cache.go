package geocoding

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"time"

	"listing-service/internal/storage"
)

// CacheLayer is one level of the geocode cache.
type CacheLayer interface {
	Name() string
	Get(ctx context.Context, key string) (*Result, bool, error)
	Store(ctx context.Context, key string, r *Result) error
}

// MemoryCache is a bounded in-process layer with TTL and LRU eviction.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]*memoryEntry
	maxEntries int
	ttl        time.Duration
	now        func() time.Time
}

type memoryEntry struct {
	result     *Result
	createdAt  time.Time
	lastAccess time.Time
}

func NewMemoryCache(maxEntries int, ttl time.Duration) *MemoryCache {
	return &MemoryCache{
		entries:    make(map[string]*memoryEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
		now:        time.Now,
	}
}

func (mc *MemoryCache) Name() string {
	return "MEMORY"
}

func (mc *MemoryCache) Get(_ context.Context, key string) (*Result, bool, error) {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	entry, ok := mc.entries[key]
	if !ok {
		return nil, false, nil
	}
	now := mc.now()
	if now.Sub(entry.createdAt) > mc.ttl {
		delete(mc.entries, key)
		return nil, false, nil
	}
	entry.lastAccess = now
	return entry.result, true, nil
}

func (mc *MemoryCache) Store(_ context.Context, key string, r *Result) error {
	mc.mu.Lock()
	defer mc.mu.Unlock()

	if _, exists := mc.entries[key]; !exists {
		for len(mc.entries) >= mc.maxEntries {
			if !mc.evictLRU() {
				return fmt.Errorf("unable to free space in memory cache")
			}
		}
	}
	now := mc.now()
	mc.entries[key] = &memoryEntry{result: r, createdAt: now, lastAccess: now}
	return nil
}

// Len returns the number of cached entries, expired ones included.
func (mc *MemoryCache) Len() int {
	mc.mu.Lock()
	defer mc.mu.Unlock()
	return len(mc.entries)
}

// evictLRU must be called with mc.mu held.
func (mc *MemoryCache) evictLRU() bool {
	var oldestKey string
	var oldestTime time.Time
	for key, entry := range mc.entries {
		if oldestKey == "" || entry.lastAccess.Before(oldestTime) {
			oldestKey = key
			oldestTime = entry.lastAccess
		}
	}
	if oldestKey == "" {
		return false
	}
	delete(mc.entries, oldestKey)
	return true
}

// RedisCache shares geocode results between service instances.
type RedisCache struct {
	client *storage.RedisClient
	ttl    time.Duration
}

func NewRedisCache(client *storage.RedisClient, ttl time.Duration) *RedisCache {
	return &RedisCache{client: client, ttl: ttl}
}

func (rc *RedisCache) Name() string {
	return "REDIS"
}

func redisKey(key string) string {
	return "geocode:" + key
}

func (rc *RedisCache) Get(ctx context.Context, key string) (*Result, bool, error) {
	data, err := rc.client.GetBytes(ctx, redisKey(key))
	if err != nil {
		return nil, false, fmt.Errorf("redis error: %w", err)
	}
	if data == nil {
		return nil, false, nil
	}
	var r Result
	if err := json.Unmarshal(data, &r); err != nil {
		log.Printf("Redis cache: dropping undecodable entry %s: %v", key, err)
		_ = rc.client.Delete(ctx, redisKey(key))
		return nil, false, nil
	}
	return &r, true, nil
}

func (rc *RedisCache) Store(ctx context.Context, key string, r *Result) error {
	data, err := json.Marshal(r)
	if err != nil {
		return err
	}
	if err := rc.client.SetBytes(ctx, redisKey(key), data, rc.ttl); err != nil {
		return fmt.Errorf("failed to store in Redis: %w", err)
	}
	return nil
}
