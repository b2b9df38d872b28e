// Package scorecache remembers sharpness scores for uploaded bytes so a
// re-uploaded photo is not decoded and convolved twice.
//
// Only the raw score and the image dimensions are cached. The blur threshold
// is applied per request, so a host can change it without invalidating
// anything.
package scorecache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/go-redis/redis/v8"
)

// ErrMiss is returned by Get when the key is absent or expired.
var ErrMiss = errors.New("score not cached")

// keyPrefix namespaces scores in a shared Redis.
const keyPrefix = "sharpness:"

// Entry is what the cache remembers about one upload.
type Entry struct {
	Score  float64 `json:"score"`
	Width  int     `json:"width"`
	Height int     `json:"height"`
}

// Cache abstracts the score store so handlers can run with or without Redis.
type Cache interface {
	Get(ctx context.Context, key string) (Entry, error)
	Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error
}

// Key returns the cache key for an uploaded file.
func Key(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}

// RedisCache is a Cache backed by go-redis.
type RedisCache struct {
	client *redis.Client
}

// NewRedisCache constructs a new Redis-backed cache adapter.
func NewRedisCache(client *redis.Client) *RedisCache {
	return &RedisCache{client: client}
}

// Dial connects to Redis at addr and pings it.
func Dial(ctx context.Context, addr string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}
	return client, nil
}

// Get retrieves a cached entry from Redis.
func (c *RedisCache) Get(ctx context.Context, key string) (Entry, error) {
	raw, err := c.client.Get(ctx, keyPrefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return Entry{}, ErrMiss
	}
	if err != nil {
		return Entry{}, err
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return Entry{}, fmt.Errorf("decode cached score: %w", err)
	}
	return e, nil
}

// Set writes an entry to Redis.
func (c *RedisCache) Set(ctx context.Context, key string, entry Entry, ttl time.Duration) error {
	raw, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, keyPrefix+key, raw, ttl).Err()
}

type memoryEntry struct {
	entry   Entry
	expires time.Time
	seq     uint64
}

// DefaultMaxEntries bounds a MemoryCache created by NewMemoryCache.
const DefaultMaxEntries = 10000

// MemoryCache is an in-process Cache holding at most maxEntries scores.
// Expired entries are dropped lazily on Get and swept on Set; when the cache
// is still full the oldest entry is evicted.
type MemoryCache struct {
	mu         sync.Mutex
	entries    map[string]memoryEntry
	maxEntries int
	seq        uint64
	now        func() time.Time
}

// NewMemoryCache creates an empty in-process cache of DefaultMaxEntries.
func NewMemoryCache() *MemoryCache {
	return NewMemoryCacheSize(DefaultMaxEntries)
}

// NewMemoryCacheSize creates an empty cache holding at most maxEntries
// scores. maxEntries < 1 uses DefaultMaxEntries.
func NewMemoryCacheSize(maxEntries int) *MemoryCache {
	if maxEntries < 1 {
		maxEntries = DefaultMaxEntries
	}
	return &MemoryCache{
		entries:    make(map[string]memoryEntry),
		maxEntries: maxEntries,
		now:        time.Now,
	}
}

// Get returns the entry for key, or ErrMiss.
func (c *MemoryCache) Get(_ context.Context, key string) (Entry, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return Entry{}, ErrMiss
	}
	if !e.expires.IsZero() && !c.now().Before(e.expires) {
		delete(c.entries, key)
		return Entry{}, ErrMiss
	}
	return e.entry, nil
}

// Set stores entry under key. A ttl <= 0 never expires, but the entry still
// counts against the size bound.
func (c *MemoryCache) Set(_ context.Context, key string, entry Entry, ttl time.Duration) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()
	for k, e := range c.entries {
		if !e.expires.IsZero() && !now.Before(e.expires) {
			delete(c.entries, k)
		}
	}

	if _, exists := c.entries[key]; !exists {
		for len(c.entries) >= c.maxEntries {
			c.evictOldest()
		}
	}

	c.seq++
	e := memoryEntry{entry: entry, seq: c.seq}
	if ttl > 0 {
		e.expires = now.Add(ttl)
	}
	c.entries[key] = e
	return nil
}

func (c *MemoryCache) evictOldest() {
	var (
		oldestKey string
		oldestSeq uint64
		found     bool
	)
	for k, e := range c.entries {
		if !found || e.seq < oldestSeq {
			oldestKey, oldestSeq, found = k, e.seq, true
		}
	}
	if found {
		delete(c.entries, oldestKey)
	}
}

// Len returns the number of stored entries, including expired ones not yet
// swept.
func (c *MemoryCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
