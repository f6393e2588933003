package redis

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/domain"
	"github.com/Jonathangadeaharder/LangPlug-sub001/internal/metrics"
)

const memoryCacheTTL = 10 * time.Minute

// TranslationCache memoizes word translations in two layers: an in-process
// map for the hot set and Redis for persistence across restarts. Redis
// failures degrade to misses; the pipeline then asks the translation model.
type TranslationCache struct {
	rdb goredis.Cmdable
	ttl time.Duration
	mem *memoryCache
}

var _ domain.TranslationCache = (*TranslationCache)(nil)

// NewTranslationCache creates the cache with the given Redis TTL.
func NewTranslationCache(rdb goredis.Cmdable, ttl time.Duration) *TranslationCache {
	return &TranslationCache{
		rdb: rdb,
		ttl: ttl,
		mem: newMemoryCache(memoryCacheTTL),
	}
}

// StartEvictionTimer runs a periodic goroutine that evicts expired in-memory
// entries. Returns a stop function that should be deferred.
func (c *TranslationCache) StartEvictionTimer(interval time.Duration) func() {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})

	go func() {
		for {
			select {
			case <-ticker.C:
				evicted := c.mem.evictExpired()
				if evicted > 0 {
					slog.Debug("Evicted expired translation cache entries", "count", evicted, "remaining", c.mem.size())
				}

			case <-done:
				ticker.Stop()
				return
			}
		}
	}()

	return func() {
		close(done)
	}
}

func (c *TranslationCache) Get(ctx context.Context, text, source, target string) (string, bool, error) {
	key := translationKey(text, source, target)

	if translation, ok := c.mem.get(key); ok {
		metrics.TranslationCacheHits.WithLabelValues("memory").Inc()
		return translation, true, nil
	}

	translation, err := c.rdb.Get(ctx, key).Result()
	if err != nil {
		if !errors.Is(err, goredis.Nil) {
			slog.Warn("Translation cache GET failed", "key", key, "error", err)
		}
		metrics.TranslationCacheMisses.Inc()
		return "", false, nil
	}

	c.mem.set(key, translation)
	metrics.TranslationCacheHits.WithLabelValues("redis").Inc()
	return translation, true, nil
}

func (c *TranslationCache) Set(ctx context.Context, text, source, target, translation string) error {
	key := translationKey(text, source, target)
	c.mem.set(key, translation)

	if err := c.rdb.Set(ctx, key, translation, c.ttl).Err(); err != nil {
		return fmt.Errorf("translation cache SET failed: %w", err)
	}
	return nil
}

func translationKey(text, source, target string) string {
	return fmt.Sprintf("translation:%s:%s:%s", source, target, text)
}

// memoryCache is an in-memory L1 cache with TTL-based expiry.
type memoryCache struct {
	mu      sync.RWMutex
	entries map[string]*memoryCacheEntry
	ttl     time.Duration
}

type memoryCacheEntry struct {
	translation string
	expiresAt   time.Time
}

func newMemoryCache(ttl time.Duration) *memoryCache {
	return &memoryCache{
		entries: make(map[string]*memoryCacheEntry),
		ttl:     ttl,
	}
}

func (c *memoryCache) get(key string) (string, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, ok := c.entries[key]
	if !ok {
		return "", false
	}
	if time.Now().After(entry.expiresAt) {
		return "", false
	}
	return entry.translation, true
}

func (c *memoryCache) set(key, translation string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = &memoryCacheEntry{
		translation: translation,
		expiresAt:   time.Now().Add(c.ttl),
	}
}

func (c *memoryCache) size() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *memoryCache) evictExpired() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	evicted := 0
	for key, entry := range c.entries {
		if now.After(entry.expiresAt) {
			delete(c.entries, key)
			evicted++
		}
	}
	return evicted
}
