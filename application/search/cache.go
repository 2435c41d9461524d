package search

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"cardpilot/domain/cards"
)

// DefaultCacheTTL is how long a cached search payload stays fresh.
const DefaultCacheTTL = 5 * time.Minute

// Loader produces a fresh payload on a cache miss.
type Loader func(ctx context.Context) (*SearchResponse, error)

type cacheEntry struct {
	data      *SearchResponse
	timestamp time.Time
}

// ResultCache is a time-boxed memoization of search payloads keyed by
// (query, mode, scope). Entries expire after the TTL; there is no LRU and
// unbounded growth within a session is accepted. Concurrent misses on the
// same key are collapsed to a single loader call.
type ResultCache struct {
	mu      sync.RWMutex
	entries map[string]cacheEntry
	ttl     time.Duration
	group   singleflight.Group
}

// NewResultCache creates a cache with the given TTL. A non-positive TTL
// falls back to the default.
func NewResultCache(ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &ResultCache{
		entries: make(map[string]cacheEntry),
		ttl:     ttl,
	}
}

// Key builds the composite cache key from the normalized query, the search
// mode and the active scope identifier.
func (c *ResultCache) Key(query string, mode cards.SearchMode, scope string) string {
	return fmt.Sprintf("%s|%s|%s", strings.ToLower(strings.TrimSpace(query)), mode, scope)
}

// GetOrLoad returns the cached payload when it is still fresh, otherwise
// calls through, stores the fresh payload with a new timestamp and returns
// it. Loader errors are returned without poisoning the cache.
func (c *ResultCache) GetOrLoad(ctx context.Context, key string, load Loader) (*SearchResponse, error) {
	if data, ok := c.get(key); ok {
		return data, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		// Another flight may have filled the entry while we queued.
		if data, ok := c.get(key); ok {
			return data, nil
		}
		data, err := load(ctx)
		if err != nil {
			return nil, err
		}
		c.set(key, data)
		return data, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*SearchResponse), nil
}

// Clear purges all entries. External collaborators call this when global
// invalidation is required, e.g. on logout.
func (c *ResultCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}

// Len returns the number of entries, fresh or stale.
func (c *ResultCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

func (c *ResultCache) get(key string) (*SearchResponse, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	entry, exists := c.entries[key]
	if !exists {
		return nil, false
	}
	if time.Since(entry.timestamp) >= c.ttl {
		return nil, false
	}
	return entry.data, true
}

func (c *ResultCache) set(key string, data *SearchResponse) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[key] = cacheEntry{
		data:      data,
		timestamp: time.Now(),
	}
}
