package search

import (
	"context"
	"slices"
	"strconv"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// Cache defaults.
const (
	DefaultCacheTTL  = time.Hour
	DefaultCacheSize = 256
)

type cacheEntry struct {
	results []Result
	expires time.Time
}

// Cache memoizes a Provider's results per (query, maxResults) for a TTL.
// Concurrent identical lookups share one upstream request. Empty results
// are never cached so a transient failure is retried on the next call.
//
// The shared request is detached from any single caller's cancellation and
// is bounded by the provider's own timeout. A caller whose context ends
// stops waiting and gets an empty result; the others still get theirs.
type Cache struct {
	provider Provider
	ttl      time.Duration
	maxSize  int
	now      func() time.Time

	mu      sync.RWMutex
	entries map[string]cacheEntry
	group   singleflight.Group
}

// NewCache wraps p. Non-positive ttl or maxSize select the defaults.
func NewCache(p Provider, ttl time.Duration, maxSize int) *Cache {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	if maxSize <= 0 {
		maxSize = DefaultCacheSize
	}
	return &Cache{
		provider: p,
		ttl:      ttl,
		maxSize:  maxSize,
		now:      time.Now,
		entries:  make(map[string]cacheEntry),
	}
}

// Kind implements Provider.
func (c *Cache) Kind() Kind { return c.provider.Kind() }

// Len returns the number of cached entries, expired ones included.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.entries)
}

// Search implements Provider.
func (c *Cache) Search(ctx context.Context, query string, maxResults int) []Result {
	key := strconv.Itoa(maxResults) + "\x00" + query

	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if ok && c.now().Before(e.expires) {
		return slices.Clone(e.results)
	}

	shared := context.WithoutCancel(ctx)

	ch := c.group.DoChan(key, func() (any, error) {
		results := c.provider.Search(shared, query, maxResults)
		if len(results) > 0 {
			c.store(key, results)
		}
		return results, nil
	})

	select {
	case res := <-ch:
		return slices.Clone(res.Val.([]Result))
	case <-ctx.Done():
		return []Result{}
	}
}

func (c *Cache) store(key string, results []Result) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := c.now()

	if _, exists := c.entries[key]; !exists && len(c.entries) >= c.maxSize {
		c.evictLocked(now)
	}

	c.entries[key] = cacheEntry{results: slices.Clone(results), expires: now.Add(c.ttl)}
}

// evictLocked drops expired entries, or the entry closest to expiry if none
// have expired yet.
func (c *Cache) evictLocked(now time.Time) {
	var (
		oldestKey string
		oldest    time.Time
	)

	for k, e := range c.entries {
		if !now.Before(e.expires) {
			delete(c.entries, k)
			continue
		}
		if oldestKey == "" || e.expires.Before(oldest) {
			oldestKey, oldest = k, e.expires
		}
	}

	if len(c.entries) >= c.maxSize && oldestKey != "" {
		delete(c.entries, oldestKey)
	}
}
