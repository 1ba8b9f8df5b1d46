package download

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

// cacheKey is (url, mode) per spec §4.1.
type cacheKey struct {
	url  string
	mode Mode
}

type cacheEntry struct {
	result    Result
	expiresAt time.Time
}

// ResponseCache coalesces concurrent requests for the same (url, mode)
// onto a single in-flight fetch and serves recent results for a
// session-scoped TTL. Hits past the first waiter increment hits,
// matching spec's "cache-hit counter is incremented for all but the
// first" wording.
type ResponseCache struct {
	ttl   time.Duration
	mu    sync.Mutex
	data  map[cacheKey]cacheEntry
	group singleflight.Group

	hits   int64
	misses int64
}

func NewResponseCache(ttl time.Duration) *ResponseCache {
	return &ResponseCache{ttl: ttl, data: make(map[cacheKey]cacheEntry)}
}

// GetOrFetch returns the cached Result for key if fresh, otherwise calls
// fetch exactly once even under concurrent callers and caches the result.
func (c *ResponseCache) GetOrFetch(url string, mode Mode, fetch func() (Result, error)) (Result, error) {
	key := cacheKey{url: url, mode: mode}

	c.mu.Lock()
	if entry, ok := c.data[key]; ok && time.Now().Before(entry.expiresAt) {
		c.hits++
		c.mu.Unlock()
		return entry.result, nil
	}
	c.mu.Unlock()

	sfKey := string(mode) + "|" + url
	// Only the caller whose closure singleflight runs is the first waiter;
	// the shared flag is true for that caller as well when others joined.
	leader := false
	v, err, _ := c.group.Do(sfKey, func() (any, error) {
		leader = true
		return fetch()
	})
	if !leader {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
	} else {
		c.mu.Lock()
		c.misses++
		c.mu.Unlock()
	}
	if err != nil {
		return Result{}, err
	}
	result := v.(Result)

	c.mu.Lock()
	c.data[key] = cacheEntry{result: result, expiresAt: time.Now().Add(c.ttl)}
	c.mu.Unlock()

	return result, nil
}

// Stats returns the cumulative hit/miss counts, used in the final metrics
// summary.
func (c *ResponseCache) Stats() (hits, misses int64) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.hits, c.misses
}
