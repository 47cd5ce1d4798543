package dashboard

import (
	"sync"
	"time"

	"golang.org/x/sync/singleflight"
)

type cacheEntry struct {
	snap    *Snapshot
	expires time.Time
}

// cache holds snapshots per month. Concurrent misses for the same month
// share one fetch. Failed fetches are not cached.
type cache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]cacheEntry
}

func newCache(ttl time.Duration, now func() time.Time) *cache {
	return &cache{ttl: ttl, now: now, entries: make(map[string]cacheEntry)}
}

// get returns the cached snapshot for key or calls fetch. hit reports whether
// the value came from the cache.
func (c *cache) get(key string, fetch func() (*Snapshot, error)) (snap *Snapshot, hit bool, err error) {
	c.mu.Lock()
	e, ok := c.entries[key]
	c.mu.Unlock()
	if ok && c.now().Before(e.expires) {
		return e.snap, true, nil
	}

	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		snap, err := fetch()
		if err != nil {
			return nil, err
		}
		c.mu.Lock()
		c.entries[key] = cacheEntry{snap: snap, expires: c.now().Add(c.ttl)}
		c.mu.Unlock()
		return snap, nil
	})
	if err != nil {
		return nil, false, err
	}
	return v.(*Snapshot), false, nil
}

func (c *cache) clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries = make(map[string]cacheEntry)
}
