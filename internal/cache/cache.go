// Package cache is a process-local TTL memoization store for expensive
// report aggregations. It is not a source of truth: entries are derived
// data and staleness up to the TTL is accepted.
package cache

import (
	"context"
	"encoding/json"
	"sync"
	"time"
)

type entry struct {
	value     any
	expiresAt time.Time
}

type Cache struct {
	mu      sync.Mutex
	entries map[string]entry
}

func New() *Cache {
	return &Cache{
		entries: make(map[string]entry),
	}
}

// GenerateKey derives a deterministic cache key from an operation name and
// its parameters. encoding/json marshals map keys in sorted order, so
// equivalent parameter sets produce the same key regardless of how the map
// was built.
func GenerateKey(name string, params map[string]any) string {
	if len(params) == 0 {
		return name
	}
	data, err := json.Marshal(params)
	if err != nil {
		// Maps of JSON-encodable values never get here; fall back to the
		// bare name rather than poisoning the cache with a partial key.
		return name
	}
	return name + ":" + string(data)
}

// Get returns the value stored under key while it is still fresh.
// Expired entries are evicted on read and reported as a miss.
func (c *Cache) Get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if !time.Now().Before(e.expiresAt) {
		delete(c.entries, key)
		return nil, false
	}
	return e.value, true
}

// Set stores value under key until now + ttl. Concurrent writers on a cold
// key both compute from the same inputs, so last-write-wins is benign.
func (c *Cache) Set(key string, value any, ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[key] = entry{
		value:     value,
		expiresAt: time.Now().Add(ttl),
	}
}

func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// StartSweeper drops expired entries periodically. Expiration-on-read is
// already correct on its own; the sweep is memory hygiene for keys that
// stop being requested.
func (c *Cache) StartSweeper(ctx context.Context, interval time.Duration) {
	go func() {
		ticker := time.NewTicker(interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				c.sweep(time.Now())
			}
		}
	}()
}

func (c *Cache) sweep(now time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for key, e := range c.entries {
		if !now.Before(e.expiresAt) {
			delete(c.entries, key)
		}
	}
}
