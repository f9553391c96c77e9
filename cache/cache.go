// Package cache keeps built document indexes keyed by content
// fingerprint, so repeated questions about the same document skip the
// fetch-chunk-embed pipeline.
package cache

import (
	"context"
	"fmt"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/nkosuri/docqa/docstore"
)

const DefaultTTL = time.Hour

// BuildFunc produces the index for a fingerprint on a cache miss.
type BuildFunc func(ctx context.Context) (docstore.Index, error)

type entry struct {
	index   docstore.Index
	builtAt time.Time
}

// Cache is a TTL map of fingerprint to built index. Concurrent misses
// on the same fingerprint share one build. Expired entries are swept
// lazily on access; there is no background goroutine to manage.
type Cache struct {
	ttl   time.Duration
	now   func() time.Time
	group singleflight.Group

	mu      sync.Mutex
	entries map[string]entry
}

type Option func(*Cache)

// WithClock overrides the time source. Tests use this to expire
// entries without sleeping.
func WithClock(now func() time.Time) Option {
	return func(c *Cache) {
		c.now = now
	}
}

// New creates a cache. A non-positive ttl disables expiry.
func New(ttl time.Duration, opts ...Option) *Cache {
	c := &Cache{
		ttl:     ttl,
		now:     time.Now,
		entries: make(map[string]entry),
	}
	for _, opt := range opts {
		opt(c)
	}

	return c
}

// GetOrBuild returns the cached index for the fingerprint, building it
// via build on a miss. The second return reports whether the value was
// served from cache. Failed builds are not cached.
func (c *Cache) GetOrBuild(ctx context.Context, fingerprint string, build BuildFunc) (docstore.Index, bool, error) {
	if idx, ok := c.lookup(fingerprint); ok {
		return idx, true, nil
	}

	v, err, shared := c.group.Do(fingerprint, func() (any, error) {
		// A concurrent caller may have finished the build while this
		// one waited on the flight group.
		if idx, ok := c.lookup(fingerprint); ok {
			return idx, nil
		}

		idx, err := build(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to build index for %s: %w", fingerprint, err)
		}

		c.mu.Lock()
		c.entries[fingerprint] = entry{index: idx, builtAt: c.now()}
		c.mu.Unlock()

		return idx, nil
	})
	if err != nil {
		return nil, false, err
	}

	return v.(docstore.Index), shared, nil
}

// Invalidate drops the entry for a fingerprint if present.
func (c *Cache) Invalidate(fingerprint string) {
	c.mu.Lock()
	delete(c.entries, fingerprint)
	c.mu.Unlock()
}

// Len reports the number of live entries, sweeping expired ones first.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()

	return len(c.entries)
}

func (c *Cache) lookup(fingerprint string) (docstore.Index, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()

	e, ok := c.entries[fingerprint]
	if !ok {
		return nil, false
	}

	return e.index, true
}

// sweep removes expired entries. Callers hold c.mu.
func (c *Cache) sweep() {
	if c.ttl <= 0 {
		return
	}

	cutoff := c.now().Add(-c.ttl)
	for fp, e := range c.entries {
		if e.builtAt.Before(cutoff) {
			delete(c.entries, fp)
		}
	}
}
