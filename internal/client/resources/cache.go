package resources

import (
	"context"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"
	"golang.org/x/sync/singleflight"

	"github.com/dmitrijs2005/finbroker/internal/logging"
)

// ByteSource supplies raw bytes for a resource reference; implemented by
// Fetcher and by fakes in tests.
type ByteSource interface {
	Fetch(ctx context.Context, ref string) ([]byte, string, error)
}

const (
	// DefaultTTL bounds how long a handle may be served without refetching.
	// The server can replace bytes behind an unchanged reference (avatar
	// re-upload), so freshness must expire even for a stable key.
	DefaultTTL = 5 * time.Minute

	// DefaultSize caps how many handles are held at once.
	DefaultSize = 128
)

// Cache maps resource references to live handles. It is the sole owner of
// every handle it hands out: one live handle per key, superseded or evicted
// handles released through the eviction callback exactly once.
type Cache struct {
	source ByteSource
	lru    *expirable.LRU[string, *Handle]
	sf     singleflight.Group
	log    logging.Logger
}

// NewCache builds a cache over source. size <= 0 falls back to DefaultSize,
// ttl <= 0 to DefaultTTL.
func NewCache(source ByteSource, size int, ttl time.Duration, log logging.Logger) *Cache {
	if size <= 0 {
		size = DefaultSize
	}
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	c := &Cache{source: source, log: log}
	c.lru = expirable.NewLRU[string, *Handle](size, c.onEvict, ttl)
	return c
}

func (c *Cache) onEvict(ref string, h *Handle) {
	h.release()
}

// Resolve returns a live handle for ref. An empty reference means "no
// resource configured" and resolves to nil without touching the network.
// Concurrent resolutions of the same reference share one underlying fetch;
// fetch errors are returned to every waiter and nothing is cached for the
// key. If the consumer disappears before the fetch finishes the result is
// still cached and ages out through the normal freshness window.
func (c *Cache) Resolve(ctx context.Context, ref string) (*Handle, error) {
	if ref == "" {
		return nil, nil
	}

	if h, ok := c.lru.Get(ref); ok {
		return h, nil
	}

	v, err, _ := c.sf.Do(ref, func() (any, error) {
		// Another waiter may have populated the entry between our miss
		// and acquiring the flight.
		if h, ok := c.lru.Get(ref); ok {
			return h, nil
		}

		data, ct, err := c.source.Fetch(ctx, ref)
		if err != nil {
			return nil, err
		}

		h := newHandle(data, ct)
		// Remove first so a stale predecessor is released through the
		// eviction callback before the new handle takes the key.
		c.lru.Remove(ref)
		c.lru.Add(ref, h)
		c.log.Debug(ctx, "cached resource handle", "ref", ref, "size", h.Size())
		return h, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Handle), nil
}

// Invalidate drops the entry for ref, releasing its handle. Callers must
// invalidate after replacing upload bytes server-side, since the reference
// string alone cannot reveal that the content changed.
func (c *Cache) Invalidate(ref string) {
	c.lru.Remove(ref)
}

// Purge releases every cached handle.
func (c *Cache) Purge() {
	c.lru.Purge()
}

// Len reports how many handles are currently cached.
func (c *Cache) Len() int {
	return c.lru.Len()
}
