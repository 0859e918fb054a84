package cache

import (
	"context"
	"sync"
	"time"

	"chirpd/internal/core"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	hits = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chirpd_feed_cache_hits_total",
		Help: "The total number of feed cache hits",
	})
	misses = promauto.NewCounter(prometheus.CounterOpts{
		Name: "chirpd_feed_cache_misses_total",
		Help: "The total number of feed cache misses",
	})
)

type entry struct {
	units    []core.DisplayUnit
	storedAt time.Time
}

// TTL is the process-local feed cache. Entries expire after a short TTL and
// any write operation clears the whole cache; stale reads inside the TTL
// window are acceptable, correctness never depends on the cache.
type TTL struct {
	Config *core.Config

	mu      sync.RWMutex
	ttl     time.Duration
	entries map[string]entry
	now     func() time.Time
}

// New builds a cache for direct construction in tests; under pal the zero
// value is configured by Init.
func New(ttl time.Duration) *TTL {
	return &TTL{
		ttl:     ttl,
		entries: map[string]entry{},
		now:     time.Now,
	}
}

func (c *TTL) Init(_ context.Context) error {
	c.ttl = c.Config.FeedCacheTTL
	c.entries = map[string]entry{}
	c.now = time.Now
	return nil
}

func (c *TTL) Get(key string) ([]core.DisplayUnit, bool) {
	c.mu.RLock()
	e, ok := c.entries[key]
	c.mu.RUnlock()

	if !ok || c.now().Sub(e.storedAt) > c.ttl {
		misses.Inc()
		return nil, false
	}
	hits.Inc()
	return e.units, true
}

// Set overwrites unconditionally, last write wins.
func (c *TTL) Set(key string, units []core.DisplayUnit) {
	c.mu.Lock()
	c.entries[key] = entry{units: units, storedAt: c.now()}
	c.mu.Unlock()
}

func (c *TTL) Clear() {
	c.mu.Lock()
	c.entries = map[string]entry{}
	c.mu.Unlock()
}

// SetClock replaces the time source. Test hook.
func (c *TTL) SetClock(now func() time.Time) {
	c.mu.Lock()
	c.now = now
	c.mu.Unlock()
}

// Noop satisfies core.FeedCache while caching nothing.
type Noop struct{}

func (Noop) Get(string) ([]core.DisplayUnit, bool) { return nil, false }
func (Noop) Set(string, []core.DisplayUnit)        {}
func (Noop) Clear()                                {}
