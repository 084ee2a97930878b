package builtins

import (
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	cacheHits = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glam_enhancer_cache_hits_total",
			Help: "Enhancer-internal cache hits.",
		},
		[]string{"enhancer"},
	)
	cacheMisses = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "glam_enhancer_cache_misses_total",
			Help: "Enhancer-internal cache misses.",
		},
		[]string{"enhancer"},
	)
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses)
}

type cacheEntry struct {
	value   any
	expires time.Time
}

// ttlCache is a concurrency-safe cache with per-entry expiry. Enhancers
// hold one per instance; it lives outside the pipeline's concurrency
// contract and guards itself.
type ttlCache struct {
	mu       sync.Mutex
	owner    string // enhancer name, used as the metric label
	ttl      time.Duration
	entries  map[string]cacheEntry
	lastSwep time.Time
}

func newTTLCache(owner string, ttl time.Duration) *ttlCache {
	return &ttlCache{
		owner:   owner,
		ttl:     ttl,
		entries: make(map[string]cacheEntry),
	}
}

// get returns the cached value for key if present and unexpired.
func (c *ttlCache) get(key string) (any, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok || time.Now().After(e.expires) {
		if ok {
			delete(c.entries, key)
		}
		cacheMisses.WithLabelValues(c.owner).Inc()
		return nil, false
	}
	cacheHits.WithLabelValues(c.owner).Inc()
	return e.value, true
}

// set stores value under key and opportunistically sweeps expired entries
// at most once per TTL interval.
func (c *ttlCache) set(key string, value any) {
	c.mu.Lock()
	defer c.mu.Unlock()

	now := time.Now()
	c.entries[key] = cacheEntry{value: value, expires: now.Add(c.ttl)}

	if now.Sub(c.lastSwep) >= c.ttl {
		for k, e := range c.entries {
			if now.After(e.expires) {
				delete(c.entries, k)
			}
		}
		c.lastSwep = now
	}
}

// setTTL adjusts the expiry window for subsequent writes.
func (c *ttlCache) setTTL(ttl time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.ttl = ttl
}
