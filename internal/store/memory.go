package store

import (
	"sync"
	"time"

	"github.com/airemonte/termica-bot/internal/meteo"
)

// cacheEntry is one coordinate's fetch result with its fetch time.
type cacheEntry struct {
	series    []meteo.ModelSeries
	fetchedAt time.Time
}

// SeriesCache is a concurrency-safe in-memory cache of per-coordinate model
// fetch results. Forecasts for the default location set arrive with every
// inbound message, so a short TTL saves a full model fan-out per message.
type SeriesCache struct {
	mu      sync.Mutex
	entries map[string]cacheEntry

	maxEntries int           // max cached coordinates (0 = unlimited)
	ttl        time.Duration // max entry age (0 = unlimited)
}

// NewSeriesCache creates a SeriesCache with optional limits.
func NewSeriesCache(maxEntries int, ttl time.Duration) *SeriesCache {
	return &SeriesCache{
		entries:    make(map[string]cacheEntry),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get returns the cached series for coord, or ok=false when the coordinate
// was never fetched or its entry has aged out.
func (c *SeriesCache) Get(coord meteo.Coordinate) ([]meteo.ModelSeries, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[coord.Key()]
	if !ok {
		return nil, false
	}
	if c.ttl > 0 && meteo.Now().Sub(entry.fetchedAt) > c.ttl {
		delete(c.entries, coord.Key())
		return nil, false
	}
	return entry.series, true
}

// Put stores a fetch result for coord, evicting the oldest entry when the
// entry limit is exceeded.
func (c *SeriesCache) Put(coord meteo.Coordinate, series []meteo.ModelSeries) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.entries[coord.Key()] = cacheEntry{series: series, fetchedAt: meteo.Now()}

	if c.maxEntries <= 0 {
		return
	}
	for len(c.entries) > c.maxEntries {
		oldestKey := ""
		var oldest time.Time
		for key, entry := range c.entries {
			if oldestKey == "" || entry.fetchedAt.Before(oldest) {
				oldestKey = key
				oldest = entry.fetchedAt
			}
		}
		delete(c.entries, oldestKey)
	}
}
