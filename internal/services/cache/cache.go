package cache

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/singleflight"

	"weather-bot/internal/models"
	"weather-bot/pkg/observe"
)

// TTL is how long a fetched report is served without asking the provider again.
const TTL = 600 * time.Second

// FetchFunc loads a fresh report from the provider.
type FetchFunc func(ctx context.Context) (models.WeatherReport, error)

// CacheEntry is the last successful fetch for a key.
type CacheEntry struct {
	FetchedAt time.Time
	Report    models.WeatherReport
}

func (e CacheEntry) fresh(now time.Time, ttl time.Duration) bool {
	return now.Sub(e.FetchedAt) < ttl
}

// WeatherCache maps a case-folded location string to its most recent report.
// Entries are never evicted: stale ones are skipped and overwritten by the next
// successful fetch. Concurrent misses for the same key share one fetch.
type WeatherCache struct {
	mu      sync.Mutex
	entries map[string]CacheEntry

	ttl   time.Duration
	clock Clock
	group singleflight.Group
	l     *observe.Logger
}

func NewWeatherCache(clock Clock, l *observe.Logger) *WeatherCache {
	if clock == nil {
		clock = SystemClock{}
	}

	return &WeatherCache{
		entries: make(map[string]CacheEntry),
		ttl:     TTL,
		clock:   clock,
		l:       l,
	}
}

// Key normalizes a raw location string into a cache key.
func Key(raw string) string {
	return strings.ToLower(raw)
}

// GetOrFetch returns the cached report for key while it is fresh, otherwise calls
// fetch once and stores its result. A failed fetch is returned as is and leaves
// any previous entry in place. The shared fetch is detached from the caller's
// cancellation; each caller stops waiting when its own ctx is done.
func (c *WeatherCache) GetOrFetch(ctx context.Context, key string, fetch FetchFunc) (models.WeatherReport, error) {
	key = Key(key)

	if entry, ok := c.fresh(key); ok {
		c.l.Debug("weather cache hit", map[string]any{"key": key, "fetchedAt": entry.FetchedAt})
		return entry.Report, nil
	}

	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (any, error) {
		// a flight that finished just before this one may already have stored the entry
		if entry, ok := c.fresh(key); ok {
			return entry.Report, nil
		}

		c.l.Debug("weather cache miss", map[string]any{"key": key})

		requestedAt := c.clock.Now()
		report, err := fetch(flightCtx)
		if err != nil {
			return nil, err
		}

		c.store(key, CacheEntry{FetchedAt: requestedAt, Report: report})
		return report, nil
	})

	select {
	case <-ctx.Done():
		c.l.Warning("weather cache wait abandoned", map[string]any{"key": key, "err": ctx.Err().Error()})
		return models.WeatherReport{}, ctx.Err()
	case res := <-ch:
		if res.Err != nil {
			c.l.Warning("weather cache refresh failed", map[string]any{"key": key, "err": res.Err.Error(), "shared": res.Shared})
			return models.WeatherReport{}, res.Err
		}
		return res.Val.(models.WeatherReport), nil
	}
}

// Entry returns the stored entry for key regardless of freshness.
func (c *WeatherCache) Entry(key string) (CacheEntry, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	entry, ok := c.entries[Key(key)]
	return entry, ok
}

func (c *WeatherCache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	return len(c.entries)
}

func (c *WeatherCache) fresh(key string) (CacheEntry, bool) {
	c.mu.Lock()
	entry, ok := c.entries[key]
	c.mu.Unlock()

	if !ok || !entry.fresh(c.clock.Now(), c.ttl) {
		return CacheEntry{}, false
	}
	return entry, true
}

func (c *WeatherCache) store(key string, entry CacheEntry) {
	c.mu.Lock()
	c.entries[key] = entry
	c.mu.Unlock()
}
