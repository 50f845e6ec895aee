package metrics

import (
	"sync/atomic"

	json "github.com/goccy/go-json"
)

// CacheMetric counts hits and misses of one cache.
type CacheMetric struct {
	name   string
	hits   atomic.Int64
	misses atomic.Int64
}

func newCacheMetric(name string) *CacheMetric {
	return &CacheMetric{name: name}
}

// Hit records a lookup served from the cache.
func (c *CacheMetric) Hit() {
	if Enabled() {
		c.hits.Add(1)
	}
}

// Miss records a lookup that forced a rebuild.
func (c *CacheMetric) Miss() {
	if Enabled() {
		c.misses.Add(1)
	}
}

// Name returns the metric name.
func (c *CacheMetric) Name() string { return c.name }

// Stats returns a snapshot of the counters.
func (c *CacheMetric) Stats() CacheStats {
	hits, misses := c.hits.Load(), c.misses.Load()
	var ratio float64
	if total := hits + misses; total > 0 {
		ratio = float64(hits) / float64(total)
	}
	return CacheStats{Name: c.name, Hits: hits, Misses: misses, HitRatio: ratio}
}

// Reset zeroes the counters.
func (c *CacheMetric) Reset() {
	c.hits.Store(0)
	c.misses.Store(0)
}

// CacheStats is a point-in-time view of a CacheMetric.
type CacheStats struct {
	Name     string  `json:"name"`
	Hits     int64   `json:"hits"`
	Misses   int64   `json:"misses"`
	HitRatio float64 `json:"hit_ratio"`
}

// Cache metrics.
var (
	FlattenCache          = newCacheMetric("flatten")
	BaseResolverCache     = newCacheMetric("resolver_base")
	FilteredResolverCache = newCacheMetric("resolver_filtered")
	AllCheckedCache       = newCacheMetric("all_checked")
)

// AllCacheMetrics returns every cache metric.
func AllCacheMetrics() []*CacheMetric {
	return []*CacheMetric{
		FlattenCache,
		BaseResolverCache,
		FilteredResolverCache,
		AllCheckedCache,
	}
}

// Report is the document printed by ct -robot-metrics.
type Report struct {
	Enabled bool          `json:"enabled"`
	Timings []TimingStats `json:"timings"`
	Caches  []CacheStats  `json:"caches"`
}

// Snapshot collects the current values of every metric.
func Snapshot() Report {
	r := Report{
		Enabled: Enabled(),
		Timings: AllTimingStats(),
	}
	for _, c := range AllCacheMetrics() {
		r.Caches = append(r.Caches, c.Stats())
	}
	return r
}

// MarshalReport renders a snapshot as indented JSON.
func MarshalReport() ([]byte, error) {
	return json.MarshalIndent(Snapshot(), "", "  ")
}
