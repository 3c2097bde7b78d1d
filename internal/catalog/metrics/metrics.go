package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	cacheHits = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearcheck_feed_cache_hits_total",
		Help: "Upstream feed reads served from cache",
	}, []string{"feed"})
	cacheMisses = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "clearcheck_feed_cache_misses_total",
		Help: "Upstream feed reads that fell through to the feed",
	}, []string{"feed"})
)

// Metrics holds cache counters bound to one upstream feed.
type Metrics struct {
	CacheHits   prometheus.Counter
	CacheMisses prometheus.Counter
}

// New creates metrics for the requirement catalog feed.
func New() *Metrics {
	return For("catalog")
}

// For creates metrics labeled with the given feed name.
func For(feed string) *Metrics {
	return &Metrics{
		CacheHits:   cacheHits.WithLabelValues(feed),
		CacheMisses: cacheMisses.WithLabelValues(feed),
	}
}

func (m *Metrics) RecordCacheHit() {
	if m != nil {
		m.CacheHits.Inc()
	}
}

func (m *Metrics) RecordCacheMiss() {
	if m != nil {
		m.CacheMisses.Inc()
	}
}
