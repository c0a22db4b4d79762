package metrics

import "github.com/prometheus/client_golang/prometheus"

// CacheMetrics holds Prometheus metrics for the author display cache.
type CacheMetrics struct {
	Hits   prometheus.Counter
	Misses prometheus.Counter
	Errors *prometheus.CounterVec
}

// NewCacheMetrics creates and registers author cache metrics on the given registry.
func NewCacheMetrics(reg prometheus.Registerer) *CacheMetrics {
	m := &CacheMetrics{
		Hits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "author_cache",
			Name:      "hits_total",
			Help:      "Total number of author lookups served from cache.",
		}),
		Misses: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "author_cache",
			Name:      "misses_total",
			Help:      "Total number of author lookups that went to the chat platform.",
		}),
		Errors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "author_cache",
			Name:      "errors_total",
			Help:      "Total number of cache read or write failures, by operation.",
		}, []string{"operation"}),
	}

	reg.MustRegister(m.Hits, m.Misses, m.Errors)
	return m
}
