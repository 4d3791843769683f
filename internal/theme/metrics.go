package theme

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/HerbHall/startpage/pkg/tokens"
)

var (
	cacheHits = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "startpage_theme_cache_hits_total",
		Help: "Token resolutions served from the resolver cache.",
	})
	cacheMisses = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "startpage_theme_cache_misses_total",
		Help: "Token resolutions computed from settings.",
	})
	cacheEvictions = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "startpage_theme_cache_evictions_total",
		Help: "Cache entries dropped because the cache was full.",
	})
	cacheResets = prometheus.NewCounter(prometheus.CounterOpts{
		Name: "startpage_theme_cache_resets_total",
		Help: "Whole-cache invalidations after settings, workspace or header mode changes.",
	})
)

func init() {
	prometheus.MustRegister(cacheHits, cacheMisses, cacheEvictions, cacheResets)
}

// metricsObserver forwards resolver cache events to Prometheus.
type metricsObserver struct{}

var _ tokens.CacheObserver = metricsObserver{}

func (metricsObserver) CacheHit()     { cacheHits.Inc() }
func (metricsObserver) CacheMiss()    { cacheMisses.Inc() }
func (metricsObserver) CacheEvicted() { cacheEvictions.Inc() }
func (metricsObserver) CacheReset()   { cacheResets.Inc() }
