package cachestore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var cacheReads = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hourai_cache_reads",
	Help: "Number of cache reads, by cache name and result (hit or miss)",
}, []string{"cache", "result"})

var memCacheEvictions = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hourai_mem_cache_evictions",
	Help: "Number of entries dropped from the in-process cache, by expiry, capacity or purge",
})

func recordRead(name string, hit bool) {
	result := "miss"
	if hit {
		result = "hit"
	}
	cacheReads.WithLabelValues(name, result).Inc()
}
