package tasks

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var loopErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hourai_loop_errors",
	Help: "Number of failed (or panicked) loop iterations",
}, []string{"loop"})

var loopIterationDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
	Name:    "hourai_loop_iteration_duration_sec",
	Help:    "Duration of loop iterations",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 16),
}, []string{"loop"})
