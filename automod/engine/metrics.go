package engine

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var validationCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hourai_validations",
	Help: "Number of member validation passes, by outcome",
}, []string{"outcome"})

var validatorErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hourai_validator_errors",
	Help: "Number of validator evaluations which failed or panicked",
}, []string{"validator"})

var validationDuration = promauto.NewHistogram(prometheus.HistogramOpts{
	Name:    "hourai_validation_duration_sec",
	Help:    "Duration of full member validation passes",
	Buckets: prometheus.ExponentialBuckets(0.001, 2, 12),
})
