package listing

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var postCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hourai_listing_posts",
	Help: "Number of guild counts posted to listing sites",
}, []string{"site"})

var postErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hourai_listing_post_errors",
	Help: "Number of failed guild count posts",
}, []string{"site"})
