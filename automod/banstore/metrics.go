package banstore

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var bansSavedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hourai_bans_saved",
	Help: "Number of ban records written to the ban store",
})
