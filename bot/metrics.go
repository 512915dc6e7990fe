package bot

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var verifiedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hourai_members_verified",
	Help: "Number of joining members automatically granted the validation role",
})

var manualVerificationCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hourai_members_manual_verification",
	Help: "Number of joining members left for manual verification",
})

var purgedCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hourai_members_purged",
	Help: "Number of unverified members kicked by the purge job",
})
