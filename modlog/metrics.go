package modlog

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var modlogSentCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hourai_modlog_messages_sent",
	Help: "Number of messages delivered to modlog channels",
})

var modlogErrorCount = promauto.NewCounter(prometheus.CounterOpts{
	Name: "hourai_modlog_errors",
	Help: "Number of modlog deliveries which failed",
})
