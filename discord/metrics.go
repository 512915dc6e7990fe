package discord

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var guildCount = promauto.NewGauge(prometheus.GaugeOpts{
	Name: "hourai_guilds",
	Help: "Number of guilds the bot is a member of",
})

var eventCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hourai_discord_events",
	Help: "Number of gateway events handled, by type",
}, []string{"type"})

var eventErrorCount = promauto.NewCounterVec(prometheus.CounterOpts{
	Name: "hourai_discord_event_errors",
	Help: "Number of gateway events whose handler failed, by type",
}, []string{"type"})
