// Package metrics defines the Prometheus collectors of the bot.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "kickbot"

var (
	CyclesTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cycles_total",
		Help:      "Total number of spectator cycles started",
	})

	PerceptionFailuresTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "perception_failures_total",
		Help:      "Total number of cycles whose capture, OCR or inference failed",
	})

	DroppedResultsTotal = prometheus.NewCounter(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "dropped_results_total",
		Help:      "Total number of cycle results discarded because their worker was superseded",
	})

	ViolationsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "violations_total",
			Help:      "Total number of banned weapon detections",
		},
		[]string{"category"},
	)

	KicksTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "kicks_total",
			Help:      "Total number of kick requests by outcome",
		},
		[]string{"outcome"},
	)

	PendingKicks = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "pending_kicks",
		Help:      "Number of detected players not yet found in the roster",
	})

	RosterPlayers = prometheus.NewGauge(prometheus.GaugeOpts{
		Namespace: namespace,
		Name:      "roster_players",
		Help:      "Number of players in the last refreshed roster",
	})

	BotStatus = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "bot_status",
			Help:      "1 for the current bot status, 0 otherwise",
		},
		[]string{"status"},
	)
)

// Kick outcomes.
const (
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
	OutcomeQueued  = "queued"
)

// Collectors returns every collector for registration.
func Collectors() []prometheus.Collector {
	return []prometheus.Collector{
		CyclesTotal,
		PerceptionFailuresTotal,
		DroppedResultsTotal,
		ViolationsTotal,
		KicksTotal,
		PendingKicks,
		RosterPlayers,
		BotStatus,
	}
}

// SetStatus flips the status gauge to the given status label.
func SetStatus(previous, current string) {
	if previous != "" {
		BotStatus.WithLabelValues(previous).Set(0)
	}
	BotStatus.WithLabelValues(current).Set(1)
}
