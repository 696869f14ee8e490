package arbiter

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// ─── Prometheus Metrics ─────────────────────────────────────────────────────

var (
	fleetSize = promauto.NewGauge(prometheus.GaugeOpts{
		Namespace: "radiant",
		Subsystem: "arbiter",
		Name:      "fleet_size",
		Help:      "Number of currently admitted nodes.",
	})

	registrations = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiant",
		Subsystem: "arbiter",
		Name:      "registrations_total",
		Help:      "Accepted node registrations.",
	})

	deregistrations = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "radiant",
		Subsystem: "arbiter",
		Name:      "deregistrations_total",
		Help:      "Node removals, by reason.",
	}, []string{"reason"})

	pingsReceived = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiant",
		Subsystem: "arbiter",
		Name:      "pings_received_total",
		Help:      "Pings received from admitted nodes.",
	})

	pongsSent = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiant",
		Subsystem: "arbiter",
		Name:      "pongs_sent_total",
		Help:      "Pongs sent back to admitted nodes.",
	})

	snapshotsPublished = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiant",
		Subsystem: "arbiter",
		Name:      "snapshots_published_total",
		Help:      "State snapshots broadcast on the publisher endpoint.",
	})

	droppedMessages = promauto.NewCounter(prometheus.CounterOpts{
		Namespace: "radiant",
		Subsystem: "arbiter",
		Name:      "dropped_messages_total",
		Help:      "Messages dropped as malformed, unknown, or unroutable.",
	})
)

const (
	reasonTimeout = "timeout"
	reasonClient  = "client"
)
