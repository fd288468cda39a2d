package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "hy2core"

var (
	lifecycleOps = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "operations_total",
			Help:      "Lifecycle operations by kind and result",
		},
		[]string{"op", "result"},
	)

	engineState = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: "lifecycle",
			Name:      "state",
			Help:      "Controller state by instance (0 stopped, 1 starting, 2 running, 3 reloading, 4 stopping)",
		},
		[]string{"instance"},
	)

	sinkCallbacks = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "sink",
			Name:      "callbacks_total",
			Help:      "Engine callbacks by channel and outcome (delivered, dropped, filtered, recovered)",
		},
		[]string{"channel", "outcome"},
	)
)

func init() {
	prometheus.MustRegister(lifecycleOps, engineState, sinkCallbacks)
}

// Lifecycle op results.
const (
	ResultOK       = "ok"
	ResultError    = "error"
	ResultRejected = "rejected"
	ResultPanic    = "panic"
)

// ObserveOp counts a lifecycle operation.
func ObserveOp(op, result string) { lifecycleOps.WithLabelValues(op, result).Inc() }

// SetState publishes the numeric state of the named controller. Lifecycle
// and sink counters stay process-wide.
func SetState(instance string, v int) { engineState.WithLabelValues(instance).Set(float64(v)) }

// Sink callback outcomes.
const (
	OutcomeDelivered = "delivered"
	OutcomeDropped   = "dropped"
	OutcomeFiltered  = "filtered"
	OutcomeRecovered = "recovered"
)

// ObserveCallback counts a log or event callback.
func ObserveCallback(channel, outcome string) { sinkCallbacks.WithLabelValues(channel, outcome).Inc() }
