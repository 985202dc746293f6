// Package metrics exposes the Prometheus gauges/counters tracking the
// merge/state-machine/ingest pipeline's health.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups every collector registered by the node-registry pipeline.
type Metrics struct {
	SnapshotHeight       prometheus.Gauge
	EventsProcessedTotal *prometheus.CounterVec
	PreconditionRejected *prometheus.CounterVec
	RewardPassDuration   prometheus.Histogram
	IngesterLagBlocks    *prometheus.GaugeVec
	DurableCacheErrors   *prometheus.CounterVec
}

// New registers and returns a Metrics bundle against reg.
func New(reg prometheus.Registerer) *Metrics {
	factory := promauto.With(reg)

	return &Metrics{
		SnapshotHeight: factory.NewGauge(prometheus.GaugeOpts{
			Namespace: "nodestatus",
			Name:      "snapshot_height",
			Help:      "Height of the most recently emitted snapshot.",
		}),
		EventsProcessedTotal: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodestatus",
			Name:      "events_processed_total",
			Help:      "Events applied to the state machine, by kind.",
		}, []string{"kind"}),
		PreconditionRejected: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodestatus",
			Name:      "precondition_rejected_total",
			Help:      "Lifecycle messages rejected by a precondition check, by action.",
		}, []string{"action"}),
		RewardPassDuration: factory.NewHistogram(prometheus.HistogramOpts{
			Namespace: "nodestatus",
			Name:      "reward_pass_duration_seconds",
			Help:      "Wall-clock duration of a full reward-integration pass.",
			Buckets:   prometheus.DefBuckets,
		}),
		IngesterLagBlocks: factory.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "nodestatus",
			Name:      "ingester_lag_blocks",
			Help:      "Blocks between an ingester's last synced height and the chain tip, by source.",
		}, []string{"source"}),
		DurableCacheErrors: factory.NewCounterVec(prometheus.CounterOpts{
			Namespace: "nodestatus",
			Name:      "durable_cache_errors_total",
			Help:      "Durable-cache read/write failures, by operation.",
		}, []string{"operation"}),
	}
}
