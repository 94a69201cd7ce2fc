package outboundq

import (
	"github.com/go-kit/kit/metrics"
	"github.com/go-kit/kit/metrics/discard"
	"github.com/go-kit/kit/metrics/prometheus"
	stdprometheus "github.com/prometheus/client_golang/prometheus"
)

const MetricsSubsystem = "outboundq"

// Metrics contains metrics exposed by this package.
type Metrics struct {
	// Total packets currently resident in the multi-queue, across all keys.
	QueueSize metrics.Gauge
	// Packets currently dispatched but not yet acknowledged, across all
	// destinations.
	InFlight metrics.Gauge
	// Entries in the failure table (expired or not), set after each send
	// failure.
	FailedPeers metrics.Gauge
	// Worker send duration, labeled by dest_type.
	SendDuration metrics.Histogram
	// Completed sends, labeled by dest_type and result ("ok" or "error").
	SendsTotal metrics.Counter
	// enqueue_cherished calls that exhausted their retry budget.
	CherishExhausted metrics.Counter
	// Packets dropped on enqueue because MaxQueueSize was reached.
	DroppedTotal metrics.Counter
}

// PrometheusMetrics returns Metrics built using the Prometheus client
// library.
func PrometheusMetrics(namespace string) *Metrics {
	return &Metrics{
		QueueSize: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "queue_size",
			Help:      "Number of packets resident in the multi-queue.",
		}, []string{}),
		InFlight: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "in_flight",
			Help:      "Number of packets dispatched but not yet acknowledged.",
		}, []string{}),
		FailedPeers: prometheus.NewGaugeFrom(stdprometheus.GaugeOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "failed_peers",
			Help:      "Number of entries in the send-failure table, expired or not.",
		}, []string{}),
		SendDuration: prometheus.NewHistogramFrom(stdprometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "send_duration_seconds",
			Help:      "Duration of SendMsg calls.",
			Buckets:   stdprometheus.DefBuckets,
		}, []string{"dest_type"}),
		SendsTotal: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "sends_total",
			Help:      "Completed sends by destination type and result.",
		}, []string{"dest_type", "result"}),
		CherishExhausted: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "cherish_exhausted_total",
			Help:      "enqueue_cherished calls that exhausted their retry budget.",
		}, []string{}),
		DroppedTotal: prometheus.NewCounterFrom(stdprometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: MetricsSubsystem,
			Name:      "dropped_total",
			Help:      "Packets dropped on enqueue because MaxQueueSize was reached.",
		}, []string{}),
	}
}

// NopMetrics returns no-op Metrics.
func NopMetrics() *Metrics {
	return &Metrics{
		QueueSize:        discard.NewGauge(),
		InFlight:         discard.NewGauge(),
		FailedPeers:      discard.NewGauge(),
		SendDuration:     discard.NewHistogram(),
		SendsTotal:       discard.NewCounter(),
		CherishExhausted: discard.NewCounter(),
		DroppedTotal:     discard.NewCounter(),
	}
}
