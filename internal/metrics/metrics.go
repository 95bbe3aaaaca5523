package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/transhub/commit-webhooks/internal/domain"
)

// Metrics groups all Prometheus instruments used across the application.
// Registered once at startup via New(); passed by pointer wherever needed.
type Metrics struct {
	JobsEnqueued        *prometheus.CounterVec
	DeliveriesSucceeded *prometheus.CounterVec
	DeliveriesFailed    *prometheus.CounterVec
	DeliveryLatency     *prometheus.HistogramVec
	QueueDepth          prometheus.Gauge
}

// New registers all instruments with the given Prometheus registerer and
// returns the populated Metrics struct.
// Using a custom registry (instead of prometheus.DefaultRegisterer) keeps
// tests isolated and avoids global state.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		JobsEnqueued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_jobs_enqueued_total",
			Help: "Total number of notification jobs enqueued by the dispatcher.",
		}, []string{"target"}),

		DeliveriesSucceeded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_deliveries_succeeded_total",
			Help: "Total number of completed webhook deliveries (all attempts accepted).",
		}, []string{"target"}),

		DeliveriesFailed: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "webhook_deliveries_failed_total",
			Help: "Total number of webhook deliveries terminated by a rejection or transport failure.",
		}, []string{"target"}),

		DeliveryLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "webhook_delivery_seconds",
			Help:    "Delivery duration from dequeue to final accepted attempt.",
			Buckets: prometheus.DefBuckets,
		}, []string{"target"}),

		QueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "webhook_queue_depth",
			Help: "Current number of pending notification jobs.",
		}),
	}

	reg.MustRegister(
		m.JobsEnqueued,
		m.DeliveriesSucceeded,
		m.DeliveriesFailed,
		m.DeliveryLatency,
		m.QueueDepth,
	)

	return m
}

// DispatchHook returns the callback the dispatcher invokes per enqueued job.
func (m *Metrics) DispatchHook() func(domain.Target) {
	return func(target domain.Target) {
		m.JobsEnqueued.WithLabelValues(string(target)).Inc()
	}
}

// WorkerHooks returns the metric callback functions expected by worker.MetricHooks.
// Centralises the prometheus observation calls so worker.go stays metrics-agnostic.
func (m *Metrics) WorkerHooks() (
	onDelivered func(domain.Target, time.Duration),
	onFailed func(domain.Target),
) {
	onDelivered = func(target domain.Target, latency time.Duration) {
		m.DeliveriesSucceeded.WithLabelValues(string(target)).Inc()
		m.DeliveryLatency.WithLabelValues(string(target)).Observe(latency.Seconds())
	}
	onFailed = func(target domain.Target) {
		m.DeliveriesFailed.WithLabelValues(string(target)).Inc()
	}
	return
}
