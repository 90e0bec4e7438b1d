package pipeline

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/goliatone/go-docbot/internal/governance"
	"github.com/goliatone/go-docbot/internal/images"
)

const metricsNamespace = "docbot"

// Metrics counts pipeline outcomes.
type Metrics struct {
	documents     *prometheus.CounterVec
	images        *prometheus.CounterVec
	configSources *prometheus.CounterVec
	webhookDrops  *prometheus.CounterVec
	duration      prometheus.Histogram
}

// NewMetrics creates the collectors and registers them with registerer when
// it is not nil.
func NewMetrics(registerer prometheus.Registerer) *Metrics {
	m := &Metrics{
		documents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "documents_total",
			Help:      "Documents processed by outcome.",
		}, []string{"action"}),
		images: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "images_total",
			Help:      "Image references processed by outcome.",
		}, []string{"action"}),
		configSources: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "config_source_total",
			Help:      "Governance config resolutions by fallback tier.",
		}, []string{"source"}),
		webhookDrops: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: metricsNamespace,
			Name:      "webhook_dropped_total",
			Help:      "Verified deliveries acknowledged but refused by the worker queue.",
		}, []string{"event"}),
		duration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: metricsNamespace,
			Name:      "pipeline_duration_seconds",
			Help:      "Time spent processing one push.",
			Buckets:   prometheus.ExponentialBuckets(0.25, 2, 10),
		}),
	}
	if registerer != nil {
		registerer.MustRegister(m.documents, m.images, m.configSources, m.webhookDrops, m.duration)
	}
	return m
}

// ObserveDocument counts one document outcome.
func (m *Metrics) ObserveDocument(action Action) {
	if m == nil {
		return
	}
	m.documents.WithLabelValues(string(action)).Inc()
}

// ObserveImage matches images.Observer.
func (m *Metrics) ObserveImage(_ string, action images.Action) {
	if m == nil {
		return
	}
	m.images.WithLabelValues(string(action)).Inc()
}

// ObserveConfigSource matches the governance loader source observer.
func (m *Metrics) ObserveConfigSource(source governance.Source) {
	if m == nil {
		return
	}
	m.configSources.WithLabelValues(string(source)).Inc()
}

// ObserveWebhookDrop counts one delivery the queue refused.
func (m *Metrics) ObserveWebhookDrop(event string) {
	if m == nil {
		return
	}
	m.webhookDrops.WithLabelValues(event).Inc()
}

// ObserveDuration records the time one push took.
func (m *Metrics) ObserveDuration(d time.Duration) {
	if m == nil {
		return
	}
	m.duration.Observe(d.Seconds())
}
