package prometheus

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/aescanero/introductions/pkg/ports"
)

var _ ports.MetricsCollector = (*Collector)(nil)

// Collector implements MetricsCollector using Prometheus
type Collector struct {
	storeOperations  *prometheus.CounterVec
	storeDuration    *prometheus.HistogramVec
	skippedDocuments *prometheus.CounterVec
	eventsPublished  *prometheus.CounterVec
	storeHealthy     prometheus.Gauge
}

// NewCollector creates a collector registered on reg
func NewCollector(reg prometheus.Registerer) *Collector {
	factory := promauto.With(reg)

	return &Collector{
		storeOperations: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "introductions_store_operations_total",
				Help: "Total number of store gateway operations",
			},
			[]string{"op", "collection", "result"},
		),
		storeDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "introductions_store_operation_duration_seconds",
				Help:    "Store gateway operation duration in seconds",
				Buckets: []float64{0.001, 0.005, 0.01, 0.05, 0.1, 0.5, 1, 5},
			},
			[]string{"op", "collection"},
		),
		skippedDocuments: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "introductions_skipped_documents_total",
				Help: "Total number of documents skipped while listing",
			},
			[]string{"collection"},
		),
		eventsPublished: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "introductions_events_published_total",
				Help: "Total number of introduction events published",
			},
			[]string{"topic", "result"},
		),
		storeHealthy: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "introductions_store_healthy",
				Help: "1 when the last store health check succeeded",
			},
		),
	}
}

// RecordStoreOperation records the outcome and latency of a gateway call
func (c *Collector) RecordStoreOperation(op, collection, result string, duration time.Duration) {
	c.storeOperations.WithLabelValues(op, collection, result).Inc()
	c.storeDuration.WithLabelValues(op, collection).Observe(duration.Seconds())
}

// RecordSkippedDocument counts a document dropped from a listing
func (c *Collector) RecordSkippedDocument(collection string) {
	c.skippedDocuments.WithLabelValues(collection).Inc()
}

// RecordEventPublished counts a publish attempt
func (c *Collector) RecordEventPublished(topic, result string) {
	c.eventsPublished.WithLabelValues(topic, result).Inc()
}

// SetStoreHealthy records the latest health check result
func (c *Collector) SetStoreHealthy(healthy bool) {
	if healthy {
		c.storeHealthy.Set(1)
		return
	}
	c.storeHealthy.Set(0)
}
