// Package metrics exposes Prometheus collectors for the compositing pipeline.
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Item outcomes.
const (
	OutcomeComposed = "composed"
	OutcomeSkipped  = "skipped"
	OutcomeCanceled = "canceled"
)

// Metrics owns a private registry so tests and multiple servers never
// collide on the global one.
type Metrics struct {
	registry *prometheus.Registry

	items         *prometheus.CounterVec
	itemDuration  prometheus.Histogram
	batchDuration prometheus.Histogram
	batches       *prometheus.CounterVec
	archives      *prometheus.CounterVec
	archiveFiles  prometheus.Counter
	outputBytes   prometheus.Counter
}

// New registers every collector on a fresh registry.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	m := &Metrics{
		registry: reg,
		items: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrbatch",
			Name:      "batch_items_total",
			Help:      "Batch items by outcome.",
		}, []string{"outcome"}),
		itemDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "qrbatch",
			Name:      "item_duration_seconds",
			Help:      "Time to render and write one composite.",
			Buckets:   prometheus.ExponentialBuckets(0.01, 2, 12),
		}),
		batchDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "qrbatch",
			Name:      "batch_duration_seconds",
			Help:      "Wall time of a whole batch.",
			Buckets:   prometheus.ExponentialBuckets(0.1, 2, 12),
		}),
		batches: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrbatch",
			Name:      "batches_total",
			Help:      "Batches by result.",
		}, []string{"result"}),
		archives: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "qrbatch",
			Name:      "archives_total",
			Help:      "Zip downloads by result.",
		}, []string{"result"}),
		archiveFiles: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qrbatch",
			Name:      "archive_files_total",
			Help:      "Files streamed into zip downloads.",
		}),
		outputBytes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "qrbatch",
			Name:      "output_bytes_total",
			Help:      "Bytes of composite JPEG written.",
		}),
	}
	reg.MustRegister(
		m.items, m.itemDuration, m.batchDuration, m.batches,
		m.archives, m.archiveFiles, m.outputBytes,
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
	return m
}

// Registry returns the backing registry.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// ObserveItem records one item outcome. A nil receiver is a no-op.
func (m *Metrics) ObserveItem(outcome string, took time.Duration, bytes int64) {
	if m == nil {
		return
	}
	m.items.WithLabelValues(outcome).Inc()
	if outcome == OutcomeComposed {
		m.itemDuration.Observe(took.Seconds())
		m.outputBytes.Add(float64(bytes))
	}
}

// ObserveBatch records a finished batch.
func (m *Metrics) ObserveBatch(result string, took time.Duration) {
	if m == nil {
		return
	}
	m.batches.WithLabelValues(result).Inc()
	m.batchDuration.Observe(took.Seconds())
}

// ObserveArchive records a zip download and its entry count.
func (m *Metrics) ObserveArchive(result string, files int) {
	if m == nil {
		return
	}
	m.archives.WithLabelValues(result).Inc()
	if files > 0 {
		m.archiveFiles.Add(float64(files))
	}
}
