// Package metrics records batch extraction statistics in a private Prometheus
// registry. A batch run is short-lived, so the registry is written once to a
// node_exporter textfile instead of being scraped.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Outcome statuses.
const (
	StatusExtracted = "extracted"
	StatusFailed    = "failed"
)

// Timed stages of one document.
const (
	StageTranscribe = "transcribe"
	StageExtract    = "extract"
)

type BatchMetrics struct {
	registry *prometheus.Registry

	documentsTotal   *prometheus.CounterVec
	stageDuration    *prometheus.HistogramVec
	inFlight         prometheus.Gauge
	invoiceTypeTotal *prometheus.CounterVec
	missingFields    *prometheus.CounterVec
	warningsTotal    prometheus.Counter
	lineItemsTotal   prometheus.Counter
}

func NewBatchMetrics(source string) *BatchMetrics {
	registry := prometheus.NewRegistry()

	documentsTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facturas",
			Subsystem: "batch",
			Name:      "documents_total",
			Help:      "Processed documents by transcript source and outcome.",
		},
		[]string{"source", "status"},
	)
	stageDuration := prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "facturas",
			Subsystem: "batch",
			Name:      "stage_duration_seconds",
			Help:      "Time spent per document in each stage.",
			Buckets:   []float64{0.001, 0.01, 0.05, 0.1, 0.5, 1, 2, 5, 10, 30, 60, 120},
		},
		[]string{"stage"},
	)
	inFlight := prometheus.NewGauge(
		prometheus.GaugeOpts{
			Namespace: "facturas",
			Subsystem: "batch",
			Name:      "documents_in_flight",
			Help:      "Documents currently being processed.",
			ConstLabels: prometheus.Labels{
				"source": source,
			},
		},
	)
	invoiceTypeTotal := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facturas",
			Subsystem: "batch",
			Name:      "invoice_type_total",
			Help:      "Extracted invoices by fiscal type.",
		},
		[]string{"type"},
	)
	missingFields := prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "facturas",
			Subsystem: "batch",
			Name:      "missing_fields_total",
			Help:      "Fields no pattern variant matched, by field.",
		},
		[]string{"field"},
	)
	warningsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "facturas",
			Subsystem: "batch",
			Name:      "consistency_warnings_total",
			Help:      "Consistency warnings raised across all invoices.",
		},
	)
	lineItemsTotal := prometheus.NewCounter(
		prometheus.CounterOpts{
			Namespace: "facturas",
			Subsystem: "batch",
			Name:      "line_items_total",
			Help:      "Line items reconstructed across all invoices.",
		},
	)

	registry.MustRegister(documentsTotal, stageDuration, inFlight, invoiceTypeTotal,
		missingFields, warningsTotal, lineItemsTotal)

	return &BatchMetrics{
		registry:         registry,
		documentsTotal:   documentsTotal,
		stageDuration:    stageDuration,
		inFlight:         inFlight,
		invoiceTypeTotal: invoiceTypeTotal,
		missingFields:    missingFields,
		warningsTotal:    warningsTotal,
		lineItemsTotal:   lineItemsTotal,
	}
}

// Registry exposes the underlying registry, mainly for tests.
func (m *BatchMetrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *BatchMetrics) StartDocument() {
	m.inFlight.Inc()
}

// FinishDocument records the outcome of one document. source is the transcript
// source actually used ("text" for plain transcripts).
func (m *BatchMetrics) FinishDocument(source string, err error) {
	m.inFlight.Dec()

	status := StatusExtracted
	if err != nil {
		status = StatusFailed
	}
	m.documentsTotal.WithLabelValues(source, status).Inc()
}

func (m *BatchMetrics) ObserveStage(stage string, d time.Duration) {
	if d < 0 {
		return
	}
	m.stageDuration.WithLabelValues(stage).Observe(d.Seconds())
}

// ObserveInvoice records what an extraction found.
func (m *BatchMetrics) ObserveInvoice(invoiceType string, missing []string, warnings, lineItems int) {
	m.invoiceTypeTotal.WithLabelValues(invoiceType).Inc()
	for _, field := range missing {
		m.missingFields.WithLabelValues(field).Inc()
	}
	m.warningsTotal.Add(float64(warnings))
	m.lineItemsTotal.Add(float64(lineItems))
}

// WriteTextfile writes every metric in the Prometheus text format, atomically.
func (m *BatchMetrics) WriteTextfile(path string) error {
	return prometheus.WriteToTextfile(path, m.registry)
}
