package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the collectors for export runs.
type Metrics struct {
	exports      *prometheus.CounterVec
	rowsExported prometheus.Counter
	duration     *prometheus.HistogramVec
	inFlight     prometheus.Gauge
}

// NewMetrics registers the export collectors with reg. A nil reg uses the
// default registry.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	factory := promauto.With(reg)
	return &Metrics{
		exports: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "sql2xlsx_exports_total",
				Help: "Total number of export runs by outcome",
			},
			[]string{"status", "stage"},
		),

		rowsExported: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "sql2xlsx_rows_exported_total",
				Help: "Total number of rows written to finished workbooks",
			},
		),

		duration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "sql2xlsx_export_duration_seconds",
				Help:    "Duration of export runs",
				Buckets: prometheus.ExponentialBuckets(0.05, 2, 12),
			},
			[]string{"status"},
		),

		inFlight: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sql2xlsx_exports_in_flight",
				Help: "Number of exports currently running",
			},
		),
	}
}

// Start marks an export as running and returns a function that records its
// outcome. stage is the state a failed export stopped in, empty on success.
func (m *Metrics) Start() func(rows int64, stage string, err error) {
	m.inFlight.Inc()
	start := time.Now()
	return func(rows int64, stage string, err error) {
		m.inFlight.Dec()
		status := "success"
		if err != nil {
			status = "failure"
		} else {
			m.rowsExported.Add(float64(rows))
		}
		m.exports.WithLabelValues(status, stage).Inc()
		m.duration.WithLabelValues(status).Observe(time.Since(start).Seconds())
	}
}
