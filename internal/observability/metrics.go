package observability

import (
	"github.com/prometheus/client_golang/prometheus"
)

const namespace = "weather_report"

// Metrics holds the Prometheus counters, histograms, and gauges for report runs.
type Metrics struct {
	RecordsLoaded   prometheus.Counter
	LoadFailures    *prometheus.CounterVec // labels: kind={malformed_row,duplicate_date,canceled,io}
	ReportsRendered *prometheus.CounterVec // labels: format={markdown,json}
	RenderFailures  prometheus.Counter
	SinkFailures    *prometheus.CounterVec // labels: sink={kafka,archive,table_export}

	RunDuration       prometheus.Histogram
	LastSuccessfulRun prometheus.Gauge
}

func newCollectors() *Metrics {
	return &Metrics{
		RecordsLoaded: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "records_loaded_total",
			Help:      "Total daily records read from input datasets.",
		}),
		LoadFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "load_failures_total",
			Help:      "Dataset load failures by kind.",
		}, []string{"kind"}),
		ReportsRendered: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "reports_rendered_total",
			Help:      "Reports rendered successfully by output format.",
		}, []string{"format"}),
		RenderFailures: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "render_failures_total",
			Help:      "Report aggregation or rendering failures.",
		}),
		SinkFailures: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "sink_failures_total",
			Help:      "Failures delivering a report to an output sink.",
		}, []string{"sink"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "run_duration_seconds",
			Help:      "Duration of a complete load-aggregate-render run.",
			Buckets:   []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1, 2.5, 5},
		}),
		LastSuccessfulRun: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "last_successful_run_timestamp_seconds",
			Help:      "Unix time of the last run that produced a report.",
		}),
	}
}

// NewMetrics creates and registers all report metrics with the default Prometheus registry.
func NewMetrics() *Metrics {
	m := newCollectors()

	prometheus.MustRegister(
		m.RecordsLoaded,
		m.LoadFailures,
		m.ReportsRendered,
		m.RenderFailures,
		m.SinkFailures,
		m.RunDuration,
		m.LastSuccessfulRun,
	)

	return m
}

// NewMetricsForTesting creates Metrics that are not registered anywhere, avoiding
// "already registered" panics when called from multiple tests.
func NewMetricsForTesting() *Metrics {
	return newCollectors()
}
