package metrics

import (
	"fmt"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Namespace for all metrics
const namespace = "logcat"

// Collector provides a central place for all analysis metrics
type Collector struct {
	// Ingestion metrics
	LinesRead      prometheus.Counter
	LinesDropped   prometheus.Counter
	RecordsParsed  *prometheus.CounterVec
	IngestDuration prometheus.Histogram

	// Classification metrics
	ErrorsCategorized *prometheus.CounterVec
	ANREvents         prometheus.Counter

	// Report metrics
	ReportBytes         *prometheus.CounterVec
	RenderDuration      *prometheus.HistogramVec
	ReportWriteFailures prometheus.Counter

	registry *prometheus.Registry
}

// NewCollector creates a new metrics collector on a private registry
func NewCollector() *Collector {
	registry := prometheus.NewRegistry()

	c := &Collector{
		registry: registry,
	}

	c.initIngestMetrics()
	c.initClassifierMetrics()
	c.initReportMetrics()

	return c
}

func (c *Collector) initIngestMetrics() {
	c.LinesRead = promauto.With(c.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "lines_read_total",
			Help:      "Total number of raw input lines read",
		},
	)

	c.LinesDropped = promauto.With(c.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "lines_dropped_total",
			Help:      "Total number of non-blank lines without a logcat prefix",
		},
	)

	c.RecordsParsed = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "records_parsed_total",
			Help:      "Total number of lines parsed into records, by level",
		},
		[]string{"level"},
	)

	c.IngestDuration = promauto.With(c.registry).NewHistogram(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "ingest",
			Name:      "duration_seconds",
			Help:      "Time taken to ingest one input",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 15), // 1ms to ~16s
		},
	)
}

func (c *Collector) initClassifierMetrics() {
	c.ErrorsCategorized = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "errors_total",
			Help:      "Total number of error records, by assigned category",
		},
		[]string{"category"},
	)

	c.ANREvents = promauto.With(c.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "classifier",
			Name:      "anr_events_total",
			Help:      "Total number of application-not-responding records",
		},
	)
}

func (c *Collector) initReportMetrics() {
	c.ReportBytes = promauto.With(c.registry).NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "bytes_total",
			Help:      "Total bytes delivered to the report destination after compression, by format",
		},
		[]string{"format"},
	)

	c.RenderDuration = promauto.With(c.registry).NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "render_duration_seconds",
			Help:      "Time taken to render a report",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 2, 12), // 100µs to ~400ms
		},
		[]string{"format"},
	)

	c.ReportWriteFailures = promauto.With(c.registry).NewCounter(
		prometheus.CounterOpts{
			Namespace: namespace,
			Subsystem: "report",
			Name:      "write_failures_total",
			Help:      "Total number of reports that could not be delivered",
		},
	)
}

// Registry returns the Prometheus registry
func (c *Collector) Registry() *prometheus.Registry {
	return c.registry
}

// WriteTextfile writes the current metrics in Prometheus text format, for
// pickup by a node_exporter textfile collector
func (c *Collector) WriteTextfile(path string) error {
	if err := prometheus.WriteToTextfile(path, c.registry); err != nil {
		return fmt.Errorf("failed to write metrics textfile: %w", err)
	}
	return nil
}
