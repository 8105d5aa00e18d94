package observability

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/hupe1980/gridgo"
)

const namespace = "gridgo"

var _ gridgo.MetricsCollector = (*PrometheusCollector)(nil)

// PrometheusCollector implements gridgo.MetricsCollector on Prometheus
// counters and histograms.
type PrometheusCollector struct {
	recomputes     *prometheus.CounterVec
	recomputeTime  *prometheus.HistogramVec
	recomputeRows  prometheus.Histogram
	droppedResults prometheus.Counter
	ingestedRows   prometheus.Counter
	edits          *prometheus.CounterVec
	publishes      prometheus.Counter
	subscribers    prometheus.Gauge
}

// NewPrometheusCollector creates the collector's metrics and registers them
// with reg. A nil reg uses prometheus.DefaultRegisterer. It panics if a
// metric is already registered.
func NewPrometheusCollector(reg prometheus.Registerer) *PrometheusCollector {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}

	c := &PrometheusCollector{
		recomputes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recomputes_total",
			Help:      "Filter and sort passes by execution path and status",
		}, []string{"path", "status"}),
		recomputeTime: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_duration_seconds",
			Help:      "Latency of filter and sort passes",
			Buckets:   prometheus.ExponentialBuckets(0.0001, 4, 10),
		}, []string{"path"}),
		recomputeRows: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "recompute_rows",
			Help:      "Dataset size of filter and sort passes",
			Buckets:   prometheus.ExponentialBuckets(10, 10, 6),
		}),
		droppedResults: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "dropped_results_total",
			Help:      "Worker results discarded because a newer pass was requested",
		}),
		ingestedRows: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingested_rows_total",
			Help:      "Rows appended to the dataset",
		}),
		edits: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "cell_edits_total",
			Help:      "Cell edits by status",
		}, []string{"status"}),
		publishes: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "publishes_total",
			Help:      "Snapshots published",
		}),
		subscribers: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "subscribers",
			Help:      "Subscribers reached by the latest publish",
		}),
	}

	reg.MustRegister(
		c.recomputes,
		c.recomputeTime,
		c.recomputeRows,
		c.droppedResults,
		c.ingestedRows,
		c.edits,
		c.publishes,
		c.subscribers,
	)
	return c
}

// RecordRecompute implements gridgo.MetricsCollector.
func (c *PrometheusCollector) RecordRecompute(rows int, offloaded bool, d time.Duration, err error) {
	path := "sync"
	if offloaded {
		path = "worker"
	}
	c.recomputes.WithLabelValues(path, status(err)).Inc()
	c.recomputeTime.WithLabelValues(path).Observe(d.Seconds())
	c.recomputeRows.Observe(float64(rows))
}

// RecordDroppedResult implements gridgo.MetricsCollector.
func (c *PrometheusCollector) RecordDroppedResult() {
	c.droppedResults.Inc()
}

// RecordIngest implements gridgo.MetricsCollector.
func (c *PrometheusCollector) RecordIngest(rows int) {
	c.ingestedRows.Add(float64(rows))
}

// RecordEdit implements gridgo.MetricsCollector.
func (c *PrometheusCollector) RecordEdit(err error) {
	c.edits.WithLabelValues(status(err)).Inc()
}

// RecordPublish implements gridgo.MetricsCollector.
func (c *PrometheusCollector) RecordPublish(subscribers int) {
	c.publishes.Inc()
	c.subscribers.Set(float64(subscribers))
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
