package gridgo

import (
	"log/slog"
	"time"

	"github.com/hupe1980/gridgo/compute"
	"github.com/hupe1980/gridgo/row"
)

const (
	DefaultPageSize        = 10
	DefaultWorkerThreshold = 100
	DefaultWorkers         = 1
)

type options struct {
	pageSize         int
	selectable       bool
	editable         bool
	workerThreshold  int
	selectionMode    SelectionMode
	virtualization   bool
	columns          row.Columns
	workers          int
	noWorker         bool
	workerHandler    compute.Handler
	streaming        StreamingConfig
	metricsCollector MetricsCollector
	logger           *Logger
}

// Option configures an Engine or a Grid.
type Option func(*options)

// WithPageSize sets the rows per page. Non-positive values keep the default.
func WithPageSize(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.pageSize = n
		}
	}
}

// WithSelectable allows row selection through a Grid.
func WithSelectable(selectable bool) Option {
	return func(o *options) {
		o.selectable = selectable
	}
}

// WithEditable allows cell editing through a Grid.
func WithEditable(editable bool) Option {
	return func(o *options) {
		o.editable = editable
	}
}

// WithWorkerThreshold sets the dataset size above which filter and sort run
// on the background worker. Negative values keep the default.
func WithWorkerThreshold(n int) Option {
	return func(o *options) {
		if n >= 0 {
			o.workerThreshold = n
		}
	}
}

// WithSelectionMode sets the initial selection mode. Unknown modes are
// ignored.
func WithSelectionMode(mode SelectionMode) Option {
	return func(o *options) {
		if mode.valid() {
			o.selectionMode = mode
		}
	}
}

// WithVirtualization sets the initial virtualization flag.
func WithVirtualization(enabled bool) Option {
	return func(o *options) {
		o.virtualization = enabled
	}
}

// WithColumns configures column descriptors. Column IDs passed to engine
// operations are mapped to the column's accessor; validators guard edits.
func WithColumns(columns ...row.Column) Option {
	return func(o *options) {
		o.columns = append(row.Columns(nil), columns...)
	}
}

// WithWorkers sets the number of background worker goroutines.
//
// With more than one goroutine, results of overlapping recomputes may arrive
// out of order; the engine keeps only the most recently requested one.
func WithWorkers(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithoutWorker disables the background worker; every recompute runs inline.
func WithoutWorker() Option {
	return func(o *options) {
		o.noWorker = true
	}
}

// WithStreaming configures the stream source of a Grid.
func WithStreaming(interval time.Duration, batchSize int) Option {
	return func(o *options) {
		o.streaming.Enabled = true
		o.streaming.Interval = interval
		o.streaming.BatchSize = batchSize
	}
}

// WithStreamingRowLimit caps the rows per second the stream source of a Grid
// delivers. Zero removes the cap.
func WithStreamingRowLimit(rowsPerSecond float64) Option {
	return func(o *options) {
		if rowsPerSecond >= 0 {
			o.streaming.RowsPerSecond = rowsPerSecond
		}
	}
}

// WithMetricsCollector configures a metrics collector for monitoring operations.
// Pass nil to disable metrics collection.
//
// Example with BasicMetricsCollector:
//
//	metrics := &gridgo.BasicMetricsCollector{}
//	e := gridgo.New(rows, gridgo.WithMetricsCollector(metrics))
//	// ... use e ...
//	stats := metrics.GetStats()
//	fmt.Printf("Recomputes: %d, Avg latency: %dns\n", stats.RecomputeCount, stats.RecomputeAvgNanos)
func WithMetricsCollector(mc MetricsCollector) Option {
	return func(o *options) {
		if mc == nil {
			mc = NoopMetricsCollector{}
		}
		o.metricsCollector = mc
	}
}

// WithLogger configures structured logging for operations.
// Pass nil to disable logging.
//
// Example with JSON logging:
//
//	logger := gridgo.NewJSONLogger(slog.LevelDebug)
//	e := gridgo.New(rows, gridgo.WithLogger(logger))
func WithLogger(logger *Logger) Option {
	return func(o *options) {
		if logger == nil {
			logger = NoopLogger()
		}
		o.logger = logger
	}
}

// WithLogLevel creates a text logger with the specified level and sets it.
// Convenience wrapper for WithLogger(NewTextLogger(level)).
func WithLogLevel(level slog.Level) Option {
	return func(o *options) {
		o.logger = NewTextLogger(level)
	}
}

// WithConfig applies a declarative configuration. Options listed after it
// override its values.
func WithConfig(cfg Config) Option {
	return func(o *options) {
		for _, fn := range cfg.Options() {
			fn(o)
		}
	}
}

func applyOptions(optFns []Option) options {
	o := options{
		pageSize:         DefaultPageSize,
		workerThreshold:  DefaultWorkerThreshold,
		selectionMode:    SelectionMultiple,
		workers:          DefaultWorkers,
		metricsCollector: NoopMetricsCollector{},
		logger:           NoopLogger(),
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(&o)
		}
	}
	return o
}
