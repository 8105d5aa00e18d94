package gridgo

import (
	"sync/atomic"
	"time"
)

// MetricsCollector defines an interface for collecting operational metrics.
// Implement this interface to integrate with monitoring systems; the
// observability package ships a Prometheus implementation.
//
// Methods are called while the engine holds its state lock and must not
// block or call back into the engine.
type MetricsCollector interface {
	// RecordRecompute is called after each filter and sort pass.
	// rows is the dataset size, offloaded reports whether the worker ran the
	// pass, err is nil if successful.
	RecordRecompute(rows int, offloaded bool, duration time.Duration, err error)

	// RecordDroppedResult is called when a stale worker result is discarded.
	RecordDroppedResult()

	// RecordIngest is called after rows are appended to the dataset.
	RecordIngest(rows int)

	// RecordEdit is called after each cell edit attempt.
	RecordEdit(err error)

	// RecordPublish is called after each snapshot broadcast.
	RecordPublish(subscribers int)
}

// NoopMetricsCollector is a no-op implementation of MetricsCollector.
// Use this when metrics collection is not needed.
type NoopMetricsCollector struct{}

func (NoopMetricsCollector) RecordRecompute(int, bool, time.Duration, error) {}
func (NoopMetricsCollector) RecordDroppedResult()                            {}
func (NoopMetricsCollector) RecordIngest(int)                                {}
func (NoopMetricsCollector) RecordEdit(error)                                {}
func (NoopMetricsCollector) RecordPublish(int)                               {}

// BasicMetricsCollector provides simple in-memory metrics collection.
// Useful for debugging and basic monitoring without external dependencies.
type BasicMetricsCollector struct {
	RecomputeCount      atomic.Int64
	RecomputeErrors     atomic.Int64
	RecomputeTotalNanos atomic.Int64
	OffloadedCount      atomic.Int64
	DroppedResults      atomic.Int64
	IngestedRows        atomic.Int64
	EditCount           atomic.Int64
	EditRejected        atomic.Int64
	PublishCount        atomic.Int64
}

// RecordRecompute implements MetricsCollector.
func (b *BasicMetricsCollector) RecordRecompute(rows int, offloaded bool, duration time.Duration, err error) {
	b.RecomputeCount.Add(1)
	b.RecomputeTotalNanos.Add(duration.Nanoseconds())
	if offloaded {
		b.OffloadedCount.Add(1)
	}
	if err != nil {
		b.RecomputeErrors.Add(1)
	}
}

// RecordDroppedResult implements MetricsCollector.
func (b *BasicMetricsCollector) RecordDroppedResult() {
	b.DroppedResults.Add(1)
}

// RecordIngest implements MetricsCollector.
func (b *BasicMetricsCollector) RecordIngest(rows int) {
	b.IngestedRows.Add(int64(rows))
}

// RecordEdit implements MetricsCollector.
func (b *BasicMetricsCollector) RecordEdit(err error) {
	b.EditCount.Add(1)
	if err != nil {
		b.EditRejected.Add(1)
	}
}

// RecordPublish implements MetricsCollector.
func (b *BasicMetricsCollector) RecordPublish(int) {
	b.PublishCount.Add(1)
}

// GetStats returns a snapshot of current metrics.
func (b *BasicMetricsCollector) GetStats() BasicMetricsStats {
	return BasicMetricsStats{
		RecomputeCount:    b.RecomputeCount.Load(),
		RecomputeErrors:   b.RecomputeErrors.Load(),
		RecomputeAvgNanos: b.getAvgRecomputeNanos(),
		OffloadedCount:    b.OffloadedCount.Load(),
		DroppedResults:    b.DroppedResults.Load(),
		IngestedRows:      b.IngestedRows.Load(),
		EditCount:         b.EditCount.Load(),
		EditRejected:      b.EditRejected.Load(),
		PublishCount:      b.PublishCount.Load(),
	}
}

func (b *BasicMetricsCollector) getAvgRecomputeNanos() int64 {
	count := b.RecomputeCount.Load()
	if count == 0 {
		return 0
	}
	return b.RecomputeTotalNanos.Load() / count
}

// BasicMetricsStats is a snapshot of BasicMetricsCollector state.
type BasicMetricsStats struct {
	RecomputeCount    int64
	RecomputeErrors   int64
	RecomputeAvgNanos int64
	OffloadedCount    int64
	DroppedResults    int64
	IngestedRows      int64
	EditCount         int64
	EditRejected      int64
	PublishCount      int64
}
