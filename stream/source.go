package stream

import (
	"context"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"github.com/hupe1980/gridgo/row"
)

const (
	DefaultInterval  = 3 * time.Second
	DefaultBatchSize = 5
	DefaultStartID   = 1000
)

// Sink receives every synthesized batch.
type Sink func(rows []row.Row)

// Source periodically synthesizes row batches.
type Source struct {
	sink      Sink
	generator Generator
	interval  time.Duration
	batchSize int
	enabled   bool
	rowLimit  rate.Limit
	limiter   *rate.Limiter
	logger    *slog.Logger

	counter atomic.Int64

	mu        sync.Mutex
	streaming bool
	closed    bool
	cancel    context.CancelFunc
	done      chan struct{}
}

// Option configures a Source.
type Option func(*Source)

// WithInterval sets the tick interval. Non-positive values are ignored.
func WithInterval(d time.Duration) Option {
	return func(s *Source) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithBatchSize sets the rows per tick. Non-positive values are ignored.
func WithBatchSize(n int) Option {
	return func(s *Source) {
		if n > 0 {
			s.batchSize = n
		}
	}
}

// WithEnabled enables or disables the source. Start on a disabled source is
// a no-op.
func WithEnabled(enabled bool) Option {
	return func(s *Source) {
		s.enabled = enabled
	}
}

// WithGenerator replaces the default employee generator.
func WithGenerator(g Generator) Option {
	return func(s *Source) {
		if g != nil {
			s.generator = g
		}
	}
}

// WithStartID sets the counter value; the first row gets startID+1.
func WithStartID(startID int64) Option {
	return func(s *Source) {
		s.counter.Store(startID)
	}
}

// WithRowLimit caps ingestion at rowsPerSecond. Ticks that would exceed
// the cap are delayed, not dropped.
func WithRowLimit(rowsPerSecond float64) Option {
	return func(s *Source) {
		if rowsPerSecond > 0 {
			s.rowLimit = rate.Limit(rowsPerSecond)
		}
	}
}

// WithLogger sets the logger. Pass nil to disable logging.
func WithLogger(l *slog.Logger) Option {
	return func(s *Source) {
		s.logger = l
	}
}

// New creates a stopped source feeding sink.
func New(sink Sink, optFns ...Option) *Source {
	s := &Source{
		sink:      sink,
		generator: Employee,
		interval:  DefaultInterval,
		batchSize: DefaultBatchSize,
		enabled:   true,
	}
	s.counter.Store(DefaultStartID)

	for _, fn := range optFns {
		if fn != nil {
			fn(s)
		}
	}

	if s.logger == nil {
		s.logger = slog.New(slog.DiscardHandler)
	}
	if s.rowLimit > 0 {
		s.limiter = rate.NewLimiter(s.rowLimit, s.batchSize)
	}
	return s
}

// Start begins streaming. It returns false if the source is disabled, closed,
// has no sink or is already streaming. Cancelling ctx stops the source.
func (s *Source) Start(ctx context.Context) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.enabled || s.closed || s.sink == nil || s.streaming {
		return false
	}

	ctx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	s.streaming = true
	s.cancel = cancel
	s.done = done

	go s.run(ctx, done)

	s.logger.Debug("stream started", "interval", s.interval, "batch_size", s.batchSize)
	return true
}

func (s *Source) run(ctx context.Context, done chan struct{}) {
	defer func() {
		s.mu.Lock()
		if s.done == done {
			s.streaming = false
		}
		s.mu.Unlock()
		close(done)
	}()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if s.limiter != nil {
				if err := s.limiter.WaitN(ctx, s.batchSize); err != nil {
					return
				}
			}
			batch := s.Next()
			if ctx.Err() != nil {
				return
			}
			s.sink(batch)
			s.logger.Debug("stream batch delivered", "rows", len(batch))
		}
	}
}

// Next synthesizes one batch without delivering it.
func (s *Source) Next() []row.Row {
	batch := make([]row.Row, s.batchSize)
	for i := range batch {
		batch[i] = s.generator(s.counter.Add(1))
	}
	return batch
}

// Stop cancels the periodic timer. It does not wait for a batch that is
// being delivered; use Close for that. Stop may be called from the sink.
func (s *Source) Stop() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.streaming {
		return
	}
	s.cancel()
	s.streaming = false
	s.logger.Debug("stream stopped")
}

// Close stops the source for good and waits for its goroutine to exit. It
// must not be called from the sink.
func (s *Source) Close() error {
	s.mu.Lock()
	s.closed = true
	done := s.done
	s.mu.Unlock()

	s.Stop()
	if done != nil {
		<-done
	}
	return nil
}

// IsStreaming reports whether the source is running.
func (s *Source) IsStreaming() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.streaming
}

// Enabled reports whether the source may be started.
func (s *Source) Enabled() bool {
	return s.enabled
}

// LastID returns the id of the most recently synthesized row.
func (s *Source) LastID() int64 {
	return s.counter.Load()
}
