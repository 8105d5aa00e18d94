package compute

import (
	"context"
	"errors"
	"maps"
	"slices"
	"sync"
	"sync/atomic"
)

// ErrTerminated is returned when posting to a terminated worker.
var ErrTerminated = errors.New("worker terminated")

// Worker runs filter and sort passes on a fixed pool of goroutines.
//
// Requests are copied on Post; the caller may keep mutating its own slices
// and maps afterwards. Responses arrive on Messages in completion order,
// which may differ from post order when the pool has more than one goroutine.
type Worker struct {
	numWorkers int
	handler    Handler

	reqCh  chan Request
	respCh chan Response

	ctx    context.Context
	cancel context.CancelFunc

	wg       sync.WaitGroup
	closed   atomic.Bool
	submitMu sync.RWMutex
}

// WorkerOption configures a Worker.
type WorkerOption func(*Worker)

// WithHandler replaces Process as the worker's request handler.
func WithHandler(h Handler) WorkerOption {
	return func(w *Worker) {
		if h != nil {
			w.handler = h
		}
	}
}

// NewWorker starts a worker with numWorkers goroutines (at least one).
func NewWorker(numWorkers int, optFns ...WorkerOption) *Worker {
	if numWorkers <= 0 {
		numWorkers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())
	w := &Worker{
		numWorkers: numWorkers,
		handler:    Process,
		reqCh:      make(chan Request, numWorkers*2),
		respCh:     make(chan Response, numWorkers),
		ctx:        ctx,
		cancel:     cancel,
	}
	for _, fn := range optFns {
		if fn != nil {
			fn(w)
		}
	}

	w.wg.Add(numWorkers)
	for range numWorkers {
		go w.run()
	}

	return w
}

func (w *Worker) run() {
	defer w.wg.Done()

	for req := range w.reqCh {
		if w.ctx.Err() != nil {
			return
		}

		resp, err := w.handler(w.ctx, req)
		if err != nil {
			resp = Response{
				Type:       TypeSortAndFilterComplete,
				Generation: req.Generation,
				Err:        err,
			}
		}

		select {
		case w.respCh <- resp:
		case <-w.ctx.Done():
			return
		}
	}
}

// Post enqueues a request. It blocks while the queue is full.
//
// Error conditions:
//   - ErrTerminated if the worker has been terminated
//   - ctx.Err() if ctx is cancelled before the request is enqueued
func (w *Worker) Post(ctx context.Context, req Request) error {
	w.submitMu.RLock()
	defer w.submitMu.RUnlock()

	if w.closed.Load() {
		return ErrTerminated
	}

	req.Payload.Data = slices.Clone(req.Payload.Data)
	req.Payload.Filters = maps.Clone(req.Payload.Filters)
	if req.Payload.SortConfig != nil {
		sc := *req.Payload.SortConfig
		req.Payload.SortConfig = &sc
	}

	select {
	case w.reqCh <- req:
		return nil
	case <-w.ctx.Done():
		return ErrTerminated
	case <-ctx.Done():
		return ctx.Err()
	}
}

// Messages returns the response channel. It is closed by Terminate.
func (w *Worker) Messages() <-chan Response {
	return w.respCh
}

// Terminate aborts in-flight work, drops pending responses and closes the
// response channel. It is idempotent.
func (w *Worker) Terminate() {
	if !w.closed.CompareAndSwap(false, true) {
		return
	}

	w.cancel()

	w.submitMu.Lock()
	close(w.reqCh)
	w.submitMu.Unlock()

	w.wg.Wait()

	for {
		select {
		case <-w.respCh:
			continue
		default:
		}
		break
	}
	close(w.respCh)
}

// Terminated reports whether Terminate has been called.
func (w *Worker) Terminated() bool {
	return w.closed.Load()
}
