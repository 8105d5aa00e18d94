package gridgo

import "github.com/hupe1980/gridgo/compute"

// WithWorkerHandler replaces the handler run by the background worker.
func WithWorkerHandler(h compute.Handler) Option {
	return func(o *options) {
		o.workerHandler = h
	}
}
