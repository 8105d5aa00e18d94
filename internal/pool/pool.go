// Package pool provides typed object pools backed by sync.Pool.
package pool

import "sync"

// Pool is a typed sync.Pool. Values are reset before they are returned to
// the pool.
type Pool[T any] struct {
	p     sync.Pool
	reset func(T)
}

// New creates a pool that allocates with newFn. reset may be nil.
func New[T any](newFn func() T, reset func(T)) *Pool[T] {
	return &Pool[T]{
		p:     sync.Pool{New: func() any { return newFn() }},
		reset: reset,
	}
}

// Get retrieves a value from the pool, allocating one if the pool is empty.
func (p *Pool[T]) Get() T {
	return p.p.Get().(T)
}

// Put resets v and returns it to the pool for reuse.
func (p *Pool[T]) Put(v T) {
	if p.reset != nil {
		p.reset(v)
	}
	p.p.Put(v)
}
