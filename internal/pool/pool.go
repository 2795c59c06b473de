// Package pool provides typed object pooling for per-parse scratch state
// Used by the parser to reuse the maps it fills while matching one command
package pool

import (
	"sync"
)

// Pool is a generic, type-safe wrapper around sync.Pool
type Pool[T any] struct {
	pool  sync.Pool
	reset func(*T) // Optional reset function called before reuse
}

// NewPool creates a new generic pool with the given factory function
func NewPool[T any](factory func() *T) *Pool[T] {
	return &Pool[T]{
		pool: sync.Pool{
			New: func() any {
				return factory()
			},
		},
	}
}

// NewPoolWithReset creates a pool with a reset function called before reuse
func NewPoolWithReset[T any](factory func() *T, reset func(*T)) *Pool[T] {
	p := NewPool(factory)
	p.reset = reset
	return p
}

// Get retrieves an object from the pool or creates a new one
func (p *Pool[T]) Get() *T {
	obj := p.pool.Get().(*T)
	if p.reset != nil {
		p.reset(obj)
	}
	return obj
}

// Put returns an object to the pool for reuse
func (p *Pool[T]) Put(obj *T) {
	if obj == nil {
		return
	}
	p.pool.Put(obj)
}

// ClearMap empties m and keeps its buckets
func ClearMap[K comparable, V any](m map[K]V) {
	clear(m)
}
