// Package memo provides lazily populated, concurrency-safe caches for values that never
// change during a process lifetime.
//
// Both types tolerate redundant concurrent computation: two goroutines that miss at the
// same time may both run the loader, but only the first stored result is ever retained
// and every caller observes that retained value.
package memo

import (
	"sync"
	"sync/atomic"
)

// Map is a compute-if-absent map. The zero value is ready to use.
type Map[K comparable, V any] struct {
	m sync.Map
}

// GetOrLoad returns the retained value for key, calling load on a miss.
//
// Errors from load are returned to the caller and nothing is stored, so a later call
// retries the load.
func (m *Map[K, V]) GetOrLoad(key K, load func(K) (V, error)) (V, error) {
	if v, ok := m.m.Load(key); ok {
		return v.(V), nil //nolint: forcetypeassert
	}

	v, err := load(key)
	if err != nil {
		var zero V
		return zero, err
	}

	actual, _ := m.m.LoadOrStore(key, v)

	return actual.(V), nil //nolint: forcetypeassert
}

// Get returns the retained value for key, if any.
func (m *Map[K, V]) Get(key K) (V, bool) {
	v, ok := m.m.Load(key)
	if !ok {
		var zero V
		return zero, false
	}

	return v.(V), true //nolint: forcetypeassert
}

// Len returns the number of retained values.
func (m *Map[K, V]) Len() int {
	n := 0
	m.m.Range(func(_, _ any) bool {
		n++
		return true
	})

	return n
}

// Value is a lazily loaded singleton. The zero value is ready to use.
type Value[V any] struct {
	p atomic.Pointer[V]
}

// GetOrLoad returns the retained value, calling load if none is retained yet.
func (v *Value[V]) GetOrLoad(load func() (V, error)) (V, error) {
	if p := v.p.Load(); p != nil {
		return *p, nil
	}

	loaded, err := load()
	if err != nil {
		var zero V
		return zero, err
	}

	if v.p.CompareAndSwap(nil, &loaded) {
		return loaded, nil
	}

	return *v.p.Load(), nil
}

// Loaded reports whether a value is retained.
func (v *Value[V]) Loaded() bool {
	return v.p.Load() != nil
}
