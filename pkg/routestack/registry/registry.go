// Package registry provides a concurrency-safe named lookup table.
//
// It backs tables that are written at start-up and read on every request,
// such as the route-type factories used to build routes from configuration.
// Unlike prioritylist it keeps no order; Keys reports names sorted.
package registry

import (
	"cmp"
	"maps"
	"slices"
	"sync"
)

// Registry maps names to values under a read-write lock.
type Registry[K cmp.Ordered, V any] struct {
	mu      sync.RWMutex
	entries map[K]V
}

// New creates a registry seeded with initial, which is copied.
func New[K cmp.Ordered, V any](initial map[K]V) *Registry[K, V] {
	entries := maps.Clone(initial)
	if entries == nil {
		entries = make(map[K]V)
	}
	return &Registry[K, V]{entries: entries}
}

// Register stores value under key and reports whether it replaced an entry.
func (r *Registry[K, V]) Register(key K, value V) (replaced bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, replaced = r.entries[key]
	r.entries[key] = value
	return replaced
}

// Get returns the value for key.
func (r *Registry[K, V]) Get(key K) (V, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	v, ok := r.entries[key]
	return v, ok
}

// Delete removes key. Deleting a missing key is a no-op.
func (r *Registry[K, V]) Delete(key K) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, key)
}

// Keys returns the registered keys in ascending order.
func (r *Registry[K, V]) Keys() []K {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.entries))
}
