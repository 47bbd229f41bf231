package prioritylist

import (
	"iter"
	"sync"
)

// Synchronized is a List that is safe for concurrent use.
//
// Keyed reads share a read lock. Ordered reads take the write lock because
// they may rebuild the cached order.
type Synchronized[V any] struct {
	mu   sync.RWMutex
	list *List[V]
}

// NewSynchronized creates an empty concurrency-safe list.
func NewSynchronized[V any](opts ...Option) *Synchronized[V] {
	return &Synchronized[V]{list: New[V](opts...)}
}

// Insert stores value under key with the given priority.
// It panics if key is empty.
func (s *Synchronized[V]) Insert(key string, value V, priority int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list.Insert(key, value, priority)
}

// Add stores value under key with priority 0.
func (s *Synchronized[V]) Add(key string, value V) {
	s.Insert(key, value, 0)
}

// Remove deletes key. Removing a missing key is a no-op.
func (s *Synchronized[V]) Remove(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list.Remove(key)
}

// Get returns the value for key and whether it exists.
func (s *Synchronized[V]) Get(key string) (V, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.Get(key)
}

// Has reports whether key exists.
func (s *Synchronized[V]) Has(key string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.Has(key)
}

// Priority returns the priority of key and whether it exists.
func (s *Synchronized[V]) Priority(key string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.Priority(key)
}

// SetPriority changes the priority of key, returning ErrNotFound if absent.
func (s *Synchronized[V]) SetPriority(key string, priority int) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.SetPriority(key, priority)
}

// Len returns the number of entries.
func (s *Synchronized[V]) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.list.Len()
}

// Clear removes all entries.
func (s *Synchronized[V]) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.list.Clear()
}

// Current returns the first entry in priority order.
func (s *Synchronized[V]) Current() (string, V, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Current()
}

// Keys returns the keys in priority order.
func (s *Synchronized[V]) Keys() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Keys()
}

// Values returns the values in priority order.
func (s *Synchronized[V]) Values() []V {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Values()
}

// Entries returns keys, values and priorities in priority order.
func (s *Synchronized[V]) Entries() []Entry[V] {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.list.Entries()
}

// All returns an iterator over keys and values in priority order.
//
// The order is captured under the lock when a traversal starts and the lock
// is released before the first yield, so the loop body may call any method
// on s, including Insert and Remove.
func (s *Synchronized[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		s.mu.Lock()
		snapshot := s.list.ordered()
		s.mu.Unlock()

		for _, r := range snapshot {
			if !yield(r.key, r.value) {
				return
			}
		}
	}
}

// Update runs fn with exclusive access to the underlying list.
// fn must not retain the list after it returns.
func (s *Synchronized[V]) Update(fn func(l *List[V])) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.list)
}
