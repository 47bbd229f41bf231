package prioritylist

import (
	"cmp"
	"errors"
	"iter"
	"slices"
)

// ErrNotFound indicates an operation referenced a key that is not in the list.
var ErrNotFound = errors.New("prioritylist: key not found")

// Entry is an ordered view of a stored value and its priority.
type Entry[V any] struct {
	Key      string
	Value    V
	Priority int
}

// record is the internal entry. Records are never modified after creation,
// so a sorted slice handed to an iterator stays valid after later mutations.
type record[V any] struct {
	key      string
	value    V
	priority int
	serial   uint64
}

type options struct {
	fifo     bool
	capacity int
}

// Option configures a List.
type Option func(*options)

// WithFIFO orders entries of equal priority by insertion, first inserted first.
// The default is LIFO.
func WithFIFO() Option {
	return func(o *options) {
		o.fifo = true
	}
}

// WithCapacity pre-sizes the list for n entries.
func WithCapacity(n int) Option {
	return func(o *options) {
		if n > 0 {
			o.capacity = n
		}
	}
}

// List is an associative container iterated in priority order.
// The zero value is not usable; create lists with New.
type List[V any] struct {
	entries map[string]*record[V]
	sorted  []*record[V]
	dirty   bool
	serial  uint64
	fifo    bool
}

// New creates an empty list.
func New[V any](opts ...Option) *List[V] {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	return &List[V]{
		entries: make(map[string]*record[V], o.capacity),
		fifo:    o.fifo,
	}
}

// Insert stores value under key with the given priority.
// An existing key is replaced and moves to the front of its priority tier.
// Insert panics if key is empty.
func (l *List[V]) Insert(key string, value V, priority int) {
	if key == "" {
		panic("prioritylist: empty key")
	}
	l.serial++
	l.entries[key] = &record[V]{
		key:      key,
		value:    value,
		priority: priority,
		serial:   l.serial,
	}
	l.dirty = true
}

// Add stores value under key with the default priority of 0.
func (l *List[V]) Add(key string, value V) {
	l.Insert(key, value, 0)
}

// Remove deletes key from the list. Removing a missing key is a no-op.
func (l *List[V]) Remove(key string) {
	if _, ok := l.entries[key]; !ok {
		return
	}
	delete(l.entries, key)
	l.dirty = true
}

// Get returns the value stored under key and whether it exists.
func (l *List[V]) Get(key string) (V, bool) {
	r, ok := l.entries[key]
	if !ok {
		var zero V
		return zero, false
	}
	return r.value, true
}

// Has reports whether key is in the list.
func (l *List[V]) Has(key string) bool {
	_, ok := l.entries[key]
	return ok
}

// Priority returns the priority of key and whether it exists.
func (l *List[V]) Priority(key string) (int, bool) {
	r, ok := l.entries[key]
	if !ok {
		return 0, false
	}
	return r.priority, true
}

// SetPriority changes the priority of key without changing its insertion
// position. It returns ErrNotFound if key is not in the list.
func (l *List[V]) SetPriority(key string, priority int) error {
	r, ok := l.entries[key]
	if !ok {
		return ErrNotFound
	}
	if r.priority == priority {
		return nil
	}
	l.entries[key] = &record[V]{
		key:      r.key,
		value:    r.value,
		priority: priority,
		serial:   r.serial,
	}
	l.dirty = true
	return nil
}

// Len returns the number of entries.
func (l *List[V]) Len() int {
	return len(l.entries)
}

// Clear removes all entries.
func (l *List[V]) Clear() {
	l.entries = make(map[string]*record[V])
	l.sorted = nil
	l.dirty = false
}

// All returns an iterator over keys and values in priority order.
// Each traversal works on the order current at the time it starts.
func (l *List[V]) All() iter.Seq2[string, V] {
	return func(yield func(string, V) bool) {
		for _, r := range l.ordered() {
			if !yield(r.key, r.value) {
				return
			}
		}
	}
}

// Current returns the first entry in priority order.
// The boolean is false when the list is empty.
func (l *List[V]) Current() (string, V, bool) {
	sorted := l.ordered()
	if len(sorted) == 0 {
		var zero V
		return "", zero, false
	}
	return sorted[0].key, sorted[0].value, true
}

// Keys returns the keys in priority order.
func (l *List[V]) Keys() []string {
	sorted := l.ordered()
	keys := make([]string, len(sorted))
	for i, r := range sorted {
		keys[i] = r.key
	}
	return keys
}

// Values returns the values in priority order.
func (l *List[V]) Values() []V {
	sorted := l.ordered()
	values := make([]V, len(sorted))
	for i, r := range sorted {
		values[i] = r.value
	}
	return values
}

// Entries returns keys, values and priorities in priority order.
func (l *List[V]) Entries() []Entry[V] {
	sorted := l.ordered()
	out := make([]Entry[V], len(sorted))
	for i, r := range sorted {
		out[i] = Entry[V]{Key: r.key, Value: r.value, Priority: r.priority}
	}
	return out
}

// ordered returns the cached order, rebuilding it if the list changed.
// The returned slice must not be modified.
func (l *List[V]) ordered() []*record[V] {
	if !l.dirty {
		return l.sorted
	}
	sorted := make([]*record[V], 0, len(l.entries))
	for _, r := range l.entries {
		sorted = append(sorted, r)
	}
	slices.SortFunc(sorted, l.compare)
	l.sorted = sorted
	l.dirty = false
	return sorted
}

// compare orders by priority descending, then by serial: descending for LIFO,
// ascending for FIFO. Serials are unique so the order is total.
func (l *List[V]) compare(a, b *record[V]) int {
	if c := cmp.Compare(b.priority, a.priority); c != 0 {
		return c
	}
	if l.fifo {
		return cmp.Compare(a.serial, b.serial)
	}
	return cmp.Compare(b.serial, a.serial)
}
