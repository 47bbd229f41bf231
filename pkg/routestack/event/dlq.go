package event

import (
	"context"
	"slices"
	"sync"
)

// DeadLetterQueue stores handler failures for later redrive.
type DeadLetterQueue interface {
	// Enqueue records a failure. A failure for the same event and handler
	// replaces the earlier record.
	Enqueue(ctx context.Context, failed *FailedEvent) error

	// Dequeue returns up to limit failures, oldest first. Failures stay
	// queued until acknowledged.
	Dequeue(ctx context.Context, limit int) ([]*FailedEvent, error)

	// Acknowledge removes a failure once it has been handled.
	Acknowledge(ctx context.Context, eventID, handler string) error

	// Count returns the number of queued failures.
	Count(ctx context.Context) (int, error)
}

// DefaultDLQMaxSize is the InMemoryDLQ capacity when none is given.
const DefaultDLQMaxSize = 10000

// InMemoryDLQ is an in-memory DeadLetterQueue.
// Suitable for testing and single-instance deployments.
type InMemoryDLQ struct {
	mu      sync.RWMutex
	order   []failureKey // oldest first
	events  map[failureKey]*FailedEvent
	maxSize int
}

var _ DeadLetterQueue = (*InMemoryDLQ)(nil)

// NewInMemoryDLQ creates an in-memory dead letter queue holding at most
// maxSize failures. maxSize <= 0 uses DefaultDLQMaxSize.
func NewInMemoryDLQ(maxSize int) *InMemoryDLQ {
	if maxSize <= 0 {
		maxSize = DefaultDLQMaxSize
	}
	return &InMemoryDLQ{
		events:  make(map[failureKey]*FailedEvent),
		maxSize: maxSize,
	}
}

// Enqueue implements DeadLetterQueue.
func (d *InMemoryDLQ) Enqueue(_ context.Context, failed *FailedEvent) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := failed.key()
	stored := *failed
	if _, ok := d.events[k]; ok {
		d.events[k] = &stored
		return nil
	}
	if len(d.events) >= d.maxSize {
		return ErrDLQFull
	}

	d.events[k] = &stored
	d.order = append(d.order, k)
	return nil
}

// Dequeue implements DeadLetterQueue. The returned failures are copies.
func (d *InMemoryDLQ) Dequeue(_ context.Context, limit int) ([]*FailedEvent, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if limit <= 0 || limit > len(d.order) {
		limit = len(d.order)
	}

	out := make([]*FailedEvent, 0, limit)
	for _, k := range d.order[:limit] {
		f := *d.events[k]
		out = append(out, &f)
	}
	return out, nil
}

// Acknowledge implements DeadLetterQueue. Unknown failures are ignored.
func (d *InMemoryDLQ) Acknowledge(_ context.Context, eventID, handler string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	k := failureKey{eventID: eventID, handler: handler}
	if _, ok := d.events[k]; !ok {
		return nil
	}
	delete(d.events, k)
	d.order = slices.DeleteFunc(d.order, func(o failureKey) bool { return o == k })
	return nil
}

// Count implements DeadLetterQueue.
func (d *InMemoryDLQ) Count(_ context.Context) (int, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return len(d.events), nil
}
