package event

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrStopPropagation is returned by a handler to skip the remaining
	// handlers for the event. It is not treated as a failure.
	ErrStopPropagation = errors.New("event: stop propagation")

	// ErrHandlerNotFound is returned when a named handler is not registered.
	ErrHandlerNotFound = errors.New("event: handler not found")

	// ErrDLQFull is returned when a dead letter queue is at capacity.
	ErrDLQFull = errors.New("event: dead letter queue full")

	// ErrStoreClosed is returned when operating on a closed SQLiteDLQ.
	ErrStoreClosed = errors.New("event: store closed")
)

// EventError represents an error during event processing.
type EventError struct {
	Event   Event
	Handler string
	Message string
	Err     error
}

// Error implements error.
func (e *EventError) Error() string {
	prefix := "event"
	if e.Event != nil {
		prefix = "event " + e.Event.ID()
	}
	if e.Handler != "" {
		prefix += " handler " + e.Handler
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", prefix, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", prefix, e.Message)
}

// Unwrap returns the underlying error.
func (e *EventError) Unwrap() error {
	return e.Err
}

// FailedEvent records a handler failure for later inspection or redrive.
type FailedEvent struct {
	EventID       string `json:"event_id"`
	EventType     string `json:"event_type"`
	EventSource   string `json:"event_source"`
	CorrelationID string `json:"correlation_id"`
	EventData     []byte `json:"event_data"`

	Handler      string `json:"handler"`
	ErrorMessage string `json:"error_message"`
	Attempts     int    `json:"attempts"`

	FailedAt time.Time `json:"failed_at"`
}

// NewFailedEvent creates a FailedEvent from a handler error.
func NewFailedEvent(evt Event, err error, handler string, attempts int) *FailedEvent {
	return &FailedEvent{
		EventID:       evt.ID(),
		EventType:     evt.Type(),
		EventSource:   evt.Source(),
		CorrelationID: evt.CorrelationID(),
		EventData:     evt.DataBytes(),
		Handler:       handler,
		ErrorMessage:  err.Error(),
		Attempts:      attempts,
		FailedAt:      time.Now().UTC(),
	}
}

// failureKey identifies a failure: one event can fail in several handlers.
type failureKey struct {
	eventID string
	handler string
}

func (f *FailedEvent) key() failureKey {
	return failureKey{eventID: f.EventID, handler: f.Handler}
}
