// Package events provides the in-process event bus modules use to react to
// each other's writes. This is part of the platform layer and contains no
// business logic.
package events

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// Event is implemented by every domain event.
type Event interface {
	// EventName is the subscription key, e.g. "lifecycle.contact.converted".
	EventName() string
	// EventID is unique per published event. Consumers outside the process
	// use it to drop duplicates.
	EventID() uuid.UUID
	OccurredAt() time.Time
}

// BaseEvent carries the identity and timestamp shared by all events.
type BaseEvent struct {
	ID        uuid.UUID `json:"eventId"`
	Timestamp time.Time `json:"timestamp"`
}

func (e BaseEvent) EventID() uuid.UUID { return e.ID }

func (e BaseEvent) OccurredAt() time.Time { return e.Timestamp }

// NewBaseEvent stamps a fresh id and the current UTC time.
func NewBaseEvent() BaseEvent {
	return BaseEvent{ID: uuid.New(), Timestamp: time.Now().UTC()}
}

// Handler processes events of a specific type.
type Handler interface {
	Handle(ctx context.Context, event Event) error
}

// HandlerFunc is an adapter to allow ordinary functions to be used as handlers.
type HandlerFunc func(ctx context.Context, event Event) error

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) error {
	return f(ctx, event)
}

// Bus delivers events to the handlers subscribed to their name.
//
// Publish never blocks on handlers and never reports their errors: it runs
// them on a context detached from the caller's cancellation, so a request
// that has already returned does not abort cache invalidation or other
// follow-ups. Processes call Wait before exiting to let those handlers
// finish. PublishSync is for callers that need handler errors.
type Bus interface {
	Publish(ctx context.Context, event Event)
	PublishSync(ctx context.Context, event Event) error
	// Subscribe registers handler for eventName, matching Event.EventName().
	Subscribe(eventName string, handler Handler)
	// Wait blocks until every handler started by Publish has returned.
	Wait()
}
