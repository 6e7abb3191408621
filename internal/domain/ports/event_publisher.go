package ports

import (
	"context"

	"github.com/lexflow/backend/internal/domain/events"
)

// EventHandler is a function that handles an event
type EventHandler func(ctx context.Context, payload interface{}) error

// EventPublisher provides event publishing capabilities.
// Dispatch is synchronous: handlers run to completion, in registration
// order, before Publish returns. Callers may rely on reactions having
// finished when the call returns; handlers needing real asynchrony
// spawn their own goroutine.
type EventPublisher interface {
	// Subscribe registers a handler for a specific event type.
	// The returned function removes the registration.
	Subscribe(eventType events.EventType, handler EventHandler) func()

	// Publish dispatches an event to all currently registered handlers.
	Publish(ctx context.Context, eventType events.EventType, payload interface{}) error
}
