package services

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/lexflow/backend/internal/domain/events"
	"github.com/lexflow/backend/internal/domain/ports"
)

// EventType is an alias to the domain type
type EventType = events.EventType

// EventHandler is a function that handles an event.
// Using the type from ports to ensure interface compatibility.
type EventHandler = ports.EventHandler

// PlatformEvent represents a dispatched event
type PlatformEvent struct {
	Type      EventType   `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

type subscription struct {
	id      int
	handler EventHandler
}

// EventBus manages the in-process publish-subscribe event system.
// Handlers run synchronously, in registration order, to completion
// before Publish returns. It implements ports.EventPublisher.
type EventBus struct {
	handlers map[EventType][]subscription
	nextID   int
	mu       sync.RWMutex
}

// Ensure EventBus implements ports.EventPublisher at compile time
var _ ports.EventPublisher = (*EventBus)(nil)

// NewEventBus creates a new EventBus instance
func NewEventBus() *EventBus {
	return &EventBus{
		handlers: make(map[EventType][]subscription),
	}
}

// Subscribe registers a handler for a specific event type.
// Returns an unsubscribe function.
func (eb *EventBus) Subscribe(eventType EventType, handler EventHandler) func() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.nextID++
	id := eb.nextID
	eb.handlers[eventType] = append(eb.handlers[eventType], subscription{id: id, handler: handler})

	return func() {
		eb.mu.Lock()
		defer eb.mu.Unlock()

		subs := eb.handlers[eventType]
		for i, s := range subs {
			if s.id == id {
				eb.handlers[eventType] = append(subs[:i], subs[i+1:]...)
				break
			}
		}
	}
}

// Publish dispatches an event to all handlers registered at call time.
// The subscriber list is snapshotted before dispatch, so a handler may
// publish or (un)subscribe re-entrantly; the nested publish dispatches
// against the list as it stands at that moment. A failing handler does
// not stop dispatch to the remaining handlers; all handler errors are
// joined into the returned error.
func (eb *EventBus) Publish(ctx context.Context, eventType EventType, payload interface{}) error {
	eb.mu.RLock()
	subs := make([]subscription, len(eb.handlers[eventType]))
	copy(subs, eb.handlers[eventType])
	eb.mu.RUnlock()

	if len(subs) == 0 {
		return nil
	}

	event := PlatformEvent{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now().Unix(),
	}

	var errs []error
	for _, s := range subs {
		if err := s.handler(ctx, event.Payload); err != nil {
			errs = append(errs, fmt.Errorf("EventBus handler error for %s: %w", eventType, err))
		}
	}

	return errors.Join(errs...)
}

// Clear removes all handlers (useful for testing)
func (eb *EventBus) Clear() {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers = make(map[EventType][]subscription)
}
