// Package pubsub provides a generic publish/subscribe event system.
package pubsub

import (
	"context"
	"time"
)

// EventType represents the type of event being published.
type EventType string

const (
	// LoadedEvent fires once per definition after a load or a
	// watcher-driven reload.
	LoadedEvent EventType = "loaded"
	// PreDeleteEvent fires before a definition's file is removed.
	PreDeleteEvent EventType = "predelete"
	// DeletedEvent fires after a delete attempt, regardless of outcome.
	DeletedEvent EventType = "deleted"
	// MessageEvent carries free-form payloads such as log entries.
	MessageEvent EventType = "message"
)

// Event represents a published event with a typed payload.
type Event[T any] struct {
	ID        string
	Type      EventType
	Payload   T
	Timestamp time.Time
}

// Subscriber provides a subscription channel for events.
type Subscriber[T any] interface {
	Subscribe(ctx context.Context) <-chan Event[T]
}

// Publisher allows publishing events with a typed payload.
type Publisher[T any] interface {
	Publish(eventType EventType, payload T)
}
