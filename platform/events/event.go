// Package events provides the live event broadcast used to push pipeline
// progress to connected dashboards.
// This is part of the platform layer and contains no business logic.
package events

import (
	"context"
	"time"
)

// Event is the envelope broadcast on the pub/sub channel.
type Event struct {
	Type        string         `json:"type"`
	WorkspaceID string         `json:"workspaceId"`
	LeadID      string         `json:"leadId,omitempty"`
	Payload     map[string]any `json:"payload,omitempty"`
	OccurredAt  time.Time      `json:"occurredAt"`
}

// Publisher broadcasts events. Delivery is best effort: implementations log
// failures and never return them, so callers cannot fail a job on a missed
// broadcast.
type Publisher interface {
	Publish(ctx context.Context, event Event)
}

// Handler receives events read from the channel.
type Handler interface {
	Handle(ctx context.Context, event Event)
}

// HandlerFunc is an adapter to allow ordinary functions to be used as handlers.
type HandlerFunc func(ctx context.Context, event Event)

// Handle calls the underlying function.
func (f HandlerFunc) Handle(ctx context.Context, event Event) {
	f(ctx, event)
}

// NoopPublisher drops every event.
type NoopPublisher struct{}

// Publish implements Publisher.
func (NoopPublisher) Publish(context.Context, Event) {}
