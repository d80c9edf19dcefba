// Package events defines domain events handed to other systems through the outbox.
package events

import "context"

// Event types.
const (
	InvoiceCreated = "invoice.created"
)

// Event describes something that happened to an aggregate.
type Event struct {
	AggregateType string
	AggregateID   int64
	EventType     string
	Payload       any
}

// Publisher stores events for later delivery. Publish must run inside the transaction that
// made the change, so the event exists if and only if the change was committed.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}
