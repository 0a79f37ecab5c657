// Package notify publishes booking lifecycle messages to other services.
//
// Publishing happens after the database transaction commits, so a message
// always describes state that exists. Delivery is best effort: a failed
// publish never undoes a booking.
package notify

import (
	"context"
	"sync"
	"time"
)

// Routing keys.
const (
	BookingCreated  = "booking.created"
	BookingReleased = "booking.released"
	ResourceDeleted = "resource.deleted"
)

// Publisher sends a JSON-encodable payload under a routing key.
type Publisher interface {
	Publish(ctx context.Context, routingKey string, payload any) error
}

// BookingMessage is published when units of a resource are committed.
type BookingMessage struct {
	BookingID  int64     `json:"booking_id"`
	ResourceID int64     `json:"resource_id"`
	EventID    int64     `json:"event_id"`
	Quantity   int       `json:"quantity"`
	Start      time.Time `json:"start"`
	End        time.Time `json:"end"`
}

// ReleaseMessage is published when an event's hold on a resource is dropped.
type ReleaseMessage struct {
	ResourceID int64 `json:"resource_id"`
	EventID    int64 `json:"event_id"`
	Released   int   `json:"released"`
}

// ResourceDeletedMessage lists the events that lost a resource reference.
type ResourceDeletedMessage struct {
	ResourceID int64   `json:"resource_id"`
	EventIDs   []int64 `json:"event_ids"`
}

// Noop discards every message.
type Noop struct{}

// Publish implements Publisher.
func (Noop) Publish(context.Context, string, any) error { return nil }

// Message is one publish captured by a Recorder.
type Message struct {
	RoutingKey string
	Payload    any
}

// Recorder keeps published messages in memory.
type Recorder struct {
	mu       sync.Mutex
	messages []Message
	Err      error
}

// Publish implements Publisher. If Err is set it is returned and nothing is kept.
func (r *Recorder) Publish(_ context.Context, routingKey string, payload any) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.Err != nil {
		return r.Err
	}
	r.messages = append(r.messages, Message{RoutingKey: routingKey, Payload: payload})
	return nil
}

// Messages returns a copy of what has been published so far.
func (r *Recorder) Messages() []Message {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]Message(nil), r.messages...)
}

// Keys returns the routing keys published so far, in order.
func (r *Recorder) Keys() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	keys := make([]string, len(r.messages))
	for i, m := range r.messages {
		keys[i] = m.RoutingKey
	}
	return keys
}
