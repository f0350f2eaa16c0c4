package pubsub

import (
	"context"
)

// Message is the envelope carried on the bus.
type Message struct {
	// Topic names the stream the message belongs to (e.g. "login.state.changed").
	Topic string
	// Payload holds the encoded event, usually JSON.
	Payload []byte
	// Metadata carries optional string attributes such as an attempt ID.
	Metadata map[string]string
}

// Handler processes a received message. A non-nil error is logged and the
// message is not redelivered.
type Handler func(ctx context.Context, msg Message) error

// Publisher sends messages onto the bus.
type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

// Subscriber delivers messages from the bus to a handler.
type Subscriber interface {
	// Subscribe registers handler for topic and returns once the
	// subscription is active. Messages are handled one at a time, in publish
	// order, until ctx is cancelled or the subscriber is closed.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
