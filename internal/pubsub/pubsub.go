// Package pubsub is the in-process bus domain events travel on.
package pubsub

import (
	"context"
)

// Message is the structure passed between components on the bus.
type Message struct {
	// Topic identifies the channel the message belongs to (e.g., "game.events").
	Topic string
	// LobbyID identifies the lobby the message originated from.
	LobbyID string
	Payload []byte
	// Metadata carries arbitrary string pairs alongside the payload.
	Metadata map[string]string
}

// Handler processes one received message.
type Handler func(ctx context.Context, msg Message) error

type Publisher interface {
	Publish(ctx context.Context, msg Message) error
	Close() error
}

type Subscriber interface {
	// Subscribe registers handler for topic and returns once the subscription is active.
	Subscribe(ctx context.Context, topic string, handler Handler) error
	Close() error
}
