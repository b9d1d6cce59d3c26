package mqtt

import (
	"context"
)

// MessageHandler is invoked on its own goroutine for every publish whose
// topic matches the subscribed filter.
type MessageHandler func(ctx context.Context, topic string, payload []byte)

// Message is a publish prepared ahead of time: the last will handed to the
// broker on CONNECT, or the birth message sent after every connection.
type Message struct {
	Topic   string
	Payload []byte
	QoS     byte
	Retain  bool
}

// Client is the MQTT v5 connection shared by sources and submitters.
type Client interface {
	// Start launches the connection manager and returns without waiting for
	// the broker. The connection lives until ctx is cancelled or Disconnect.
	Start(ctx context.Context) error

	Disconnect(ctx context.Context)

	Publish(ctx context.Context, topic string, qos int, retain bool, payload []byte) error

	// Subscribe registers handler for the topic filter. Subscriptions are
	// replayed after every reconnect, including one made while the broker
	// was unreachable.
	Subscribe(ctx context.Context, topic string, qos int, handler MessageHandler) error

	Unsubscribe(ctx context.Context, topic string) error

	AwaitConnection(ctx context.Context) error

	// IsConnected reports whether the connection is up right now.
	IsConnected() bool
}
