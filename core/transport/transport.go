// Package transport moves request envelopes between nodes and carries the
// reply back. It knows nothing about actors; core/remote builds on it.
package transport

import "context"

type Subscription interface {
	Unsubscribe() error
}

// ServerHandlerFunc handles one inbound envelope. The returned bytes, or
// the error text, are sent back to the requester.
type ServerHandlerFunc = func(ctx context.Context, env Envelope) ([]byte, error)

type ClientTransport interface {
	// Request sends env to env.Node and waits for the reply.
	Request(ctx context.Context, env Envelope) ([]byte, error)
	Close() error
}

type ServerTransport interface {
	// SubscribeNode delivers every envelope addressed to nodeID to h.
	// The subscription ends when ctx is done or Unsubscribe is called.
	SubscribeNode(ctx context.Context, nodeID string, h ServerHandlerFunc) (Subscription, error)
	Close() error
}

type Transport interface {
	ClientTransport
	ServerTransport
}
