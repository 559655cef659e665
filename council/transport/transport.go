// Package transport moves encoded messages between council members.
//
// The roles only ever see the Transport interface: deliver one message to one
// peer, best-effort broadcast to everybody else, and feed every inbound
// message to a single handler. Delivery is at most once, unordered across
// distinct sends, and not guaranteed at all when the peer is down. The
// protocol is built to survive exactly that, so a failed send is a WARN line,
// never an error surfaced to the caller of Broadcast.
package transport

import (
	"errors"

	"go-council/council/wire"
)

// ErrUnknownPeer is returned by Send when the destination id is not in the
// registry.
var ErrUnknownPeer = errors.New("transport: unknown peer")

// Handler consumes one inbound message. It is invoked from the transport's
// worker tasks, many at a time.
type Handler func(msg wire.Message)

// Transport is the message bus a node participates in.
type Transport interface {
	// Start begins listening and delivers every received message to h
	// exactly once. It fails synchronously, e.g. when the address is busy.
	Start(h Handler) error

	// Send delivers one message to one peer.
	Send(peerID string, msg wire.Message) error

	// Broadcast sends to every registered member except self, best-effort:
	// per-peer failures are logged and swallowed.
	Broadcast(msg wire.Message) error

	// Close stops accepting messages and tears the workers down. Idempotent.
	Close() error
}
