package paxos_test

import (
	"sync"

	"go-council/council/transport"
	"go-council/council/wire"
)

// sentMsg is one outbound message captured by the fake transport.
type sentMsg struct {
	to  string // empty for broadcasts
	msg wire.Message
}

// captureTransport satisfies transport.Transport and records every outbound
// message instead of delivering it anywhere.
type captureTransport struct {
	mu   sync.Mutex
	sent []sentMsg
}

func (c *captureTransport) Start(h transport.Handler) error { return nil }

func (c *captureTransport) Send(peerID string, msg wire.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMsg{to: peerID, msg: msg})
	return nil
}

func (c *captureTransport) Broadcast(msg wire.Message) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sent = append(c.sent, sentMsg{msg: msg})
	return nil
}

func (c *captureTransport) Close() error { return nil }

// outbox returns a copy of everything captured so far.
func (c *captureTransport) outbox() []sentMsg {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]sentMsg, len(c.sent))
	copy(out, c.sent)
	return out
}

// ofType filters the outbox down to one message type.
func (c *captureTransport) ofType(t string) []sentMsg {
	var out []sentMsg
	for _, s := range c.outbox() {
		if s.msg.Type == t {
			out = append(out, s)
		}
	}
	return out
}
