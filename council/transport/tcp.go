package transport

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strings"
	"sync"
	"time"

	"go-council/council/config"
	"go-council/council/wire"
)

// TCP carries one message per short-lived connection. A client connects,
// writes one encoded line, reads the "OK" ack and closes. The ack is pure
// flow control; it does not mean the message was processed.
type TCP struct {
	selfID      string
	reg         *config.Registry
	dialTimeout time.Duration

	handler Handler

	mu       sync.Mutex
	listener net.Listener
	closed   bool
	wg       sync.WaitGroup
}

// NewTCP builds a transport for selfID over the given registry.
func NewTCP(selfID string, reg *config.Registry, dialTimeout time.Duration) *TCP {
	return &TCP{selfID: selfID, reg: reg, dialTimeout: dialTimeout}
}

// Start opens the listening socket at this member's registered port and spins
// up the accept loop. Every connection is handled on its own worker.
func (t *TCP) Start(h Handler) error {
	self, ok := t.reg.Get(t.selfID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, t.selfID)
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", self.Port))
	if err != nil {
		return fmt.Errorf("transport: start: %w", err)
	}

	t.mu.Lock()
	t.handler = h
	t.listener = ln
	t.mu.Unlock()

	fmt.Printf("[%s] listening on %d\n", t.selfID, self.Port)

	t.wg.Add(1)
	go t.acceptLoop(ln)
	return nil
}

func (t *TCP) acceptLoop(ln net.Listener) {
	defer t.wg.Done()
	for {
		conn, err := ln.Accept()
		if err != nil {
			// the listener was closed
			return
		}
		t.wg.Add(1)
		go t.handleConn(conn)
	}
}

// handleConn reads the single line a connection carries, acks it and hands
// the decoded message to the node. Connections that close before writing a
// line are tolerated. Undecodable lines are dropped after the ack.
func (t *TCP) handleConn(conn net.Conn) {
	defer t.wg.Done()
	defer conn.Close()

	line, err := bufio.NewReader(conn).ReadString('\n')
	line = strings.TrimRight(line, "\r\n")
	if err != nil && line == "" {
		return
	}

	_, _ = fmt.Fprint(conn, "OK\n")

	msg, err := wire.Decode(line)
	if err != nil {
		log.Printf("[TRANSPORT] -> Dropping undecodable line from %s: %v.", conn.RemoteAddr(), err)
		return
	}
	t.handler(msg)
}

// Send writes one message to one peer over a fresh connection and waits for
// the ack. The connection is closed on every exit path.
func (t *TCP) Send(peerID string, msg wire.Message) error {
	peer, ok := t.reg.Get(peerID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, peerID)
	}

	conn, err := net.DialTimeout("tcp", fmt.Sprintf("%s:%d", peer.Host, peer.Port), t.dialTimeout)
	if err != nil {
		return fmt.Errorf("transport: %s unreachable: %w", peerID, err)
	}
	defer conn.Close()
	_ = conn.SetDeadline(time.Now().Add(t.dialTimeout))

	if _, err := fmt.Fprintf(conn, "%s\n", wire.Encode(msg)); err != nil {
		return fmt.Errorf("transport: writing to %s: %w", peerID, err)
	}
	if _, err := bufio.NewReader(conn).ReadString('\n'); err != nil {
		return fmt.Errorf("transport: no ack from %s: %w", peerID, err)
	}
	return nil
}

// Broadcast sends to every member except self, one after the other. An
// unreachable peer costs a WARN line and nothing else.
func (t *TCP) Broadcast(msg wire.Message) error {
	for _, m := range t.reg.Members() {
		if m.ID == t.selfID {
			continue
		}
		if err := t.Send(m.ID, msg); err != nil {
			log.Printf("[TRANSPORT] -> WARN: could not reach %s (%v).", m.ID, err)
		}
	}
	return nil
}

// Close shuts the listener and waits for in-flight workers to drain.
func (t *TCP) Close() error {
	t.mu.Lock()
	if t.closed {
		t.mu.Unlock()
		return nil
	}
	t.closed = true
	ln := t.listener
	t.mu.Unlock()

	if ln != nil {
		_ = ln.Close()
	}
	t.wg.Wait()
	return nil
}
