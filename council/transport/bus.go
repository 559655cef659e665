package transport

import (
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"go-council/council/wire"
)

// Bus is an in-process message bus connecting the members of one cluster
// without any sockets. Each member obtains its own Endpoint, which satisfies
// Transport. The bus keeps the same delivery contract as the TCP transport:
// at most once, no ordering across sends, and it can be made actively hostile
// with Shuffle, which delays every delivery by a random amount so that
// messages overtake each other.
type Bus struct {
	mu        sync.Mutex
	endpoints map[string]*Endpoint

	rng      *rand.Rand
	maxDelay time.Duration
}

// NewBus builds an empty bus.
func NewBus() *Bus {
	return &Bus{endpoints: make(map[string]*Endpoint)}
}

// Shuffle makes every subsequent delivery sleep a random time up to maxDelay
// before reaching the handler. With deliveries running on their own tasks
// this reorders messages arbitrarily, which is exactly the network the
// protocol has to survive.
func (b *Bus) Shuffle(seed int64, maxDelay time.Duration) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.rng = rand.New(rand.NewSource(seed))
	b.maxDelay = maxDelay
}

// Endpoint registers (or returns) the endpoint for one member id.
func (b *Bus) Endpoint(id string) *Endpoint {
	b.mu.Lock()
	defer b.mu.Unlock()
	if ep, ok := b.endpoints[id]; ok {
		return ep
	}
	ep := &Endpoint{bus: b, id: id}
	b.endpoints[id] = ep
	return ep
}

func (b *Bus) delay() time.Duration {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.rng == nil || b.maxDelay <= 0 {
		return 0
	}
	return time.Duration(b.rng.Int63n(int64(b.maxDelay)))
}

// deliver hands msg to the destination endpoint on a fresh task.
func (b *Bus) deliver(toID string, msg wire.Message) error {
	b.mu.Lock()
	to, ok := b.endpoints[toID]
	b.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownPeer, toID)
	}

	d := b.delay()
	go func() {
		if d > 0 {
			time.Sleep(d)
		}
		to.dispatch(msg)
	}()
	return nil
}

// Endpoint is one member's view of the bus.
type Endpoint struct {
	bus *Bus
	id  string

	mu      sync.Mutex
	handler Handler
	closed  bool
}

// Start records the inbound handler.
func (e *Endpoint) Start(h Handler) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return fmt.Errorf("transport: endpoint %s is closed", e.id)
	}
	e.handler = h
	return nil
}

// Send delivers one message to one peer on the same bus.
func (e *Endpoint) Send(peerID string, msg wire.Message) error {
	return e.bus.deliver(peerID, msg)
}

// Broadcast sends to every endpoint on the bus except self.
func (e *Endpoint) Broadcast(msg wire.Message) error {
	e.bus.mu.Lock()
	ids := make([]string, 0, len(e.bus.endpoints))
	for id := range e.bus.endpoints {
		if id != e.id {
			ids = append(ids, id)
		}
	}
	e.bus.mu.Unlock()

	for _, id := range ids {
		if err := e.Send(id, msg); err != nil {
			log.Printf("[TRANSPORT] -> WARN: could not reach %s (%v).", id, err)
		}
	}
	return nil
}

// Close detaches the endpoint; messages already in flight towards it are
// dropped on arrival, like a member that went down.
func (e *Endpoint) Close() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.closed = true
	e.handler = nil
	return nil
}

func (e *Endpoint) dispatch(msg wire.Message) {
	e.mu.Lock()
	h := e.handler
	closed := e.closed
	e.mu.Unlock()
	if closed || h == nil {
		return
	}
	h(msg)
}
