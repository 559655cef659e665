package paxos

import (
	"errors"
	"fmt"
	"log"
	"time"

	"go-council/council/ballot"
	"go-council/council/config"
	"go-council/council/record"
	"go-council/council/transport"
	"go-council/council/wire"
)

// ErrUnknownCandidate is returned by Propose for a candidate id that is not a
// registered member.
var ErrUnknownCandidate = errors.New("paxos: unknown candidate")

// Node is one council member: proposer, acceptor and learner sharing a
// transport. The roles never hold references to each other; the dispatcher is
// a plain fan-out over the message type.
type Node struct {
	selfID string
	reg    *config.Registry

	net      transport.Transport
	state    *AcceptorState
	acceptor *Acceptor
	proposer *Proposer
	learner  *Learner
	sweeper  *sweeper
}

// NewNode wires the three roles together. store may be nil when the decision
// is not recorded anywhere.
func NewNode(selfID string, reg *config.Registry, net transport.Transport, store record.Store, opts ...Option) *Node {
	n := &Node{
		selfID: selfID,
		reg:    reg,
		net:    net,
		state:  NewAcceptorState(),
	}
	n.acceptor = NewAcceptor(selfID, n.state, net)
	n.proposer = NewProposer(selfID, net, reg.Quorum())
	n.learner = NewLearner(selfID, reg.Quorum(), store)
	n.sweeper = newSweeper(n.proposer)

	for _, opt := range opts {
		opt(n)
	}

	// Once decided, superseded rounds are dead weight; let the sweeper know
	// where the floor is.
	n.learner.SetDecisionHook(func(value string, pn *ballot.Number) {
		n.sweeper.decisionReached(pn)
	})
	return n
}

// Option tunes a Node at construction time.
type Option func(*Node)

// WithSweepInterval overrides how often the sweeper looks for reclaimable
// rounds.
func WithSweepInterval(d time.Duration) Option {
	return func(n *Node) { n.sweeper.interval = d }
}

// Start begins serving: the transport feeds every inbound message to the
// dispatcher, and the sweeper starts ticking.
func (n *Node) Start() error {
	if err := n.net.Start(n.Dispatch); err != nil {
		return err
	}
	n.sweeper.start()
	return nil
}

// Dispatch routes one inbound message to the role operations that handle its
// type. ACCEPTED feeds the proposer first and the learner second; unknown
// types are dropped silently.
func (n *Node) Dispatch(msg wire.Message) {
	switch msg.Type {
	case wire.Prepare:
		n.acceptor.OnPrepare(msg)
	case wire.Promise:
		n.proposer.OnPromise(msg)
	case wire.AcceptRequest:
		n.acceptor.OnAcceptRequest(msg)
	case wire.Accepted:
		n.proposer.OnAccepted(msg)
		n.learner.OnAccepted(msg)
	case wire.Decide:
		n.learner.OnDecide(msg)
	default:
	}
}

// Propose starts an election attempt for candidate. Candidates must be
// registered members; anything else is rejected before any state changes.
func (n *Node) Propose(candidate string) error {
	if !n.reg.Contains(candidate) {
		return fmt.Errorf("%w: %s", ErrUnknownCandidate, candidate)
	}
	n.proposer.StartPrepare(candidate)
	return nil
}

// Decided returns the elected value once this member has learned one.
func (n *Node) Decided() (string, bool) {
	return n.learner.Decided()
}

// State exposes the acceptor's vote book, mainly for inspection in tests.
func (n *Node) State() *AcceptorState {
	return n.state
}

// Close stops the sweeper and the transport. In-flight handlers may lose
// their round's progress; nothing is persisted, so that is all they lose.
func (n *Node) Close() error {
	n.sweeper.stop()
	if err := n.net.Close(); err != nil {
		log.Printf("[NODE] -> WARN: closing transport (%v).", err)
		return err
	}
	return nil
}
