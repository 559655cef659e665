/*

An acceptor can receive two kinds of requests from proposers: prepare requests
and accept requests. An acceptor can ignore any request without compromising
safety, so we only need to say when it is allowed to respond:
(1) it can always respond to a prepare request;
(2) it can respond to an accept request, accepting the ballot, iff it has not
promised a strictly higher ballot in the meantime.

Rejections here are silent. A NACK would let contending proposers back off
sooner, but it is an extension of the protocol, and the members that stay
silent are indistinguishable from members that are down, which the proposers
must cope with anyway.

*/

// Package paxos implements the member roles of the single-decree Paxos
// consensus used to elect the council president, and the node that wires them
// to a transport.
package paxos

import (
	"log"

	"go-council/council/transport"
	"go-council/council/wire"
)

// Acceptor votes on ballots under the promise and accept rules. It is invoked
// from many transport workers at once; all state transitions are serialized
// inside AcceptorState.
type Acceptor struct {
	selfID string
	state  *AcceptorState
	net    transport.Transport
}

// NewAcceptor builds an acceptor around the given vote book.
func NewAcceptor(selfID string, state *AcceptorState, net transport.Transport) *Acceptor {
	return &Acceptor{selfID: selfID, state: state, net: net}
}

// OnPrepare handles PREPARE(n). If n is at least the highest promise, the
// promise moves to n and a PROMISE goes back to the sender, carrying the
// previously accepted pair when there is one. Otherwise: silence.
func (a *Acceptor) OnPrepare(msg wire.Message) {
	if msg.Ballot == nil {
		return
	}
	n := *msg.Ballot

	promised, accN, accV := a.state.Promise(n)
	if !promised {
		log.Printf("[ACCEPTOR] -> Ballot %s from %s is below my promise; staying silent.", n, msg.From)
		return
	}
	log.Printf("[ACCEPTOR] -> Ballot %s is the highest I have seen; sending a promise to %s.", n, msg.From)

	resp := wire.Message{Type: wire.Promise, From: a.selfID, Ballot: &n}
	if accN != nil {
		resp.Extra = map[string]string{
			wire.ExtraAcceptedNumber: accN.String(),
			wire.ExtraAcceptedValue:  accV,
		}
	}
	if err := a.net.Send(msg.From, resp); err != nil {
		log.Printf("[ACCEPTOR] -> WARN: could not send promise to %s (%v).", msg.From, err)
	}
}

// OnAcceptRequest handles ACCEPT_REQUEST(n, v). If n is at least the highest
// promise, (n, v) is recorded as accepted and an ACCEPTED goes back to the
// sender. Otherwise: silence.
func (a *Acceptor) OnAcceptRequest(msg wire.Message) {
	if msg.Ballot == nil {
		return
	}
	n := *msg.Ballot

	if !a.state.Accept(n, msg.Value) {
		log.Printf("[ACCEPTOR] -> Ballot %s from %s is below my promise; not accepting.", n, msg.From)
		return
	}
	log.Printf("[ACCEPTOR] -> Accepting %s on ballot %s; letting %s know.", msg.Value, n, msg.From)

	resp := wire.Message{Type: wire.Accepted, From: a.selfID, Ballot: &n, Value: msg.Value}
	if err := a.net.Send(msg.From, resp); err != nil {
		log.Printf("[ACCEPTOR] -> WARN: could not send accepted to %s (%v).", msg.From, err)
	}
}
