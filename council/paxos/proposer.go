/*

# StartPrepare(candidate):
A proposer mints a new ballot numbered n and asks every other member's
acceptor (its own member's acceptor is not asked) to respond
with: (a) a promise never again to accept a ballot numbered less than n, and
(b) the highest-numbered ballot it has accepted, if any.

# Phase 2:
If the proposer receives promises from a majority of the acceptors, it issues
an accept request numbered n whose value is the value of the highest-numbered
accepted pair among the responses, or its own candidate if the responders
reported no prior acceptance.

*/

package paxos

import (
	"log"
	"sync"

	"go-council/council/ballot"
	"go-council/council/transport"
	"go-council/council/wire"
)

// priorPair is one acceptor's previously accepted (ballot, value), reported
// inside its PROMISE.
type priorPair struct {
	number ballot.Number
	value  string
}

// round is the bookkeeping for one ballot owned by this proposer. Everything
// in it is guarded by its own mutex; the once-only latches make sure the
// phase-2 request and the decision broadcast fire exactly once even when two
// workers cross the quorum threshold together.
type round struct {
	mu            sync.Mutex
	originalValue string
	promises      map[string]bool
	priorAccepted map[string]priorPair
	accepteds     map[string]bool
	phase2Started bool
	decided       bool
}

func newRound(candidate string) *round {
	return &round{
		originalValue: candidate,
		promises:      make(map[string]bool),
		priorAccepted: make(map[string]priorPair),
		accepteds:     make(map[string]bool),
	}
}

// chooseValueLocked applies the value adoption rule on the promises collected
// so far: among the reported prior acceptances pick the one with the highest
// ballot and adopt its value; with no reports, the proposer's own candidate
// stands. Ties cannot happen, ballots are unique across the cluster. Must be
// called with r.mu held, at the moment the promise quorum latch fires —
// promises arriving later do not change the phase-2 value.
func (r *round) chooseValueLocked() string {
	var bestN *ballot.Number
	bestV := r.originalValue
	for _, prior := range r.priorAccepted {
		if bestN == nil || prior.number.IsGreaterThan(*bestN) {
			n := prior.number
			bestN = &n
			bestV = prior.value
		}
	}
	return bestV
}

// Proposer drives the two phases of an election attempt. There is no leader
// and no backoff: two members proposing forever can outbid each other
// forever. The cluster tolerates that; the scenarios that matter space their
// proposals out.
type Proposer struct {
	selfID string
	net    transport.Transport
	quorum int

	counterMu sync.Mutex
	counter   uint64

	roundsMu sync.Mutex
	rounds   map[ballot.Number]*round
}

// NewProposer builds a proposer for selfID with the given majority size.
func NewProposer(selfID string, net transport.Transport, quorum int) *Proposer {
	return &Proposer{
		selfID: selfID,
		net:    net,
		quorum: quorum,
		rounds: make(map[ballot.Number]*round),
	}
}

// NextNumber mints a fresh ballot: the local counter moves forward under its
// lock and is paired with this member's id.
func (p *Proposer) NextNumber() ballot.Number {
	p.counterMu.Lock()
	defer p.counterMu.Unlock()
	p.counter++
	return ballot.Number{Counter: p.counter, MemberID: p.selfID}
}

// StartPrepare opens a round for candidate and broadcasts PREPARE. The caller
// is expected to have validated the candidate against the registry.
func (p *Proposer) StartPrepare(candidate string) {
	pn := p.NextNumber()

	p.roundsMu.Lock()
	p.rounds[pn] = newRound(candidate)
	p.roundsMu.Unlock()

	log.Printf("[PROPOSER] -> Starting prepare on ballot %s for candidate %s.", pn, candidate)
	if err := p.net.Broadcast(wire.Message{Type: wire.Prepare, From: p.selfID, Ballot: &pn}); err != nil {
		log.Printf("[PROPOSER] -> WARN: broadcasting prepare on %s (%v).", pn, err)
	}
}

// lookupRound returns the round for pn, or nil. Rounds are only ever created
// by StartPrepare: a PROMISE or ACCEPTED for a ballot this proposer does not
// own (or has already swept) is dropped here.
func (p *Proposer) lookupRound(pn ballot.Number) *round {
	p.roundsMu.Lock()
	defer p.roundsMu.Unlock()
	return p.rounds[pn]
}

// OnPromise registers one acceptor's PROMISE. The first time the promises
// reach a majority, the phase-2 value is chosen from the prior acceptances
// collected so far and ACCEPT_REQUEST is broadcast.
func (p *Proposer) OnPromise(msg wire.Message) {
	if msg.Ballot == nil {
		return
	}
	pn := *msg.Ballot
	r := p.lookupRound(pn)
	if r == nil {
		log.Printf("[PROPOSER] -> Ignoring promise from %s for ballot %s: not one of my open rounds.", msg.From, pn)
		return
	}

	// A reported accepted ballot needs its value and must parse; otherwise the
	// whole message is dropped. A value reported without a ballot is ignored
	// and the promise counts as one with no prior acceptance.
	var prior *priorPair
	if accNum, ok := msg.Extra[wire.ExtraAcceptedNumber]; ok {
		accVal, okVal := msg.Extra[wire.ExtraAcceptedValue]
		if !okVal {
			return
		}
		accN, err := ballot.Parse(accNum)
		if err != nil {
			log.Printf("[PROPOSER] -> Dropping promise from %s: bad accepted ballot %q.", msg.From, accNum)
			return
		}
		prior = &priorPair{number: accN, value: accVal}
	}

	r.mu.Lock()
	r.promises[msg.From] = true
	if prior != nil {
		r.priorAccepted[msg.From] = *prior
	}
	fire := false
	var value string
	if len(r.promises) >= p.quorum && !r.phase2Started {
		r.phase2Started = true
		fire = true
		value = r.chooseValueLocked()
	}
	promised := len(r.promises)
	r.mu.Unlock()

	log.Printf("[PROPOSER] -> Promise %d/%d from %s on ballot %s.", promised, p.quorum, msg.From, pn)
	if !fire {
		return
	}
	log.Printf("[PROPOSER] -> Quorum of promises reached on ballot %s; requesting acceptance of %s.", pn, value)
	if err := p.net.Broadcast(wire.Message{Type: wire.AcceptRequest, From: p.selfID, Ballot: &pn, Value: value}); err != nil {
		log.Printf("[PROPOSER] -> WARN: broadcasting accept request on %s (%v).", pn, err)
	}
}

// OnAccepted registers one acceptor's ACCEPTED. The first time the accepts
// reach a majority, DECIDE is broadcast — once per ballot, ever.
func (p *Proposer) OnAccepted(msg wire.Message) {
	if msg.Ballot == nil {
		return
	}
	pn := *msg.Ballot
	r := p.lookupRound(pn)
	if r == nil {
		log.Printf("[PROPOSER] -> Ignoring accepted from %s for ballot %s: not one of my open rounds.", msg.From, pn)
		return
	}

	r.mu.Lock()
	r.accepteds[msg.From] = true
	fire := false
	if len(r.accepteds) >= p.quorum && !r.decided {
		r.decided = true
		fire = true
	}
	accepted := len(r.accepteds)
	r.mu.Unlock()

	log.Printf("[PROPOSER] -> Accepted %d/%d from %s on ballot %s.", accepted, p.quorum, msg.From, pn)
	if !fire {
		return
	}
	log.Printf("[PROPOSER] -> Quorum of accepts reached on ballot %s; announcing the decision on %s.", pn, msg.Value)
	if err := p.net.Broadcast(wire.Message{Type: wire.Decide, From: p.selfID, Ballot: &pn, Value: msg.Value}); err != nil {
		log.Printf("[PROPOSER] -> WARN: broadcasting decide on %s (%v).", pn, err)
	}
}

// DropRoundsBelow discards the bookkeeping of every round with a ballot
// strictly below floor and reports how many were dropped. Dropped rounds stay
// dropped: late responses for them are ignored by lookupRound, never
// resurrected.
func (p *Proposer) DropRoundsBelow(floor ballot.Number) int {
	p.roundsMu.Lock()
	defer p.roundsMu.Unlock()
	dropped := 0
	for pn := range p.rounds {
		if pn.IsLowerThan(floor) {
			delete(p.rounds, pn)
			dropped++
		}
	}
	return dropped
}

// OpenRounds reports how many rounds are currently tracked.
func (p *Proposer) OpenRounds() int {
	p.roundsMu.Lock()
	defer p.roundsMu.Unlock()
	return len(p.rounds)
}
