package paxos

import (
	"sync"

	"go-council/council/ballot"
)

// AcceptorState is the per-member vote book: the highest ballot promised so
// far and the last accepted (ballot, value) pair. It lives for the process
// lifetime and is never persisted.
//
// Reading the highest promise and then writing it must happen as one step, so
// every transition runs under the single mutex. The two mutators return what
// the caller needs so that no network call ever happens while the lock is
// held.
type AcceptorState struct {
	mu              sync.Mutex
	highestPromised *ballot.Number
	acceptedNumber  *ballot.Number
	acceptedValue   string
}

// NewAcceptorState builds a blank vote book.
func NewAcceptorState() *AcceptorState {
	return &AcceptorState{}
}

// Promise records n as the highest promise iff no strictly higher promise is
// already held. "At least as high" is enough: re-promising the same n is how
// a retried PREPARE stays idempotent, and the promise never moves backwards.
// On success it returns a snapshot of the accepted pair taken in the same
// critical section, for the acceptor to piggyback on its PROMISE.
func (s *AcceptorState) Promise(n ballot.Number) (promised bool, accN *ballot.Number, accV string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.highestPromised != nil && !n.IsGEThan(*s.highestPromised) {
		return false, nil, ""
	}
	hp := n
	s.highestPromised = &hp

	if s.acceptedNumber != nil {
		snap := *s.acceptedNumber
		return true, &snap, s.acceptedValue
	}
	return true, nil, ""
}

// Accept records (n, v) as accepted iff n is at least the highest promise,
// moving the promise up to n at the same time. Equality must pass: the only
// way to reach it is an ACCEPT_REQUEST for a ballot this member already
// promised, and refusing it would stall the round for nothing.
func (s *AcceptorState) Accept(n ballot.Number, v string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.highestPromised != nil && !n.IsGEThan(*s.highestPromised) {
		return false
	}
	hp := n
	s.highestPromised = &hp
	an := n
	s.acceptedNumber = &an
	s.acceptedValue = v
	return true
}

// HighestPromised returns a copy of the highest promised ballot, or nil.
func (s *AcceptorState) HighestPromised() *ballot.Number {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.highestPromised == nil {
		return nil
	}
	n := *s.highestPromised
	return &n
}

// Accepted returns a copy of the last accepted pair, or (nil, "") when this
// member has accepted nothing yet.
func (s *AcceptorState) Accepted() (*ballot.Number, string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.acceptedNumber == nil {
		return nil, ""
	}
	n := *s.acceptedNumber
	return &n, s.acceptedValue
}
