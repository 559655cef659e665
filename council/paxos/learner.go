package paxos

import (
	"fmt"
	"log"
	"sync"
	"time"

	"go-council/council/ballot"
	"go-council/council/record"
	"go-council/council/wire"
)

// Learner watches acceptances and announces the elected president.
//
// It learns through either of two doors: a majority of ACCEPTED for the same
// (ballot, value) observed locally, or a DECIDE broadcast from whichever
// proposer got there first. Both are equivalent; whichever opens first wins,
// and the decided latch keeps the announcement to exactly one line.
type Learner struct {
	selfID string
	quorum int
	store  record.Store

	mu      sync.Mutex
	decided bool
	chosen  string
	votes   map[ballot.Number]map[string]map[string]bool // ballot -> value -> voter set

	// hook, when set, runs once right after the announcement.
	hook func(value string, pn *ballot.Number)
}

// NewLearner builds a learner. store may be nil when no record is kept.
func NewLearner(selfID string, quorum int, store record.Store) *Learner {
	return &Learner{
		selfID: selfID,
		quorum: quorum,
		store:  store,
		votes:  make(map[ballot.Number]map[string]map[string]bool),
	}
}

// SetDecisionHook installs a callback invoked once, after the announcement.
func (l *Learner) SetDecisionHook(hook func(value string, pn *ballot.Number)) {
	l.hook = hook
}

// OnAccepted tallies one acceptor's ACCEPTED(n, v). Votes are keyed by
// (ballot, value) and deduplicated by voter, so retries change nothing. The
// first (ballot, value) pair backed by a majority wins.
func (l *Learner) OnAccepted(msg wire.Message) {
	if msg.Ballot == nil || msg.Value == "" {
		return
	}
	pn := *msg.Ballot

	l.mu.Lock()
	byValue, ok := l.votes[pn]
	if !ok {
		byValue = make(map[string]map[string]bool)
		l.votes[pn] = byValue
	}
	voters, ok := byValue[msg.Value]
	if !ok {
		voters = make(map[string]bool)
		byValue[msg.Value] = voters
	}
	voters[msg.From] = true

	fire := false
	if !l.decided && len(voters) >= l.quorum {
		l.decided = true
		l.chosen = msg.Value
		fire = true
	}
	l.mu.Unlock()

	if fire {
		log.Printf("[LEARNER] -> A majority accepted %s on ballot %s.", msg.Value, pn)
		l.announce(msg.Value, &pn)
	}
}

// OnDecide learns from a DECIDE broadcast. Idempotent: once decided, further
// decides (and further accepts) are ignored.
func (l *Learner) OnDecide(msg wire.Message) {
	if msg.Value == "" {
		return
	}

	l.mu.Lock()
	fire := false
	if !l.decided {
		l.decided = true
		l.chosen = msg.Value
		fire = true
	}
	l.mu.Unlock()

	if fire {
		log.Printf("[LEARNER] -> Decision received from %s.", msg.From)
		l.announce(msg.Value, msg.Ballot)
	}
}

// Decided returns the elected value, if this member has learned one.
func (l *Learner) Decided() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.chosen, l.decided
}

// announce prints the consensus line — the one line the outside world greps
// for — records the outcome, and runs the hook. Called exactly once, outside
// the lock: the record backend may block.
func (l *Learner) announce(value string, pn *ballot.Number) {
	fmt.Printf("CONSENSUS: %s has been elected Council President!\n", value)

	if l.store != nil {
		d := record.Decision{Value: value, DecidedAt: time.Now()}
		if pn != nil {
			d.Ballot = pn.String()
		}
		if err := l.store.SaveDecision(d); err != nil {
			log.Printf("[LEARNER] -> WARN: could not record the decision (%v).", err)
		}
	}
	if l.hook != nil {
		l.hook(value, pn)
	}
}
