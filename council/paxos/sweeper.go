// sweeper.go introduces a housekeeping component next to the proposer.
// Round bookkeeping is keyed by ballot and open-ended: a round that lost to
// the decided ballot will never complete, but its vote sets would otherwise
// sit in memory for the rest of the process. The sweeper periodically drops
// every round below the decided ballot. It needs the proposer to do its job;
// the proposer does not know the sweeper exists.

package paxos

import (
	"log"
	"sync"
	"time"

	"go-council/council/ballot"
)

type sweeper struct {
	proposer *Proposer
	interval time.Duration

	mu      sync.Mutex
	floor   *ballot.Number
	started bool

	stopOnce sync.Once
	quit     chan struct{}
	done     chan struct{}
}

func newSweeper(p *Proposer) *sweeper {
	return &sweeper{
		proposer: p,
		interval: 5 * time.Second,
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// decisionReached records the decided ballot as the sweep floor. A decision
// learned without a ballot (possible on a bare DECIDE) leaves the floor
// unset and the sweeper idle.
func (s *sweeper) decisionReached(pn *ballot.Number) {
	if pn == nil {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	n := *pn
	s.floor = &n
}

func (s *sweeper) start() {
	s.mu.Lock()
	s.started = true
	s.mu.Unlock()
	go s.run()
}

func (s *sweeper) run() {
	defer close(s.done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-s.quit:
			return
		case <-ticker.C:
			s.sweep()
		}
	}
}

func (s *sweeper) sweep() {
	s.mu.Lock()
	floor := s.floor
	s.mu.Unlock()
	if floor == nil {
		return
	}
	if dropped := s.proposer.DropRoundsBelow(*floor); dropped > 0 {
		log.Printf("[SWEEPER] -> Dropped %d rounds superseded by ballot %s.", dropped, *floor)
	}
}

func (s *sweeper) stop() {
	s.stopOnce.Do(func() {
		close(s.quit)
		s.mu.Lock()
		started := s.started
		s.mu.Unlock()
		if started {
			<-s.done
		}
	})
}
