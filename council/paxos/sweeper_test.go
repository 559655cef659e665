package paxos

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"go-council/council/transport"
	"go-council/council/wire"
)

type nopTransport struct{}

func (nopTransport) Start(h transport.Handler) error { return nil }
func (nopTransport) Send(string, wire.Message) error { return nil }
func (nopTransport) Broadcast(wire.Message) error    { return nil }
func (nopTransport) Close() error                    { return nil }

func TestSweeper_DropsSupersededRounds(t *testing.T) {
	p := NewProposer("M4", nopTransport{}, 3)
	p.StartPrepare("M1")
	p.StartPrepare("M2")
	decided := p.NextNumber() // above both open rounds

	s := newSweeper(p)
	s.interval = 5 * time.Millisecond
	s.start()
	defer s.stop()

	s.decisionReached(&decided)
	assert.Eventually(t, func() bool { return p.OpenRounds() == 0 },
		time.Second, time.Millisecond)
}

func TestSweeper_IdleWithoutDecision(t *testing.T) {
	p := NewProposer("M4", nopTransport{}, 3)
	p.StartPrepare("M1")

	s := newSweeper(p)
	s.interval = time.Millisecond
	s.start()
	defer s.stop()

	time.Sleep(20 * time.Millisecond)
	assert.Equal(t, 1, p.OpenRounds(), "open rounds survive until a decision sets the floor")
}

func TestSweeper_StopWithoutStart(t *testing.T) {
	s := newSweeper(NewProposer("M4", nopTransport{}, 3))
	assert.NotPanics(t, func() { s.stop() })
}
