package transport_test

import (
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"go-council/council/ballot"
	"go-council/council/transport"
	"go-council/council/wire"
)

// inbox collects delivered messages behind a lock.
type inbox struct {
	mu   sync.Mutex
	msgs []wire.Message
}

func (in *inbox) handler() transport.Handler {
	return func(msg wire.Message) {
		in.mu.Lock()
		defer in.mu.Unlock()
		in.msgs = append(in.msgs, msg)
	}
}

func (in *inbox) count() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.msgs)
}

func (in *inbox) all() []wire.Message {
	in.mu.Lock()
	defer in.mu.Unlock()
	out := make([]wire.Message, len(in.msgs))
	copy(out, in.msgs)
	return out
}

func TestBus_SendReachesPeer(t *testing.T) {
	bus := transport.NewBus()
	a := bus.Endpoint("M1")
	b := bus.Endpoint("M2")

	var got inbox
	require.NoError(t, a.Start(func(wire.Message) {}))
	require.NoError(t, b.Start(got.handler()))

	pn := ballot.Number{Counter: 1, MemberID: "M1"}
	require.NoError(t, a.Send("M2", wire.Message{Type: wire.Prepare, From: "M1", Ballot: &pn}))

	assert.Eventually(t, func() bool { return got.count() == 1 }, time.Second, 5*time.Millisecond)
	msgs := got.all()
	assert.Equal(t, wire.Prepare, msgs[0].Type)
	assert.Equal(t, "M1", msgs[0].From)
}

func TestBus_SendUnknownPeer(t *testing.T) {
	bus := transport.NewBus()
	a := bus.Endpoint("M1")
	require.NoError(t, a.Start(func(wire.Message) {}))

	err := a.Send("M9", wire.Message{Type: wire.Prepare, From: "M1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, transport.ErrUnknownPeer))
}

func TestBus_BroadcastExcludesSelf(t *testing.T) {
	bus := transport.NewBus()
	boxes := map[string]*inbox{}
	for _, id := range []string{"M1", "M2", "M3"} {
		box := &inbox{}
		boxes[id] = box
		require.NoError(t, bus.Endpoint(id).Start(box.handler()))
	}

	require.NoError(t, bus.Endpoint("M1").Broadcast(wire.Message{Type: wire.Decide, From: "M1", Value: "M5"}))

	assert.Eventually(t, func() bool {
		return boxes["M2"].count() == 1 && boxes["M3"].count() == 1
	}, time.Second, 5*time.Millisecond)
	assert.Equal(t, 0, boxes["M1"].count())
}

func TestBus_ShuffleStillDeliversEverything(t *testing.T) {
	bus := transport.NewBus()
	bus.Shuffle(7, 20*time.Millisecond)

	a := bus.Endpoint("M1")
	var got inbox
	require.NoError(t, a.Start(func(wire.Message) {}))
	require.NoError(t, bus.Endpoint("M2").Start(got.handler()))

	const total = 50
	for i := 0; i < total; i++ {
		require.NoError(t, a.Send("M2", wire.Message{Type: wire.Prepare, From: "M1"}))
	}
	assert.Eventually(t, func() bool { return got.count() == total }, 3*time.Second, 5*time.Millisecond)
}

func TestBus_ClosedEndpointDropsDeliveries(t *testing.T) {
	bus := transport.NewBus()
	a := bus.Endpoint("M1")
	b := bus.Endpoint("M2")

	var got inbox
	require.NoError(t, a.Start(func(wire.Message) {}))
	require.NoError(t, b.Start(got.handler()))
	require.NoError(t, b.Close())

	require.NoError(t, a.Send("M2", wire.Message{Type: wire.Prepare, From: "M1"}))
	time.Sleep(50 * time.Millisecond)
	assert.Equal(t, 0, got.count())
}
