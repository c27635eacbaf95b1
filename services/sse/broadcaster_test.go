package sse

import (
	"bytes"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

// fakeConn collects every written frame so tests can inspect the wire
// format directly.
type fakeConn struct {
	buf     bytes.Buffer
	flushes int
}

func (f *fakeConn) Write(p []byte) (int, error) {
	return f.buf.Write(p)
}

func (f *fakeConn) Flush() {
	f.flushes++
}

// flakyConn succeeds for a fixed number of writes and then fails,
// simulating a client that went away mid-stream.
type flakyConn struct {
	writesLeft int
}

func (f *flakyConn) Write(p []byte) (int, error) {
	if f.writesLeft <= 0 {
		return 0, errors.New("connection reset")
	}
	f.writesLeft--
	return len(p), nil
}

func (f *flakyConn) Flush() {}

func TestSubscribeSendsConnectionEvent(t *testing.T) {
	b := NewBroadcaster()
	conn := &fakeConn{}

	b.Subscribe("game1", "user1", conn)

	assert.Equal(t, 1, b.Count("game1"))
	assert.Equal(t,
		"event: game_state\ndata: {\"connected\":true,\"gameId\":\"game1\"}\n\n",
		conn.buf.String())
	assert.Equal(t, 1, conn.flushes)
}

func TestPublishReachesEveryViewerOfTheGame(t *testing.T) {
	b := NewBroadcaster()
	conn1 := &fakeConn{}
	conn2 := &fakeConn{}
	other := &fakeConn{}

	b.Subscribe("game1", "user1", conn1)
	b.Subscribe("game1", "user2", conn2)
	b.Subscribe("game2", "user3", other)
	conn1.buf.Reset()
	conn2.buf.Reset()
	other.buf.Reset()

	b.Publish("game1", Event{Type: EventNumberCalled, Data: map[string]int{"number": 42}})

	expected := "event: number_called\ndata: {\"number\":42}\n\n"
	assert.Equal(t, expected, conn1.buf.String())
	assert.Equal(t, expected, conn2.buf.String())
	assert.Empty(t, other.buf.String())
}

func TestPublishPrunesDeadViewers(t *testing.T) {
	b := NewBroadcaster()
	alive := &fakeConn{}

	b.Subscribe("game1", "user1", alive)
	// Survives the connection event, dies on the next write
	b.Subscribe("game1", "user2", &flakyConn{writesLeft: 1})
	assert.Equal(t, 2, b.Count("game1"))

	b.Publish("game1", Event{Type: EventCardPicked, Data: "ignored"})

	assert.Equal(t, 1, b.Count("game1"))
}

func TestSubscribePrunesImmediatelyDeadConnections(t *testing.T) {
	b := NewBroadcaster()

	b.Subscribe("game1", "user1", &flakyConn{})

	assert.Equal(t, 0, b.Count("game1"))
}

// stuckConn passes a fixed number of writes, then blocks until
// released, like a peer that stopped reading its socket.
type stuckConn struct {
	passWrites int
	entered    chan struct{}
	release    chan struct{}
}

func (s *stuckConn) Write(p []byte) (int, error) {
	if s.passWrites > 0 {
		s.passWrites--
		return len(p), nil
	}
	close(s.entered)
	<-s.release
	return len(p), nil
}

func (s *stuckConn) Flush() {}

func TestPublishDoesNotBlockOtherGames(t *testing.T) {
	b := NewBroadcaster()
	// Lets the Subscribe connection event through, then wedges
	stuck := &stuckConn{passWrites: 1, entered: make(chan struct{}), release: make(chan struct{})}
	defer close(stuck.release)

	b.Subscribe("gameA", "user1", stuck)
	healthy := &fakeConn{}
	b.Subscribe("gameB", "user2", healthy)
	healthy.buf.Reset()

	go b.Publish("gameA", Event{Type: EventNumberCalled, Data: "stall"})
	<-stuck.entered

	done := make(chan struct{})
	go func() {
		b.Publish("gameB", Event{Type: EventNumberCalled, Data: "flows"})
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatal("publish to another game blocked behind a stuck viewer")
	}
	assert.Contains(t, healthy.buf.String(), "flows")
}

func TestSendToTargetsOneUser(t *testing.T) {
	b := NewBroadcaster()
	target := &fakeConn{}
	bystander := &fakeConn{}

	b.Subscribe("game1", "user1", target)
	b.Subscribe("game1", "user2", bystander)
	target.buf.Reset()
	bystander.buf.Reset()

	b.SendTo("game1", "user1", Event{Type: EventPlayers, Data: []string{"user1", "user2"}})

	assert.Equal(t, "event: players\ndata: [\"user1\",\"user2\"]\n\n", target.buf.String())
	assert.Empty(t, bystander.buf.String())
}

func TestSendToUnknownUserIsANoOp(t *testing.T) {
	b := NewBroadcaster()
	b.Subscribe("game1", "user1", &fakeConn{})

	b.SendTo("game1", "ghost", Event{Type: EventPlayers, Data: "x"})
	b.SendTo("missing-game", "user1", Event{Type: EventPlayers, Data: "x"})

	assert.Equal(t, 1, b.Count("game1"))
}

func TestUnsubscribeDropsEmptyGames(t *testing.T) {
	b := NewBroadcaster()
	v1 := b.Subscribe("game1", "user1", &fakeConn{})
	v2 := b.Subscribe("game1", "user2", &fakeConn{})

	b.Unsubscribe("game1", v1)
	assert.Equal(t, 1, b.Count("game1"))

	b.Unsubscribe("game1", v2)
	assert.Equal(t, 0, b.Count("game1"))
	assert.Equal(t, 0, b.TotalCount())
}

func TestFormatSSEPassesStringsThrough(t *testing.T) {
	frame, err := formatSSE(Event{Type: EventGameFinished, Data: `{"gameId":"g"}`})

	assert.NoError(t, err)
	assert.Equal(t, "event: game_finished\ndata: {\"gameId\":\"g\"}\n\n", string(frame))
}
