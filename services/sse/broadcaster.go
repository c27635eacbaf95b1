package sse

import (
	"Lotero/utils/logger"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
)

type EventType string

const (
	EventGameState    EventType = "game_state"
	EventPlayers      EventType = "players"
	EventPickedCards  EventType = "picked_cards"
	EventCardPicked   EventType = "card_picked"
	EventCardReleased EventType = "card_released"
	EventPlayerJoined EventType = "player_joined"
	EventNumberCalled EventType = "number_called"
	EventGameStarted  EventType = "game_started"
	EventGameFinished EventType = "game_finished"
)

// Event is one framed message on a game's stream. Data is either a
// plain string or a JSON-serializable value.
type Event struct {
	Type EventType
	Data interface{}
}

// Conn is the write side of one viewer connection. gin.ResponseWriter
// satisfies it directly.
type Conn interface {
	Write([]byte) (int, error)
	http.Flusher
}

// Viewer is one registered connection, tagged with the viewing user.
type Viewer struct {
	UserID string
	conn   Conn
}

/*
 * Broadcaster keeps the process-local registry of viewers per game and
 * fans committed state changes out to them. It is a read-side
 * projection only: nothing here is persisted and a write failure just
 * prunes the dead connection.
 */
type Broadcaster struct {
	mu      sync.Mutex
	viewers map[string]map[*Viewer]struct{} // gameID -> viewer set
}

func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		viewers: make(map[string]map[*Viewer]struct{}),
	}
}

// Subscribe registers a connection and immediately pushes the
// connection confirmation event. The caller is responsible for calling
// Unsubscribe when the connection goes away.
func (b *Broadcaster) Subscribe(gameID string, userID string, conn Conn) *Viewer {
	v := &Viewer{UserID: userID, conn: conn}

	b.mu.Lock()
	set, ok := b.viewers[gameID]
	if !ok {
		set = make(map[*Viewer]struct{})
		b.viewers[gameID] = set
	}
	set[v] = struct{}{}
	total := len(set)
	b.mu.Unlock()

	b.send(gameID, v, Event{
		Type: EventGameState,
		Data: map[string]interface{}{"connected": true, "gameId": gameID},
	})

	logger.Infof("Viewer connected: gameId=%s, userId=%s, total=%d", gameID, userID, total)
	return v
}

// Unsubscribe removes the connection and drops the game's entry once
// its viewer set is empty.
func (b *Broadcaster) Unsubscribe(gameID string, v *Viewer) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.removeLocked(gameID, v)
}

func (b *Broadcaster) removeLocked(gameID string, v *Viewer) {
	set, ok := b.viewers[gameID]
	if !ok {
		return
	}
	delete(set, v)
	if len(set) == 0 {
		delete(b.viewers, gameID)
	}
	logger.Infof("Viewer disconnected: gameId=%s, userId=%s, remaining=%d", gameID, v.UserID, len(set))
}

// Publish writes the event to every viewer of the game. Broadcast is
// best-effort: a failed write deregisters that viewer and nothing is
// reported back to the caller. The registry lock is only held to
// snapshot the viewer set, never across a write, so a stuck
// connection stalls its own frames and nothing else.
func (b *Broadcaster) Publish(gameID string, event Event) {
	frame, err := formatSSE(event)
	if err != nil {
		logger.Errorf("Failed to encode %s event for game %s: %v", event.Type, gameID, err)
		return
	}

	b.mu.Lock()
	set := b.viewers[gameID]
	targets := make([]*Viewer, 0, len(set))
	for v := range set {
		targets = append(targets, v)
	}
	b.mu.Unlock()

	var dead []*Viewer
	for _, v := range targets {
		if err := writeFrame(v.conn, frame); err != nil {
			logger.Errorf("Failed to send %s event to viewer %s: %v", event.Type, v.UserID, err)
			dead = append(dead, v)
		}
	}
	if len(dead) > 0 {
		b.mu.Lock()
		for _, v := range dead {
			b.removeLocked(gameID, v)
		}
		b.mu.Unlock()
	}
}

// SendTo unicasts the event to the first registered connection of the
// given user, used for the initial snapshot sequence.
func (b *Broadcaster) SendTo(gameID string, userID string, event Event) {
	b.mu.Lock()
	var target *Viewer
	for v := range b.viewers[gameID] {
		if v.UserID == userID {
			target = v
			break
		}
	}
	b.mu.Unlock()

	if target != nil {
		b.send(gameID, target, event)
	}
}

func (b *Broadcaster) send(gameID string, v *Viewer, event Event) {
	frame, err := formatSSE(event)
	if err != nil {
		logger.Errorf("Failed to encode %s event for game %s: %v", event.Type, gameID, err)
		return
	}
	if err := writeFrame(v.conn, frame); err != nil {
		logger.Errorf("Failed to send %s event to viewer %s: %v", event.Type, v.UserID, err)
		b.mu.Lock()
		b.removeLocked(gameID, v)
		b.mu.Unlock()
	}
}

// Count returns the number of connected viewers for a game.
func (b *Broadcaster) Count(gameID string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.viewers[gameID])
}

// TotalCount returns the number of connected viewers across all games.
func (b *Broadcaster) TotalCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	total := 0
	for _, set := range b.viewers {
		total += len(set)
	}
	return total
}

// formatSSE frames an event as a text/event-stream block.
func formatSSE(event Event) ([]byte, error) {
	var data string
	switch d := event.Data.(type) {
	case string:
		data = d
	default:
		encoded, err := json.Marshal(d)
		if err != nil {
			return nil, err
		}
		data = string(encoded)
	}
	return []byte(fmt.Sprintf("event: %s\ndata: %s\n\n", event.Type, data)), nil
}

func writeFrame(conn Conn, frame []byte) error {
	if _, err := conn.Write(frame); err != nil {
		return err
	}
	conn.Flush()
	return nil
}
