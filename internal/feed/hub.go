// Package feed streams engine events to websocket clients.
package feed

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gdg-garage/levelup-api/internal/game"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const (
	sendBuffer = 32
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// Message is what clients receive for each event.
type Message struct {
	ID          string            `json:"id"`
	Type        game.EventType    `json:"type"`
	PlayerID    string            `json:"player_id"`
	Username    string            `json:"username"`
	Level       int               `json:"level"`
	TotalPoints int               `json:"total_points"`
	Achievement *game.Achievement `json:"achievement,omitempty"`
	ChallengeID string            `json:"challenge_id,omitempty"`
	At          time.Time         `json:"at"`
}

func messageFor(ev game.Event) Message {
	return Message{
		ID:          ev.ID,
		Type:        ev.Type,
		PlayerID:    ev.Player.PlayerID,
		Username:    ev.Player.Username,
		Level:       ev.Player.Level,
		TotalPoints: ev.Player.TotalPoints,
		Achievement: ev.Achievement,
		ChallengeID: ev.ChallengeID,
		At:          ev.At,
	}
}

type client struct {
	id       string
	playerID string
	send     chan []byte
}

// Hub fans events out to subscribed clients. A client whose buffer is full
// is dropped rather than blocking the engine.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
}

func NewHub() *Hub {
	return &Hub{clients: make(map[string]*client)}
}

func (h *Hub) subscribe(playerID string) *client {
	c := &client{id: uuid.NewString(), playerID: playerID, send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	return c
}

func (h *Hub) unsubscribe(c *client) {
	h.mu.Lock()
	if _, ok := h.clients[c.id]; ok {
		delete(h.clients, c.id)
		close(c.send)
	}
	h.mu.Unlock()
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish delivers an event to every matching client without blocking.
func (h *Hub) Publish(ev game.Event) {
	data, err := json.Marshal(messageFor(ev))
	if err != nil {
		slog.Error("failed to encode feed message", "event_id", ev.ID, "error", err)
		return
	}

	var slow []*client
	h.mu.RLock()
	for _, c := range h.clients {
		if c.playerID != "" && c.playerID != ev.Player.PlayerID {
			continue
		}
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		slog.Warn("dropping slow feed client", "client_id", c.id)
		h.unsubscribe(c)
	}
}

// Listener publishes every event it receives. It never fails.
func (h *Hub) Listener() game.Listener {
	return func(ev game.Event) error {
		h.Publish(ev)
		return nil
	}
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.Lock()
	for id, c := range h.clients {
		delete(h.clients, id)
		close(c.send)
	}
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and streams events until the client goes
// away. The optional player_id query parameter filters the stream.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		slog.Error("failed to upgrade to websocket", "error", err)
		return
	}

	c := h.subscribe(r.URL.Query().Get("player_id"))
	slog.Info("feed client connected", "client_id", c.id, "player_id", c.playerID)

	go h.readPump(conn, c)
	h.writePump(conn, c)
}

// readPump only tracks liveness; clients never send anything meaningful.
func (h *Hub) readPump(conn *websocket.Conn, c *client) {
	defer h.unsubscribe(c)

	conn.SetReadLimit(512)
	conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (h *Hub) writePump(conn *websocket.Conn, c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		conn.Close()
		slog.Info("feed client disconnected", "client_id", c.id)
	}()

	for {
		select {
		case data, ok := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.unsubscribe(c)
				return
			}
		case <-ticker.C:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				h.unsubscribe(c)
				return
			}
		}
	}
}
