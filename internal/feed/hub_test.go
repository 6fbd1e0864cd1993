package feed

import (
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gdg-garage/levelup-api/internal/game"
	"github.com/gorilla/websocket"
)

func dial(t *testing.T, srv *httptest.Server, query string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/" + query
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial failed: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for h.Clients() != n {
		if time.Now().After(deadline) {
			t.Fatalf("expected %d clients, got %d", n, h.Clients())
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func readMessage(t *testing.T, conn *websocket.Conn) Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read failed: %v", err)
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	return msg
}

func TestHub_StreamsEvents(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	all := dial(t, srv, "")
	onlyBob := dial(t, srv, "?player_id=p2")
	waitForClients(t, hub, 2)

	e := game.New()
	e.On(game.EventLevelUp, hub.Listener())
	e.RegisterPlayer("p1", "alice")
	e.RegisterPlayer("p2", "bob")

	e.AwardExperience("p1", 100)
	e.AwardExperience("p2", 100)

	first := readMessage(t, all)
	if first.PlayerID != "p1" || first.Type != game.EventLevelUp || first.Level != 2 {
		t.Errorf("unexpected first message %+v", first)
	}
	second := readMessage(t, all)
	if second.PlayerID != "p2" {
		t.Errorf("unexpected second message %+v", second)
	}

	filtered := readMessage(t, onlyBob)
	if filtered.PlayerID != "p2" || filtered.Username != "bob" {
		t.Errorf("filtered client got %+v", filtered)
	}
}

func TestHub_Close(t *testing.T) {
	hub := NewHub()
	srv := httptest.NewServer(hub)
	defer srv.Close()

	conn := dial(t, srv, "")
	waitForClients(t, hub, 1)

	hub.Close()
	if hub.Clients() != 0 {
		t.Fatalf("expected no clients after Close, got %d", hub.Clients())
	}

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	if _, _, err := conn.ReadMessage(); err == nil {
		t.Error("expected connection to be closed")
	}
}
