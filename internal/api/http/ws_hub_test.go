package apihttp

import (
	"encoding/json"
	"log/slog"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"playbackengine/internal/domain"
	"playbackengine/internal/player"
)

func startTestHub(t *testing.T) *wsHub {
	t.Helper()
	hub := newWSHub(slog.Default())
	go hub.run()
	return hub
}

func dialWS(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"
	conn, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("dial ws: %v", err)
	}
	resp.Body.Close()
	return conn
}

func readWSMessage(t *testing.T, conn *websocket.Conn, timeout time.Duration) wsMessage {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(timeout))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("read ws message: %v", err)
	}
	var msg wsMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		t.Fatalf("unmarshal ws message: %v (raw: %s)", err, data)
	}
	return msg
}

func TestWSHubRegisterUnregister(t *testing.T) {
	hub := startTestHub(t)

	client := &wsClient{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(20 * time.Millisecond)
	if hub.clientCount() != 1 {
		t.Fatalf("clients = %d, want 1", hub.clientCount())
	}

	hub.unregister <- client
	time.Sleep(20 * time.Millisecond)
	if hub.clientCount() != 0 {
		t.Fatalf("clients = %d, want 0", hub.clientCount())
	}
	if _, open := <-client.send; open {
		t.Error("send channel not closed on unregister")
	}
}

func TestWSHubBroadcastToClients(t *testing.T) {
	hub := startTestHub(t)

	client := &wsClient{hub: hub, send: make(chan []byte, 256)}
	hub.register <- client
	time.Sleep(20 * time.Millisecond)

	hub.Broadcast("session", domain.PlaybackState{SessionID: "surface-1"})

	select {
	case data := <-client.send:
		var msg wsMessage
		if err := json.Unmarshal(data, &msg); err != nil {
			t.Fatal(err)
		}
		if msg.Type != "session" {
			t.Errorf("message type = %q", msg.Type)
		}
	case <-time.After(time.Second):
		t.Fatal("broadcast never delivered")
	}

	hub.unregister <- client
	time.Sleep(20 * time.Millisecond)
}

func TestWSHubConcurrentCountReads(t *testing.T) {
	// clientCount and the Broadcast fast-path run outside the hub
	// goroutine; register/unregister churn under the race detector must
	// not trip it.
	hub := startTestHub(t)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			client := &wsClient{hub: hub, send: make(chan []byte, 256)}
			hub.register <- client
			hub.unregister <- client
		}
	}()

	for i := 0; i < 100; i++ {
		_ = hub.clientCount()
		hub.Broadcast("session", domain.PlaybackState{})
	}
	<-done

	deadline := time.Now().Add(2 * time.Second)
	for hub.clientCount() != 0 {
		if time.Now().After(deadline) {
			t.Fatalf("clients = %d, want 0", hub.clientCount())
		}
		time.Sleep(2 * time.Millisecond)
	}
}

func TestWSHubBroadcastNoClientsIsNoop(t *testing.T) {
	hub := newWSHub(slog.Default())
	// Must not block or panic without the run loop.
	hub.Broadcast("session", domain.PlaybackState{})
	if len(hub.broadcast) != 0 {
		t.Errorf("broadcast queued with no clients")
	}
}

func TestWSEndToEndSessionBroadcast(t *testing.T) {
	manager := player.NewManager(player.DefaultConfig(), nil, nil)
	t.Cleanup(manager.Close)
	srv := NewServer(manager)
	t.Cleanup(srv.Close)

	ts := httptest.NewServer(srv)
	t.Cleanup(ts.Close)

	conn := dialWS(t, ts)
	defer conn.Close()
	time.Sleep(50 * time.Millisecond)

	srv.BroadcastSessionState(domain.PlaybackState{SessionID: "surface-1", Lifecycle: domain.PhasePlaying})

	msg := readWSMessage(t, conn, 2*time.Second)
	if msg.Type != "session" {
		t.Fatalf("message type = %q", msg.Type)
	}
	payload, err := json.Marshal(msg.Data)
	if err != nil {
		t.Fatal(err)
	}
	var state domain.PlaybackState
	if err := json.Unmarshal(payload, &state); err != nil {
		t.Fatal(err)
	}
	if state.SessionID != "surface-1" {
		t.Errorf("session id = %q", state.SessionID)
	}
}
