package server

import (
	"encoding/json"
	"io"
	stdlog "log"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"radfield/server/internal/radiation"
)

func newTestHub() *Hub {
	return NewHub(stdlog.New(io.Discard, "", 0), "config/scenarios/reactor_bay.json", 5)
}

// dialTestHub starts a websocket endpoint backed by the hub and connects a
// client to it.
func dialTestHub(t *testing.T, hub *Hub) *websocket.Conn {
	t.Helper()

	upgrader := websocket.Upgrader{
		CheckOrigin: func(*http.Request) bool { return true },
	}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id, err := hub.Subscribe(conn)
		if err != nil {
			conn.Close()
			return
		}
		go func() {
			for {
				if _, _, err := conn.ReadMessage(); err != nil {
					hub.Disconnect(id)
					return
				}
			}
		}()
	}))
	t.Cleanup(srv.Close)

	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	if err != nil {
		t.Fatalf("failed to dial hub: %v", err)
	}
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn, out any) {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := conn.ReadMessage()
	if err != nil {
		t.Fatalf("failed to read message: %v", err)
	}
	if err := json.Unmarshal(data, out); err != nil {
		t.Fatalf("failed to decode message: %v", err)
	}
}

func TestHubSubscribeSendsHello(t *testing.T) {
	hub := newTestHub()
	conn := dialTestHub(t, hub)

	var hello helloMessage
	readMessage(t, conn, &hello)

	if hello.Type != "hello" {
		t.Fatalf("expected hello message, got %q", hello.Type)
	}
	if hello.Ver != ProtocolVersion {
		t.Fatalf("expected protocol version %d, got %d", ProtocolVersion, hello.Ver)
	}
	if hello.TickRate != 5 {
		t.Fatalf("expected tick rate 5, got %d", hello.TickRate)
	}
	if !hub.HasSubscribers() {
		t.Fatalf("expected hub to report a live subscriber")
	}
}

func TestHubBroadcastPassReachesSubscribers(t *testing.T) {
	hub := newTestHub()
	conn := dialTestHub(t, hub)

	var hello helloMessage
	readMessage(t, conn, &hello)

	hub.BroadcastPass(radiation.Report{
		Tick:     7,
		Exposure: map[string]float64{"engineer": 42.5},
	})

	var pass passMessage
	readMessage(t, conn, &pass)

	if pass.Type != "pass" {
		t.Fatalf("expected pass message, got %q", pass.Type)
	}
	if pass.Report.Tick != 7 {
		t.Fatalf("expected tick 7, got %d", pass.Report.Tick)
	}
	if got := pass.Report.Exposure["engineer"]; got != 42.5 {
		t.Fatalf("expected exposure 42.5, got %v", got)
	}
}

func TestHubSubscriberCountTransitions(t *testing.T) {
	hub := newTestHub()

	var mu sync.Mutex
	var counts []int
	hub.OnSubscriberCount(func(count int) {
		mu.Lock()
		counts = append(counts, count)
		mu.Unlock()
	})

	conn := dialTestHub(t, hub)
	var hello helloMessage
	readMessage(t, conn, &hello)

	conn.Close()

	deadline := time.Now().Add(2 * time.Second)
	for {
		mu.Lock()
		done := len(counts) >= 2
		mu.Unlock()
		if done {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("timed out waiting for disconnect callback")
		}
		time.Sleep(10 * time.Millisecond)
	}

	mu.Lock()
	defer mu.Unlock()
	if counts[0] != 1 {
		t.Fatalf("expected first transition to count 1, got %d", counts[0])
	}
	if counts[len(counts)-1] != 0 {
		t.Fatalf("expected final transition to count 0, got %d", counts[len(counts)-1])
	}
	if hub.HasSubscribers() {
		t.Fatalf("expected no live subscribers after disconnect")
	}
}

func TestHubDisconnectUnknownIDIsNoop(t *testing.T) {
	hub := newTestHub()
	hub.OnSubscriberCount(func(int) {
		t.Fatalf("callback must not fire for unknown ids")
	})
	hub.Disconnect("debug-999")
	if hub.SubscriberCount() != 0 {
		t.Fatalf("expected zero subscribers")
	}
}
