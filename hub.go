package server

import (
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"radfield/server/internal/radiation"
)

// Hub owns the live debug subscribers. It carries no simulation state of its
// own: the pass pushes reports through BroadcastPass and the hub fans them out.
type Hub struct {
	mu          sync.Mutex
	subscribers map[string]*subscriber
	nextID      atomic.Uint64
	onCount     func(count int)
	logger      *log.Logger

	scenario string
	tickRate int
}

type subscriber struct {
	conn        *websocket.Conn
	mu          sync.Mutex
	connectedAt time.Time
}

func (s *subscriber) send(data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return s.conn.WriteMessage(websocket.TextMessage, data)
}

// NewHub creates a hub with no subscribers. Scenario and tickRate are echoed
// back to clients in the hello message.
func NewHub(logger *log.Logger, scenario string, tickRate int) *Hub {
	if logger == nil {
		logger = log.Default()
	}
	return &Hub{
		subscribers: make(map[string]*subscriber),
		logger:      logger,
		scenario:    scenario,
		tickRate:    tickRate,
	}
}

// OnSubscriberCount registers a callback fired after every subscribe or
// disconnect with the new subscriber count. Called outside the hub lock.
func (h *Hub) OnSubscriberCount(fn func(count int)) {
	h.mu.Lock()
	h.onCount = fn
	h.mu.Unlock()
}

// Subscribe registers a WebSocket connection and sends the hello message.
// The returned id identifies the connection for Disconnect.
func (h *Hub) Subscribe(conn *websocket.Conn) (string, error) {
	id := fmt.Sprintf("debug-%d", h.nextID.Add(1))
	sub := &subscriber{conn: conn, connectedAt: time.Now()}

	hello := helloMessage{
		Ver:        ProtocolVersion,
		Type:       "hello",
		Scenario:   h.scenario,
		TickRate:   h.tickRate,
		ServerTime: time.Now().UnixMilli(),
	}
	data, err := json.Marshal(hello)
	if err != nil {
		return "", fmt.Errorf("marshal hello: %w", err)
	}
	if err := sub.send(data); err != nil {
		return "", fmt.Errorf("send hello: %w", err)
	}

	h.mu.Lock()
	h.subscribers[id] = sub
	count := len(h.subscribers)
	fn := h.onCount
	h.mu.Unlock()

	if fn != nil {
		fn(count)
	}
	return id, nil
}

// Disconnect removes a subscriber and closes its connection.
func (h *Hub) Disconnect(id string) {
	h.mu.Lock()
	sub, ok := h.subscribers[id]
	if ok {
		delete(h.subscribers, id)
	}
	count := len(h.subscribers)
	fn := h.onCount
	h.mu.Unlock()

	if !ok {
		return
	}
	sub.conn.Close()
	if fn != nil {
		fn(count)
	}
}

// SubscriberCount reports the number of live debug connections.
func (h *Hub) SubscriberCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers)
}

// HasSubscribers is the hot-path check the pass observer uses each tick.
func (h *Hub) HasSubscribers() bool {
	if h == nil {
		return false
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.subscribers) > 0
}

// BroadcastPass sends a completed pass report to every subscriber. Writes that
// fail disconnect the subscriber.
func (h *Hub) BroadcastPass(report radiation.Report) {
	msg := passMessage{
		Ver:        ProtocolVersion,
		Type:       "pass",
		ServerTime: time.Now().UnixMilli(),
		Report:     report,
	}
	data, err := json.Marshal(msg)
	if err != nil {
		h.logger.Printf("failed to marshal pass message: %v", err)
		return
	}

	h.mu.Lock()
	subs := make(map[string]*subscriber, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs[id] = sub
	}
	h.mu.Unlock()

	for id, sub := range subs {
		if err := sub.send(data); err != nil {
			h.logger.Printf("failed to send pass to %s: %v", id, err)
			h.Disconnect(id)
		}
	}
}

// DiagnosticsSnapshot exposes subscriber data for the diagnostics endpoint.
func (h *Hub) DiagnosticsSnapshot() []diagnosticsSubscriber {
	h.mu.Lock()
	defer h.mu.Unlock()

	subs := make([]diagnosticsSubscriber, 0, len(h.subscribers))
	for id, sub := range h.subscribers {
		subs = append(subs, diagnosticsSubscriber{
			ID:          id,
			ConnectedAt: sub.connectedAt.UnixMilli(),
		})
	}
	return subs
}
