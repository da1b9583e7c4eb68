package server

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/ayusman/tubecontrol/internal/command"
	"github.com/ayusman/tubecontrol/internal/log"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // local UI only
	},
}

const (
	writeWait = time.Second
	// sendBuffer is how many events a client may fall behind before new
	// ones are dropped for it.
	sendBuffer = 16
)

// eventMessage is what /api/events clients receive.
type eventMessage struct {
	Type      string `json:"type"`
	Action    string `json:"action"`
	Operation string `json:"operation"`
	Modality  string `json:"modality"`
	Volume    *int   `json:"volume,omitempty"`
	Timestamp int64  `json:"timestamp"`
}

// EventHub broadcasts fired commands to websocket clients. It implements
// command.Notifier. Every client has its own queue and writer goroutine, so
// Notify never waits on the network.
type EventHub struct {
	mu      sync.RWMutex
	clients map[*eventClient]struct{}
	logger  *slog.Logger
}

type eventClient struct {
	send chan []byte
}

// NewEventHub creates an empty hub.
func NewEventHub() *EventHub {
	return &EventHub{
		clients: make(map[*eventClient]struct{}),
		logger:  log.Component("events"),
	}
}

func (h *EventHub) register() *eventClient {
	c := &eventClient{send: make(chan []byte, sendBuffer)}
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
	return c
}

func (h *EventHub) unregister(c *eventClient) {
	h.mu.Lock()
	delete(h.clients, c)
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and writes queued events until the client
// disconnects or a write fails.
func (h *EventHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warn("websocket upgrade", "error", err)
		return
	}
	defer conn.Close()

	c := h.register()
	defer h.unregister(c)

	gone := make(chan struct{})
	go func() {
		defer close(gone)
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()

	for {
		select {
		case <-gone:
			return
		case data := <-c.send:
			conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, data); err != nil {
				h.logger.Debug("event write failed", "error", err)
				return
			}
		}
	}
}

// Clients returns the number of connected clients.
func (h *EventHub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Notify queues e for every client. A client whose queue is full misses the
// event.
func (h *EventHub) Notify(e command.Event) {
	msg := eventMessage{
		Type:      "command",
		Action:    e.Action.String(),
		Operation: e.Operation.String(),
		Modality:  e.Modality.String(),
		Timestamp: e.Time.UnixMilli(),
	}
	if e.Volume >= 0 {
		v := e.Volume
		msg.Volume = &v
	}
	data, err := json.Marshal(msg)
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for c := range h.clients {
		select {
		case c.send <- data:
		default:
			h.logger.Debug("event client lagging, dropping event", "action", msg.Action)
		}
	}
}
