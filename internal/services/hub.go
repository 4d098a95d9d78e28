package services

import (
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus"
)

// Hub pushes planning events to connected websocket clients: snapshot
// refreshes and completed squad solves. Each client owns a buffered send
// channel drained by a single write pump, so broadcasts from the cron
// refresh and request handlers never write the connection concurrently.
type Hub struct {
	logger   *logrus.Logger
	upgrader websocket.Upgrader
	mu       sync.Mutex
	clients  map[*hubClient]bool
}

type hubClient struct {
	conn *websocket.Conn
	send chan Event
}

// Event is the wire envelope for hub messages.
type Event struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

func NewHub(logger *logrus.Logger, allowedOrigins []string) *Hub {
	allowed := make(map[string]bool, len(allowedOrigins))
	for _, origin := range allowedOrigins {
		allowed[origin] = true
	}
	return &Hub{
		logger:  logger,
		clients: make(map[*hubClient]bool),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin: func(r *http.Request) bool {
				if len(allowed) == 0 {
					return true
				}
				return allowed[r.Header.Get("Origin")]
			},
		},
	}
}

// Serve upgrades the request and keeps the connection registered until the
// client goes away. Inbound messages are discarded.
func (h *Hub) Serve(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Warnf("Websocket upgrade failed: %v", err)
		return
	}

	client := &hubClient{conn: conn, send: make(chan Event, 256)}
	h.mu.Lock()
	h.clients[client] = true
	h.mu.Unlock()

	go h.writePump(client)
	go h.readPump(client)
}

// Broadcast queues an event for every connected client. A client whose
// buffer is full is dropped rather than blocking the caller.
func (h *Hub) Broadcast(eventType string, payload interface{}) {
	event := Event{Type: eventType, Payload: payload, At: time.Now().UTC()}

	var stale []*hubClient
	h.mu.Lock()
	for client := range h.clients {
		select {
		case client.send <- event:
		default:
			stale = append(stale, client)
		}
	}
	h.mu.Unlock()

	for _, client := range stale {
		h.drop(client)
	}
}

// ClientCount reports how many clients are connected.
func (h *Hub) ClientCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

// writePump is the sole writer on the connection.
func (h *Hub) writePump(client *hubClient) {
	defer client.conn.Close()
	for event := range client.send {
		client.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
		if err := client.conn.WriteJSON(event); err != nil {
			h.drop(client)
			return
		}
	}
	client.conn.SetWriteDeadline(time.Now().Add(5 * time.Second))
	client.conn.WriteMessage(websocket.CloseMessage, nil)
}

func (h *Hub) readPump(client *hubClient) {
	defer h.drop(client)
	for {
		if _, _, err := client.conn.ReadMessage(); err != nil {
			return
		}
	}
}

// drop unregisters a client and closes its send channel; the write pump
// then closes the connection. Safe to call more than once. The channel is
// closed under the same lock Broadcast sends under, so a send on a closed
// channel cannot happen.
func (h *Hub) drop(client *hubClient) {
	h.mu.Lock()
	if h.clients[client] {
		delete(h.clients, client)
		close(client.send)
	}
	h.mu.Unlock()
	client.conn.Close()
}
