package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ayusman/pinchcursor/internal/pointer"
)

const (
	writeWait = 2 * time.Second
	// sendBuffer is how many events a client may fall behind before it is dropped.
	sendBuffer = 64
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true // Allow local connections
	},
}

// hubClient is one WebSocket connection. Only its writer goroutine writes
// to conn; send is closed by whoever removes the client from the hub.
type hubClient struct {
	conn *websocket.Conn
	send chan []byte
}

// PointerHub broadcasts pointer events to WebSocket clients. It is the
// Publisher behind the browser overlay. Publish never blocks on the
// network, so a stalled browser cannot hold up the detection pipeline.
type PointerHub struct {
	snapshot func() pointer.Event
	clients  map[*hubClient]bool
	mu       sync.Mutex
}

// NewPointerHub creates a hub. When snapshot is non-nil its event is sent
// to every client as soon as it connects.
func NewPointerHub(snapshot func() pointer.Event) *PointerHub {
	return &PointerHub{
		snapshot: snapshot,
		clients:  make(map[*hubClient]bool),
	}
}

// ServeHTTP handles WebSocket upgrade requests.
func (h *PointerHub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade error: %v", err)
		return
	}
	defer conn.Close()

	c := &hubClient{conn: conn, send: make(chan []byte, sendBuffer)}

	// The snapshot is queued before registering so it precedes every
	// published event.
	h.mu.Lock()
	if h.snapshot != nil {
		if msg, err := json.Marshal(h.snapshot()); err == nil {
			c.send <- msg
		}
	}
	h.clients[c] = true
	h.mu.Unlock()

	go c.writeLoop()
	defer h.remove(c)

	// Keep connection alive by reading messages
	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			break
		}
	}
}

// Publish queues ev for every connected client. Clients whose queue is
// full are dropped.
func (h *PointerHub) Publish(ev pointer.Event) {
	msg, err := json.Marshal(ev)
	if err != nil {
		log.Printf("Error encoding pointer event: %v", err)
		return
	}

	h.mu.Lock()
	defer h.mu.Unlock()

	for c := range h.clients {
		select {
		case c.send <- msg:
		default:
			delete(h.clients, c)
			close(c.send)
		}
	}
}

// Clients returns the number of connected clients.
func (h *PointerHub) Clients() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.clients)
}

func (h *PointerHub) remove(c *hubClient) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// writeLoop sends queued messages until the queue is closed or a write
// fails. Closing the connection ends the read loop in ServeHTTP.
func (c *hubClient) writeLoop() {
	defer c.conn.Close()

	for msg := range c.send {
		c.conn.SetWriteDeadline(time.Now().Add(writeWait))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}

	c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}
