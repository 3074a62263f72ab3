// Package live pushes screen state changes to websocket subscribers.
package live

import (
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

const (
	// writeWait bounds a single push to one client.
	writeWait = 5 * time.Second
	// sendBuffer is how many frames a client may fall behind before it is
	// dropped.
	sendBuffer = 32
)

// client owns one websocket. Frames are queued on send and written by
// writePump, the connection's only writer, so Broadcast never waits on
// the network.
type client struct {
	ws        *websocket.Conn
	send      chan Message
	done      chan struct{}
	closeOnce sync.Once
}

func newClient(ws *websocket.Conn) *client {
	return &client{ws: ws, send: make(chan Message, sendBuffer), done: make(chan struct{})}
}

// enqueue queues msg without blocking. It reports false when the client
// is too far behind or already closed.
func (c *client) enqueue(msg Message) bool {
	select {
	case <-c.done:
		return false
	default:
	}
	select {
	case c.send <- msg:
		return true
	default:
		return false
	}
}

func (c *client) writePump() {
	for {
		select {
		case msg := <-c.send:
			c.ws.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.ws.WriteJSON(msg); err != nil {
				log.Printf("[ws] write error on %s: %v", msg.Channel, err)
				c.close()
				return
			}
		case <-c.done:
			return
		}
	}
}

func (c *client) close() {
	c.closeOnce.Do(func() {
		close(c.done)
		c.ws.Close()
	})
}

// Message is the frame sent to subscribers.
type Message struct {
	Channel string `json:"channel"`
	Data    any    `json:"data"`
	TS      int64  `json:"ts"`
}

// Hub manages websocket connections per screen.
type Hub struct {
	mu    sync.RWMutex
	conns map[string][]*client
}

func NewHub() *Hub {
	return &Hub{conns: make(map[string][]*client)}
}

// Routes returns a chi.Router for the /ws mount point.
func (h *Hub) Routes() chi.Router {
	r := chi.NewRouter()
	r.Get("/screens/{id}", h.HandleWS)
	return r
}

// HandleWS upgrades the connection and subscribes it to a screen.
func (h *Hub) HandleWS(w http.ResponseWriter, r *http.Request) {
	screenID := chi.URLParam(r, "id")
	ws, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("[ws] upgrade error: %v", err)
		return
	}
	conn := newClient(ws)
	go conn.writePump()

	h.mu.Lock()
	h.conns[screenID] = append(h.conns[screenID], conn)
	h.mu.Unlock()
	log.Printf("[ws] client subscribed to screen %s", screenID)

	// Block until the client disconnects or is dropped
	for {
		if _, _, err := ws.ReadMessage(); err != nil {
			break
		}
	}

	h.removeConn(screenID, conn)
	conn.close()
	log.Printf("[ws] client left screen %s", screenID)
}

// Broadcast queues v for every subscriber of channel. It never blocks: a
// subscriber whose queue is full is disconnected.
func (h *Hub) Broadcast(channel string, v any) {
	h.mu.RLock()
	conns := append([]*client(nil), h.conns[channel]...)
	h.mu.RUnlock()

	msg := Message{Channel: channel, Data: v, TS: time.Now().Unix()}
	for _, c := range conns {
		if !c.enqueue(msg) {
			log.Printf("[ws] dropping slow subscriber of %s", channel)
			h.removeConn(channel, c)
			c.close()
		}
	}
}

// Subscribers returns the number of connections watching channel.
func (h *Hub) Subscribers(channel string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.conns[channel])
}

// Close disconnects every subscriber.
func (h *Hub) Close() {
	h.mu.Lock()
	all := h.conns
	h.conns = make(map[string][]*client)
	h.mu.Unlock()
	for _, conns := range all {
		for _, c := range conns {
			c.close()
		}
	}
}

func (h *Hub) removeConn(screenID string, conn *client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns := h.conns[screenID]
	for i, c := range conns {
		if c == conn {
			h.conns[screenID] = append(conns[:i], conns[i+1:]...)
			break
		}
	}
	if len(h.conns[screenID]) == 0 {
		delete(h.conns, screenID)
	}
}
