// Package hub pushes reservation changes to connected admin boards over
// websockets.  Boards treat every message as a cue to refetch; payloads
// are informational.
package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/sirupsen/logrus"

	"github.com/experiencias-arroyo/sierra-explora/internal/metrics"
	"github.com/experiencias-arroyo/sierra-explora/internal/middleware"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
	sendBuffer = 64
)

// Message is the frame written to clients.
type Message struct {
	Type    string          `json:"type"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

type client struct {
	hub    *Hub
	conn   *websocket.Conn
	send   chan []byte
	userID uint64
}

// Hub owns the set of clients.  Only Run touches the set; everything else
// talks to it through channels.
type Hub struct {
	clients    map[*client]struct{}
	broadcast  chan []byte
	register   chan *client
	unregister chan *client
	done       chan struct{}
	upgrader   websocket.Upgrader
	log        *logrus.Entry
}

func New(log *logrus.Entry) *Hub {
	if log == nil {
		log = logrus.WithField("component", "hub")
	}
	return &Hub{
		clients:    make(map[*client]struct{}),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
		upgrader: websocket.Upgrader{
			// The route is already behind JWT and admin checks.
			CheckOrigin: func(r *http.Request) bool { return true },
		},
		log: log,
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.  It must be called exactly once.
func (h *Hub) Run(ctx context.Context) error {
	defer metrics.LiveClients.Set(0)
	for {
		select {
		case <-ctx.Done():
			close(h.done)
			for c := range h.clients {
				h.drop(c)
			}
			return nil

		case c := <-h.register:
			h.clients[c] = struct{}{}
			metrics.LiveClients.Inc()
			h.log.WithField("user_id", c.userID).Debug("live feed client connected")

		case c := <-h.unregister:
			if _, ok := h.clients[c]; ok {
				h.drop(c)
				h.log.WithField("user_id", c.userID).Debug("live feed client disconnected")
			}

		case msg := <-h.broadcast:
			for c := range h.clients {
				select {
				case c.send <- msg:
				default:
					// Slow reader; it will refetch when it reconnects.
					h.drop(c)
				}
			}
		}
	}
}

func (h *Hub) drop(c *client) {
	delete(h.clients, c)
	close(c.send)
	metrics.LiveClients.Dec()
}

// Broadcast queues a message for every client.  It never blocks; when the
// queue is full or the hub has stopped, the message is dropped.
func (h *Hub) Broadcast(eventType string, payload any) {
	msg := Message{Type: eventType}
	if payload != nil {
		raw, err := json.Marshal(payload)
		if err != nil {
			h.log.WithError(err).Warn("live feed payload not encodable")
			return
		}
		msg.Payload = raw
	}
	data, _ := json.Marshal(msg)
	select {
	case <-h.done:
	case h.broadcast <- data:
	default:
		h.log.WithField("type", eventType).Warn("live feed queue full, message dropped")
	}
}

// ServeWS upgrades the request and pumps messages until the connection
// closes.  The authenticated user, when present, is only used for logs.
func (h *Hub) ServeWS(c echo.Context) error {
	conn, err := h.upgrader.Upgrade(c.Response(), c.Request(), nil)
	if err != nil {
		// The upgrader has already written an error response.
		h.log.WithError(err).Debug("websocket upgrade failed")
		return nil
	}
	userID, _ := middleware.CurrentUser(c)
	cl := &client{hub: h, conn: conn, send: make(chan []byte, sendBuffer), userID: userID}
	select {
	case h.register <- cl:
	case <-h.done:
		_ = conn.Close()
		return nil
	}
	go cl.writePump()
	cl.readPump()
	return nil
}

// readPump discards client frames; it exists to process pongs and notice
// the peer going away.
func (c *client) readPump() {
	defer func() {
		select {
		case c.hub.unregister <- c:
		case <-c.hub.done:
		}
		_ = c.conn.Close()
	}()
	c.conn.SetReadLimit(512)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close()
	}()

	hello, _ := json.Marshal(Message{Type: "hello"})
	if !c.write(websocket.TextMessage, hello) {
		return
	}
	for {
		select {
		case msg, ok := <-c.send:
			if !ok {
				c.write(websocket.CloseMessage, []byte{})
				return
			}
			if !c.write(websocket.TextMessage, msg) {
				return
			}
		case <-ticker.C:
			if !c.write(websocket.PingMessage, nil) {
				return
			}
		}
	}
}

func (c *client) write(kind int, data []byte) bool {
	_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
	return c.conn.WriteMessage(kind, data) == nil
}
