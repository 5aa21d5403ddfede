// Copyright The docscrub Authors. All Rights Reserved.
// SPDX-License-Identifier: Apache-2.0

package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"docscrub/internal/logging"
)

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = (pongWait * 9) / 10

	// Clients only send ping/close frames; anything larger is dropped.
	maxClientMessage = 512
)

// EventType classifies stream events.
type EventType string

const (
	EventPass     EventType = "pass"
	EventDocument EventType = "document"
)

// Event is one stream message. Data carries counts, types and timings
// only; document text and entity text never enter the stream.
type Event struct {
	Type      EventType `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Data      any       `json:"data"`
}

// PassEvent reports one completed pipeline pass.
type PassEvent struct {
	RequestID   string `json:"request_id"`
	Pass        string `json:"pass"`
	DurationMS  int64  `json:"duration_ms"`
	Success     bool   `json:"success"`
	EntitiesIn  int    `json:"entities_in"`
	EntitiesOut int    `json:"entities_out"`
}

// DocumentEvent reports one finished request.
type DocumentEvent struct {
	RequestID  string         `json:"request_id"`
	Operation  string         `json:"operation"`
	DurationMS int64          `json:"duration_ms"`
	Degraded   bool           `json:"degraded"`
	Counts     map[string]int `json:"entity_counts"`
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// The stream carries no document content, so cross-origin
	// dashboards may subscribe.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan Event
}

// Hub fans detection events out to websocket subscribers. A slow client
// is disconnected rather than allowed to block the broadcast.
type Hub struct {
	logger *logging.Logger

	mu      sync.RWMutex
	clients map[*client]bool

	broadcast  chan Event
	register   chan *client
	unregister chan *client
	done       chan struct{}
}

// NewHub creates an event hub.
func NewHub(logger *logging.Logger) *Hub {
	if logger == nil {
		logger = logging.Nop()
	}
	return &Hub{
		logger:     logger.WithComponent("events"),
		clients:    make(map[*client]bool),
		broadcast:  make(chan Event, 256),
		register:   make(chan *client),
		unregister: make(chan *client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Close.
func (h *Hub) Run() {
	for {
		select {
		case c := <-h.register:
			h.mu.Lock()
			h.clients[c] = true
			h.mu.Unlock()
			h.logger.Info("subscriber connected", zap.String("client_id", c.id))

		case c := <-h.unregister:
			h.drop(c)

		case event := <-h.broadcast:
			h.mu.RLock()
			var stale []*client
			for c := range h.clients {
				select {
				case c.send <- event:
				default:
					stale = append(stale, c)
				}
			}
			h.mu.RUnlock()
			for _, c := range stale {
				h.logger.Warn("subscriber too slow, dropping", zap.String("client_id", c.id))
				h.drop(c)
			}

		case <-h.done:
			h.mu.Lock()
			for c := range h.clients {
				delete(h.clients, c)
				close(c.send)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) drop(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[c] {
		delete(h.clients, c)
		close(c.send)
	}
}

// Close stops the hub and disconnects every subscriber.
func (h *Hub) Close() {
	close(h.done)
}

// Publish queues an event, dropping it when the hub is saturated.
func (h *Hub) Publish(event Event) {
	select {
	case h.broadcast <- event:
	default:
		h.logger.Warn("event queue full, dropping", zap.String("event_type", string(event.Type)))
	}
}

// Subscribers returns the current subscriber count.
func (h *Hub) Subscribers() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// HandleWebSocket upgrades the connection and attaches it to the hub.
func (h *Hub) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.logger.Error("websocket upgrade failed", zap.Error(err))
		return
	}

	c := &client{
		id:   uuid.NewString(),
		conn: conn,
		send: make(chan Event, 64),
	}
	h.register <- c

	go h.writeLoop(c)
	go h.readLoop(c)
}

func (h *Hub) writeLoop(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case event, open := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !open {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(event); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// readLoop keeps the pong handler alive; subscribers send nothing else.
func (h *Hub) readLoop(c *client) {
	defer func() {
		h.unregister <- c
		c.conn.Close()
	}()

	c.conn.SetReadLimit(maxClientMessage)
	c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				h.logger.Warn("subscriber read error", zap.String("client_id", c.id), zap.Error(err))
			}
			return
		}
	}
}
