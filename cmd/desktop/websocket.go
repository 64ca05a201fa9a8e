// Package main provides the WebSocket event bridge for the desktop shell.
package main

import (
	"encoding/json"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/docvault/docvault/internal/logging"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Only the local shell may connect.
		host := r.Host
		if i := strings.LastIndex(host, ":"); i >= 0 {
			host = host[:i]
		}
		return host == "localhost" || host == "127.0.0.1"
	},
}

// WSEnvelope wraps all WebSocket messages.
type WSEnvelope struct {
	Type      string                 `json:"type"`
	Data      map[string]interface{} `json:"data"`
	Timestamp int64                  `json:"timestamp"`
}

// WSClient represents one connected shell window.
type WSClient struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	hub  *WSHub
}

// WSHub maintains active client connections and broadcasts events.
type WSHub struct {
	clients    map[string]*WSClient
	broadcast  chan []byte
	register   chan *WSClient
	unregister chan *WSClient
	mu         sync.RWMutex
}

// NewWSHub creates a new WebSocket hub.
func NewWSHub() *WSHub {
	return &WSHub{
		clients:    make(map[string]*WSClient),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *WSClient),
		unregister: make(chan *WSClient),
	}
}

// Run processes hub events. Call once, in its own goroutine.
func (h *WSHub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.id] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow consumer; drop the frame rather than block
					// the hub.
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Emit broadcasts an event envelope to every connected client.
func (h *WSHub) Emit(event string, data map[string]interface{}) {
	envelope := WSEnvelope{
		Type:      event,
		Data:      data,
		Timestamp: time.Now().Unix(),
	}
	payload, err := json.Marshal(envelope)
	if err != nil {
		logging.Error("failed to marshal event", err, map[string]interface{}{"event": event})
		return
	}
	h.broadcast <- payload
}

// HandleWS upgrades an HTTP request to a WebSocket connection.
func (h *WSHub) HandleWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		logging.Error("websocket upgrade failed", err)
		return
	}

	client := &WSClient{
		id:   uuid.New().String(),
		conn: conn,
		send: make(chan []byte, 32),
		hub:  h,
	}
	h.register <- client

	go client.writePump()
	go client.readPump()
}

// writePump flushes queued frames to the connection.
func (c *WSClient) writePump() {
	defer c.conn.Close()
	for message := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
			return
		}
	}
}

// readPump drains the connection and unregisters on close.
func (c *WSClient) readPump() {
	defer func() {
		c.hub.unregister <- c
		c.conn.Close()
	}()
	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			return
		}
	}
}
