// Package websocket pushes data-change notifications to connected
// browsers so every device in the household refreshes after an edit or a
// completed sync.
package websocket

import (
	"crypto/rand"
	"encoding/hex"
	"log"
	"net/http"

	"github.com/gorilla/websocket"

	"mymeals/internal/notify"
)

// Message is one outbound notification.
type Message struct {
	Type string `json:"type"`
	Time int64  `json:"time"`
}

// Hub maintains the set of connected clients and fans change events out to
// all of them.
type Hub struct {
	clients map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan Message
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan Message),
	}
}

// Run drives the hub's main loop. Call it on its own goroutine.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.Register:
			h.clients[client] = true
			log.Printf("WebSocket client %s connected, %d total", client.id, len(h.clients))

		case client := <-h.Unregister:
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("WebSocket client %s disconnected, %d remaining", client.id, len(h.clients))
			}

		case message := <-h.Broadcast:
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Slow client; drop it rather than block the hub.
					delete(h.clients, client)
					close(client.send)
				}
			}
		}
	}
}

// Subscribe forwards repository and sync events to connected clients.
func (h *Hub) Subscribe(events *notify.Broadcaster) {
	events.Subscribe(func(event notify.Event) {
		h.Broadcast <- Message{Type: event.Kind}
	})
}

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Same-origin app; the session cookie gates the upgrade already.
		return true
	},
}

// ServeWS upgrades the connection and registers the client.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("WebSocket upgrade failed: %v", err)
		return
	}

	client := &Client{
		id:   generateClientID(),
		hub:  h,
		conn: conn,
		send: make(chan Message, 16),
	}
	h.Register <- client

	go client.writePump()
	go client.readPump()
}

func generateClientID() string {
	bytes := make([]byte, 8)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}
