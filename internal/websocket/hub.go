package websocket

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"
)

// Message is the envelope pushed to every connected screen.
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
	At      time.Time   `json:"at"`
}

// Hub maintains the set of active clients and broadcasts live events
type Hub struct {
	clients map[*Client]bool

	// Register requests
	register chan *Client

	// Unregister requests
	unregister chan *Client

	// Outbound messages, already encoded
	broadcast chan []byte

	// Closed when Run returns
	done chan struct{}

	// Guards clients for readers outside Run
	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		broadcast:  make(chan []byte, 256),
		done:       make(chan struct{}),
	}
}

// Run starts the hub's main loop and returns when ctx is cancelled.
func (h *Hub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			h.mu.Lock()
			for client := range h.clients {
				close(client.send)
				delete(h.clients, client)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("📱 Client connected: %s (%s)", client.ID, client.Role)

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
				log.Printf("📴 Client disconnected: %s", client.ID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					// Buffer full or client dead
					log.Printf("⚠️ Dropping live event for slow client %s", client.ID)
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Publish queues an event for every connected client. It never blocks;
// when the hub is saturated the event is dropped.
func (h *Hub) Publish(event string, payload interface{}) {
	msg, err := json.Marshal(Message{Type: event, Payload: payload, At: time.Now().UTC()})
	if err != nil {
		log.Printf("Error marshaling event %s: %v", event, err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Printf("⚠️ Live event queue full, dropping %s", event)
	}
}

// ClientCount returns the number of registered clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
