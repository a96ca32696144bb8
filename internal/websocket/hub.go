// Package websocket streams the audit feed to connected administrators.
package websocket

import (
	"context"
	"log/slog"
	"sync"

	"github.com/google/uuid"

	"newsroom/internal/events"
)

// Hub maintains the set of connected admin clients and fans audit events out to them.
// It implements events.Publisher so it can sit next to the durable publisher.
type Hub struct {
	// Registered clients, keyed by the admin's user id.
	clients map[uuid.UUID]map[*Client]bool

	broadcast  chan []byte
	register   chan *Client
	unregister chan *Client
	done       chan struct{}

	closeOnce sync.Once
	mu        sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uuid.UUID]map[*Client]bool),
		broadcast:  make(chan []byte, 64),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
	}
}

// Run processes registrations and broadcasts until Close is called.
func (h *Hub) Run() {
	slog.Info("audit stream hub started")
	for {
		select {
		case <-h.done:
			h.mu.Lock()
			for id, userClients := range h.clients {
				for client := range userClients {
					close(client.send)
				}
				delete(h.clients, id)
			}
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if _, ok := h.clients[client.UserID]; !ok {
				h.clients[client.UserID] = make(map[*Client]bool)
			}
			h.clients[client.UserID][client] = true
			slog.Debug("audit stream client registered", "user", client.UserID, "connections", len(h.clients[client.UserID]))
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if userClients, ok := h.clients[client.UserID]; ok && userClients[client] {
				delete(userClients, client)
				close(client.send)
				if len(userClients) == 0 {
					delete(h.clients, client.UserID)
				}
				slog.Debug("audit stream client unregistered", "user", client.UserID)
			}
			h.mu.Unlock()

		case message := <-h.broadcast:
			h.mu.RLock()
			for _, userClients := range h.clients {
				for client := range userClients {
					select {
					case client.send <- message:
					default:
						slog.Warn("audit stream buffer full, dropping event", "user", client.UserID)
					}
				}
			}
			h.mu.RUnlock()
		}
	}
}

// Register adds client to the hub. It reports false once the hub is closed.
func (h *Hub) Register(client *Client) bool {
	select {
	case h.register <- client:
		return true
	case <-h.done:
		return false
	}
}

func (h *Hub) Unregister(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// Connected returns the number of open connections.
func (h *Hub) Connected() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, userClients := range h.clients {
		n += len(userClients)
	}
	return n
}

// Publish queues e for every connected client. Events are dropped when
// nobody is listening or the hub is saturated.
func (h *Hub) Publish(ctx context.Context, e events.Event) error {
	payload, err := events.Encode(e)
	if err != nil {
		return err
	}
	select {
	case h.broadcast <- payload:
	case <-h.done:
	case <-ctx.Done():
		return ctx.Err()
	default:
		slog.Warn("audit stream hub busy, dropping event", "type", e.Type)
	}
	return nil
}

// Close stops Run and disconnects every client.
func (h *Hub) Close() error {
	h.closeOnce.Do(func() { close(h.done) })
	return nil
}
