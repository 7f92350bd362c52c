package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/wardbot/backend/internal/cache"
	"github.com/wardbot/backend/internal/models"
)

// Hub maintains the set of dashboard sessions and fans audit events out to
// them. With Redis attached it relays the shared pub/sub channel so every
// server instance sees every event; without it, events are broadcast
// in-process only.
type Hub struct {
	// Registered clients
	clients map[*Client]bool

	// Outbound events to fan out
	broadcast chan []byte

	// Register requests from clients
	register chan *Client

	// Unregister requests from clients
	unregister chan *Client

	// Redis client for pub/sub, may be nil
	redis *cache.RedisClient

	// Mutex for thread-safe operations
	mu sync.RWMutex
}

// NewHub creates a new Hub
func NewHub(redis *cache.RedisClient) *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		redis:      redis,
	}
}

// Run starts the hub
func (h *Hub) Run() {
	if h.redis != nil {
		go h.subscribeToRedis()
	}

	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
			log.Printf("Dashboard session connected (%d active)", h.ClientCount())

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			log.Printf("Dashboard session disconnected (%d active)", h.ClientCount())

		case message := <-h.broadcast:
			h.mu.Lock()
			for client := range h.clients {
				select {
				case client.send <- message:
				default:
					close(client.send)
					delete(h.clients, client)
				}
			}
			h.mu.Unlock()
		}
	}
}

// subscribeToRedis relays the shared audit-log channel into the broadcast
// loop.
func (h *Hub) subscribeToRedis() {
	pubsub := h.redis.SubscribeToModerationLog()
	defer pubsub.Close()

	for msg := range pubsub.Channel() {
		h.broadcast <- []byte(msg.Payload)
	}
}

// BroadcastAuditEntry pushes one audit entry to every connected session.
func (h *Hub) BroadcastAuditEntry(entry *models.AuditEntry) {
	data, err := json.Marshal(models.WSMessage{
		Event:   models.EventModerationLog,
		Payload: entry,
	})
	if err != nil {
		log.Printf("Failed to marshal audit entry: %v", err)
		return
	}

	select {
	case h.broadcast <- data:
	default:
		log.Printf("Audit feed broadcast buffer full, dropping event")
	}
}

// ClientCount returns the number of connected sessions
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
