package websocket

import (
	"errors"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

// ErrClientClosed is returned when attempting to send to a closed client.
var ErrClientClosed = errors.New("client is closed")

// ClientInterface is the contract the hub needs from a connection.
type ClientInterface interface {
	ID() string
	Scope() Scope
	Send(data []byte) error
	Close() error
}

// Hub fans events out to connected clients, filtered by each client's
// visibility scope. Safe for concurrent use.
type Hub struct {
	clients map[string]ClientInterface
	mu      sync.RWMutex
}

// NewHub creates an empty Hub.
func NewHub() *Hub {
	return &Hub{clients: make(map[string]ClientInterface)}
}

// Register adds a client to the hub.
func (h *Hub) Register(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.clients[client.ID()] = client
	log.Debug().Str("client_id", client.ID()).Msg("WebSocket client registered")
}

// Unregister removes a client from the hub.
func (h *Hub) Unregister(client ClientInterface) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.clients[client.ID()]; ok {
		delete(h.clients, client.ID())
		log.Debug().Str("client_id", client.ID()).Msg("WebSocket client unregistered")
	}
}

// Publish broadcasts an event to every client whose scope covers the
// customer. Slow clients are skipped rather than blocking the caller.
func (h *Hub) Publish(eventType string, customerID uuid.UUID, payload any) {
	event := NewEvent(eventType, customerID, payload)
	data, err := event.ToJSON()
	if err != nil {
		log.Error().Err(err).Str("event_type", eventType).Msg("Failed to serialize event")
		return
	}

	h.mu.RLock()
	targets := make([]ClientInterface, 0, len(h.clients))
	for _, client := range h.clients {
		if client.Scope().Covers(customerID) {
			targets = append(targets, client)
		}
	}
	h.mu.RUnlock()

	for _, client := range targets {
		go func(c ClientInterface) {
			if err := c.Send(data); err != nil {
				log.Warn().Err(err).Str("client_id", c.ID()).Msg("Failed to send to client")
			}
		}(client)
	}

	if len(targets) > 0 {
		log.Debug().Str("event_type", eventType).Int("client_count", len(targets)).Msg("Broadcast event")
	}
}

// ClientCount returns the number of connected clients.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// NoOpPublisher satisfies the publisher contract without delivering
// anything, for deployments with the push channel disabled.
type NoOpPublisher struct{}

func (NoOpPublisher) Publish(eventType string, customerID uuid.UUID, payload any) {}
