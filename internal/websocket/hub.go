// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package websocket pushes alert notifications to connected browsers.
// Clients subscribe to the notification topics they care about; the Hub
// fans each broadcast out to the matching subscribers.
package websocket

import (
	"context"
	"sort"
	"sync"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/metrics"
)

// ShutdownReason identifies why the hub is shutting down.
type ShutdownReason string

const (
	// ShutdownReasonContextCanceled is the normal graceful shutdown path
	// (e.g., SIGTERM).
	ShutdownReasonContextCanceled ShutdownReason = "context_canceled"

	// ShutdownReasonContextDeadline may indicate a hung operation during
	// shutdown.
	ShutdownReasonContextDeadline ShutdownReason = "context_deadline"
)

// Message types for WebSocket communication.
const (
	MessageTypeAlert       = "alert"
	MessageTypeAlertUpdate = "alert_update"
	MessageTypePing        = "ping"
	MessageTypePong        = "pong"
	MessageTypeSubscribe   = "subscribe"
	MessageTypeUnsubscribe = "unsubscribe"
)

// Message represents a WebSocket message. Topic carries the notification
// topic for alert messages and the subscription target for subscribe and
// unsubscribe requests.
type Message struct {
	Type  string      `json:"type"`
	Topic string      `json:"topic,omitempty"`
	Data  interface{} `json:"data,omitempty"`
}

// Hub maintains the set of active clients and routes topic broadcasts to
// the clients subscribed to each topic.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan Message
	Register   chan *Client
	Unregister chan *Client
	mu         sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan Message, 256),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		clients:    make(map[*Client]bool),
	}
}

// RunWithContext starts the hub with context support for graceful shutdown.
// Designed for use with suture supervision: when the context is canceled all
// connected clients are closed and ctx.Err() is returned.
//
// DETERMINISM: uses priority-based selection so behavior is predictable when
// multiple channels are ready:
// - Priority 1: Context cancellation (shutdown)
// - Priority 2: Client lifecycle events (Register/Unregister)
// - Priority 3: Broadcast messages
func (h *Hub) RunWithContext(ctx context.Context) error {
	for {
		// Priority 1: Check for shutdown (non-blocking)
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()
		default:
		}

		// Priority 2: Handle client lifecycle events (non-blocking check)
		select {
		case client := <-h.Register:
			h.registerClient(client)
			continue
		case client := <-h.Unregister:
			h.unregisterClient(client)
			continue
		default:
			// No lifecycle events pending
		}

		// Priority 3: Handle broadcast messages or wait for any event
		select {
		case <-ctx.Done():
			h.logGracefulShutdown(ctx)
			return ctx.Err()

		case client := <-h.Register:
			h.registerClient(client)

		case client := <-h.Unregister:
			h.unregisterClient(client)

		case message := <-h.broadcast:
			h.broadcastToClients(message)
		}
	}
}

func (h *Hub) registerClient(client *Client) {
	h.mu.Lock()
	h.clients[client] = true
	total := len(h.clients)
	h.mu.Unlock()

	metrics.WebSocketClients.Inc()
	logging.Info().Int("total_clients", total).Msg("websocket client connected")
}

func (h *Hub) unregisterClient(client *Client) {
	h.mu.Lock()
	removed := false
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.send)
		removed = true
	}
	total := len(h.clients)
	h.mu.Unlock()

	if removed {
		metrics.WebSocketClients.Dec()
		logging.Info().Int("total_clients", total).Msg("websocket client disconnected")
	}
}

// logGracefulShutdown closes all connected clients and logs structured
// shutdown information. ctx.Err() is NOT logged as an error because context
// cancellation is expected behavior during graceful shutdown.
func (h *Hub) logGracefulShutdown(ctx context.Context) {
	clientCount := h.GetClientCount()
	h.closeAllClients()

	logging.Info().
		Str("component", "websocket-hub").
		Str("reason", string(getShutdownReason(ctx))).
		Int("clients_closed", clientCount).
		Msg("websocket hub stopped")
}

func getShutdownReason(ctx context.Context) ShutdownReason {
	switch ctx.Err() {
	case context.Canceled:
		return ShutdownReasonContextCanceled
	case context.DeadlineExceeded:
		return ShutdownReasonContextDeadline
	default:
		return ShutdownReasonContextCanceled
	}
}

// broadcastToClients delivers a message to every connected client subscribed
// to its topic, in a deterministic order.
// DETERMINISM: sorts clients by ID so delivery order is reproducible; map
// iteration order would not be.
func (h *Hub) broadcastToClients(message Message) {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	// Track clients to remove (can't modify map during iteration)
	var toRemove []*Client

	for _, client := range clients {
		if message.Topic != "" && !client.subscribedTo(message.Topic) {
			continue
		}
		select {
		case client.send <- message:
		default:
			// Channel full or closed, mark for removal
			toRemove = append(toRemove, client)
		}
	}

	for _, client := range toRemove {
		close(client.send)
		delete(h.clients, client)
		metrics.WebSocketClients.Dec()
	}
}

// closeAllClients closes all connected clients in ID order. Called during
// shutdown.
func (h *Hub) closeAllClients() {
	h.mu.Lock()
	defer h.mu.Unlock()

	clients := make([]*Client, 0, len(h.clients))
	for client := range h.clients {
		clients = append(clients, client)
	}
	sort.Slice(clients, func(i, j int) bool {
		return clients[i].id < clients[j].id
	})

	for _, client := range clients {
		close(client.send)
		delete(h.clients, client)
		metrics.WebSocketClients.Dec()
	}
	logging.Info().Msg("closed all websocket clients during shutdown")
}

// BroadcastTopic queues a message for every client subscribed to topic.
// Non-blocking; if the internal broadcast buffer is full the message is
// dropped, matching the fire-and-forget notification contract.
func (h *Hub) BroadcastTopic(topic, messageType string, data interface{}) {
	message := Message{
		Type:  messageType,
		Topic: topic,
		Data:  data,
	}

	select {
	case h.broadcast <- message:
	default:
		logging.Warn().
			Str("topic", topic).
			Str("message_type", messageType).
			Msg("broadcast channel full, dropping message")
	}
}

// GetClientCount returns the number of connected clients.
func (h *Hub) GetClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
