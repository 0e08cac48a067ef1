// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package websocket

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/notify"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 64 * 1024 // 64 KB; clients only send control frames
)

// clientIDCounter generates unique, monotonically increasing IDs for
// clients so broadcast iteration order is deterministic.
var clientIDCounter atomic.Uint64

// Client is a middleman between the websocket connection and the hub. Each
// client carries its own topic subscription set; new clients start
// subscribed to the firehose topic and adjust via subscribe/unsubscribe
// messages.
type Client struct {
	id   uint64
	hub  *Hub
	conn *websocket.Conn
	send chan Message

	topicsMu sync.RWMutex
	topics   map[string]struct{}
}

// NewClient creates a new Client subscribed to the firehose alerts topic.
func NewClient(hub *Hub, conn *websocket.Conn) *Client {
	return &Client{
		id:     clientIDCounter.Add(1),
		hub:    hub,
		conn:   conn,
		send:   make(chan Message, 256),
		topics: map[string]struct{}{notify.TopicAlerts: {}},
	}
}

// ID returns the client's unique identifier for deterministic ordering.
func (c *Client) ID() uint64 {
	return c.id
}

func (c *Client) subscribedTo(topic string) bool {
	c.topicsMu.RLock()
	defer c.topicsMu.RUnlock()
	_, ok := c.topics[topic]
	return ok
}

func (c *Client) subscribe(topic string) {
	c.topicsMu.Lock()
	c.topics[topic] = struct{}{}
	c.topicsMu.Unlock()
}

func (c *Client) unsubscribe(topic string) {
	c.topicsMu.Lock()
	delete(c.topics, topic)
	c.topicsMu.Unlock()
}

// readPump pumps control messages from the websocket connection to the hub.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister <- c
		_ = c.conn.Close() // best-effort cleanup
	}()

	c.conn.SetReadLimit(maxMessageSize)
	if err := c.conn.SetReadDeadline(time.Now().Add(pongWait)); err != nil {
		logging.Error().Err(err).Msg("failed to set read deadline")
		return
	}

	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		var msg Message
		err := c.conn.ReadJSON(&msg)
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				logging.Error().Err(err).Msg("unexpected websocket close error")
			}
			break
		}

		switch msg.Type {
		case MessageTypePing:
			pong := Message{Type: MessageTypePong}
			select {
			case c.send <- pong:
			default:
			}

		case MessageTypeSubscribe:
			if msg.Topic != "" {
				c.subscribe(msg.Topic)
				logging.Debug().Uint64("client_id", c.id).Str("topic", msg.Topic).Msg("client subscribed")
			}

		case MessageTypeUnsubscribe:
			if msg.Topic != "" {
				c.unsubscribe(msg.Topic)
				logging.Debug().Uint64("client_id", c.id).Str("topic", msg.Topic).Msg("client unsubscribed")
			}
		}
	}
}

// writePump pumps messages from the hub to the websocket connection.
func (c *Client) writePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		_ = c.conn.Close() // best-effort cleanup
	}()

	for {
		select {
		case message, ok := <-c.send:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline")
				return
			}

			if !ok {
				// The hub closed the channel
				if err := c.conn.WriteMessage(websocket.CloseMessage, []byte{}); err != nil {
					logging.Error().Err(err).Msg("failed to write close message")
				}
				return
			}

			if err := c.conn.WriteJSON(message); err != nil {
				logging.Error().Err(err).Msg("failed to write JSON message")
				return
			}

		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(writeWait)); err != nil {
				logging.Error().Err(err).Msg("failed to set write deadline for ping")
				return
			}

			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// Start begins reading and writing for the client.
func (c *Client) Start() {
	go c.writePump()
	go c.readPump()
}
