// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package websocket

import (
	"context"
	"errors"
	"io"
	"testing"
	"time"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/models"
	"github.com/atelier-sec/vigil/internal/notify"
)

//nolint:gochecknoinits // init ensures consistent logging for tests
func init() {
	logging.Init(logging.Config{
		Level:  "info",
		Format: "console",
		Output: io.Discard,
	})
}

// setupHub creates and starts a hub for testing. The hub stops when the
// test ends.
func setupHub(t *testing.T) *Hub {
	t.Helper()
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go func() { _ = hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)
	return hub
}

// createTestClient creates a client without a connection, subscribed to the
// firehose topic like a freshly connected client would be.
func createTestClient(hub *Hub) *Client {
	return &Client{
		id:     clientIDCounter.Add(1),
		hub:    hub,
		conn:   nil,
		send:   make(chan Message, 256),
		topics: map[string]struct{}{notify.TopicAlerts: {}},
	}
}

func registerClient(hub *Hub, client *Client) {
	hub.Register <- client
	time.Sleep(20 * time.Millisecond)
}

func testAlert() *models.Alert {
	return &models.Alert{
		ID:       "a1",
		Title:    "Brute Force Attack Detected",
		Severity: models.SeverityHigh,
		Status:   models.AlertActive,
		SourceIP: "10.0.0.5",
	}
}

func TestNewHub(t *testing.T) {
	hub := NewHub()

	if hub == nil {
		t.Fatal("NewHub returned nil")
	}

	checks := []struct {
		name   string
		check  bool
		errMsg string
	}{
		{"clients map", hub.clients != nil, "clients map not initialized"},
		{"broadcast channel", hub.broadcast != nil, "broadcast channel not initialized"},
		{"Register channel", hub.Register != nil, "Register channel not initialized"},
		{"Unregister channel", hub.Unregister != nil, "Unregister channel not initialized"},
		{"empty clients", len(hub.clients) == 0, "clients map should be empty"},
	}

	for _, c := range checks {
		if !c.check {
			t.Error(c.errMsg)
		}
	}
}

func TestHubRegisterUnregister(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)

	registerClient(hub, client)
	if hub.GetClientCount() != 1 {
		t.Errorf("expected 1 client, got %d", hub.GetClientCount())
	}

	hub.Unregister <- client
	time.Sleep(20 * time.Millisecond)
	if hub.GetClientCount() != 0 {
		t.Errorf("expected 0 clients, got %d", hub.GetClientCount())
	}

	// send channel must be closed after unregister
	select {
	case _, ok := <-client.send:
		if ok {
			t.Error("expected closed send channel")
		}
	default:
		t.Error("send channel not closed")
	}
}

func TestBroadcastTopicDelivery(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	hub.BroadcastTopic(notify.TopicAlerts, MessageTypeAlert, testAlert())

	select {
	case msg := <-client.send:
		if msg.Type != MessageTypeAlert {
			t.Errorf("Type = %q", msg.Type)
		}
		if msg.Topic != notify.TopicAlerts {
			t.Errorf("Topic = %q", msg.Topic)
		}
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for broadcast")
	}
}

func TestBroadcastTopicFiltering(t *testing.T) {
	hub := setupHub(t)

	firehose := createTestClient(hub)
	registerClient(hub, firehose)

	critOnly := createTestClient(hub)
	critOnly.topics = map[string]struct{}{
		notify.SeverityTopic(models.SeverityCritical): {},
	}
	registerClient(hub, critOnly)

	hub.BroadcastTopic(notify.SeverityTopic(models.SeverityHigh), MessageTypeAlert, testAlert())
	time.Sleep(20 * time.Millisecond)

	select {
	case <-critOnly.send:
		t.Error("critical-only client received a high-severity message")
	default:
	}
	select {
	case <-firehose.send:
		t.Error("firehose client received a message for an unsubscribed topic")
	default:
	}

	hub.BroadcastTopic(notify.TopicAlerts, MessageTypeAlert, testAlert())
	time.Sleep(20 * time.Millisecond)

	select {
	case <-firehose.send:
	default:
		t.Error("firehose client missed a firehose message")
	}
	select {
	case <-critOnly.send:
		t.Error("critical-only client received a firehose message")
	default:
	}
}

func TestClientSubscriptionChanges(t *testing.T) {
	hub := setupHub(t)
	client := createTestClient(hub)
	registerClient(hub, client)

	topic := notify.SeverityTopic(models.SeverityCritical)
	if client.subscribedTo(topic) {
		t.Fatal("unexpected initial subscription")
	}

	client.subscribe(topic)
	if !client.subscribedTo(topic) {
		t.Error("subscribe did not take effect")
	}

	client.unsubscribe(topic)
	if client.subscribedTo(topic) {
		t.Error("unsubscribe did not take effect")
	}
}

func TestRunWithContextShutdownClosesClients(t *testing.T) {
	hub := NewHub()
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() { done <- hub.RunWithContext(ctx) }()
	time.Sleep(10 * time.Millisecond)

	client := createTestClient(hub)
	registerClient(hub, client)

	cancel()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("RunWithContext returned %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("hub did not stop")
	}

	if hub.GetClientCount() != 0 {
		t.Errorf("%d clients remain after shutdown", hub.GetClientCount())
	}
}

func TestBroadcastWithoutClients(t *testing.T) {
	hub := setupHub(t)
	// Must not block or panic.
	hub.BroadcastTopic(notify.TopicAlerts, MessageTypeAlert, testAlert())
	time.Sleep(10 * time.Millisecond)
}
