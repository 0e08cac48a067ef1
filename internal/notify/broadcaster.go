// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

// Package notify fans alert-state changes out to live subscribers over
// named topics. Delivery is fire-and-forget: no guarantee, no backpressure,
// no retry. This is a live-view convenience layer, not a durable event log,
// so publish failures are logged and never propagated to the caller.
package notify

import (
	"context"
	"strings"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/goccy/go-json"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/metrics"
	"github.com/atelier-sec/vigil/internal/models"
)

// Topic names. Every alert event goes to TopicAlerts; creations additionally
// go to a per-severity topic; acknowledge/resolve/false-positive transitions
// additionally go to TopicAlertUpdates.
const (
	TopicAlerts       = "alerts"
	TopicAlertUpdates = "alerts.updates"
)

// SeverityTopic returns the creation topic for a severity, lower-cased:
// alerts.high, alerts.critical, ...
func SeverityTopic(severity models.ThreatSeverity) string {
	return TopicAlerts + "." + strings.ToLower(string(severity))
}

// Broadcaster publishes alerts to in-process topics backed by a watermill
// gochannel Pub/Sub. Subscribers that lag simply miss messages; loss is
// acceptable at this layer.
type Broadcaster struct {
	pubsub *gochannel.GoChannel
}

// NewBroadcaster creates a Broadcaster.
func NewBroadcaster() *Broadcaster {
	pubsub := gochannel.NewGoChannel(
		gochannel.Config{
			OutputChannelBuffer:            256,
			Persistent:                     false,
			BlockPublishUntilSubscriberAck: false,
		},
		watermill.NopLogger{},
	)
	return &Broadcaster{pubsub: pubsub}
}

// Publish sends the full alert entity to every current subscriber of topic.
// Failures are logged and swallowed: a notification failure must never roll
// back the alert-state mutation that already succeeded.
func (b *Broadcaster) Publish(topic string, alert *models.Alert) {
	payload, err := json.Marshal(alert)
	if err != nil {
		metrics.NotificationFailures.Inc()
		logging.Error().Err(err).Str("alert_id", alert.ID).Msg("marshal alert for publish")
		return
	}

	msg := message.NewMessage(watermill.NewUUID(), payload)
	if err := b.pubsub.Publish(topic, msg); err != nil {
		metrics.NotificationFailures.Inc()
		logging.Error().Err(err).
			Str("topic", topic).
			Str("alert_id", alert.ID).
			Msg("publish alert notification")
		return
	}

	metrics.NotificationsPublished.WithLabelValues(topic).Inc()
	logging.Debug().Str("topic", topic).Str("alert_id", alert.ID).Msg("published alert")
}

// Subscribe returns a channel of raw messages for topic. Messages must be
// Acked or Nacked by the consumer. The channel closes when ctx is done or
// the broadcaster is closed.
func (b *Broadcaster) Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error) {
	return b.pubsub.Subscribe(ctx, topic)
}

// Close shuts the underlying Pub/Sub down, closing all subscriber channels.
func (b *Broadcaster) Close() error {
	return b.pubsub.Close()
}
