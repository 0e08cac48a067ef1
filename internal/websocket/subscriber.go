// Vigil - Network Log Threat Analysis and Live Alerting
// Copyright 2026 Atelier Security
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/atelier-sec/vigil

package websocket

import (
	"context"
	"sync"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/goccy/go-json"

	"github.com/atelier-sec/vigil/internal/logging"
	"github.com/atelier-sec/vigil/internal/models"
	"github.com/atelier-sec/vigil/internal/notify"
)

// AlertSource is the subscription side of the notification broadcaster,
// defined here so the bridge can be tested without a real broadcaster.
type AlertSource interface {
	Subscribe(ctx context.Context, topic string) (<-chan *message.Message, error)
}

// Subscriber bridges broadcaster topics into hub broadcasts. It consumes
// every alert topic and forwards each payload to the hub, which routes it to
// the clients subscribed to that topic. Runs as a suture service.
type Subscriber struct {
	hub    *Hub
	source AlertSource
	topics []string
}

// AllTopics returns every topic the bridge consumes: the firehose, the
// update stream, and one creation topic per severity.
func AllTopics() []string {
	topics := []string{notify.TopicAlerts, notify.TopicAlertUpdates}
	for _, sev := range []models.ThreatSeverity{
		models.SeverityLow,
		models.SeverityMedium,
		models.SeverityHigh,
		models.SeverityCritical,
	} {
		topics = append(topics, notify.SeverityTopic(sev))
	}
	return topics
}

// NewSubscriber creates a bridge consuming every alert topic.
func NewSubscriber(hub *Hub, source AlertSource) *Subscriber {
	return &Subscriber{
		hub:    hub,
		source: source,
		topics: AllTopics(),
	}
}

// Serve subscribes to all topics and forwards messages until ctx is done.
// Implements suture.Service.
func (s *Subscriber) Serve(ctx context.Context) error {
	var wg sync.WaitGroup

	for _, topic := range s.topics {
		messages, err := s.source.Subscribe(ctx, topic)
		if err != nil {
			return err
		}

		wg.Add(1)
		go func(topic string) {
			defer wg.Done()
			s.consume(ctx, topic, messages)
		}(topic)
	}

	logging.Info().Int("topics", len(s.topics)).Msg("websocket alert bridge started")
	<-ctx.Done()
	wg.Wait()
	return ctx.Err()
}

// String implements suture's service namer.
func (s *Subscriber) String() string {
	return "ws-alert-bridge"
}

func (s *Subscriber) consume(ctx context.Context, topic string, messages <-chan *message.Message) {
	messageType := MessageTypeAlert
	if topic == notify.TopicAlertUpdates {
		messageType = MessageTypeAlertUpdate
	}

	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-messages:
			if !ok {
				return
			}

			var alert models.Alert
			if err := json.Unmarshal(msg.Payload, &alert); err != nil {
				logging.Warn().Err(err).Str("topic", topic).Msg("failed to unmarshal alert notification")
				msg.Ack()
				continue
			}

			s.hub.BroadcastTopic(topic, messageType, &alert)
			msg.Ack()
		}
	}
}
