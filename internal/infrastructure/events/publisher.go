package events

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/contracts"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/messaging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/metrics"
)

// EventPublisher serializes tagged events and sends them under their
// topic's routing key. Topics are provisioned at account activation and
// room creation, so at steady state publishing never declares anything.
type EventPublisher struct {
	broker  messaging.Broker
	logger  logging.Logger
	metrics *metrics.Metrics
}

func NewEventPublisher(broker messaging.Broker, logger logging.Logger, m *metrics.Metrics) *EventPublisher {
	return &EventPublisher{
		broker:  broker,
		logger:  logger,
		metrics: m,
	}
}

func (p *EventPublisher) PublishChatMessage(ctx context.Context, ev domain.ChatMessageEvent) error {
	correlationID := uuid.NewString()

	envelope, err := contracts.NewChatEnvelope(correlationID, ev)
	if err != nil {
		return err
	}

	return p.publish(ctx, domain.RoomTopic(ev.RoomID), envelope)
}

func (p *EventPublisher) PublishAlarm(ctx context.Context, ev domain.AlarmEvent) error {
	correlationID := uuid.NewString()

	envelope, err := contracts.NewAlarmEnvelope(correlationID, ev)
	if err != nil {
		return err
	}

	return p.publish(ctx, domain.UserTopic(ev.RecipientID), envelope)
}

func (p *EventPublisher) publish(ctx context.Context, topic domain.Topic, envelope contracts.Envelope) error {
	body, err := json.Marshal(envelope)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}

	if err := p.broker.Publish(ctx, topic, envelope.CorrelationID, body); err != nil {
		// Logged with enough context to replay the event by hand.
		p.logger.Error(logging.RabbitMQ, logging.Publishing, "event publish failed", map[logging.ExtraKey]any{
			logging.TopicKey:      topic.RoutingKey(),
			logging.EventKindKey:  string(envelope.Kind),
			logging.CorrelationID: envelope.CorrelationID,
			logging.ErrorMessage:  err.Error(),
		})
		return err
	}

	p.metrics.EventsPublished.WithLabelValues(topic.Exchange()).Inc()
	return nil
}
