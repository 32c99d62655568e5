package events

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/contracts"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/messaging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/metrics"
)

// ConsumerRegistry owns the set of live broker subscriptions, one per
// provisioned topic. Register and Deregister are the only mutation points,
// so the live set is always introspectable without touching the broker.
type ConsumerRegistry struct {
	broker     messaging.Broker
	dispatcher *PushDispatcher
	logger     logging.Logger
	metrics    *metrics.Metrics

	mu   sync.Mutex
	subs map[string]messaging.Subscription
}

func NewConsumerRegistry(broker messaging.Broker, dispatcher *PushDispatcher, logger logging.Logger, m *metrics.Metrics) *ConsumerRegistry {
	return &ConsumerRegistry{
		broker:     broker,
		dispatcher: dispatcher,
		logger:     logger,
		metrics:    m,
		subs:       make(map[string]messaging.Subscription),
	}
}

// Register ensures the topic exists on the broker and attaches its single
// listener. Registering an already-registered topic is a no-op.
func (cr *ConsumerRegistry) Register(ctx context.Context, topic domain.Topic) error {
	if err := topic.Validate(); err != nil {
		return err
	}

	cr.mu.Lock()
	defer cr.mu.Unlock()

	key := topic.RoutingKey()
	if _, exists := cr.subs[key]; exists {
		return nil
	}

	if err := cr.broker.EnsureTopic(ctx, topic); err != nil {
		return fmt.Errorf("ensure topic %s: %w", key, err)
	}

	sub, err := cr.broker.Subscribe(topic, cr.handle)
	if err != nil {
		return fmt.Errorf("subscribe %s: %w", key, err)
	}

	cr.subs[key] = sub
	cr.metrics.ActiveConsumers.Inc()

	cr.logger.Info(logging.RabbitMQ, logging.Provisioning, "listener registered", map[logging.ExtraKey]any{
		logging.TopicKey: key,
	})

	return nil
}

// Deregister cancels the topic's listener. Unknown topics are a no-op.
func (cr *ConsumerRegistry) Deregister(topic domain.Topic) error {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	key := topic.RoutingKey()
	sub, exists := cr.subs[key]
	if !exists {
		return nil
	}

	delete(cr.subs, key)
	cr.metrics.ActiveConsumers.Dec()

	if err := sub.Cancel(); err != nil {
		return fmt.Errorf("cancel listener %s: %w", key, err)
	}

	cr.logger.Info(logging.RabbitMQ, logging.Provisioning, "listener deregistered", map[logging.ExtraKey]any{
		logging.TopicKey: key,
	})

	return nil
}

// Topics lists the routing keys with a live listener, sorted for stable
// introspection output.
func (cr *ConsumerRegistry) Topics() []string {
	cr.mu.Lock()
	defer cr.mu.Unlock()

	keys := make([]string, 0, len(cr.subs))
	for key := range cr.subs {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Shutdown deregisters every listener before the process closes its stores,
// so no delivery is processed into a closing Event Store.
func (cr *ConsumerRegistry) Shutdown() {
	cr.mu.Lock()
	subs := cr.subs
	cr.subs = make(map[string]messaging.Subscription)
	cr.mu.Unlock()

	for key, sub := range subs {
		cr.metrics.ActiveConsumers.Dec()
		if err := sub.Cancel(); err != nil {
			cr.logger.Warn(logging.RabbitMQ, logging.Shutdown, "listener cancel failed", map[logging.ExtraKey]any{
				logging.TopicKey:     key,
				logging.ErrorMessage: err.Error(),
			})
		}
	}
}

// handle decodes one delivery into a tagged event and routes it to the
// dispatcher. Decode failures are permanent: redelivering the same bytes
// cannot fix them.
func (cr *ConsumerRegistry) handle(ctx context.Context, d messaging.Delivery) error {
	var envelope contracts.Envelope
	if err := json.Unmarshal(d.Body, &envelope); err != nil {
		cr.metrics.EventsDropped.WithLabelValues("unknown").Inc()
		return messaging.MarkPermanent(fmt.Errorf("unmarshal envelope (%d bytes): %w", len(d.Body), err))
	}

	switch {
	case envelope.Kind == domain.EventChatMessage:
		ev, err := envelope.DecodeChat()
		if err != nil {
			cr.metrics.EventsDropped.WithLabelValues(string(envelope.Kind)).Inc()
			return messaging.MarkPermanent(err)
		}
		cr.metrics.EventsConsumed.WithLabelValues(string(envelope.Kind)).Inc()
		return cr.dispatcher.OnChatMessageConsumed(ctx, ev)

	case envelope.Kind.IsAlarmKind():
		ev, err := envelope.DecodeAlarm()
		if err != nil {
			cr.metrics.EventsDropped.WithLabelValues(string(envelope.Kind)).Inc()
			return messaging.MarkPermanent(err)
		}
		cr.metrics.EventsConsumed.WithLabelValues(string(envelope.Kind)).Inc()
		return cr.dispatcher.OnAlarmConsumed(ctx, ev)

	default:
		cr.metrics.EventsDropped.WithLabelValues(string(envelope.Kind)).Inc()
		return messaging.MarkPermanent(fmt.Errorf("unknown event kind %q", envelope.Kind))
	}
}
