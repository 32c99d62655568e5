package messaging

import (
	"context"
	"fmt"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/configs"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
)

const (
	DeadLetterExchange = "dlx"
	DeadLetterQueue    = "dead_letter_queue"
)

// RabbitMQ implements Broker on top of amqp091. One shared channel serves
// declares and publishes; every subscription gets a dedicated channel so a
// topic has exactly one active consumer and per-queue ordering holds.
type RabbitMQ struct {
	conn   *amqp.Connection
	ch     *amqp.Channel
	cfg    configs.BrokerConfig
	logger logging.Logger
}

func NewRabbitMQ(cfg configs.BrokerConfig, logger logging.Logger) (*RabbitMQ, error) {
	conn, err := amqp.Dial(cfg.URI)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to RabbitMQ: %w", err)
	}

	ch, err := conn.Channel()
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create channel: %w", err)
	}

	rmq := &RabbitMQ{
		conn:   conn,
		ch:     ch,
		cfg:    cfg,
		logger: logger,
	}

	if err := rmq.declareExchanges(); err != nil {
		rmq.Close()
		return nil, err
	}

	return rmq, nil
}

func (r *RabbitMQ) declareExchanges() error {
	for _, exchange := range []string{domain.ChatExchange, domain.AlarmExchange} {
		if err := r.ch.ExchangeDeclare(
			exchange,
			"direct",
			true,  // durable
			false, // auto-delete
			false, // internal
			false, // no-wait
			nil,
		); err != nil {
			return fmt.Errorf("failed to declare exchange %s: %w", exchange, err)
		}
	}

	if err := r.ch.ExchangeDeclare(DeadLetterExchange, "fanout", true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter exchange: %w", err)
	}
	if _, err := r.ch.QueueDeclare(DeadLetterQueue, true, false, false, false, nil); err != nil {
		return fmt.Errorf("failed to declare dead letter queue: %w", err)
	}
	if err := r.ch.QueueBind(DeadLetterQueue, "", DeadLetterExchange, false, nil); err != nil {
		return fmt.Errorf("failed to bind dead letter queue: %w", err)
	}

	return nil
}

// EnsureTopic declares the topic's queue and binding. Declaring resources
// that already exist is a no-op on the broker, so concurrent and repeated
// calls for the same topic are safe.
func (r *RabbitMQ) EnsureTopic(ctx context.Context, topic domain.Topic) error {
	if err := topic.Validate(); err != nil {
		return err
	}

	args := amqp.Table{
		"x-dead-letter-exchange": DeadLetterExchange,
	}

	q, err := r.ch.QueueDeclare(
		topic.QueueName(),
		true,  // durable
		false, // delete when unused
		false, // exclusive
		false, // no-wait
		args,
	)
	if err != nil {
		return fmt.Errorf("failed to declare queue %s: %w", topic.QueueName(), err)
	}

	if err := r.ch.QueueBind(
		q.Name,
		topic.RoutingKey(),
		topic.Exchange(),
		false,
		nil,
	); err != nil {
		return fmt.Errorf("failed to bind queue %s: %w", q.Name, err)
	}

	return nil
}

// Publish sends body under the topic's routing key with bounded retries.
// An exhausted retry budget surfaces as an error; the caller logs enough
// context for manual replay.
func (r *RabbitMQ) Publish(ctx context.Context, topic domain.Topic, correlationID string, body []byte) error {
	var lastErr error

	attempts := r.cfg.PublishRetries
	if attempts < 1 {
		attempts = 1
	}

	for attempt := 1; attempt <= attempts; attempt++ {
		lastErr = r.ch.PublishWithContext(ctx,
			topic.Exchange(),
			topic.RoutingKey(),
			false, // mandatory
			false, // immediate
			amqp.Publishing{
				ContentType:   "application/json",
				DeliveryMode:  amqp.Persistent,
				CorrelationId: correlationID,
				Timestamp:     time.Now(),
				Body:          body,
			},
		)
		if lastErr == nil {
			return nil
		}

		r.logger.Warn(logging.RabbitMQ, logging.Publishing, "publish attempt failed", map[logging.ExtraKey]any{
			logging.TopicKey:      topic.RoutingKey(),
			logging.CorrelationID: correlationID,
			logging.ErrorMessage:  lastErr.Error(),
			"attempt":             attempt,
		})

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(r.cfg.PublishBackoff * time.Duration(attempt)):
		}
	}

	return fmt.Errorf("publish to %s exhausted %d attempts: %w", topic.RoutingKey(), attempts, lastErr)
}

// Subscribe attaches a single consumer to the topic's queue on a dedicated
// channel and pumps deliveries into handler until Cancel.
func (r *RabbitMQ) Subscribe(topic domain.Topic, handler DeliveryHandler) (Subscription, error) {
	ch, err := r.conn.Channel()
	if err != nil {
		return nil, fmt.Errorf("failed to open consumer channel: %w", err)
	}

	prefetch := r.cfg.Prefetch
	if prefetch < 1 {
		prefetch = 1
	}
	if err := ch.Qos(prefetch, 0, false); err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to set qos: %w", err)
	}

	tag := fmt.Sprintf("petmeet-%s", topic.RoutingKey())
	deliveries, err := ch.Consume(
		topic.QueueName(),
		tag,
		false, // manual ack
		false, // exclusive
		false, // no-local
		false, // no-wait
		nil,
	)
	if err != nil {
		ch.Close()
		return nil, fmt.Errorf("failed to consume %s: %w", topic.QueueName(), err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	sub := &rabbitSubscription{topic: topic, ch: ch, tag: tag, cancel: cancel}

	go r.pump(ctx, topic, deliveries, handler)

	return sub, nil
}

func (r *RabbitMQ) pump(ctx context.Context, topic domain.Topic, deliveries <-chan amqp.Delivery, handler DeliveryHandler) {
	for d := range deliveries {
		err := handler(ctx, Delivery{
			Body:          d.Body,
			RoutingKey:    d.RoutingKey,
			CorrelationID: d.CorrelationId,
			Redelivered:   d.Redelivered,
		})

		switch {
		case err == nil:
			_ = d.Ack(false)

		case IsPermanent(err):
			// Redelivery would not help; drop after logging.
			r.logger.Error(logging.RabbitMQ, logging.Consuming, "dropping undecodable message", map[logging.ExtraKey]any{
				logging.TopicKey:     topic.RoutingKey(),
				logging.ErrorMessage: err.Error(),
				"body_size":          len(d.Body),
			})
			_ = d.Ack(false)

		case d.Redelivered:
			// Second transient failure goes to the dead letter queue.
			r.logger.Error(logging.RabbitMQ, logging.Consuming, "dead-lettering message after redelivery", map[logging.ExtraKey]any{
				logging.TopicKey:     topic.RoutingKey(),
				logging.ErrorMessage: err.Error(),
			})
			_ = d.Nack(false, false)

		default:
			_ = d.Nack(false, true)
		}
	}
}

func (r *RabbitMQ) Close() error {
	if r.ch != nil {
		r.ch.Close()
	}
	if r.conn != nil {
		return r.conn.Close()
	}
	return nil
}

type rabbitSubscription struct {
	topic  domain.Topic
	ch     *amqp.Channel
	tag    string
	cancel context.CancelFunc
}

func (s *rabbitSubscription) Topic() domain.Topic { return s.topic }

func (s *rabbitSubscription) Cancel() error {
	s.cancel()
	if err := s.ch.Cancel(s.tag, false); err != nil {
		s.ch.Close()
		return err
	}
	return s.ch.Close()
}
