package messaging

import (
	"context"
	"errors"

	"github.com/wooyoung-dev/petmeet/internal/domain"
)

// Delivery carries one broker message into a handler.
type Delivery struct {
	Body          []byte
	RoutingKey    string
	CorrelationID string
	Redelivered   bool
}

// DeliveryHandler processes one delivery. A nil return acknowledges the
// message. A permanent error (see MarkPermanent) acknowledges and drops it;
// any other error requeues it once and dead-letters it on the second
// failure.
type DeliveryHandler func(ctx context.Context, d Delivery) error

// Subscription is a live consumer bound to one topic's queue.
type Subscription interface {
	Topic() domain.Topic
	Cancel() error
}

// Broker is the narrow port in front of the messaging technology so the
// fan-out core stays mockable and the broker swappable.
type Broker interface {
	EnsureTopic(ctx context.Context, topic domain.Topic) error
	Publish(ctx context.Context, topic domain.Topic, correlationID string, body []byte) error
	Subscribe(topic domain.Topic, handler DeliveryHandler) (Subscription, error)
	Close() error
}

// permanentError tags failures that redelivery cannot fix (decode errors).
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// MarkPermanent wraps err so the consumer drops the message instead of
// requeueing it.
func MarkPermanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}
