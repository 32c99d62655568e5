package events

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/messaging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/metrics"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.NewWith(prometheus.NewRegistry())
}

type publishedMessage struct {
	Topic         domain.Topic
	CorrelationID string
	Body          []byte
}

// fakeBroker records declares and publishes and lets tests feed deliveries
// into registered handlers.
type fakeBroker struct {
	mu         sync.Mutex
	ensured    []domain.Topic
	published  []publishedMessage
	handlers   map[string]messaging.DeliveryHandler
	ensureErr  error
	publishErr error
}

func newFakeBroker() *fakeBroker {
	return &fakeBroker{handlers: make(map[string]messaging.DeliveryHandler)}
}

func (b *fakeBroker) EnsureTopic(ctx context.Context, topic domain.Topic) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.ensureErr != nil {
		return b.ensureErr
	}
	b.ensured = append(b.ensured, topic)
	return nil
}

func (b *fakeBroker) Publish(ctx context.Context, topic domain.Topic, correlationID string, body []byte) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.publishErr != nil {
		return b.publishErr
	}
	b.published = append(b.published, publishedMessage{Topic: topic, CorrelationID: correlationID, Body: body})
	return nil
}

func (b *fakeBroker) Subscribe(topic domain.Topic, handler messaging.DeliveryHandler) (messaging.Subscription, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic.RoutingKey()] = handler
	return &fakeSubscription{topic: topic}, nil
}

func (b *fakeBroker) Close() error { return nil }

// deliver feeds one delivery to the topic's registered handler, the way the
// broker pump would.
func (b *fakeBroker) deliver(topic domain.Topic, d messaging.Delivery) error {
	b.mu.Lock()
	handler := b.handlers[topic.RoutingKey()]
	b.mu.Unlock()
	return handler(context.Background(), d)
}

func (b *fakeBroker) lastPublished() publishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published[len(b.published)-1]
}

type fakeSubscription struct {
	topic     domain.Topic
	mu        sync.Mutex
	cancelled bool
}

func (s *fakeSubscription) Topic() domain.Topic { return s.topic }

func (s *fakeSubscription) Cancel() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cancelled = true
	return nil
}

func (s *fakeSubscription) isCancelled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancelled
}

// fakeMessageRepo upserts by message id, matching the document store's
// behavior on redelivery. It also records the order saves arrive in.
type fakeMessageRepo struct {
	mu      sync.Mutex
	saved   map[string]*domain.ChatMessage
	order   []string
	saveErr error
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{saved: make(map[string]*domain.ChatMessage)}
}

func (r *fakeMessageRepo) Save(ctx context.Context, msg *domain.ChatMessage) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	r.saved[msg.ID] = msg
	r.order = append(r.order, msg.ID)
	return nil
}

func (r *fakeMessageRepo) GetByRoomID(ctx context.Context, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	return nil, nil
}

func (r *fakeMessageRepo) GetMediaByRoomID(ctx context.Context, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	return nil, nil
}

func (r *fakeMessageRepo) EnsureIndexes(ctx context.Context) error { return nil }

func (r *fakeMessageRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

func (r *fakeMessageRepo) savedOrder() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.order...)
}

// fakeAlarmRepo keeps first writes and ignores duplicate ids, matching the
// row store's on-conflict-do-nothing insert.
type fakeAlarmRepo struct {
	mu      sync.Mutex
	saved   map[string]*domain.Alarm
	saveErr error
}

func newFakeAlarmRepo() *fakeAlarmRepo {
	return &fakeAlarmRepo{saved: make(map[string]*domain.Alarm)}
}

func (r *fakeAlarmRepo) Save(ctx context.Context, alarm *domain.Alarm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.saveErr != nil {
		return r.saveErr
	}
	if _, exists := r.saved[alarm.ID]; exists {
		return nil
	}
	r.saved[alarm.ID] = alarm
	return nil
}

func (r *fakeAlarmRepo) GetByID(ctx context.Context, id string) (*domain.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alarm, ok := r.saved[id]
	if !ok {
		return nil, domain.ErrAlarmNotFound
	}
	return alarm, nil
}

func (r *fakeAlarmRepo) GetByRecipient(ctx context.Context, userID int64) ([]domain.Alarm, error) {
	return nil, nil
}

func (r *fakeAlarmRepo) MarkRead(ctx context.Context, id string, at time.Time) error { return nil }

func (r *fakeAlarmRepo) DeleteExpired(ctx context.Context, readBefore, unreadBefore time.Time) (int64, error) {
	return 0, nil
}

func (r *fakeAlarmRepo) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.saved)
}

type fakeMembers struct {
	members map[int64][]domain.RoomMember
	err     error
}

func (f *fakeMembers) Members(ctx context.Context, roomID int64) ([]domain.RoomMember, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.members[roomID], nil
}

func (f *fakeMembers) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, m := range f.members[roomID] {
		if m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}
