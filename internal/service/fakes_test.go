package service

import (
	"context"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/events"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/messaging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/metrics"
)

func newTestMetrics() *metrics.Metrics {
	return metrics.NewWith(prometheus.NewRegistry())
}

func newTestPublisher(broker messaging.Broker) *events.EventPublisher {
	return events.NewEventPublisher(broker, logging.NewNopLogger(), newTestMetrics())
}

type publishedMessage struct {
	Topic         domain.Topic
	CorrelationID string
	Body          []byte
}

type fakeBroker struct {
	mu         sync.Mutex
	published  []publishedMessage
	publishErr error
}

func (b *fakeBroker) EnsureTopic(ctx context.Context, topic domain.Topic) error { return nil }

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
	return nil, nil
}

func (b *fakeBroker) Close() error { return nil }

func (b *fakeBroker) lastPublished() publishedMessage {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.published[len(b.published)-1]
}

func (b *fakeBroker) publishCount() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.published)
}

type fakeMessageRepo struct {
	byRoom map[int64][]domain.ChatMessage
}

func (r *fakeMessageRepo) Save(ctx context.Context, msg *domain.ChatMessage) error { return nil }

func (r *fakeMessageRepo) GetByRoomID(ctx context.Context, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	return r.byRoom[roomID], nil
}

func (r *fakeMessageRepo) GetMediaByRoomID(ctx context.Context, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	var media []domain.ChatMessage
	for _, m := range r.byRoom[roomID] {
		if m.HasMedia() {
			media = append(media, m)
		}
	}
	return media, nil
}

func (r *fakeMessageRepo) EnsureIndexes(ctx context.Context) error { return nil }

type fakeMembers struct {
	members map[int64][]int64
	err     error
}

func (f *fakeMembers) Members(ctx context.Context, roomID int64) ([]domain.RoomMember, error) {
	if f.err != nil {
		return nil, f.err
	}
	var out []domain.RoomMember
	for _, userID := range f.members[roomID] {
		out = append(out, domain.RoomMember{UserID: userID, RoomID: roomID})
	}
	return out, nil
}

func (f *fakeMembers) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	for _, id := range f.members[roomID] {
		if id == userID {
			return true, nil
		}
	}
	return false, nil
}

type fakeAlarmRepo struct {
	mu        sync.Mutex
	alarms    map[string]*domain.Alarm
	sweepErr  error
	swept     int64
	sweepRuns int
}

func newFakeAlarmRepo() *fakeAlarmRepo {
	return &fakeAlarmRepo{alarms: make(map[string]*domain.Alarm)}
}

func (r *fakeAlarmRepo) Save(ctx context.Context, alarm *domain.Alarm) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.alarms[alarm.ID]; !exists {
		r.alarms[alarm.ID] = alarm
	}
	return nil
}

func (r *fakeAlarmRepo) GetByID(ctx context.Context, id string) (*domain.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	alarm, ok := r.alarms[id]
	if !ok {
		return nil, domain.ErrAlarmNotFound
	}
	copied := *alarm
	return &copied, nil
}

func (r *fakeAlarmRepo) GetByRecipient(ctx context.Context, userID int64) ([]domain.Alarm, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Alarm, 0)
	for _, alarm := range r.alarms {
		if alarm.RecipientID == userID {
			out = append(out, *alarm)
		}
	}
	return out, nil
}

func (r *fakeAlarmRepo) MarkRead(ctx context.Context, id string, at time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	alarm, ok := r.alarms[id]
	if !ok {
		return domain.ErrAlarmNotFound
	}
	alarm.MarkRead(at)
	return nil
}

func (r *fakeAlarmRepo) DeleteExpired(ctx context.Context, readBefore, unreadBefore time.Time) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sweepRuns++
	if r.sweepErr != nil {
		return 0, r.sweepErr
	}
	return r.swept, nil
}
