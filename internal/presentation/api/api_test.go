package api

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/configs"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/events"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/messaging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/metrics"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/profanity"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/ratelimiter"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/sse"
	alarmsHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/alarms"
	healthHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/health"
	messagesHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/messages"
	topicsHandler "github.com/wooyoung-dev/petmeet/internal/presentation/handler/topics"
	"github.com/wooyoung-dev/petmeet/internal/service"
)

type stubBroker struct{}

func (stubBroker) EnsureTopic(ctx context.Context, topic domain.Topic) error { return nil }
func (stubBroker) Publish(ctx context.Context, topic domain.Topic, correlationID string, body []byte) error {
	return nil
}
func (stubBroker) Subscribe(topic domain.Topic, handler messaging.DeliveryHandler) (messaging.Subscription, error) {
	return nil, nil
}
func (stubBroker) Close() error { return nil }

type stubMessageRepo struct{}

func (stubMessageRepo) Save(ctx context.Context, msg *domain.ChatMessage) error { return nil }
func (stubMessageRepo) GetByRoomID(ctx context.Context, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	return nil, nil
}
func (stubMessageRepo) GetMediaByRoomID(ctx context.Context, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	return nil, nil
}
func (stubMessageRepo) EnsureIndexes(ctx context.Context) error { return nil }

type stubAlarmRepo struct{}

func (stubAlarmRepo) Save(ctx context.Context, alarm *domain.Alarm) error { return nil }
func (stubAlarmRepo) GetByID(ctx context.Context, id string) (*domain.Alarm, error) {
	return nil, domain.ErrAlarmNotFound
}
func (stubAlarmRepo) GetByRecipient(ctx context.Context, userID int64) ([]domain.Alarm, error) {
	return nil, nil
}
func (stubAlarmRepo) MarkRead(ctx context.Context, id string, at time.Time) error { return nil }
func (stubAlarmRepo) DeleteExpired(ctx context.Context, readBefore, unreadBefore time.Time) (int64, error) {
	return 0, nil
}

type stubMembers struct{}

func (stubMembers) Members(ctx context.Context, roomID int64) ([]domain.RoomMember, error) {
	return nil, nil
}
func (stubMembers) IsMember(ctx context.Context, roomID, userID int64) (bool, error) {
	return false, nil
}

func newTestApplication(t *testing.T) *Application {
	t.Helper()

	cfg, err := configs.Load("")
	require.NoError(t, err)

	logger := logging.NewNopLogger()
	m := metrics.NewWith(prometheus.NewRegistry())
	registry := sse.NewRegistry()

	publisher := events.NewEventPublisher(stubBroker{}, logger, m)
	dispatcher := events.NewPushDispatcher(stubMessageRepo{}, stubAlarmRepo{}, stubMembers{}, registry, logger, m)
	consumers := events.NewConsumerRegistry(stubBroker{}, dispatcher, logger, m)

	chatService := service.NewChatService(publisher, stubMessageRepo{}, stubMembers{}, profanity.NewFilter(), logger)
	alarmService := service.NewAlarmService(stubAlarmRepo{}, registry, publisher, logger, m, time.Hour)

	return NewApplication(
		cfg,
		messagesHandler.NewHandler(chatService),
		alarmsHandler.NewHandler(alarmService, logger, time.Hour, time.Hour),
		topicsHandler.NewHandler(consumers),
		healthHandler.NewHandler(nil, nil),
		registry,
		logger,
		ratelimiter.New(ratelimiter.Options{MaxRatePerSecond: 1000, MaxBurst: 1000}),
	)
}

func TestMountServesDocumentedRoutes(t *testing.T) {
	mux := newTestApplication(t).Mount()

	// Unauthenticated requests reach the handler and get 401; an unmounted
	// path would answer 404 instead.
	for _, path := range []string{
		"/api/alarms/connect",
		"/api/alarms",
		"/api/rooms/1/messages",
		"/api/rooms/1/messages/media",
	} {
		rec := httptest.NewRecorder()
		mux.ServeHTTP(rec, httptest.NewRequest("GET", path, nil))
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := httptest.NewRecorder()
	mux.ServeHTTP(rec, httptest.NewRequest("GET", "/api/health", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
}
