package service

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/events"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/metrics"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/sse"
)

// AlarmService is the facade over the alarm store and the live emitter
// registry: it opens streaming connections, answers reads and
// acknowledgements, and runs the retention sweep.
type AlarmService struct {
	alarms    domain.AlarmRepository
	registry  *sse.Registry
	publisher *events.EventPublisher
	logger    logging.Logger
	metrics   *metrics.Metrics

	idleTimeout time.Duration
}

func NewAlarmService(
	alarms domain.AlarmRepository,
	registry *sse.Registry,
	publisher *events.EventPublisher,
	logger logging.Logger,
	m *metrics.Metrics,
	idleTimeout time.Duration,
) *AlarmService {
	return &AlarmService{
		alarms:      alarms,
		registry:    registry,
		publisher:   publisher,
		logger:      logger,
		metrics:     m,
		idleTimeout: idleTimeout,
	}
}

// Connect registers a fresh emitter for the caller and immediately pushes
// the synthetic keep-alive frame so intermediary proxies see traffic before
// any real event arrives.
//
// lastEventID is accepted for protocol compatibility but missed pushes are
// not replayed through the stream; clients reconcile gaps through
// ListAlarms.
func (s *AlarmService) Connect(w io.Writer, userID int64, lastEventID string) (*sse.Emitter, error) {
	emitter := s.registry.Save(sse.NewEmitter(userID, w, s.idleTimeout))
	s.metrics.ActiveEmitters.Set(float64(s.registry.Len()))

	if lastEventID != "" {
		s.logger.Debug(logging.SSE, logging.Streaming, "client reconnected with last event id", map[logging.ExtraKey]any{
			logging.EmitterID: emitter.ID,
			"last_event_id":   lastEventID,
		})
	}

	if err := emitter.Send(sse.Event{ID: emitter.ID, Data: sse.KeepAlive{KeepAlive: true}}); err != nil {
		s.Disconnect(emitter)
		return nil, err
	}

	return emitter, nil
}

// KeepAlive pushes a heartbeat frame on an open emitter.
func (s *AlarmService) KeepAlive(emitter *sse.Emitter) error {
	return emitter.Send(sse.Event{ID: emitter.ID, Data: sse.KeepAlive{KeepAlive: true}})
}

// Disconnect removes the emitter from the registry whatever terminal state
// it reached.
func (s *AlarmService) Disconnect(emitter *sse.Emitter) {
	s.registry.DeleteByID(emitter.ID)
	s.metrics.ActiveEmitters.Set(float64(s.registry.Len()))
}

// Notify builds and publishes an alarm event toward the recipient's topic.
// The durable row and any live push happen on the consumption side.
func (s *AlarmService) Notify(ctx context.Context, recipientID int64, kind domain.AlarmKind, content, redirectTarget string) (string, error) {
	ev := domain.AlarmEvent{
		AlarmID:        uuid.NewString(),
		RecipientID:    recipientID,
		Content:        content,
		RedirectTarget: redirectTarget,
		Kind:           kind,
		CreatedAt:      time.Now().UTC(),
	}

	if err := s.publisher.PublishAlarm(ctx, ev); err != nil {
		return "", err
	}

	return ev.AlarmID, nil
}

// ListAlarms returns the caller's alarms, newest first. An empty inbox is
// an empty list, not an error.
func (s *AlarmService) ListAlarms(ctx context.Context, userID int64) ([]domain.Alarm, error) {
	return s.alarms.GetByRecipient(ctx, userID)
}

// ReadAlarm acknowledges one alarm. Only the recipient may acknowledge,
// and acknowledging twice keeps the first read timestamp.
func (s *AlarmService) ReadAlarm(ctx context.Context, alarmID string, userID int64) error {
	alarm, err := s.alarms.GetByID(ctx, alarmID)
	if err != nil {
		return err
	}

	if !alarm.OwnedBy(userID) {
		return domain.ErrAlarmNotOwned
	}

	if alarm.IsRead {
		return nil
	}

	return s.alarms.MarkRead(ctx, alarmID, time.Now().UTC())
}

// RunRetentionSweeper deletes old alarms on a fixed interval until ctx is
// cancelled. Read alarms expire sooner than unread ones.
func (s *AlarmService) RunRetentionSweeper(ctx context.Context, interval, readTTL, unreadTTL time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			now := time.Now().UTC()
			swept, err := s.alarms.DeleteExpired(ctx, now.Add(-readTTL), now.Add(-unreadTTL))
			if err != nil {
				s.logger.Error(logging.Postgres, logging.Retention, "alarm sweep failed", map[logging.ExtraKey]any{
					logging.ErrorMessage: err.Error(),
				})
				continue
			}

			if swept > 0 {
				s.metrics.AlarmsSwept.Add(float64(swept))
				s.logger.Info(logging.Postgres, logging.Retention, "alarm sweep completed", map[logging.ExtraKey]any{
					"swept": swept,
				})
			}
		}
	}
}
