package events

import (
	"context"
	"fmt"
	"time"

	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/metrics"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/sse"
)

// PushDispatcher turns a consumed broker event into durable state plus
// zero-or-more live pushes. Persistence happens first so a crash between
// persist and push loses at most the push, never the record.
type PushDispatcher struct {
	messages domain.ChatMessageRepository
	alarms   domain.AlarmRepository
	members  domain.RoomMembershipReader
	registry *sse.Registry
	logger   logging.Logger
	metrics  *metrics.Metrics
}

func NewPushDispatcher(
	messages domain.ChatMessageRepository,
	alarms domain.AlarmRepository,
	members domain.RoomMembershipReader,
	registry *sse.Registry,
	logger logging.Logger,
	m *metrics.Metrics,
) *PushDispatcher {
	return &PushDispatcher{
		messages: messages,
		alarms:   alarms,
		members:  members,
		registry: registry,
		logger:   logger,
		metrics:  m,
	}
}

// OnChatMessageConsumed persists the message, then pushes a new-message
// alarm frame to every open connection of every non-temporary room member
// except the sender.
func (d *PushDispatcher) OnChatMessageConsumed(ctx context.Context, ev domain.ChatMessageEvent) error {
	msg := &domain.ChatMessage{
		ID:           ev.MessageID,
		RoomID:       ev.RoomID,
		SenderID:     ev.SenderID,
		SenderName:   ev.SenderName,
		SenderAvatar: ev.SenderAvatar,
		Content:      ev.Content,
		ContentType:  ev.ContentType,
		Attachments:  ev.Attachments,
		LinkPreview:  ev.LinkPreview,
		CreatedAt:    ev.CreatedAt,
	}

	if err := d.messages.Save(ctx, msg); err != nil {
		return fmt.Errorf("persist chat message %s: %w", ev.MessageID, err)
	}

	members, err := d.members.Members(ctx, ev.RoomID)
	if err != nil {
		// The message is durable already; recipients can backfill from
		// history, so a membership lookup failure only skips the push.
		d.logger.Error(logging.SSE, logging.Dispatching, "membership lookup failed, skipping push", map[logging.ExtraKey]any{
			logging.TopicKey:     domain.RoomTopic(ev.RoomID).RoutingKey(),
			logging.ErrorMessage: err.Error(),
		})
		return nil
	}

	for _, member := range members {
		if member.UserID == ev.SenderID || !member.ReceivesPush() {
			continue
		}
		d.pushToOwner(member.UserID, domain.AlarmEvent{
			RecipientID:    member.UserID,
			Content:        fmt.Sprintf("%s: %s", ev.SenderName, preview(ev.Content)),
			RedirectTarget: fmt.Sprintf("/rooms/%d", ev.RoomID),
			Kind:           domain.AlarmNewMessage,
			CreatedAt:      ev.CreatedAt,
		})
	}

	return nil
}

// OnAlarmConsumed persists the alarm idempotently, then pushes it to the
// single target user's open connections.
func (d *PushDispatcher) OnAlarmConsumed(ctx context.Context, ev domain.AlarmEvent) error {
	alarm := &domain.Alarm{
		ID:             ev.AlarmID,
		RecipientID:    ev.RecipientID,
		Content:        ev.Content,
		RedirectTarget: ev.RedirectTarget,
		Kind:           ev.Kind,
		CreatedAt:      ev.CreatedAt,
	}

	if err := d.alarms.Save(ctx, alarm); err != nil {
		return fmt.Errorf("persist alarm %s: %w", ev.AlarmID, err)
	}

	d.pushToOwner(ev.RecipientID, ev)
	return nil
}

// pushToOwner writes the frame to every live emitter the owner holds. A
// failed write prunes that one emitter and delivery continues to the rest;
// an owner with no open connection is simply skipped.
func (d *PushDispatcher) pushToOwner(ownerID int64, payload any) {
	emitters := d.registry.FindByOwnerPrefix(ownerID)

	for id, emitter := range emitters {
		frame := sse.Event{
			ID:   fmt.Sprintf("%d_%d", ownerID, time.Now().UnixMilli()),
			Data: payload,
		}

		if err := emitter.Send(frame); err != nil {
			d.registry.DeleteByID(id)
			d.metrics.PushFailures.Inc()
			d.metrics.ActiveEmitters.Set(float64(d.registry.Len()))

			d.logger.Warn(logging.SSE, logging.Dispatching, "push failed, emitter pruned", map[logging.ExtraKey]any{
				logging.EmitterID:    id,
				logging.RecipientID:  ownerID,
				logging.ErrorMessage: err.Error(),
			})
			continue
		}

		d.metrics.PushesDelivered.Inc()
	}
}

func preview(content string) string {
	const max = 50
	if len(content) <= max {
		return content
	}
	return content[:max] + "..."
}
