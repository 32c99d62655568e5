package service

import (
	"context"
	"fmt"

	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/events"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/profanity"
)

// SendMessageInput carries a validated send request into the chat facade.
// SenderName and SenderAvatar are the caller's display snapshot at send
// time; they ride along so history survives later profile changes.
type SendMessageInput struct {
	MessageID    string
	Content      string
	ContentType  domain.ContentType
	Attachments  []string
	LinkPreview  *domain.LinkPreview
	SenderName   string
	SenderAvatar string
}

// ChatService validates sends and hands them to the broker. The returned
// message id is provisional: the durable record appears once the room's
// consumer processes the event.
type ChatService struct {
	publisher *events.EventPublisher
	messages  domain.ChatMessageRepository
	members   domain.RoomMembershipReader
	filter    *profanity.Filter
	logger    logging.Logger
}

func NewChatService(
	publisher *events.EventPublisher,
	messages domain.ChatMessageRepository,
	members domain.RoomMembershipReader,
	filter *profanity.Filter,
	logger logging.Logger,
) *ChatService {
	return &ChatService{
		publisher: publisher,
		messages:  messages,
		members:   members,
		filter:    filter,
		logger:    logger,
	}
}

func (s *ChatService) SendMessage(ctx context.Context, senderID, roomID int64, in SendMessageInput) (string, error) {
	ok, err := s.members.IsMember(ctx, roomID, senderID)
	if err != nil {
		return "", fmt.Errorf("membership check: %w", err)
	}
	if !ok {
		return "", domain.ErrNotRoomMember
	}

	msg, err := domain.NewChatMessage(
		in.MessageID,
		roomID,
		senderID,
		in.SenderName,
		in.SenderAvatar,
		s.filter.Mask(in.Content),
		in.ContentType,
		in.Attachments,
	)
	if err != nil {
		return "", err
	}
	msg.LinkPreview = in.LinkPreview

	ev := domain.ChatMessageEvent{
		MessageID:    msg.ID,
		RoomID:       msg.RoomID,
		SenderID:     msg.SenderID,
		SenderName:   msg.SenderName,
		SenderAvatar: msg.SenderAvatar,
		Content:      msg.Content,
		ContentType:  msg.ContentType,
		Attachments:  msg.Attachments,
		LinkPreview:  msg.LinkPreview,
		CreatedAt:    msg.CreatedAt,
	}

	if err := s.publisher.PublishChatMessage(ctx, ev); err != nil {
		return "", err
	}

	return msg.ID, nil
}

func (s *ChatService) ListRoomMessages(ctx context.Context, userID, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	if err := s.requireMembership(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.messages.GetByRoomID(ctx, roomID, page, size)
}

func (s *ChatService) ListMediaMessages(ctx context.Context, userID, roomID int64, page, size int) ([]domain.ChatMessage, error) {
	if err := s.requireMembership(ctx, roomID, userID); err != nil {
		return nil, err
	}
	return s.messages.GetMediaByRoomID(ctx, roomID, page, size)
}

func (s *ChatService) requireMembership(ctx context.Context, roomID, userID int64) error {
	ok, err := s.members.IsMember(ctx, roomID, userID)
	if err != nil {
		return fmt.Errorf("membership check: %w", err)
	}
	if !ok {
		return domain.ErrNotRoomMember
	}
	return nil
}
