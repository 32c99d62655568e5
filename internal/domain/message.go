package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

const maxMessageLength = 5000

var (
	ErrMessageNotFound = errors.New("message not found")
	ErrEmptyMessage    = errors.New("message content is empty")
	ErrMessageTooLong  = errors.New("message content is too long")
)

// ContentType classifies what a chat message carries.
type ContentType string

const (
	ContentText  ContentType = "text"
	ContentImage ContentType = "image"
	ContentFile  ContentType = "file"
	ContentLink  ContentType = "link"
)

// LinkPreview is the unfurled metadata of the first link in a message.
type LinkPreview struct {
	URL         string `bson:"url" json:"url"`
	Title       string `bson:"title" json:"title"`
	Description string `bson:"description,omitempty" json:"description,omitempty"`
	ImageURL    string `bson:"image_url,omitempty" json:"imageUrl,omitempty"`
}

// ChatMessage is the durable record of one delivered room message. It is
// written exactly once per message id on first successful consumption from
// the broker and never mutated afterwards; the store expires it after the
// retention window.
type ChatMessage struct {
	ID           string       `bson:"_id" json:"id"`
	RoomID       int64        `bson:"room_id" json:"roomId"`
	SenderID     int64        `bson:"sender_id" json:"senderId"`
	SenderName   string       `bson:"sender_name" json:"senderName"`
	SenderAvatar string       `bson:"sender_avatar,omitempty" json:"senderAvatar,omitempty"`
	Content      string       `bson:"content" json:"content"`
	ContentType  ContentType  `bson:"content_type" json:"contentType"`
	Attachments  []string     `bson:"attachments,omitempty" json:"attachments,omitempty"`
	LinkPreview  *LinkPreview `bson:"link_preview,omitempty" json:"linkPreview,omitempty"`
	CreatedAt    time.Time    `bson:"created_at" json:"createdAt"`
}

// ChatMessageRepository persists chat messages. Save must be an idempotent
// upsert keyed by the message id so broker redeliveries cannot create
// duplicate records.
type ChatMessageRepository interface {
	Save(ctx context.Context, msg *ChatMessage) error
	GetByRoomID(ctx context.Context, roomID int64, page, size int) ([]ChatMessage, error)
	GetMediaByRoomID(ctx context.Context, roomID int64, page, size int) ([]ChatMessage, error)
	EnsureIndexes(ctx context.Context) error
}

func NewChatMessage(id string, roomID, senderID int64, senderName, senderAvatar, content string, contentType ContentType, attachments []string) (*ChatMessage, error) {
	if content == "" && len(attachments) == 0 {
		return nil, ErrEmptyMessage
	}
	if len(content) > maxMessageLength {
		return nil, ErrMessageTooLong
	}
	if contentType == "" {
		contentType = ContentText
	}
	if id == "" {
		id = uuid.NewString()
	}

	return &ChatMessage{
		ID:           id,
		RoomID:       roomID,
		SenderID:     senderID,
		SenderName:   senderName,
		SenderAvatar: senderAvatar,
		Content:      content,
		ContentType:  contentType,
		Attachments:  attachments,
		CreatedAt:    time.Now().UTC(),
	}, nil
}

// HasMedia reports whether the message should show up in media listings.
func (m *ChatMessage) HasMedia() bool {
	return m.ContentType != ContentText || len(m.Attachments) > 0
}
