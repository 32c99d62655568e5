package messages

import (
	"time"

	"github.com/wooyoung-dev/petmeet/internal/domain"
)

// sendMessageRequest represents the request to send a chat message.
// MessageID is optional; clients that set it (for send retries) get the
// same durable record no matter how many times the send is repeated.
type sendMessageRequest struct {
	MessageID    string              `json:"messageId" validate:"omitempty,uuid4"`
	Content      string              `json:"content" validate:"max=5000"`
	ContentType  string              `json:"contentType" validate:"omitempty,oneof=text image file link"`
	Attachments  []string            `json:"attachments" validate:"omitempty,max=10,dive,url"`
	LinkPreview  *linkPreviewPayload `json:"linkPreview" validate:"omitempty"`
	SenderName   string              `json:"senderName" validate:"required,max=100"`
	SenderAvatar string              `json:"senderAvatar" validate:"omitempty,url"`
}

// linkPreviewPayload is the unfurled metadata of a link message, produced
// by the sending client and carried through to history unchanged.
type linkPreviewPayload struct {
	URL         string `json:"url" validate:"required,url"`
	Title       string `json:"title" validate:"required,max=200"`
	Description string `json:"description" validate:"omitempty,max=500"`
	ImageURL    string `json:"imageUrl" validate:"omitempty,url"`
}

// sendMessageResponse carries the provisional message id; the durable
// record appears once the room's listener consumes the event.
type sendMessageResponse struct {
	MessageID string `json:"messageId"`
}

type messageResponse struct {
	ID           string              `json:"id"`
	RoomID       int64               `json:"roomId"`
	SenderID     int64               `json:"senderId"`
	SenderName   string              `json:"senderName"`
	SenderAvatar string              `json:"senderAvatar,omitempty"`
	Content      string              `json:"content"`
	ContentType  string              `json:"contentType"`
	Attachments  []string            `json:"attachments,omitempty"`
	LinkPreview  *linkPreviewPayload `json:"linkPreview,omitempty"`
	CreatedAt    time.Time           `json:"createdAt"`
}

type listMessagesResponse struct {
	Messages []messageResponse `json:"messages"`
	Page     int               `json:"page"`
	Size     int               `json:"size"`
}

func toMessageResponses(msgs []domain.ChatMessage) []messageResponse {
	mapped := make([]messageResponse, 0, len(msgs))
	for _, m := range msgs {
		mapped = append(mapped, messageResponse{
			ID:           m.ID,
			RoomID:       m.RoomID,
			SenderID:     m.SenderID,
			SenderName:   m.SenderName,
			SenderAvatar: m.SenderAvatar,
			Content:      m.Content,
			ContentType:  string(m.ContentType),
			Attachments:  m.Attachments,
			LinkPreview:  toLinkPreviewPayload(m.LinkPreview),
			CreatedAt:    m.CreatedAt,
		})
	}
	return mapped
}

func toLinkPreviewPayload(p *domain.LinkPreview) *linkPreviewPayload {
	if p == nil {
		return nil
	}
	return &linkPreviewPayload{
		URL:         p.URL,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
}

func toLinkPreview(p *linkPreviewPayload) *domain.LinkPreview {
	if p == nil {
		return nil
	}
	return &domain.LinkPreview{
		URL:         p.URL,
		Title:       p.Title,
		Description: p.Description,
		ImageURL:    p.ImageURL,
	}
}
