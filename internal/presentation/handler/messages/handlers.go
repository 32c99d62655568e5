package messages

import (
	"context"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/json"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/validate"
	"github.com/wooyoung-dev/petmeet/internal/presentation/utils"
	"github.com/wooyoung-dev/petmeet/internal/service"
)

type Handler struct {
	chat *service.ChatService
}

func NewHandler(chat *service.ChatService) *Handler {
	return &Handler{chat: chat}
}

// SendMessageHandler accepts a chat message and publishes it toward the
// room's topic. It answers 202: the message is durable only after the
// room's listener consumes it.
func (h *Handler) SendMessageHandler(w http.ResponseWriter, r *http.Request) {
	senderID, err := utils.UserIDFromRequest(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, err, "Missing or invalid authentication")
		return
	}

	roomID, err := utils.PathInt64(chi.URLParam(r, "roomId"))
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	var req sendMessageRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validate.Struct(req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	messageID, err := h.chat.SendMessage(r.Context(), senderID, roomID, service.SendMessageInput{
		MessageID:    req.MessageID,
		Content:      req.Content,
		ContentType:  domain.ContentType(req.ContentType),
		Attachments:  req.Attachments,
		LinkPreview:  toLinkPreview(req.LinkPreview),
		SenderName:   req.SenderName,
		SenderAvatar: req.SenderAvatar,
	})
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotRoomMember):
			json.WriteError(w, http.StatusForbidden, err, "You are not a member of this room")
		case errors.Is(err, domain.ErrEmptyMessage), errors.Is(err, domain.ErrMessageTooLong):
			json.WriteValidationError(w, err)
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusAccepted, sendMessageResponse{MessageID: messageID})
}

// ListMessagesHandler returns a room's message history, newest first.
func (h *Handler) ListMessagesHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.chat.ListRoomMessages)
}

// ListMediaHandler returns only the messages carrying media, for gallery
// views.
func (h *Handler) ListMediaHandler(w http.ResponseWriter, r *http.Request) {
	h.list(w, r, h.chat.ListMediaMessages)
}

func (h *Handler) list(
	w http.ResponseWriter,
	r *http.Request,
	fetch func(ctx context.Context, userID, roomID int64, page, size int) ([]domain.ChatMessage, error),
) {
	userID, err := utils.UserIDFromRequest(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, err, "Missing or invalid authentication")
		return
	}

	roomID, err := utils.PathInt64(chi.URLParam(r, "roomId"))
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	page := utils.QueryInt(r, "page", 1)
	size := utils.QueryInt(r, "size", 30)

	msgs, err := fetch(r.Context(), userID, roomID, page, size)
	if err != nil {
		switch {
		case errors.Is(err, domain.ErrNotRoomMember):
			json.WriteError(w, http.StatusForbidden, err, "You are not a member of this room")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusOK, listMessagesResponse{
		Messages: toMessageResponses(msgs),
		Page:     page,
		Size:     size,
	})
}
