package topics

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/events"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/json"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/validate"
	"github.com/wooyoung-dev/petmeet/internal/presentation/utils"
)

// Handler exposes topic provisioning to the backend modules that create
// rooms and users. Provisioning is idempotent, so callers may retry freely.
type Handler struct {
	consumers *events.ConsumerRegistry
}

func NewHandler(consumers *events.ConsumerRegistry) *Handler {
	return &Handler{consumers: consumers}
}

type provisionTopicRequest struct {
	Kind string `json:"kind" validate:"required,oneof=room user"`
	ID   int64  `json:"id" validate:"required,gt=0"`
}

type topicResponse struct {
	RoutingKey string `json:"routingKey"`
}

type listTopicsResponse struct {
	Topics []string `json:"topics"`
}

// ProvisionHandler declares the topic's queue on the broker and attaches
// its listener.
func (h *Handler) ProvisionHandler(w http.ResponseWriter, r *http.Request) {
	var req provisionTopicRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validate.Struct(req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	topic := domain.Topic{Kind: domain.TopicKind(req.Kind), ID: req.ID}
	if err := h.consumers.Register(r.Context(), topic); err != nil {
		switch {
		case errors.Is(err, domain.ErrInvalidTopic):
			json.WriteValidationError(w, err)
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	json.Write(w, http.StatusCreated, topicResponse{RoutingKey: topic.RoutingKey()})
}

// DeprovisionHandler detaches the topic's listener. The queue stays on the
// broker so undelivered events survive until the topic is re-provisioned.
func (h *Handler) DeprovisionHandler(w http.ResponseWriter, r *http.Request) {
	kind := chi.URLParam(r, "kind")

	id, err := utils.PathInt64(chi.URLParam(r, "id"))
	if err != nil {
		json.WriteValidationError(w, err)
		return
	}

	topic := domain.Topic{Kind: domain.TopicKind(kind), ID: id}
	if err := topic.Validate(); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := h.consumers.Deregister(topic); err != nil {
		json.WriteInternalError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// ListTopicsHandler reports the topics with a live listener in this
// process.
func (h *Handler) ListTopicsHandler(w http.ResponseWriter, r *http.Request) {
	json.Write(w, http.StatusOK, listTopicsResponse{Topics: h.consumers.Topics()})
}
