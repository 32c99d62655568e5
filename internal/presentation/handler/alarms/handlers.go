package alarms

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/json"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/validate"
	"github.com/wooyoung-dev/petmeet/internal/presentation/utils"
	"github.com/wooyoung-dev/petmeet/internal/service"
)

type Handler struct {
	alarms            *service.AlarmService
	logger            logging.Logger
	keepAliveInterval time.Duration
	idleTimeout       time.Duration
}

func NewHandler(alarms *service.AlarmService, logger logging.Logger, keepAliveInterval, idleTimeout time.Duration) *Handler {
	return &Handler{
		alarms:            alarms,
		logger:            logger,
		keepAliveInterval: keepAliveInterval,
		idleTimeout:       idleTimeout,
	}
}

// StreamHandler holds the caller's long-lived event-stream connection open
// and blocks until the client disconnects, a push write fails, or the idle
// timeout fires. Clients that were dropped reconnect here and backfill any
// gap through the alarm listing.
func (h *Handler) StreamHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.UserIDFromRequest(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, err, "Missing or invalid authentication")
		return
	}

	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")
	w.Header().Set("X-Accel-Buffering", "no")
	w.WriteHeader(http.StatusOK)

	emitter, err := h.alarms.Connect(w, userID, r.Header.Get("Last-Event-ID"))
	if err != nil {
		h.logger.Warn(logging.SSE, logging.Streaming, "initial frame write failed", map[logging.ExtraKey]any{
			logging.RecipientID:  userID,
			logging.ErrorMessage: err.Error(),
		})
		return
	}

	h.logger.Info(logging.SSE, logging.Streaming, "stream opened", map[logging.ExtraKey]any{
		logging.EmitterID:   emitter.ID,
		logging.RecipientID: userID,
	})

	keepAlive := time.NewTicker(h.keepAliveInterval)
	defer keepAlive.Stop()
	idle := time.NewTimer(h.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case <-r.Context().Done():
			emitter.Complete()
			h.alarms.Disconnect(emitter)
			h.logger.Info(logging.SSE, logging.Streaming, "stream closed by client", map[logging.ExtraKey]any{
				logging.EmitterID: emitter.ID,
			})
			return

		case <-emitter.Done():
			// Reached on a failed push write or on server drain, when every
			// registered emitter is completed.
			h.alarms.Disconnect(emitter)
			h.logger.Info(logging.SSE, logging.Streaming, "stream closed", map[logging.ExtraKey]any{
				logging.EmitterID: emitter.ID,
			})
			return

		case <-idle.C:
			emitter.Expire()
			h.alarms.Disconnect(emitter)
			h.logger.Info(logging.SSE, logging.Streaming, "stream expired", map[logging.ExtraKey]any{
				logging.EmitterID: emitter.ID,
			})
			return

		case <-keepAlive.C:
			if err := h.alarms.KeepAlive(emitter); err != nil {
				h.alarms.Disconnect(emitter)
				return
			}
		}
	}
}

// CreateAlarmHandler accepts an alarm from another backend service and
// publishes it toward the recipient's topic. It answers 202: the row is
// durable only after the user's listener consumes the event.
func (h *Handler) CreateAlarmHandler(w http.ResponseWriter, r *http.Request) {
	var req createAlarmRequest
	if err := json.Read(r, &req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	if err := validate.Struct(req); err != nil {
		json.WriteValidationError(w, err)
		return
	}

	alarmID, err := h.alarms.Notify(r.Context(), req.RecipientID, domain.AlarmKind(req.Kind), req.Content, req.RedirectTarget)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusAccepted, createAlarmResponse{AlarmID: alarmID})
}

// ListAlarmsHandler returns the caller's alarms, newest first. A user with
// no alarms gets an empty list.
func (h *Handler) ListAlarmsHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.UserIDFromRequest(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, err, "Missing or invalid authentication")
		return
	}

	alarms, err := h.alarms.ListAlarms(r.Context(), userID)
	if err != nil {
		json.WriteInternalError(w, err)
		return
	}

	json.Write(w, http.StatusOK, listAlarmsResponse{Alarms: toAlarmResponses(alarms)})
}

// ReadAlarmHandler acknowledges one alarm for the caller. Acknowledging an
// already-read alarm succeeds without changing anything.
func (h *Handler) ReadAlarmHandler(w http.ResponseWriter, r *http.Request) {
	userID, err := utils.UserIDFromRequest(r)
	if err != nil {
		json.WriteError(w, http.StatusUnauthorized, err, "Missing or invalid authentication")
		return
	}

	alarmID := chi.URLParam(r, "alarmId")
	if alarmID == "" {
		json.WriteValidationError(w, errors.New("alarm ID is missing"))
		return
	}

	if err := h.alarms.ReadAlarm(r.Context(), alarmID, userID); err != nil {
		switch {
		case errors.Is(err, domain.ErrAlarmNotFound):
			json.WriteError(w, http.StatusNotFound, err, "Alarm not found")
		case errors.Is(err, domain.ErrAlarmNotOwned):
			json.WriteError(w, http.StatusForbidden, err, "This alarm belongs to another user")
		default:
			json.WriteInternalError(w, err)
		}
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
