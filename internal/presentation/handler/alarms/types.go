package alarms

import (
	"time"

	"github.com/wooyoung-dev/petmeet/internal/domain"
)

// createAlarmRequest is posted by other backend services when something
// noteworthy happens outside the chat path (meetings, comments, joins).
type createAlarmRequest struct {
	RecipientID    int64  `json:"recipientId" validate:"required,gt=0"`
	Kind           string `json:"kind" validate:"required,oneof=new_message new_meeting new_comment new_member"`
	Content        string `json:"content" validate:"required,max=500"`
	RedirectTarget string `json:"redirectTarget" validate:"omitempty,max=255"`
}

type createAlarmResponse struct {
	AlarmID string `json:"alarmId"`
}

type alarmResponse struct {
	ID             string     `json:"id"`
	Kind           string     `json:"kind"`
	Content        string     `json:"content"`
	RedirectTarget string     `json:"redirectTarget,omitempty"`
	IsRead         bool       `json:"isRead"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
}

type listAlarmsResponse struct {
	Alarms []alarmResponse `json:"alarms"`
}

func toAlarmResponses(alarms []domain.Alarm) []alarmResponse {
	mapped := make([]alarmResponse, 0, len(alarms))
	for _, a := range alarms {
		mapped = append(mapped, alarmResponse{
			ID:             a.ID,
			Kind:           string(a.Kind),
			Content:        a.Content,
			RedirectTarget: a.RedirectTarget,
			IsRead:         a.IsRead,
			ReadAt:         a.ReadAt,
			CreatedAt:      a.CreatedAt,
		})
	}
	return mapped
}
