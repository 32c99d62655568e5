package domain

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var (
	ErrAlarmNotFound = errors.New("alarm not found")
	ErrAlarmNotOwned = errors.New("alarm does not belong to caller")
)

// AlarmKind tags the variant of an alarm.
type AlarmKind string

const (
	AlarmNewMessage AlarmKind = "new_message"
	AlarmNewMeeting AlarmKind = "new_meeting"
	AlarmNewComment AlarmKind = "new_comment"
	AlarmNewMember  AlarmKind = "new_member"
)

// Alarm is a durable per-user notification. It is created on consumption
// from the broker and mutated only by the read acknowledgement; the
// retention sweep removes it once it is old enough.
type Alarm struct {
	ID             string     `gorm:"primaryKey;size:64" json:"id"`
	RecipientID    int64      `gorm:"index:idx_alarms_recipient;not null" json:"recipientId"`
	Content        string     `gorm:"size:500;not null" json:"content"`
	RedirectTarget string     `gorm:"size:255" json:"redirectTarget"`
	Kind           AlarmKind  `gorm:"size:32;not null" json:"kind"`
	IsRead         bool       `gorm:"not null;default:false" json:"isRead"`
	ReadAt         *time.Time `json:"readAt,omitempty"`
	CreatedAt      time.Time  `gorm:"index" json:"createdAt"`
}

func (Alarm) TableName() string { return "alarms" }

// AlarmRepository persists alarms. Save must tolerate duplicate ids
// (at-least-once redelivery) without creating a second row or overwriting
// the first one.
type AlarmRepository interface {
	Save(ctx context.Context, alarm *Alarm) error
	GetByID(ctx context.Context, id string) (*Alarm, error)
	GetByRecipient(ctx context.Context, userID int64) ([]Alarm, error)
	MarkRead(ctx context.Context, id string, at time.Time) error
	DeleteExpired(ctx context.Context, readBefore, unreadBefore time.Time) (int64, error)
}

func NewAlarm(id string, recipientID int64, kind AlarmKind, content, redirectTarget string) *Alarm {
	if id == "" {
		id = uuid.NewString()
	}
	return &Alarm{
		ID:             id,
		RecipientID:    recipientID,
		Content:        content,
		RedirectTarget: redirectTarget,
		Kind:           kind,
		CreatedAt:      time.Now().UTC(),
	}
}

// MarkRead is idempotent: acknowledging an already-read alarm keeps the
// original read timestamp.
func (a *Alarm) MarkRead(at time.Time) {
	if a.IsRead {
		return
	}
	a.IsRead = true
	a.ReadAt = &at
}

// OwnedBy reports whether userID may acknowledge this alarm.
func (a *Alarm) OwnedBy(userID int64) bool {
	return a.RecipientID == userID
}
