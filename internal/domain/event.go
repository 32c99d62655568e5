package domain

import "time"

// EventKind tags the variant carried by a broker envelope. The set is
// closed: consumers switch on it rather than sniffing fields.
type EventKind string

const (
	EventChatMessage     EventKind = "chat.message"
	EventAlarmNewMessage EventKind = "alarm.new_message"
	EventAlarmNewMeeting EventKind = "alarm.new_meeting"
	EventAlarmNewComment EventKind = "alarm.new_comment"
	EventAlarmNewMember  EventKind = "alarm.new_member"
)

// ChatMessageEvent is the broker payload for one room message.
type ChatMessageEvent struct {
	MessageID    string       `json:"messageId"`
	RoomID       int64        `json:"roomId"`
	SenderID     int64        `json:"senderId"`
	SenderName   string       `json:"senderName"`
	SenderAvatar string       `json:"senderAvatar,omitempty"`
	Content      string       `json:"content"`
	ContentType  ContentType  `json:"contentType"`
	Attachments  []string     `json:"attachments,omitempty"`
	LinkPreview  *LinkPreview `json:"linkPreview,omitempty"`
	CreatedAt    time.Time    `json:"createdAt"`
}

// AlarmEvent is the broker payload for one user notification.
type AlarmEvent struct {
	AlarmID        string    `json:"alarmId"`
	RecipientID    int64     `json:"recipientId"`
	Content        string    `json:"content"`
	RedirectTarget string    `json:"redirectTarget,omitempty"`
	Kind           AlarmKind `json:"kind"`
	CreatedAt      time.Time `json:"createdAt"`
}

// EventKindFor maps an alarm kind to its envelope tag.
func EventKindFor(kind AlarmKind) EventKind {
	switch kind {
	case AlarmNewMeeting:
		return EventAlarmNewMeeting
	case AlarmNewComment:
		return EventAlarmNewComment
	case AlarmNewMember:
		return EventAlarmNewMember
	default:
		return EventAlarmNewMessage
	}
}

// IsAlarmKind reports whether the envelope tag belongs to the alarm family.
func (k EventKind) IsAlarmKind() bool {
	switch k {
	case EventAlarmNewMessage, EventAlarmNewMeeting, EventAlarmNewComment, EventAlarmNewMember:
		return true
	}
	return false
}

// AlarmKindFor is the inverse of EventKindFor.
func AlarmKindFor(kind EventKind) AlarmKind {
	switch kind {
	case EventAlarmNewMeeting:
		return AlarmNewMeeting
	case EventAlarmNewComment:
		return AlarmNewComment
	case EventAlarmNewMember:
		return AlarmNewMember
	default:
		return AlarmNewMessage
	}
}
