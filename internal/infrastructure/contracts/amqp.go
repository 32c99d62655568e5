package contracts

import (
	"encoding/json"
	"fmt"

	"github.com/wooyoung-dev/petmeet/internal/domain"
)

// Envelope is the wire structure every broker message is wrapped in. Kind
// tags the variant so consumers can decode Data without field sniffing.
type Envelope struct {
	Kind          domain.EventKind `json:"kind"`
	CorrelationID string           `json:"correlationId,omitempty"`
	Data          json.RawMessage  `json:"data"`
}

func NewChatEnvelope(correlationID string, ev domain.ChatMessageEvent) (Envelope, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal chat event: %w", err)
	}
	return Envelope{Kind: domain.EventChatMessage, CorrelationID: correlationID, Data: data}, nil
}

func NewAlarmEnvelope(correlationID string, ev domain.AlarmEvent) (Envelope, error) {
	data, err := json.Marshal(ev)
	if err != nil {
		return Envelope{}, fmt.Errorf("marshal alarm event: %w", err)
	}
	return Envelope{Kind: domain.EventKindFor(ev.Kind), CorrelationID: correlationID, Data: data}, nil
}

// DecodeChat extracts the chat event; the envelope must carry the chat tag.
func (e Envelope) DecodeChat() (domain.ChatMessageEvent, error) {
	var ev domain.ChatMessageEvent
	if e.Kind != domain.EventChatMessage {
		return ev, fmt.Errorf("envelope kind %q is not a chat event", e.Kind)
	}
	if err := json.Unmarshal(e.Data, &ev); err != nil {
		return ev, fmt.Errorf("decode chat event: %w", err)
	}
	return ev, nil
}

// DecodeAlarm extracts the alarm event; the envelope must carry an alarm tag.
func (e Envelope) DecodeAlarm() (domain.AlarmEvent, error) {
	var ev domain.AlarmEvent
	if !e.Kind.IsAlarmKind() {
		return ev, fmt.Errorf("envelope kind %q is not an alarm event", e.Kind)
	}
	if err := json.Unmarshal(e.Data, &ev); err != nil {
		return ev, fmt.Errorf("decode alarm event: %w", err)
	}
	if ev.Kind == "" {
		ev.Kind = domain.AlarmKindFor(e.Kind)
	}
	return ev, nil
}
