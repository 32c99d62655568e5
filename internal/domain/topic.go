package domain

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// TopicKind selects the fan-out family a topic belongs to.
type TopicKind string

const (
	TopicRoom TopicKind = "room"
	TopicUser TopicKind = "user"
)

const (
	ChatExchange  = "chat"
	AlarmExchange = "alarm"
)

var ErrInvalidTopic = errors.New("invalid topic")

// Topic identifies a single fan-out destination: one chat room or one user.
// Its routing key and queue name are stable for the topic's lifetime, so
// declaring them repeatedly on the broker is a no-op.
type Topic struct {
	Kind TopicKind
	ID   int64
}

func RoomTopic(roomID int64) Topic {
	return Topic{Kind: TopicRoom, ID: roomID}
}

func UserTopic(userID int64) Topic {
	return Topic{Kind: TopicUser, ID: userID}
}

// RoutingKey is "room.<id>" or "user.<id>".
func (t Topic) RoutingKey() string {
	return fmt.Sprintf("%s.%d", t.Kind, t.ID)
}

// QueueName matches the routing key so one queue maps to one topic.
func (t Topic) QueueName() string {
	return t.RoutingKey()
}

// Exchange returns the event-family exchange the topic binds to.
func (t Topic) Exchange() string {
	if t.Kind == TopicRoom {
		return ChatExchange
	}
	return AlarmExchange
}

func (t Topic) Validate() error {
	if t.Kind != TopicRoom && t.Kind != TopicUser {
		return fmt.Errorf("%w: unknown kind %q", ErrInvalidTopic, t.Kind)
	}
	if t.ID <= 0 {
		return fmt.Errorf("%w: non-positive id %d", ErrInvalidTopic, t.ID)
	}
	return nil
}

// ParseTopic is the inverse of RoutingKey.
func ParseTopic(s string) (Topic, error) {
	kind, rawID, found := strings.Cut(s, ".")
	if !found {
		return Topic{}, fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}

	id, err := strconv.ParseInt(rawID, 10, 64)
	if err != nil {
		return Topic{}, fmt.Errorf("%w: %q", ErrInvalidTopic, s)
	}

	t := Topic{Kind: TopicKind(kind), ID: id}
	if err := t.Validate(); err != nil {
		return Topic{}, err
	}
	return t, nil
}
