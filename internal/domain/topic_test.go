package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTopicRoutingKey(t *testing.T) {
	assert.Equal(t, "room.42", RoomTopic(42).RoutingKey())
	assert.Equal(t, "user.7", UserTopic(7).RoutingKey())
}

func TestTopicQueueNameMatchesRoutingKey(t *testing.T) {
	topic := RoomTopic(99)
	assert.Equal(t, topic.RoutingKey(), topic.QueueName())
}

func TestTopicExchange(t *testing.T) {
	assert.Equal(t, ChatExchange, RoomTopic(1).Exchange())
	assert.Equal(t, AlarmExchange, UserTopic(1).Exchange())
}

func TestTopicValidate(t *testing.T) {
	assert.NoError(t, RoomTopic(1).Validate())
	assert.NoError(t, UserTopic(1).Validate())

	assert.ErrorIs(t, Topic{Kind: "group", ID: 1}.Validate(), ErrInvalidTopic)
	assert.ErrorIs(t, RoomTopic(0).Validate(), ErrInvalidTopic)
	assert.ErrorIs(t, UserTopic(-5).Validate(), ErrInvalidTopic)
}

func TestParseTopic(t *testing.T) {
	topic, err := ParseTopic("room.42")
	require.NoError(t, err)
	assert.Equal(t, RoomTopic(42), topic)

	topic, err = ParseTopic("user.7")
	require.NoError(t, err)
	assert.Equal(t, UserTopic(7), topic)

	for _, raw := range []string{"", "room", "room.", "room.abc", "group.1", "room.0"} {
		_, err := ParseTopic(raw)
		assert.ErrorIs(t, err, ErrInvalidTopic, "input %q", raw)
	}
}
