package service

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/wooyoung-dev/petmeet/internal/domain"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/contracts"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/logging"
	"github.com/wooyoung-dev/petmeet/internal/infrastructure/profanity"
)

func newChatService(broker *fakeBroker, messages *fakeMessageRepo, members *fakeMembers) *ChatService {
	return NewChatService(
		newTestPublisher(broker),
		messages,
		members,
		profanity.NewFilterWithWords([]string{"badword"}),
		logging.NewNopLogger(),
	)
}

func TestSendMessagePublishesToRoomTopic(t *testing.T) {
	broker := &fakeBroker{}
	members := &fakeMembers{members: map[int64][]int64{10: {1, 2}}}
	svc := newChatService(broker, &fakeMessageRepo{}, members)

	messageID, err := svc.SendMessage(context.Background(), 1, 10, SendMessageInput{
		Content:    "hello room",
		SenderName: "mina",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, messageID)

	published := broker.lastPublished()
	assert.Equal(t, domain.RoomTopic(10), published.Topic)

	var envelope contracts.Envelope
	require.NoError(t, json.Unmarshal(published.Body, &envelope))
	ev, err := envelope.DecodeChat()
	require.NoError(t, err)
	assert.Equal(t, messageID, ev.MessageID)
	assert.Equal(t, int64(1), ev.SenderID)
	assert.Equal(t, "hello room", ev.Content)
}

func TestSendMessageRejectsNonMember(t *testing.T) {
	broker := &fakeBroker{}
	members := &fakeMembers{members: map[int64][]int64{10: {2}}}
	svc := newChatService(broker, &fakeMessageRepo{}, members)

	_, err := svc.SendMessage(context.Background(), 1, 10, SendMessageInput{Content: "hi", SenderName: "mina"})
	assert.ErrorIs(t, err, domain.ErrNotRoomMember)
	assert.Zero(t, broker.publishCount(), "nothing must reach the broker for a rejected send")
}

func TestSendMessageMasksProfanity(t *testing.T) {
	broker := &fakeBroker{}
	members := &fakeMembers{members: map[int64][]int64{10: {1}}}
	svc := newChatService(broker, &fakeMessageRepo{}, members)

	_, err := svc.SendMessage(context.Background(), 1, 10, SendMessageInput{
		Content:    "what a badword day",
		SenderName: "mina",
	})
	require.NoError(t, err)

	var envelope contracts.Envelope
	require.NoError(t, json.Unmarshal(broker.lastPublished().Body, &envelope))
	ev, err := envelope.DecodeChat()
	require.NoError(t, err)
	assert.Equal(t, "what a ******* day", ev.Content)
}

func TestSendMessageCarriesLinkPreview(t *testing.T) {
	broker := &fakeBroker{}
	members := &fakeMembers{members: map[int64][]int64{10: {1}}}
	svc := newChatService(broker, &fakeMessageRepo{}, members)

	_, err := svc.SendMessage(context.Background(), 1, 10, SendMessageInput{
		Content:     "look at this",
		ContentType: domain.ContentLink,
		LinkPreview: &domain.LinkPreview{URL: "https://petmeet.dev/meetups/42", Title: "Weekend meetup"},
		SenderName:  "mina",
	})
	require.NoError(t, err)

	var envelope contracts.Envelope
	require.NoError(t, json.Unmarshal(broker.lastPublished().Body, &envelope))
	ev, err := envelope.DecodeChat()
	require.NoError(t, err)
	require.NotNil(t, ev.LinkPreview)
	assert.Equal(t, "https://petmeet.dev/meetups/42", ev.LinkPreview.URL)
	assert.Equal(t, "Weekend meetup", ev.LinkPreview.Title)
}

func TestSendMessageKeepsClientMessageID(t *testing.T) {
	broker := &fakeBroker{}
	members := &fakeMembers{members: map[int64][]int64{10: {1}}}
	svc := newChatService(broker, &fakeMessageRepo{}, members)

	messageID, err := svc.SendMessage(context.Background(), 1, 10, SendMessageInput{
		MessageID:  "0e8d7b1c-3f5a-4e2b-9c6d-1a2b3c4d5e6f",
		Content:    "retry me",
		SenderName: "mina",
	})
	require.NoError(t, err)
	assert.Equal(t, "0e8d7b1c-3f5a-4e2b-9c6d-1a2b3c4d5e6f", messageID)
}

func TestSendMessageRejectsEmptyContent(t *testing.T) {
	members := &fakeMembers{members: map[int64][]int64{10: {1}}}
	svc := newChatService(&fakeBroker{}, &fakeMessageRepo{}, members)

	_, err := svc.SendMessage(context.Background(), 1, 10, SendMessageInput{SenderName: "mina"})
	assert.ErrorIs(t, err, domain.ErrEmptyMessage)
}

func TestSendMessageRejectsTooLongContent(t *testing.T) {
	members := &fakeMembers{members: map[int64][]int64{10: {1}}}
	svc := newChatService(&fakeBroker{}, &fakeMessageRepo{}, members)

	_, err := svc.SendMessage(context.Background(), 1, 10, SendMessageInput{
		Content:    strings.Repeat("a", 5001),
		SenderName: "mina",
	})
	assert.ErrorIs(t, err, domain.ErrMessageTooLong)
}

func TestListRoomMessagesRequiresMembership(t *testing.T) {
	messages := &fakeMessageRepo{byRoom: map[int64][]domain.ChatMessage{
		10: {{ID: "m1", RoomID: 10, Content: "hi"}},
	}}
	members := &fakeMembers{members: map[int64][]int64{10: {1}}}
	svc := newChatService(&fakeBroker{}, messages, members)

	msgs, err := svc.ListRoomMessages(context.Background(), 1, 10, 0, 50)
	require.NoError(t, err)
	assert.Len(t, msgs, 1)

	_, err = svc.ListRoomMessages(context.Background(), 99, 10, 0, 50)
	assert.ErrorIs(t, err, domain.ErrNotRoomMember)
}

func TestListMediaMessagesFiltersText(t *testing.T) {
	messages := &fakeMessageRepo{byRoom: map[int64][]domain.ChatMessage{
		10: {
			{ID: "m1", RoomID: 10, Content: "hi", ContentType: domain.ContentText},
			{ID: "m2", RoomID: 10, ContentType: domain.ContentImage, Attachments: []string{"https://cdn.petmeet.dev/a.jpg"}},
		},
	}}
	members := &fakeMembers{members: map[int64][]int64{10: {1}}}
	svc := newChatService(&fakeBroker{}, messages, members)

	media, err := svc.ListMediaMessages(context.Background(), 1, 10, 0, 50)
	require.NoError(t, err)
	require.Len(t, media, 1)
	assert.Equal(t, "m2", media[0].ID)
}
