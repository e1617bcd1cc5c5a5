package main

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/pronet/realtime/pkg/delivery"
	"github.com/pronet/realtime/pkg/model"
	"github.com/pronet/realtime/pkg/presence"
	"github.com/pronet/realtime/pkg/registry"
	"github.com/pronet/realtime/pkg/typing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memConvStore struct {
	convs map[int64]*model.Conversation
}

func (m *memConvStore) GetConversation(_ context.Context, id int64) (*model.Conversation, error) {
	return m.convs[id], nil
}

type memMessageStore struct {
	nextID int64
}

func (m *memMessageStore) CreateMessage(_ context.Context, conversationID int64, senderID, content string, attachments []string) (*model.Message, error) {
	m.nextID++
	return &model.Message{
		ID:             m.nextID,
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Attachments:    attachments,
		CreatedAt:      time.Now(),
	}, nil
}

type emptyContacts struct{}

func (emptyContacts) ListContactsOf(context.Context, string) ([]string, error) {
	return nil, nil
}

func newTestServer() *Server {
	reg := registry.NewRegistry()
	convs := &memConvStore{convs: map[int64]*model.Conversation{
		1: {ID: 1, UserLow: "alice", UserHigh: "bob"},
	}}
	tracker := presence.NewTracker(reg, emptyContacts{}, nil)
	typingTracker := typing.NewTracker(reg, time.Minute)
	deliverySvc := delivery.NewService(reg, &memMessageStore{}, convs, nil)
	return NewServer(reg, tracker, typingTracker, deliverySvc, convs, 16)
}

func mustEnvelope(t *testing.T, typ model.EventType, payload any) model.Event {
	t.Helper()
	ev, err := model.NewEvent(typ, payload)
	require.NoError(t, err)
	return ev
}

func TestServer_SendMessageRoundTrip(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	alice := s.connect(ctx, "alice")
	bob := s.connect(ctx, "bob")

	s.handleEvent(ctx, alice, mustEnvelope(t, model.EventSendMessage, model.SendMessagePayload{
		ConversationID: 1,
		RecipientID:    "bob",
		TempID:         "tmp-1",
		Content:        "Hello",
	}))

	ev := <-bob.Events()
	require.Equal(t, model.EventNewMessage, ev.Type)
	var p model.NewMessagePayload
	require.NoError(t, json.Unmarshal(ev.Data, &p))
	assert.Equal(t, "Hello", p.Message.Content)

	ack := <-alice.Events()
	assert.Equal(t, model.EventMessageAck, ack.Type)
}

func TestServer_GetOnlineUsersAnswersOrigin(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	alice := s.connect(ctx, "alice")
	s.connect(ctx, "bob")

	s.handleEvent(ctx, alice, model.Event{Type: model.EventGetOnlineUsers})

	ev := <-alice.Events()
	require.Equal(t, model.EventOnlineUsersList, ev.Type)
	var p model.OnlineUsersPayload
	require.NoError(t, json.Unmarshal(ev.Data, &p))
	assert.ElementsMatch(t, []string{"alice", "bob"}, p.Users)
}

func TestServer_TypingFromNonParticipantIsDropped(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	mallory := s.connect(ctx, "mallory")
	bob := s.connect(ctx, "bob")

	s.handleEvent(ctx, mallory, mustEnvelope(t, model.EventTypingStart, model.TypingPayload{
		ConversationID: 1,
	}))

	assert.Len(t, bob.Events(), 0, "non-participant typing never reaches the peer")
	assert.Len(t, mallory.Events(), 0, "rejected silently")
}

func TestServer_TypingRoutedToPeer(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	alice := s.connect(ctx, "alice")
	bob := s.connect(ctx, "bob")

	s.handleEvent(ctx, alice, mustEnvelope(t, model.EventTypingStart, model.TypingPayload{ConversationID: 1}))
	s.handleEvent(ctx, alice, mustEnvelope(t, model.EventTypingStop, model.TypingPayload{ConversationID: 1}))

	first := <-bob.Events()
	second := <-bob.Events()
	assert.Equal(t, model.EventUserTyping, first.Type)
	assert.Equal(t, model.EventUserTyping, second.Type)
	assert.Len(t, alice.Events(), 0, "typing events do not echo to the sender")
}

func TestServer_LastDisconnectClearsTyping(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	aliceTab1 := s.connect(ctx, "alice")
	aliceTab2 := s.connect(ctx, "alice")
	bob := s.connect(ctx, "bob")

	s.handleEvent(ctx, aliceTab1, mustEnvelope(t, model.EventTypingStart, model.TypingPayload{ConversationID: 1}))
	<-bob.Events() // isTyping:true

	// One of two tabs closing keeps the signal
	s.disconnect(ctx, aliceTab1)
	assert.True(t, s.typing.Active(1, "alice"))

	// Last tab closing clears it and the peer sees the stop
	s.disconnect(ctx, aliceTab2)
	assert.False(t, s.typing.Active(1, "alice"))

	ev := <-bob.Events()
	var p model.UserTypingPayload
	require.NoError(t, json.Unmarshal(ev.Data, &p))
	assert.False(t, p.IsTyping)
}

func TestServer_UnknownEventAnswersWithError(t *testing.T) {
	s := newTestServer()
	ctx := context.Background()

	alice := s.connect(ctx, "alice")
	s.handleEvent(ctx, alice, model.Event{Type: "rewind_time"})

	ev := <-alice.Events()
	assert.Equal(t, model.EventError, ev.Type)
}
