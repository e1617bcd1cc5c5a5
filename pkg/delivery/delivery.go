package delivery

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/pronet/realtime/pkg/model"
	"github.com/pronet/realtime/pkg/registry"
)

var (
	// ErrNotParticipant rejects a send for a conversation the sender
	// does not belong to. Reported only to origin, never broadcast.
	ErrNotParticipant = errors.New("sender is not a participant of the conversation")

	ErrNotFound = errors.New("conversation not found")
)

// MessageStore is the external persistence collaborator. Creating the
// row is the only step of a send that can fail or block.
type MessageStore interface {
	CreateMessage(ctx context.Context, conversationID int64, senderID, content string, attachments []string) (*model.Message, error)
}

// ConversationStore resolves participants for validation.
type ConversationStore interface {
	GetConversation(ctx context.Context, id int64) (*model.Conversation, error)
}

// UnreadCounter tracks per-conversation unread counts for recipients.
// Bumps are fire-and-forget.
type UnreadCounter interface {
	Increment(ctx context.Context, userID string, conversationID int64) error
}

// Service implements the server half of the message delivery
// protocol: validate, persist, then fan out to every live connection
// of the recipient plus the sender's other devices, and ack the
// origin so the client can swap its optimistic temp id for the
// server-assigned record.
type Service struct {
	registry *registry.Registry
	messages MessageStore
	convs    ConversationStore
	unread   UnreadCounter
}

func NewService(reg *registry.Registry, messages MessageStore, convs ConversationStore, unread UnreadCounter) *Service {
	return &Service{registry: reg, messages: messages, convs: convs, unread: unread}
}

// Send processes one send_message event from origin. Messages within
// a conversation reach a given connection in the order Send calls
// complete; nothing is guaranteed across conversations or restarts.
//
// On persistence failure the origin gets a send_failed carrying the
// temp id so the client can roll the optimistic entry back; the error
// is also returned for logging. Pushes never await acknowledgement.
func (s *Service) Send(ctx context.Context, origin *registry.Connection, p model.SendMessagePayload) (*model.Message, error) {
	conv, err := s.convs.GetConversation(ctx, p.ConversationID)
	if err != nil {
		s.failSend(origin, p.TempID, "conversation lookup failed")
		return nil, fmt.Errorf("failed to load conversation %d: %w", p.ConversationID, err)
	}
	if conv == nil {
		s.failSend(origin, p.TempID, "unknown conversation")
		return nil, ErrNotFound
	}
	if !conv.HasParticipant(origin.UserID) {
		// Rejected without telling anyone else
		s.failSend(origin, p.TempID, "not a participant")
		return nil, ErrNotParticipant
	}

	msg, err := s.messages.CreateMessage(ctx, conv.ID, origin.UserID, p.Content, p.Attachments)
	if err != nil {
		s.failSend(origin, p.TempID, "persistence failed")
		return nil, fmt.Errorf("failed to persist message: %w", err)
	}

	recipientID := conv.Peer(origin.UserID)

	// A recipient with zero connections still got the message
	// persisted; they pick it up on their next history fetch.
	newMsg := model.MustEvent(model.EventNewMessage, model.NewMessagePayload{Message: *msg})
	s.registry.PushToUser(recipientID, newMsg)
	s.registry.PushToOthers(origin.UserID, origin, newMsg)

	origin.Push(model.MustEvent(model.EventMessageAck, model.MessageAckPayload{
		TempID:  p.TempID,
		Message: *msg,
	}))

	if s.unread != nil {
		if err := s.unread.Increment(ctx, recipientID, conv.ID); err != nil {
			log.Printf("Failed to bump unread count for %s: %v", recipientID, err)
		}
	}

	return msg, nil
}

func (s *Service) failSend(origin *registry.Connection, tempID, reason string) {
	origin.Push(model.MustEvent(model.EventSendFailed, model.SendFailedPayload{
		TempID: tempID,
		Reason: reason,
	}))
}
