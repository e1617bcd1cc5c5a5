package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/gocql/gocql"
	"github.com/pronet/realtime/pkg/db"
	"github.com/pronet/realtime/pkg/model"
)

// Store is the Scylla-backed persistence collaborator for messages,
// conversations, notifications and the contact graph. The realtime
// layer consumes it through the narrow interfaces each component
// declares.
type Store struct {
	session *db.Session
	ids     *snowflake.Node
}

func New(session *db.Session, node *snowflake.Node) *Store {
	return &Store{session: session, ids: node}
}

// CreateMessage persists one message and bumps the conversation's
// last_message_at. The message is immutable from here on.
func (s *Store) CreateMessage(ctx context.Context, conversationID int64, senderID, content string, attachments []string) (*model.Message, error) {
	msg := &model.Message{
		ID:             s.ids.Generate().Int64(),
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        content,
		Attachments:    attachments,
		CreatedAt:      time.Now().UTC(),
	}

	q := `INSERT INTO messages (conversation_id, id, sender_id, content, attachments, created_at) VALUES (?, ?, ?, ?, ?, ?)`
	if err := s.session.Query(q, msg.ConversationID, msg.ID, msg.SenderID, msg.Content, msg.Attachments, msg.CreatedAt).
		WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("failed to insert message: %w", err)
	}

	q = `UPDATE conversations SET last_message_at = ? WHERE id = ?`
	if err := s.session.Query(q, msg.CreatedAt, conversationID).WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("failed to touch conversation %d: %w", conversationID, err)
	}

	return msg, nil
}

// ListMessages returns up to limit messages of a conversation, oldest
// first.
func (s *Store) ListMessages(ctx context.Context, conversationID int64, limit int) ([]model.Message, error) {
	q := `SELECT conversation_id, id, sender_id, content, attachments, created_at FROM messages WHERE conversation_id = ? LIMIT ?`
	iter := s.session.Query(q, conversationID, limit).WithContext(ctx).Iter()

	var messages []model.Message
	var m model.Message
	for iter.Scan(&m.ConversationID, &m.ID, &m.SenderID, &m.Content, &m.Attachments, &m.CreatedAt) {
		messages = append(messages, m)
		m = model.Message{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list messages: %w", err)
	}
	return messages, nil
}

// GetConversation returns nil, nil when the id is unknown; callers
// treat that as a validation failure, not a storage error.
func (s *Store) GetConversation(ctx context.Context, id int64) (*model.Conversation, error) {
	var c model.Conversation
	q := `SELECT id, user_low, user_high, created_at, last_message_at FROM conversations WHERE id = ?`
	err := s.session.Query(q, id).WithContext(ctx).
		Scan(&c.ID, &c.UserLow, &c.UserHigh, &c.CreatedAt, &c.LastMessageAt)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get conversation %d: %w", id, err)
	}
	return &c, nil
}

// FindOrCreateConversation is idempotent per user pair: the pair is
// stored in canonical order and inserted with IF NOT EXISTS, so two
// racing creates converge on one row.
func (s *Store) FindOrCreateConversation(ctx context.Context, userA, userB string) (*model.Conversation, error) {
	low, high := model.CanonicalPair(userA, userB)

	if conv, err := s.conversationByPair(ctx, low, high); err != nil {
		return nil, err
	} else if conv != nil {
		return conv, nil
	}

	conv := &model.Conversation{
		ID:        s.ids.Generate().Int64(),
		UserLow:   low,
		UserHigh:  high,
		CreatedAt: time.Now().UTC(),
	}

	q := `INSERT INTO conversations_by_pair (user_low, user_high, conversation_id) VALUES (?, ?, ?) IF NOT EXISTS`
	applied, err := s.session.Query(q, low, high, conv.ID).WithContext(ctx).MapScanCAS(map[string]interface{}{})
	if err != nil {
		return nil, fmt.Errorf("failed to reserve conversation pair: %w", err)
	}
	if !applied {
		// Lost the race; the winner's row is authoritative
		return s.conversationByPair(ctx, low, high)
	}

	q = `INSERT INTO conversations (id, user_low, user_high, created_at, last_message_at) VALUES (?, ?, ?, ?, ?)`
	if err := s.session.Query(q, conv.ID, low, high, conv.CreatedAt, conv.CreatedAt).WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("failed to insert conversation: %w", err)
	}

	for _, userID := range []string{low, high} {
		q = `INSERT INTO conversations_by_user (user_id, conversation_id) VALUES (?, ?)`
		if err := s.session.Query(q, userID, conv.ID).WithContext(ctx).Exec(); err != nil {
			return nil, fmt.Errorf("failed to index conversation for %s: %w", userID, err)
		}
	}

	return conv, nil
}

func (s *Store) conversationByPair(ctx context.Context, low, high string) (*model.Conversation, error) {
	var id int64
	q := `SELECT conversation_id FROM conversations_by_pair WHERE user_low = ? AND user_high = ?`
	err := s.session.Query(q, low, high).WithContext(ctx).Scan(&id)
	if errors.Is(err, gocql.ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to look up conversation pair: %w", err)
	}
	return s.GetConversation(ctx, id)
}

// ListConversations returns every conversation the user participates
// in.
func (s *Store) ListConversations(ctx context.Context, userID string) ([]model.Conversation, error) {
	q := `SELECT conversation_id FROM conversations_by_user WHERE user_id = ?`
	iter := s.session.Query(q, userID).WithContext(ctx).Iter()

	var ids []int64
	var id int64
	for iter.Scan(&id) {
		ids = append(ids, id)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list conversations of %s: %w", userID, err)
	}

	conversations := make([]model.Conversation, 0, len(ids))
	for _, cid := range ids {
		conv, err := s.GetConversation(ctx, cid)
		if err != nil {
			return nil, err
		}
		if conv != nil {
			conversations = append(conversations, *conv)
		}
	}
	return conversations, nil
}

func (s *Store) CreateNotification(ctx context.Context, recipientID string, typ model.NotificationType, title, body, link string) (*model.Notification, error) {
	n := &model.Notification{
		ID:          s.ids.Generate().Int64(),
		RecipientID: recipientID,
		Type:        typ,
		Title:       title,
		Message:     body,
		Link:        link,
		CreatedAt:   time.Now().UTC(),
	}

	q := `INSERT INTO notifications (recipient_id, id, type, title, message, link, read, created_at) VALUES (?, ?, ?, ?, ?, ?, false, ?)`
	if err := s.session.Query(q, n.RecipientID, n.ID, string(n.Type), n.Title, n.Message, n.Link, n.CreatedAt).
		WithContext(ctx).Exec(); err != nil {
		return nil, fmt.Errorf("failed to insert notification: %w", err)
	}
	return n, nil
}

func (s *Store) ListNotifications(ctx context.Context, recipientID string, limit int) ([]model.Notification, error) {
	q := `SELECT recipient_id, id, type, title, message, link, read, created_at FROM notifications WHERE recipient_id = ? LIMIT ?`
	iter := s.session.Query(q, recipientID, limit).WithContext(ctx).Iter()

	var notifications []model.Notification
	var n model.Notification
	var typ string
	for iter.Scan(&n.RecipientID, &n.ID, &typ, &n.Title, &n.Message, &n.Link, &n.Read, &n.CreatedAt) {
		n.Type = model.NotificationType(typ)
		notifications = append(notifications, n)
		n = model.Notification{}
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list notifications of %s: %w", recipientID, err)
	}
	return notifications, nil
}

// MarkRead flips the read flag. The only mutation a notification ever
// sees; rows are never deleted here.
func (s *Store) MarkRead(ctx context.Context, recipientID string, id int64) error {
	q := `UPDATE notifications SET read = true WHERE recipient_id = ? AND id = ?`
	if err := s.session.Query(q, recipientID, id).WithContext(ctx).Exec(); err != nil {
		return fmt.Errorf("failed to mark notification %d read: %w", id, err)
	}
	return nil
}

// ListContactsOf reads the platform's connection graph. The realtime
// layer never writes it.
func (s *Store) ListContactsOf(ctx context.Context, userID string) ([]string, error) {
	q := `SELECT contact_id FROM contacts WHERE user_id = ?`
	iter := s.session.Query(q, userID).WithContext(ctx).Iter()

	var contacts []string
	var contactID string
	for iter.Scan(&contactID) {
		contacts = append(contacts, contactID)
	}
	if err := iter.Close(); err != nil {
		return nil, fmt.Errorf("failed to list contacts of %s: %w", userID, err)
	}
	return contacts, nil
}
