package model

import "time"

type Status string

const (
	StatusOnline  Status = "online"
	StatusOffline Status = "offline"
)

// Message is a persisted chat message. Immutable once created; the
// delivery layer never mutates one after the store returns it.
type Message struct {
	ID             int64     `json:"id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	Attachments    []string  `json:"attachments,omitempty"`
	CreatedAt      time.Time `json:"created_at"`
}

// Conversation is a one-to-one thread. Participants are stored in
// canonical order (UserLow < UserHigh) so find-or-create by pair is
// idempotent.
type Conversation struct {
	ID            int64     `json:"id"`
	UserLow       string    `json:"user_low"`
	UserHigh      string    `json:"user_high"`
	CreatedAt     time.Time `json:"created_at"`
	LastMessageAt time.Time `json:"last_message_at"`
}

// HasParticipant reports whether userID belongs to the conversation.
func (c *Conversation) HasParticipant(userID string) bool {
	return c.UserLow == userID || c.UserHigh == userID
}

// Peer returns the other participant, or "" if userID is not one.
func (c *Conversation) Peer(userID string) string {
	switch userID {
	case c.UserLow:
		return c.UserHigh
	case c.UserHigh:
		return c.UserLow
	}
	return ""
}

// CanonicalPair orders two user ids so (a,b) and (b,a) address the
// same conversation row.
func CanonicalPair(a, b string) (low, high string) {
	if a > b {
		a, b = b, a
	}
	return a, b
}

type NotificationType string

const (
	NotificationPostLiked           NotificationType = "post_liked"
	NotificationPostCommented       NotificationType = "post_commented"
	NotificationConnectionRequested NotificationType = "connection_requested"
	NotificationNewsletterPublished NotificationType = "newsletter_published"
)

type Notification struct {
	ID          int64            `json:"id"`
	RecipientID string           `json:"recipient_id"`
	Type        NotificationType `json:"type"`
	Title       string           `json:"title"`
	Message     string           `json:"message"`
	Link        string           `json:"link,omitempty"`
	Read        bool             `json:"read"`
	CreatedAt   time.Time        `json:"created_at"`
}

// DomainEvent is what the platform's CRUD backend publishes to Kafka
// when something notification-worthy happens. Recipients may name one
// user (a like, a comment) or many (a newsletter edition).
type DomainEvent struct {
	Type       NotificationType `json:"type"`
	ActorID    string           `json:"actor_id"`
	ActorName  string           `json:"actor_name"`
	Recipients []string         `json:"recipients"`
	Subject    string           `json:"subject"`
	Link       string           `json:"link,omitempty"`
	OccurredAt time.Time        `json:"occurred_at"`
}
