package model

import "encoding/json"

type EventType string

const (
	// Client -> server
	EventSendMessage    EventType = "send_message"
	EventTypingStart    EventType = "typing_start"
	EventTypingStop     EventType = "typing_stop"
	EventGetOnlineUsers EventType = "get_online_users"

	// Server -> client
	EventNewMessage      EventType = "new_message"
	EventMessageAck      EventType = "message_ack"
	EventSendFailed      EventType = "send_failed"
	EventUserTyping      EventType = "user_typing"
	EventUserStatus      EventType = "user_status"
	EventOnlineUsersList EventType = "online_users_list"
	EventNewNotification EventType = "new_notification"
	EventError           EventType = "error"
)

// Event is the wire envelope for everything that crosses a websocket,
// in both directions. Data holds the type-specific payload.
type Event struct {
	Type EventType       `json:"type"`
	Data json.RawMessage `json:"data,omitempty"`
}

// NewEvent marshals payload into an Event envelope.
func NewEvent(t EventType, payload any) (Event, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return Event{}, err
	}
	return Event{Type: t, Data: data}, nil
}

// MustEvent is NewEvent for payloads that cannot fail to marshal
// (our own structs). It panics otherwise.
func MustEvent(t EventType, payload any) Event {
	ev, err := NewEvent(t, payload)
	if err != nil {
		panic(err)
	}
	return ev
}

// SendMessagePayload is sent by a client to deliver a chat message.
// TempID is the client's optimistic identifier, echoed back in the ack.
type SendMessagePayload struct {
	ConversationID int64    `json:"conversation_id"`
	RecipientID    string   `json:"recipient_id"`
	TempID         string   `json:"temp_id"`
	Content        string   `json:"content"`
	Attachments    []string `json:"attachments,omitempty"`
}

type TypingPayload struct {
	ConversationID int64  `json:"conversation_id"`
	RecipientID    string `json:"recipient_id"`
}

type NewMessagePayload struct {
	Message Message `json:"message"`
}

type MessageAckPayload struct {
	TempID  string  `json:"temp_id"`
	Message Message `json:"message"`
}

type SendFailedPayload struct {
	TempID string `json:"temp_id"`
	Reason string `json:"reason"`
}

type UserTypingPayload struct {
	ConversationID int64  `json:"conversation_id"`
	UserID         string `json:"user_id"`
	IsTyping       bool   `json:"is_typing"`
}

type UserStatusPayload struct {
	UserID string `json:"user_id"`
	Status Status `json:"status"`
}

type OnlineUsersPayload struct {
	Users []string `json:"users"`
}

type NewNotificationPayload struct {
	Notification Notification `json:"notification"`
}

type ErrorPayload struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
