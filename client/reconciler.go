package main

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pronet/realtime/pkg/model"
)

// Entry is one message in the visible thread. Pending entries carry a
// client-assigned temp id until the server ack swaps in the persisted
// record.
type Entry struct {
	TempID  string
	Message model.Message
	Pending bool
}

// Outbox reconciles optimistic sends with server-confirmed records.
// Add renders immediately, Confirm swaps the temp id for the server
// id, Fail removes the entry and hands the draft back so the user can
// retry. Any number of entries may be in flight at once; the input is
// never blocked on a pending send.
type Outbox struct {
	mu      sync.Mutex
	entries []*Entry
	byTemp  map[string]*Entry
}

func NewOutbox() *Outbox {
	return &Outbox{byTemp: make(map[string]*Entry)}
}

// Add appends an optimistic entry with a fresh temp id and the local
// timestamp.
func (o *Outbox) Add(conversationID int64, senderID, content string) Entry {
	e := &Entry{
		TempID: uuid.NewString(),
		Message: model.Message{
			ConversationID: conversationID,
			SenderID:       senderID,
			Content:        content,
			CreatedAt:      time.Now(),
		},
		Pending: true,
	}

	o.mu.Lock()
	o.entries = append(o.entries, e)
	o.byTemp[e.TempID] = e
	o.mu.Unlock()

	return *e
}

// Confirm replaces the optimistic entry's message with the persisted
// record. Unknown temp ids (an ack replayed after a Fail) are
// ignored.
func (o *Outbox) Confirm(tempID string, msg model.Message) bool {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, ok := o.byTemp[tempID]
	if !ok {
		return false
	}
	e.Message = msg
	e.Pending = false
	delete(o.byTemp, tempID)
	return true
}

// Fail removes the optimistic entry from the visible list and returns
// the draft content so nothing the user typed is silently lost.
func (o *Outbox) Fail(tempID string) (draft string, ok bool) {
	o.mu.Lock()
	defer o.mu.Unlock()

	e, found := o.byTemp[tempID]
	if !found {
		return "", false
	}
	delete(o.byTemp, tempID)
	for i, entry := range o.entries {
		if entry == e {
			o.entries = append(o.entries[:i], o.entries[i+1:]...)
			break
		}
	}
	return e.Message.Content, true
}

// Entries snapshots the visible thread in insertion order.
func (o *Outbox) Entries() []Entry {
	o.mu.Lock()
	defer o.mu.Unlock()

	out := make([]Entry, len(o.entries))
	for i, e := range o.entries {
		out[i] = *e
	}
	return out
}

func (o *Outbox) PendingCount() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return len(o.byTemp)
}
