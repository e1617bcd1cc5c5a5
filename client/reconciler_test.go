package main

import (
	"testing"
	"time"

	"github.com/pronet/realtime/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOutbox_ConfirmSwapsTempIDForServerRecord(t *testing.T) {
	outbox := NewOutbox()

	entry := outbox.Add(42, "alice", "Hello")
	require.NotEmpty(t, entry.TempID)
	require.True(t, entry.Pending)

	confirmed := model.Message{
		ID:             7001,
		ConversationID: 42,
		SenderID:       "alice",
		Content:        "Hello",
		CreatedAt:      time.Now(),
	}
	assert.True(t, outbox.Confirm(entry.TempID, confirmed))

	entries := outbox.Entries()
	require.Len(t, entries, 1)
	assert.False(t, entries[0].Pending)
	assert.Equal(t, int64(7001), entries[0].Message.ID)
	assert.Equal(t, 0, outbox.PendingCount())

	// A replayed ack for the same temp id is ignored
	assert.False(t, outbox.Confirm(entry.TempID, confirmed))
}

func TestOutbox_FailRemovesEntryButKeepsDraft(t *testing.T) {
	outbox := NewOutbox()

	entry := outbox.Add(42, "alice", "important thought")
	draft, ok := outbox.Fail(entry.TempID)

	require.True(t, ok)
	assert.Equal(t, "important thought", draft, "content must survive for retry")
	assert.Empty(t, outbox.Entries(), "failed entry leaves the visible list")

	_, ok = outbox.Fail(entry.TempID)
	assert.False(t, ok, "double fail is a no-op")
}

func TestOutbox_MultiplePendingInFlight(t *testing.T) {
	outbox := NewOutbox()

	first := outbox.Add(42, "alice", "one")
	second := outbox.Add(42, "alice", "two")
	third := outbox.Add(42, "alice", "three")
	assert.Equal(t, 3, outbox.PendingCount())

	// Acks can land out of order
	outbox.Confirm(second.TempID, model.Message{ID: 2, Content: "two"})
	outbox.Confirm(first.TempID, model.Message{ID: 1, Content: "one"})
	outbox.Fail(third.TempID)

	entries := outbox.Entries()
	require.Len(t, entries, 2)
	assert.Equal(t, "one", entries[0].Message.Content, "insertion order is preserved")
	assert.Equal(t, "two", entries[1].Message.Content)
	assert.Equal(t, 0, outbox.PendingCount())
}
