package presence

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"

	"github.com/pronet/realtime/pkg/model"
	"github.com/pronet/realtime/pkg/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeContacts struct {
	contacts map[string][]string
	err      error
}

func (f *fakeContacts) ListContactsOf(_ context.Context, userID string) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.contacts[userID], nil
}

type fakeMirror struct {
	mu     sync.Mutex
	online map[string]bool
}

func newFakeMirror() *fakeMirror {
	return &fakeMirror{online: make(map[string]bool)}
}

func (f *fakeMirror) SetOnline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.online[userID] = true
	return nil
}

func (f *fakeMirror) SetOffline(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.online, userID)
	return nil
}

func (f *fakeMirror) isOnline(userID string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.online[userID]
}

func drainStatuses(t *testing.T, conn *registry.Connection) []model.UserStatusPayload {
	t.Helper()
	var out []model.UserStatusPayload
	for {
		select {
		case ev := <-conn.Events():
			require.Equal(t, model.EventUserStatus, ev.Type)
			var p model.UserStatusPayload
			require.NoError(t, json.Unmarshal(ev.Data, &p))
			out = append(out, p)
		default:
			return out
		}
	}
}

func TestTracker_BroadcastsTransitionsToOnlineContacts(t *testing.T) {
	reg := registry.NewRegistry()
	contacts := &fakeContacts{contacts: map[string][]string{
		"alice": {"bob", "carol"},
	}}
	mirror := newFakeMirror()
	tracker := NewTracker(reg, contacts, mirror)
	ctx := context.Background()

	// bob is online to observe; carol is not
	bobConn := registry.NewConnection("bob", 8)
	tracker.Connected(ctx, bobConn)

	aliceTab1 := registry.NewConnection("alice", 8)
	aliceTab2 := registry.NewConnection("alice", 8)

	tracker.Connected(ctx, aliceTab1)
	tracker.Connected(ctx, aliceTab2) // second device, no transition

	statuses := drainStatuses(t, bobConn)
	require.Len(t, statuses, 1, "only the first connection is a transition")
	assert.Equal(t, "alice", statuses[0].UserID)
	assert.Equal(t, model.StatusOnline, statuses[0].Status)
	assert.True(t, mirror.isOnline("alice"))

	tracker.Disconnected(ctx, aliceTab1) // one of two, no transition
	tracker.Disconnected(ctx, aliceTab2) // last, offline transition
	tracker.Disconnected(ctx, aliceTab2) // stale duplicate, no-op

	statuses = drainStatuses(t, bobConn)
	require.Len(t, statuses, 1, "offline must be emitted exactly once")
	assert.Equal(t, model.StatusOffline, statuses[0].Status)
	assert.False(t, mirror.isOnline("alice"))
}

func TestTracker_SnapshotReflectsRegistryNotCache(t *testing.T) {
	reg := registry.NewRegistry()
	tracker := NewTracker(reg, &fakeContacts{}, nil)
	ctx := context.Background()

	conn := registry.NewConnection("alice", 8)
	tracker.Connected(ctx, conn)
	assert.ElementsMatch(t, []string{"alice"}, tracker.OnlineUsers())

	// Drop and reconnect: the snapshot follows the registry each time
	tracker.Disconnected(ctx, conn)
	assert.Empty(t, tracker.OnlineUsers())

	reconn := registry.NewConnection("alice", 8)
	tracker.Connected(ctx, reconn)
	assert.ElementsMatch(t, []string{"alice"}, tracker.OnlineUsers())
}

func TestTracker_ContactLookupFailureDegradesSilently(t *testing.T) {
	reg := registry.NewRegistry()
	contacts := &fakeContacts{err: errors.New("graph unavailable")}
	tracker := NewTracker(reg, contacts, nil)
	ctx := context.Background()

	conn := registry.NewConnection("alice", 8)
	tracker.Connected(ctx, conn)

	// No panic, no error surfaced; the user is still tracked online
	assert.ElementsMatch(t, []string{"alice"}, tracker.OnlineUsers())
}
