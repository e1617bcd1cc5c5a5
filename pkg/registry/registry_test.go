package registry

import (
	"testing"

	"github.com/pronet/realtime/pkg/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegistry_OnlineTransitions(t *testing.T) {
	r := NewRegistry()

	assert.False(t, r.IsOnline("alice"))

	c1 := NewConnection("alice", 8)
	c2 := NewConnection("alice", 8)

	// First connection is the offline->online transition
	assert.True(t, r.Register(c1))
	assert.True(t, r.IsOnline("alice"))

	// Second device is not a transition
	assert.False(t, r.Register(c2))

	// Closing the first of two is not a transition either
	assert.False(t, r.Unregister(c1))
	assert.True(t, r.IsOnline("alice"))

	// Last disconnect is the online->offline transition
	assert.True(t, r.Unregister(c2))
	assert.False(t, r.IsOnline("alice"))
}

func TestRegistry_DuplicateLifecycleEventsAreNoOps(t *testing.T) {
	r := NewRegistry()
	c1 := NewConnection("alice", 8)
	c2 := NewConnection("alice", 8)

	require.True(t, r.Register(c1))
	require.False(t, r.Register(c2))

	// Double-register never reports a transition
	assert.False(t, r.Register(c1))

	// Removing c1 twice: the second call is a no-op and must not
	// report offline while c2 remains
	assert.False(t, r.Unregister(c1))
	assert.False(t, r.Unregister(c1))
	assert.True(t, r.IsOnline("alice"))

	// Unregistering a connection that was never registered
	stray := NewConnection("alice", 8)
	assert.False(t, r.Unregister(stray))
	assert.True(t, r.IsOnline("alice"))
}

func TestRegistry_PushToUserReachesEveryDevice(t *testing.T) {
	r := NewRegistry()
	c1 := NewConnection("bob", 8)
	c2 := NewConnection("bob", 8)
	r.Register(c1)
	r.Register(c2)

	ev := model.MustEvent(model.EventUserStatus, model.UserStatusPayload{
		UserID: "alice",
		Status: model.StatusOnline,
	})

	assert.Equal(t, 2, r.PushToUser("bob", ev))
	assert.Equal(t, ev, <-c1.Events())
	assert.Equal(t, ev, <-c2.Events())

	// Nobody home: delivery count is zero, no error
	assert.Equal(t, 0, r.PushToUser("carol", ev))
}

func TestRegistry_PushToOthersSkipsOrigin(t *testing.T) {
	r := NewRegistry()
	origin := NewConnection("bob", 8)
	other := NewConnection("bob", 8)
	r.Register(origin)
	r.Register(other)

	ev := model.MustEvent(model.EventUserStatus, model.UserStatusPayload{
		UserID: "bob",
		Status: model.StatusOnline,
	})

	assert.Equal(t, 1, r.PushToOthers("bob", origin, ev))
	assert.Len(t, other.Events(), 1)
	assert.Len(t, origin.Events(), 0)
}

func TestConnection_PushDropsWhenBufferFull(t *testing.T) {
	c := NewConnection("alice", 1)
	ev := model.Event{Type: model.EventUserStatus}

	assert.True(t, c.Push(ev))
	assert.False(t, c.Push(ev), "second push should drop, not block")
}

func TestConnection_PushAfterUnregisterIsDropped(t *testing.T) {
	r := NewRegistry()
	c := NewConnection("alice", 8)
	r.Register(c)
	r.Unregister(c)

	assert.False(t, c.Push(model.Event{Type: model.EventUserStatus}))
}

func TestRegistry_OnlineUsersSnapshot(t *testing.T) {
	r := NewRegistry()
	a := NewConnection("alice", 8)
	b := NewConnection("bob", 8)
	r.Register(a)
	r.Register(b)

	assert.ElementsMatch(t, []string{"alice", "bob"}, r.OnlineUsers())

	// Snapshot reflects the registry at query time, not a cached view
	r.Unregister(b)
	assert.ElementsMatch(t, []string{"alice"}, r.OnlineUsers())

	// Reconnect shows up immediately
	b2 := NewConnection("bob", 8)
	r.Register(b2)
	assert.ElementsMatch(t, []string{"alice", "bob"}, r.OnlineUsers())
}
