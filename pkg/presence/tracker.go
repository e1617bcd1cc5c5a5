package presence

import (
	"context"
	"log"

	"github.com/pronet/realtime/pkg/model"
	"github.com/pronet/realtime/pkg/registry"
)

// ContactLister resolves the social graph. It lives in the platform's
// relational store; the tracker only reads it to scope broadcasts.
type ContactLister interface {
	ListContactsOf(ctx context.Context, userID string) ([]string, error)
}

// Mirror reflects the online set into a shared store (Redis) so
// processes without the in-memory registry can answer presence
// queries. Mirror writes are best effort.
type Mirror interface {
	SetOnline(ctx context.Context, userID string) error
	SetOffline(ctx context.Context, userID string) error
}

// Tracker derives online/offline state from registry membership
// transitions and broadcasts user_status events to the user's contacts
// that are currently online. The original platform broadcast presence
// globally; scoping to contacts is an intentional narrowing.
//
// Transitions are the only signal, never the raw connection count:
// a second tab connecting or one of two tabs closing emits nothing.
// Rapid connect/disconnect (a tab refresh) is not debounced; the
// resulting offline/online flicker is accepted behavior.
type Tracker struct {
	registry *registry.Registry
	contacts ContactLister
	mirror   Mirror
}

func NewTracker(reg *registry.Registry, contacts ContactLister, mirror Mirror) *Tracker {
	return &Tracker{registry: reg, contacts: contacts, mirror: mirror}
}

// Connected registers the connection and reports whether it was an
// offline->online transition; the transition broadcasts online and
// updates the mirror.
func (t *Tracker) Connected(ctx context.Context, conn *registry.Connection) bool {
	first := t.registry.Register(conn)
	if first {
		t.transition(ctx, conn.UserID, model.StatusOnline)
	}
	return first
}

// Disconnected unregisters the connection and reports whether it was
// an online->offline transition. Duplicate or stale disconnects fall
// through silently and never report a transition.
func (t *Tracker) Disconnected(ctx context.Context, conn *registry.Connection) bool {
	last := t.registry.Unregister(conn)
	if last {
		t.transition(ctx, conn.UserID, model.StatusOffline)
	}
	return last
}

// OnlineUsers snapshots the local registry. Always answered from
// memory, never the mirror, so the reply reflects the registry at
// query time.
func (t *Tracker) OnlineUsers() []string {
	return t.registry.OnlineUsers()
}

func (t *Tracker) transition(ctx context.Context, userID string, status model.Status) {
	if t.mirror != nil {
		var err error
		if status == model.StatusOnline {
			err = t.mirror.SetOnline(ctx, userID)
		} else {
			err = t.mirror.SetOffline(ctx, userID)
		}
		if err != nil {
			log.Printf("Failed to mirror presence for %s: %v", userID, err)
		}
	}

	contacts, err := t.contacts.ListContactsOf(ctx, userID)
	if err != nil {
		// Degrade silently: a missed status badge beats an error
		log.Printf("Failed to list contacts of %s: %v", userID, err)
		return
	}

	ev := model.MustEvent(model.EventUserStatus, model.UserStatusPayload{
		UserID: userID,
		Status: status,
	})
	for _, contactID := range contacts {
		t.registry.PushToUser(contactID, ev)
	}
}
