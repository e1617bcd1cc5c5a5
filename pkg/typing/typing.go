package typing

import (
	"sync"
	"time"

	"github.com/pronet/realtime/pkg/model"
)

// Pusher delivers user_typing events to a peer's live connections.
// Satisfied by *registry.Registry.
type Pusher interface {
	PushToUser(userID string, ev model.Event) int
}

type signalKey struct {
	conversationID int64
	userID         string
}

type signal struct {
	peerID string
	timer  *time.Timer
}

// Tracker holds the ephemeral per-(conversation, user) typing flags.
// Every signal carries an expiry timer so a startTyping is always
// eventually followed by a stop, even when the client's stop event is
// lost in transit. Nothing here is ever persisted.
type Tracker struct {
	mu      sync.Mutex
	signals map[signalKey]*signal
	ttl     time.Duration
	pusher  Pusher
}

func NewTracker(pusher Pusher, ttl time.Duration) *Tracker {
	return &Tracker{
		signals: make(map[signalKey]*signal),
		ttl:     ttl,
		pusher:  pusher,
	}
}

// Start sets or refreshes the typing signal and tells the peer. Each
// call resets the expiry clock, mirroring the client resetting its
// debounce timer on every keystroke.
func (t *Tracker) Start(conversationID int64, userID, peerID string) {
	key := signalKey{conversationID, userID}

	t.mu.Lock()
	if s, ok := t.signals[key]; ok {
		s.timer.Reset(t.ttl)
	} else {
		t.signals[key] = &signal{
			peerID: peerID,
			timer: time.AfterFunc(t.ttl, func() {
				t.expire(key)
			}),
		}
	}
	t.mu.Unlock()

	t.push(conversationID, userID, peerID, true)
}

// Stop clears the signal and tells the peer. A stop with no active
// signal (already expired, or a duplicate) is a no-op so the peer
// never sees a spurious isTyping:false.
func (t *Tracker) Stop(conversationID int64, userID string) {
	key := signalKey{conversationID, userID}

	t.mu.Lock()
	s, ok := t.signals[key]
	if ok {
		s.timer.Stop()
		delete(t.signals, key)
	}
	t.mu.Unlock()

	if ok {
		t.push(conversationID, userID, s.peerID, false)
	}
}

// ClearUser cancels every signal of a user and sends the peers their
// stop events. Called when the user's last connection drops.
func (t *Tracker) ClearUser(userID string) {
	t.mu.Lock()
	var cleared []signalKey
	var peers []string
	for key, s := range t.signals {
		if key.userID == userID {
			s.timer.Stop()
			cleared = append(cleared, key)
			peers = append(peers, s.peerID)
			delete(t.signals, key)
		}
	}
	t.mu.Unlock()

	for i, key := range cleared {
		t.push(key.conversationID, userID, peers[i], false)
	}
}

// Active reports whether a signal is currently set.
func (t *Tracker) Active(conversationID int64, userID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	_, ok := t.signals[signalKey{conversationID, userID}]
	return ok
}

func (t *Tracker) expire(key signalKey) {
	t.mu.Lock()
	s, ok := t.signals[key]
	if ok {
		delete(t.signals, key)
	}
	t.mu.Unlock()

	if ok {
		t.push(key.conversationID, key.userID, s.peerID, false)
	}
}

func (t *Tracker) push(conversationID int64, userID, peerID string, isTyping bool) {
	ev := model.MustEvent(model.EventUserTyping, model.UserTypingPayload{
		ConversationID: conversationID,
		UserID:         userID,
		IsTyping:       isTyping,
	})
	t.pusher.PushToUser(peerID, ev)
}
