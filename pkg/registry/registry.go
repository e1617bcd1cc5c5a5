package registry

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/pronet/realtime/pkg/model"
)

// Connection is one live device/tab of a user. It is created on
// transport handshake and destroyed on disconnect; never persisted.
// Outbound events go through a buffered channel so fan-out never
// blocks on a slow reader.
type Connection struct {
	ID      string
	UserID  string
	Created time.Time

	send chan model.Event

	closeOnce sync.Once
	closed    chan struct{}
}

func NewConnection(userID string, buffer int) *Connection {
	return &Connection{
		ID:      uuid.NewString(),
		UserID:  userID,
		Created: time.Now(),
		send:    make(chan model.Event, buffer),
		closed:  make(chan struct{}),
	}
}

// Push enqueues an event for the connection without blocking. A full
// buffer drops the event and reports false; the client re-fetches
// recent state on reconnect, so a dropped push is not fatal.
func (c *Connection) Push(ev model.Event) bool {
	select {
	case <-c.closed:
		return false
	default:
	}
	select {
	case c.send <- ev:
		return true
	default:
		return false
	}
}

// Events is consumed by the transport's write loop.
func (c *Connection) Events() <-chan model.Event {
	return c.send
}

// Closed is signalled once the connection leaves the registry.
func (c *Connection) Closed() <-chan struct{} {
	return c.closed
}

func (c *Connection) close() {
	c.closeOnce.Do(func() { close(c.closed) })
}

// Registry maps a user to the set of their live connections. It is the
// only shared mutable state of the realtime layer besides the typing
// table; every mutation holds the mutex.
type Registry struct {
	mu    sync.RWMutex
	conns map[string]map[*Connection]bool // user_id -> connections
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[string]map[*Connection]bool)}
}

// Register adds a connection to its user's set and reports whether it
// was the user's first, i.e. an offline->online transition. Duplicate
// registration of the same connection is a no-op; transports can
// replay lifecycle events.
func (r *Registry) Register(conn *Connection) (first bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set := r.conns[conn.UserID]
	if set == nil {
		set = make(map[*Connection]bool)
		r.conns[conn.UserID] = set
	}
	if set[conn] {
		return false
	}
	set[conn] = true
	return len(set) == 1
}

// Unregister removes a connection and reports whether it was the
// user's last, i.e. an online->offline transition. Removing a
// connection that was never registered (or already removed) is a
// no-op and never reports a transition.
func (r *Registry) Unregister(conn *Connection) (last bool) {
	r.mu.Lock()
	defer r.mu.Unlock()

	set, ok := r.conns[conn.UserID]
	if !ok || !set[conn] {
		return false
	}
	delete(set, conn)
	conn.close()
	if len(set) == 0 {
		delete(r.conns, conn.UserID)
		return true
	}
	return false
}

// Connections returns a snapshot of the user's live connections.
func (r *Registry) Connections(userID string) []*Connection {
	r.mu.RLock()
	defer r.mu.RUnlock()

	set := r.conns[userID]
	out := make([]*Connection, 0, len(set))
	for c := range set {
		out = append(out, c)
	}
	return out
}

func (r *Registry) IsOnline(userID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns[userID]) > 0
}

// OnlineUsers snapshots every user with at least one live connection.
func (r *Registry) OnlineUsers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	users := make([]string, 0, len(r.conns))
	for userID := range r.conns {
		users = append(users, userID)
	}
	return users
}

// PushToUser fans an event out to every live connection of a user and
// returns how many accepted it. Fire-and-forget: no acknowledgement
// is awaited from recipients.
func (r *Registry) PushToUser(userID string, ev model.Event) int {
	delivered := 0
	for _, conn := range r.Connections(userID) {
		if conn.Push(ev) {
			delivered++
		}
	}
	return delivered
}

// PushToOthers is PushToUser excluding one connection, used to bring a
// sender's other devices in sync without echoing to the origin.
func (r *Registry) PushToOthers(userID string, origin *Connection, ev model.Event) int {
	delivered := 0
	for _, conn := range r.Connections(userID) {
		if conn == origin {
			continue
		}
		if conn.Push(ev) {
			delivered++
		}
	}
	return delivered
}
