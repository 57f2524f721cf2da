// Package session holds the server's authoritative record of connected
// clients: who is logged in, who is hosting a game and who joined it.
package session

import (
	"net/netip"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wmrmrx/MAC0352-EP2/internal/dependencies/clock"
	"github.com/wmrmrx/MAC0352-EP2/internal/protocol"
)

// Role is a session's participation in a game
type Role int

const (
	RoleIdle Role = iota
	RoleHosting
	RoleJoined
)

func (r Role) String() string {
	switch r {
	case RoleHosting:
		return "hosting"
	case RoleJoined:
		return "joined"
	default:
		return "idle"
	}
}

// Session is the state kept for one connection identity.
// Role is always RoleIdle while Login is empty.
type Session struct {
	ID            uuid.UUID
	Conn          protocol.Connection
	Login         string // empty when logged out
	Role          Role
	ListenerAddr  netip.AddrPort // peer game address, set while hosting
	ConnectedAt   time.Time
	LastHeartbeat time.Time
}

// Table maps connection identities to sessions. Every method is one
// critical section over a single mutex.
type Table struct {
	clock clock.Clock

	mu       sync.Mutex
	sessions map[protocol.Connection]*Session
	users    map[string]protocol.Connection
	hosts    map[string]string // hosting user -> joined user, "" while the slot is free
	joined   map[string]string // joined user -> hosting user
}

// NewTable creates an empty table
func NewTable(c clock.Clock) *Table {
	return &Table{
		clock:    c,
		sessions: make(map[protocol.Connection]*Session),
		users:    make(map[string]protocol.Connection),
		hosts:    make(map[string]string),
		joined:   make(map[string]string),
	}
}

// Insert creates an idle, logged-out session. It returns false if conn is already known.
func (t *Table) Insert(conn protocol.Connection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	if _, ok := t.sessions[conn]; ok {
		return false
	}
	now := t.clock.Now()
	t.sessions[conn] = &Session{
		ID:            uuid.New(),
		Conn:          conn,
		ConnectedAt:   now,
		LastHeartbeat: now,
	}
	return true
}

// Login attaches user to conn. It fails if conn is unknown or already logged
// in, or if user is logged in elsewhere.
func (t *Table) Login(conn protocol.Connection, user string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[conn]
	if !ok || s.Login != "" {
		return false
	}
	if _, taken := t.users[user]; taken {
		return false
	}
	s.Login = user
	t.users[user] = conn
	return true
}

// Logout leaves any game and clears the login. It returns false if conn had no login.
func (t *Table) Logout(conn protocol.Connection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.logout(conn)
}

// Kick takes conn out of its game. A host's partner is sent back to idle;
// a joined user frees the host's slot. It returns false if conn was idle.
func (t *Table) Kick(conn protocol.Connection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.kick(conn)
}

// Remove logs conn out and forgets it
func (t *Table) Remove(conn protocol.Connection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.remove(conn)
}

// CreateGame marks a logged-in idle session as hosting on listenerAddr
func (t *Table) CreateGame(conn protocol.Connection, listenerAddr netip.AddrPort) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[conn]
	if !ok || s.Login == "" || s.Role != RoleIdle {
		return false
	}
	s.Role = RoleHosting
	s.ListenerAddr = listenerAddr
	t.hosts[s.Login] = ""
	return true
}

// JoinGame fills host's free slot with conn's user and returns the host's
// listener address
func (t *Table) JoinGame(conn protocol.Connection, host string) (netip.AddrPort, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[conn]
	if !ok || s.Login == "" || s.Role != RoleIdle || s.Login == host {
		return netip.AddrPort{}, false
	}
	partner, hosting := t.hosts[host]
	if !hosting || partner != "" {
		return netip.AddrPort{}, false
	}
	h := t.sessions[t.users[host]]

	t.hosts[host] = s.Login
	t.joined[s.Login] = host
	s.Role = RoleJoined
	return h.ListenerAddr, true
}

// SetHeartbeat records that conn is alive. Unknown identities are ignored.
func (t *Table) SetHeartbeat(conn protocol.Connection) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[conn]
	if !ok {
		return false
	}
	s.LastHeartbeat = t.clock.Now()
	return true
}

// Reap removes every session whose last heartbeat is older than timeout and
// returns them as they were before removal, ordered by identity
func (t *Table) Reap(timeout time.Duration) []Session {
	t.mu.Lock()
	defer t.mu.Unlock()

	now := t.clock.Now()
	var expired []Session
	for _, s := range t.sessions {
		if now.Sub(s.LastHeartbeat) > timeout {
			expired = append(expired, *s)
		}
	}
	slices.SortFunc(expired, func(a, b Session) int { return a.Conn.Compare(b.Conn) })
	for _, s := range expired {
		t.remove(s.Conn)
	}
	return expired
}

// Get returns a copy of conn's session
func (t *Table) Get(conn protocol.Connection) (Session, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[conn]
	if !ok {
		return Session{}, false
	}
	return *s, true
}

// Username returns the user logged in on conn
func (t *Table) Username(conn protocol.Connection) (string, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()

	s, ok := t.sessions[conn]
	if !ok || s.Login == "" {
		return "", false
	}
	return s.Login, true
}

// Connections returns every known identity, sorted
func (t *Table) Connections() []protocol.Connection {
	t.mu.Lock()
	defer t.mu.Unlock()

	conns := make([]protocol.Connection, 0, len(t.sessions))
	for conn := range t.sessions {
		conns = append(conns, conn)
	}
	slices.SortFunc(conns, protocol.Connection.Compare)
	return conns
}

// Users returns the status of every logged-in user, sorted by name
func (t *Table) Users() []protocol.UserStatus {
	t.mu.Lock()
	defer t.mu.Unlock()

	users := make([]protocol.UserStatus, 0, len(t.users))
	for user, conn := range t.users {
		status := protocol.UserStatus{User: user, State: protocol.UserIdle}
		switch t.sessions[conn].Role {
		case RoleHosting:
			status.State = protocol.UserHosting
			status.Partner = t.hosts[user]
		case RoleJoined:
			status.State = protocol.UserJoined
			status.Partner = t.joined[user]
		}
		users = append(users, status)
	}
	slices.SortFunc(users, func(a, b protocol.UserStatus) int {
		return strings.Compare(a.User, b.User)
	})
	return users
}

// Len returns the number of known identities
func (t *Table) Len() int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.sessions)
}

func (t *Table) kick(conn protocol.Connection) bool {
	s, ok := t.sessions[conn]
	if !ok {
		return false
	}
	switch s.Role {
	case RoleHosting:
		if partner := t.hosts[s.Login]; partner != "" {
			delete(t.joined, partner)
			if pc, ok := t.users[partner]; ok {
				t.sessions[pc].Role = RoleIdle
			}
		}
		delete(t.hosts, s.Login)
		s.ListenerAddr = netip.AddrPort{}
	case RoleJoined:
		if host, ok := t.joined[s.Login]; ok {
			t.hosts[host] = ""
		}
		delete(t.joined, s.Login)
	default:
		return false
	}
	s.Role = RoleIdle
	return true
}

func (t *Table) logout(conn protocol.Connection) bool {
	s, ok := t.sessions[conn]
	if !ok || s.Login == "" {
		return false
	}
	t.kick(conn)
	delete(t.users, s.Login)
	s.Login = ""
	return true
}

func (t *Table) remove(conn protocol.Connection) bool {
	if _, ok := t.sessions[conn]; !ok {
		return false
	}
	t.logout(conn)
	delete(t.sessions, conn)
	return true
}
