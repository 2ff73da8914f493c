package realtime

import "sort"

// UserID is the stable identity a connection claims with the setup event.
type UserID string

// ConnID names one live transport session. A user may own several.
type ConnID string

// Registry maps user identities to their open connections.
//
// A user is present iff it owns at least one connection; removing the last
// connection removes the user. Registry does no locking and is owned by the
// Hub goroutine.
type Registry struct {
	byUser map[UserID]map[ConnID]struct{}
	byConn map[ConnID]UserID
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		byUser: make(map[UserID]map[ConnID]struct{}),
		byConn: make(map[ConnID]UserID),
	}
}

// Register adds conn to user's connection set. Registering the same pair twice
// is a no-op. A connection already owned by another user is moved.
func (r *Registry) Register(user UserID, conn ConnID) {
	if prev, ok := r.byConn[conn]; ok {
		if prev == user {
			return
		}
		r.remove(prev, conn)
	}

	conns, ok := r.byUser[user]
	if !ok {
		conns = make(map[ConnID]struct{})
		r.byUser[user] = conns
	}
	conns[conn] = struct{}{}
	r.byConn[conn] = user
}

// Unregister removes conn from whichever user owns it. It reports the owner
// and whether conn was that user's last connection. Unknown connections
// return ("", false).
func (r *Registry) Unregister(conn ConnID) (UserID, bool) {
	user, ok := r.byConn[conn]
	if !ok {
		return "", false
	}
	return user, r.remove(user, conn)
}

func (r *Registry) remove(user UserID, conn ConnID) bool {
	delete(r.byConn, conn)
	conns, ok := r.byUser[user]
	if !ok {
		return false
	}
	delete(conns, conn)
	if len(conns) == 0 {
		delete(r.byUser, user)
		return true
	}
	return false
}

// IsPresent reports whether user has at least one open connection.
func (r *Registry) IsPresent(user UserID) bool {
	_, ok := r.byUser[user]
	return ok
}

// Owner returns the user that registered conn.
func (r *Registry) Owner(conn ConnID) (UserID, bool) {
	user, ok := r.byConn[conn]
	return user, ok
}

// Connections returns the number of open connections for user.
func (r *Registry) Connections(user UserID) int {
	return len(r.byUser[user])
}

// ListPresentUsers returns a sorted snapshot of present users.
func (r *Registry) ListPresentUsers() []UserID {
	users := make([]UserID, 0, len(r.byUser))
	for u := range r.byUser {
		users = append(users, u)
	}
	sort.Slice(users, func(i, j int) bool { return users[i] < users[j] })
	return users
}

// Len returns the number of present users.
func (r *Registry) Len() int {
	return len(r.byUser)
}
