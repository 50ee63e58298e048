// Package session holds the operator session state and the reducer that
// transitions it on login and logout.
package session

import "sync"

// Role is the operator's access level.
type Role string

const (
	RoleGuest Role = "GUEST"
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// ValidRoles contains all valid role values.
var ValidRoles = []Role{RoleGuest, RoleUser, RoleAdmin}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	for _, v := range ValidRoles {
		if v == r {
			return true
		}
	}
	return false
}

// User is the operator profile shown in the navigation bar.
type User struct {
	Email     string `json:"email,omitempty"`
	FirstName string `json:"first_name,omitempty"`
	LastName  string `json:"last_name,omitempty"`
	Avatar    string `json:"avatar,omitempty"`
	Bio       string `json:"bio,omitempty"`
	Role      Role   `json:"role"`
}

// DisplayName joins first and last name.
func (u User) DisplayName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// State is the whole session state.
type State struct {
	LoggedIn bool `json:"loggedIn"`
	User     User `json:"user"`
}

// Guest is the state of an anonymous visitor.
func Guest() State {
	return State{User: User{Role: RoleGuest}}
}

// IsAdmin reports whether the session carries the admin role.
func (s State) IsAdmin() bool {
	return s.LoggedIn && s.User.Role == RoleAdmin
}

// ActionType names a session transition.
type ActionType string

const (
	ActionLogin  ActionType = "SESSION_LOGIN"
	ActionLogout ActionType = "SESSION_LOGOUT"
)

// Action is dispatched to the reducer. User is only read for logins.
type Action struct {
	Type ActionType
	User User
}

// Login builds the login action for user.
func Login(user User) Action { return Action{Type: ActionLogin, User: user} }

// Logout builds the logout action.
func Logout() Action { return Action{Type: ActionLogout} }

// Reduce is the pure session transition.
// PRE: none
// POST: LOGIN yields a logged-in state carrying a.User; LOGOUT yields a guest
// state with user fields discarded; other actions return s unchanged
func Reduce(s State, a Action) State {
	switch a.Type {
	case ActionLogin:
		u := a.User
		if !u.Role.Valid() || u.Role == RoleGuest {
			u.Role = RoleUser
		}
		return State{LoggedIn: true, User: u}
	case ActionLogout:
		return Guest()
	}
	return s
}

// Store is an injected container for one session's state.
// INVARIANT: state only changes through Dispatch or Restore
type Store struct {
	mu    sync.RWMutex
	state State
}

// NewStore returns a store in the guest state.
func NewStore() *Store {
	return &Store{state: Guest()}
}

// Dispatch applies a and returns the resulting state.
func (s *Store) Dispatch(a Action) State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, a)
	return s.state
}

// Current returns a copy of the state.
func (s *Store) Current() State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state
}

// Restore replaces the state with one loaded from persistence.
func (s *Store) Restore(st State) {
	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
}
