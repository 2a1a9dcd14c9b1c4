package domain

// SessionState is the lifecycle state of a client session slot.
type SessionState string

const (
	StateUninitialized SessionState = "uninitialized"
	StateResolving     SessionState = "resolving"
	StateAuthenticated SessionState = "authenticated"
	StateAnonymous     SessionState = "anonymous"
)

// Session is a point-in-time copy of a session slot.
type Session struct {
	State     SessionState `json:"state"`
	Resolving bool         `json:"resolving"`
	SessionID string       `json:"session_id,omitempty"`
	Identity  *Identity    `json:"identity,omitempty"`
	Profile   *Profile     `json:"profile,omitempty"`
}

// Authenticated reports whether the slot holds an identity.
func (s Session) Authenticated() bool {
	return s.Identity != nil
}

// IsAdmin reports whether the resolved profile carries the admin role. A
// session whose profile is still resolving is treated as a regular user.
func (s Session) IsAdmin() bool {
	return s.Profile != nil && s.Profile.Role == RoleAdmin
}

// Role returns the effective role of the session.
func (s Session) Role() Role {
	if s.IsAdmin() {
		return RoleAdmin
	}
	return RoleUser
}
