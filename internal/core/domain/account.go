package domain

import "time"

// Identity is an authenticated account as known to the identity store.
type Identity struct {
	ID       string            `json:"id"`
	Email    string            `json:"email"`
	Metadata map[string]string `json:"metadata,omitempty"`
}

// MetadataName returns the display name the account was registered with, if any.
func (i Identity) MetadataName() string {
	if i.Metadata == nil {
		return ""
	}
	return i.Metadata["name"]
}

// AuthSession is a live identity store session.
type AuthSession struct {
	ID        string    `json:"id"`
	Token     string    `json:"-"`
	Identity  Identity  `json:"identity"`
	ExpiresAt time.Time `json:"expires_at"`
}

// SessionEventKind names a session lifecycle change published by the identity store.
type SessionEventKind string

const (
	SessionSignedIn       SessionEventKind = "signed_in"
	SessionSignedOut      SessionEventKind = "signed_out"
	SessionTokenRefreshed SessionEventKind = "token_refreshed"
	SessionExpired        SessionEventKind = "expired"
)

// SessionEvent is delivered to identity store subscribers. Session is nil when
// the event ends the session.
type SessionEvent struct {
	Kind      SessionEventKind `json:"kind"`
	SessionID string           `json:"session_id"`
	Session   *AuthSession     `json:"session,omitempty"`
	At        time.Time        `json:"at"`
}

// Ends reports whether the event tears the session down.
func (e SessionEvent) Ends() bool {
	return e.Session == nil
}

// Account is the credential record held by the identity store.
type Account struct {
	ID                string            `bson:"_id"`
	Email             string            `bson:"email"`
	PasswordHash      string            `bson:"password_hash"`
	Metadata          map[string]string `bson:"metadata,omitempty"`
	Confirmed         bool              `bson:"confirmed"`
	ConfirmationToken string            `bson:"confirmation_token,omitempty"`
	CreatedAt         time.Time         `bson:"created_at"`
	UpdatedAt         time.Time         `bson:"updated_at"`
}

// Identity returns the public view of the account.
func (a Account) Identity() Identity {
	return Identity{ID: a.ID, Email: a.Email, Metadata: a.Metadata}
}
