package domain

import (
	"strings"
	"time"
)

// Role is the application-level authorization tag stored on a profile.
type Role string

const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// AdminEmail is the single account that is provisioned with the admin role on
// its first profile resolution.
const AdminEmail = "admin@ociferry.com"

const fallbackDisplayName = "User"

// Profile pairs an identity with a display name and a role.
type Profile struct {
	ID        string    `json:"id" bson:"_id"`
	Name      string    `json:"name" bson:"name"`
	Role      Role      `json:"role" bson:"role"`
	CreatedAt time.Time `json:"created_at" bson:"created_at"`
	UpdatedAt time.Time `json:"updated_at" bson:"updated_at"`

	// Ephemeral marks a profile that could not be persisted and only lives in
	// the current session.
	Ephemeral bool `json:"ephemeral,omitempty" bson:"-"`
}

// ProfileUpdate carries the mutable profile fields. Role is deliberately absent.
type ProfileUpdate struct {
	Name *string
}

// RoleForEmail derives the initial role of an account from its email.
func RoleForEmail(email, adminEmail string) Role {
	if adminEmail != "" && strings.EqualFold(strings.TrimSpace(email), strings.TrimSpace(adminEmail)) {
		return RoleAdmin
	}
	return RoleUser
}

// DisplayNameFor picks the name used when provisioning a profile: registration
// metadata first, then the email local-part.
func DisplayNameFor(identity Identity) string {
	if name := strings.TrimSpace(identity.MetadataName()); name != "" {
		return name
	}
	if local, _, _ := strings.Cut(strings.TrimSpace(identity.Email), "@"); local != "" {
		return local
	}
	return fallbackDisplayName
}

// NewProfile builds the profile provisioned for identity on first login.
func NewProfile(identity Identity, adminEmail string, now time.Time) Profile {
	return Profile{
		ID:        identity.ID,
		Name:      DisplayNameFor(identity),
		Role:      RoleForEmail(identity.Email, adminEmail),
		CreatedAt: now,
		UpdatedAt: now,
	}
}
