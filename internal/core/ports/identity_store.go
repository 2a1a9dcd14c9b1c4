package ports

import (
	"context"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// IdentityStore owns credentials and session lifecycle. Failures are returned
// as *domain.AuthError.
type IdentityStore interface {
	SignUp(ctx context.Context, email, password, displayName string) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*domain.AuthSession, error)
	SignOut(ctx context.Context, token string) error
	// CurrentSession returns the session behind token, or nil when there is none.
	CurrentSession(ctx context.Context, token string) (*domain.AuthSession, error)
	// Refresh extends the session behind token and returns it with a new token.
	Refresh(ctx context.Context, token string) (*domain.AuthSession, error)
	// ConfirmEmail marks the account holding the confirmation token as confirmed.
	ConfirmEmail(ctx context.Context, token string) (*domain.Identity, error)
	// Subscribe registers fn for every session change. The returned func unsubscribes.
	Subscribe(fn func(domain.SessionEvent)) (unsubscribe func())
}
