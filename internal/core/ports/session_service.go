package ports

import (
	"context"
	"time"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// SignInResult is returned after a successful sign-in.
type SignInResult struct {
	Token     string
	ExpiresAt time.Time
	Session   domain.Session
}

// SessionService resolves client sessions for the transport layer.
type SessionService interface {
	SignUp(ctx context.Context, email, password, name string) (*domain.Identity, error)
	SignIn(ctx context.Context, email, password string) (*SignInResult, error)
	SignOut(ctx context.Context, token string) error
	Refresh(ctx context.Context, token string) (*SignInResult, error)
	ConfirmEmail(ctx context.Context, token string) (*domain.Identity, error)
	// Attach returns the resolved session for token, bootstrapping it on first use.
	Attach(ctx context.Context, token string) (domain.Session, error)
	Rename(ctx context.Context, token, name string) (domain.Session, error)
}
