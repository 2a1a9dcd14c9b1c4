package ports

import (
	"context"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// AccountRepository persists identity store credentials.
type AccountRepository interface {
	// Create returns domain.ErrAccountExists when the email is taken.
	Create(ctx context.Context, a *domain.Account) error
	// FindByEmail returns domain.ErrAccountNotFound when no account matches.
	FindByEmail(ctx context.Context, email string) (*domain.Account, error)
	FindByID(ctx context.Context, id string) (*domain.Account, error)
	// Confirm marks the account holding token as confirmed and clears the token.
	Confirm(ctx context.Context, token string) (*domain.Account, error)
}
