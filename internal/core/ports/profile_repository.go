package ports

import (
	"context"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// ProfileRepository persists application profiles keyed by account id.
type ProfileRepository interface {
	// GetByID returns domain.ErrProfileNotFound when the profile is absent.
	GetByID(ctx context.Context, id string) (*domain.Profile, error)
	// Create returns domain.ErrProfileConflict when a profile with the same id exists.
	Create(ctx context.Context, p *domain.Profile) (*domain.Profile, error)
	Update(ctx context.Context, id string, u domain.ProfileUpdate) (*domain.Profile, error)
	CountByRole(ctx context.Context, role domain.Role) (int64, error)
}
