package ports

import (
	"context"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// RouteRepository defines persistence operations for routes.
type RouteRepository interface {
	List(ctx context.Context) ([]*domain.Route, error)
	// FindByID returns domain.ErrRouteNotFound when the route does not exist.
	FindByID(ctx context.Context, id string) (*domain.Route, error)
	Create(ctx context.Context, r *domain.Route) error
	Update(ctx context.Context, r *domain.Route) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int64, error)
}
