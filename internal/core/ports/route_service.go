package ports

import (
	"context"

	"github.com/ociferry/ferry-booking/internal/core/domain"
)

// RouteInput carries the editable fields of a route.
type RouteInput struct {
	Origin        string
	Destination   string
	Fare          int64
	DurationLabel string
	Schedule      []string
	Capacity      int
}

// RouteService defines use-case operations for routes.
type RouteService interface {
	List(ctx context.Context) ([]*domain.Route, error)
	Get(ctx context.Context, id string) (*domain.Route, error)
	Create(ctx context.Context, in RouteInput) (*domain.Route, error)
	Update(ctx context.Context, id string, in RouteInput) (*domain.Route, error)
	Delete(ctx context.Context, id string) error
	SeedDefaults(ctx context.Context) (int, error)
}
